package repository

import (
	"context"

	"messenger/internal/domain/user"
	messenger_errors "messenger/pkg/errors"
)

type PostgresListRepository struct {
	db DBTX
}

func NewListRepository(db DBTX) ListRepository {
	return &PostgresListRepository{db: db}
}

func (r *PostgresListRepository) CreateList(ctx context.Context, kind user.ListKind) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
        INSERT INTO user_list (list_type)
        VALUES ($1)
        RETURNING list_id
    `, string(kind)).Scan(&id)
	if err != nil {
		return 0, wrapDBError(err, "create list")
	}
	return id, nil
}

func (r *PostgresListRepository) DeleteList(ctx context.Context, listID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_list WHERE list_id = $1`, listID)
	return wrapDBError(err, "delete list")
}

func (r *PostgresListRepository) AddMember(ctx context.Context, listID int64, member string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO user_list_contains (list_id, list_member)
        VALUES ($1,$2)
    `, listID, member)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return messenger_errors.ErrDuplicateMembership
		case isForeignKeyViolation(err):
			return messenger_errors.ErrUnknownUser
		}
		return wrapDBError(err, "add list member")
	}
	return nil
}

func (r *PostgresListRepository) RemoveMember(ctx context.Context, listID int64, member string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM user_list_contains
        WHERE list_id = $1 AND list_member = $2
    `, listID, member)
	if err != nil {
		return false, wrapDBError(err, "remove list member")
	}
	n, err := rowsAffected(res, "remove list member")
	return n > 0, err
}

func (r *PostgresListRepository) Members(ctx context.Context, listID int64) ([]user.ListMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT list_id, list_member, added_at
        FROM user_list_contains
        WHERE list_id = $1
        ORDER BY added_at ASC, list_member ASC
    `, listID)
	if err != nil {
		return nil, wrapDBError(err, "list members")
	}
	defer rows.Close()

	var members []user.ListMembership
	for rows.Next() {
		var m user.ListMembership
		if err := rows.Scan(&m.ListID, &m.Member, &m.AddedAt); err != nil {
			return nil, wrapDBError(err, "list members")
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "list members")
	}
	return members, nil
}

func (r *PostgresListRepository) IsMember(ctx context.Context, listID int64, member string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
        SELECT EXISTS (SELECT 1 FROM user_list_contains WHERE list_id = $1 AND list_member = $2)
    `, listID, member).Scan(&exists)
	if err != nil {
		return false, wrapDBError(err, "is list member")
	}
	return exists, nil
}

func (r *PostgresListRepository) DeleteMembersOfList(ctx context.Context, listID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_list_contains WHERE list_id = $1`, listID)
	return wrapDBError(err, "clear list")
}

func (r *PostgresListRepository) DeleteMemberships(ctx context.Context, member string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_list_contains WHERE list_member = $1`, member)
	return wrapDBError(err, "delete list memberships")
}
