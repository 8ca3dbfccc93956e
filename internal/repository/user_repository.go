package repository

import (
	"context"
	"database/sql"
	"errors"

	"messenger/internal/domain/user"
	messenger_errors "messenger/pkg/errors"
)

type PostgresUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO usr (login, password, phone_num, status, block_list, contact_list)
        VALUES ($1,$2,$3,$4,$5,$6)
    `,
		u.Login,
		u.PasswordHash,
		u.Phone,
		u.Status,
		u.BlockList,
		u.ContactList,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return messenger_errors.ErrDuplicateLogin
		}
		return wrapDBError(err, "create user")
	}
	return nil
}

func (r *PostgresUserRepository) GetByLogin(ctx context.Context, login string) (user.User, error) {
	var u user.User
	err := r.db.QueryRowContext(ctx, `
        SELECT login, password, phone_num, status, block_list, contact_list
        FROM usr
        WHERE login = $1
    `, login).Scan(
		&u.Login,
		&u.PasswordHash,
		&u.Phone,
		&u.Status,
		&u.BlockList,
		&u.ContactList,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, messenger_errors.ErrNotFound
		}
		return user.User{}, wrapDBError(err, "get user")
	}
	return u, nil
}

func (r *PostgresUserRepository) Exists(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM usr WHERE login = $1)`, login).Scan(&exists)
	if err != nil {
		return false, wrapDBError(err, "user exists")
	}
	return exists, nil
}

func (r *PostgresUserRepository) ExistingLogins(ctx context.Context, logins []string) (map[string]bool, error) {
	found := make(map[string]bool, len(logins))
	if len(logins) == 0 {
		return found, nil
	}
	args := make([]interface{}, len(logins))
	for i, l := range logins {
		args[i] = l
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT login FROM usr WHERE login IN (`+buildPlaceholders(1, len(logins))+`)`,
		args...,
	)
	if err != nil {
		return nil, wrapDBError(err, "existing logins")
	}
	defer rows.Close()

	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, wrapDBError(err, "existing logins")
		}
		found[login] = true
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "existing logins")
	}
	return found, nil
}

func (r *PostgresUserRepository) UpdateStatus(ctx context.Context, login, status string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE usr
        SET status = NULLIF($1, '')
        WHERE login = $2
    `, status, login)
	if err != nil {
		return wrapDBError(err, "update status")
	}
	n, err := rowsAffected(res, "update status")
	if err != nil {
		return err
	}
	if n == 0 {
		return messenger_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, login string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM usr WHERE login = $1`, login)
	if err != nil {
		return wrapDBError(err, "delete user")
	}
	n, err := rowsAffected(res, "delete user")
	if err != nil {
		return err
	}
	if n == 0 {
		return messenger_errors.ErrNotFound
	}
	return nil
}
