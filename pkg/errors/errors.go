package messenger_errors

import (
	"errors"
)

// Domain outcomes. These are expected results handed back to the session layer.
var (
	ErrDuplicateLogin      = errors.New("login already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnknownUser         = errors.New("unknown user")
	ErrDuplicateMembership = errors.New("already a member")
	ErrNotAMember          = errors.New("not a member")
	ErrNotFound            = errors.New("not found")
	ErrNotAuthor           = errors.New("not the author")
	ErrLastMemberRemoval   = errors.New("cannot remove the last member")
	ErrInvalidInput        = errors.New("invalid input")
	ErrForbidden           = errors.New("forbidden")
	ErrRateLimited         = errors.New("rate limited")
)

// Infrastructure failures: fatal to the operation, not to the process.
var (
	ErrConnection = errors.New("database connection error")
	ErrStatement  = errors.New("database statement error")
)

// IsInfrastructure reports whether err came from the data-access layer rather than
// from a domain rule.
func IsInfrastructure(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrStatement)
}

// Code returns a stable machine-readable name for err's kind.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateLogin):
		return "DUPLICATE_LOGIN"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrUnknownUser):
		return "UNKNOWN_USER"
	case errors.Is(err, ErrDuplicateMembership):
		return "DUPLICATE_MEMBERSHIP"
	case errors.Is(err, ErrNotAMember):
		return "NOT_A_MEMBER"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrNotAuthor):
		return "NOT_AUTHOR"
	case errors.Is(err, ErrLastMemberRemoval):
		return "LAST_MEMBER_REMOVAL"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrConnection):
		return "CONNECTION_ERROR"
	case errors.Is(err, ErrStatement):
		return "STATEMENT_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
