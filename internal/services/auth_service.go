package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"messenger/config"
	"messenger/internal/domain/user"
	"messenger/internal/repository"
	messenger_errors "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes; longer passwords are rejected instead.
const maxPasswordBytes = 72

const maxPhoneLength = 16

// LoginLimiter throttles authentication attempts per login.
type LoginLimiter interface {
	Allow(ctx context.Context, login string) (bool, error)
	Reset(ctx context.Context, login string) error
}

// NoopLimiter allows every attempt.
type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoopLimiter) Reset(context.Context, string) error         { return nil }

type AuthService struct {
	store     repository.Store
	limiter   LoginLimiter
	jwtSecret []byte
	accessTTL time.Duration
	logger    *logger.Logger
}

func NewAuthService(store repository.Store, limiter LoginLimiter, cfg *config.Config) *AuthService {
	if limiter == nil {
		limiter = NoopLimiter{}
	}
	return &AuthService{
		store:     store,
		limiter:   limiter,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
		logger:    logger.GetGlobalLogger(),
	}
}

// WithLogger sets where side failures that do not fail the call are reported.
func (s *AuthService) WithLogger(l *logger.Logger) *AuthService {
	s.logger = l
	return s
}

type RegisterInput struct {
	Login    string
	Password string
	Phone    string
}

type AccessClaims struct {
	Login     string `json:"login"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   string    `json:"session_id"`
}

// Register creates the user's block list, contact list and user row in one
// transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	if err := validateRegister(in); err != nil {
		return user.User{}, err
	}

	exists, err := s.store.Users().Exists(ctx, in.Login)
	if err != nil {
		return user.User{}, err
	}
	if exists {
		return user.User{}, messenger_errors.ErrDuplicateLogin
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return user.User{}, err
	}

	newUser := user.User{
		Login:        in.Login,
		PasswordHash: hash,
		Phone:        toNullString(in.Phone),
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		blockID, err := tx.Lists().CreateList(ctx, user.ListBlock)
		if err != nil {
			return err
		}
		contactID, err := tx.Lists().CreateList(ctx, user.ListContact)
		if err != nil {
			return err
		}
		newUser.BlockList = blockID
		newUser.ContactList = contactID
		return tx.Users().Create(ctx, &newUser)
	})
	if err != nil {
		return user.User{}, err
	}
	return newUser, nil
}

// Authenticate returns the login when the password matches. Unknown logins and
// wrong passwords are indistinguishable.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (string, error) {
	if login == "" || password == "" {
		return "", messenger_errors.ErrInvalidInput
	}

	allowed, err := s.limiter.Allow(ctx, login)
	if err != nil {
		return "", fmt.Errorf("check login limit: %w: %w", messenger_errors.ErrConnection, err)
	}
	if !allowed {
		return "", messenger_errors.ErrRateLimited
	}

	u, err := s.store.Users().GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, messenger_errors.ErrNotFound) {
			_ = comparePassword(string(dummyHash()), password)
			return "", messenger_errors.ErrInvalidCredentials
		}
		return "", err
	}

	if err := comparePassword(u.PasswordHash, password); err != nil {
		return "", messenger_errors.ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, login); err != nil && s.logger != nil {
		s.logger.Warn(ctx, "reset login limit failed", zap.String("login", login), zap.Error(err))
	}
	return u.Login, nil
}

func (s *AuthService) IssueToken(login string) (Token, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)
	sessionID := uuid.NewString()

	claims := AccessClaims{
		Login:     login,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresAt: expiresAt, SessionID: sessionID}, nil
}

func (s *AuthService) ParseToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, messenger_errors.ErrInvalidCredentials
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, messenger_errors.ErrInvalidCredentials
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, messenger_errors.ErrInvalidCredentials
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid || claims.Login == "" {
		return AccessClaims{}, messenger_errors.ErrInvalidCredentials
	}
	return *claims, nil
}

func validateRegister(in RegisterInput) error {
	login := strings.TrimSpace(in.Login)
	if login == "" || login != in.Login || len(login) > user.MaxLoginLength {
		return messenger_errors.ErrInvalidInput
	}
	if in.Password == "" || len(in.Password) > maxPasswordBytes {
		return messenger_errors.ErrInvalidInput
	}
	if len(in.Phone) > maxPhoneLength {
		return messenger_errors.ErrInvalidInput
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("messenger-unknown-login"), bcrypt.DefaultCost)
	return hash
})

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, messenger_errors.ErrInvalidInput):
		return 400
	case errors.Is(err, messenger_errors.ErrInvalidCredentials):
		return 401
	case errors.Is(err, messenger_errors.ErrForbidden),
		errors.Is(err, messenger_errors.ErrNotAMember),
		errors.Is(err, messenger_errors.ErrNotAuthor):
		return 403
	case errors.Is(err, messenger_errors.ErrNotFound):
		return 404
	case errors.Is(err, messenger_errors.ErrDuplicateLogin),
		errors.Is(err, messenger_errors.ErrDuplicateMembership),
		errors.Is(err, messenger_errors.ErrLastMemberRemoval):
		return 409
	case errors.Is(err, messenger_errors.ErrUnknownUser):
		return 422
	case errors.Is(err, messenger_errors.ErrRateLimited):
		return 429
	case errors.Is(err, messenger_errors.ErrConnection):
		return 503
	default:
		return 500
	}
}

type ctxKey string

var loginKey ctxKey = "login"
var sessionIDKey ctxKey = "session_id"

func WithLoginContext(ctx context.Context, login, sessionID string) context.Context {
	ctx = context.WithValue(ctx, loginKey, login)
	if sessionID != "" {
		ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	}
	return ctx
}

func LoginFromContext(ctx context.Context) (string, bool) {
	login, ok := ctx.Value(loginKey).(string)
	return login, ok && login != ""
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	return sessionID, ok
}
