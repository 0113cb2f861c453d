package ports

import (
	"context"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// RegisterInput carries the public sign-up fields. Role is intentionally absent.
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// TokenState is the outcome class of a token validation.
type TokenState int

const (
	TokenInvalid TokenState = iota
	TokenValid
	// TokenExpiredRefreshed: signature good, expired, user still resolves; a
	// fresh token is attached.
	TokenExpiredRefreshed
	// TokenExpiredUnresolved: signature good, expired, user could not be loaded.
	TokenExpiredUnresolved
)

func (s TokenState) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpiredRefreshed:
		return "expired_refreshed"
	case TokenExpiredUnresolved:
		return "expired_unresolved"
	default:
		return "invalid"
	}
}

// TokenValidation is the tri-state result of ValidateToken.
type TokenValidation struct {
	State    TokenState
	User     *domain.User
	NewToken string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	ValidateToken(ctx context.Context, token string) TokenValidation
	EnsureAdmin(ctx context.Context) error
}

// LoginLimiter throttles repeated failed logins per identifier.
type LoginLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	Fail(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}
