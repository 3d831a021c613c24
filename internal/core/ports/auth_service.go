package ports

import (
	"context"
	"time"

	"github.com/pavingco/driveway-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	FirstName string
	LastName  string
	Address   string
	Phone     string
	Email     string
	Password  string

	// PaymentDescriptor is optional at sign-up.
	PaymentDescriptor string
}

// Session is the identity resolved from a bearer token.
type Session struct {
	Actor     domain.Actor
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenRevoker tracks tokens invalidated by logout until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Client, error)
	Login(ctx context.Context, email, password string) (string, *domain.Client, error)
	Authenticate(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, session *Session) error
}
