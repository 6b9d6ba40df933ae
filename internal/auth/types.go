package auth

import (
	"context"
	"time"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/readers"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type RegisterResponse struct {
	Reader models.Reader `json:"reader"`
	TokenResponse
}

// Accounts is the part of the reader directory that owns credentials.
type Accounts interface {
	Register(ctx context.Context, in readers.RegisterInput) (models.Reader, error)
	Authenticate(ctx context.Context, email, password string) (models.Reader, error)
}

// TokenIssuer signs access tokens. *jwtutil.Signer satisfies it.
type TokenIssuer interface {
	SignAccess(readerID int64, roles []string) (string, time.Time, error)
}
