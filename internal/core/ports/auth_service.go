package ports

import (
	"context"
	"time"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// PasswordHasher hashes and checks passwords. Verify never errors: a
// malformed digest is just a mismatch.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenCodec signs and verifies self-contained tokens.
type TokenCodec interface {
	Encode(subject, role string, kind domain.TokenKind, ttl time.Duration) (string, error)
	Decode(token string) (domain.Claims, error)
	DecodeKind(token string, kind domain.TokenKind) (domain.Claims, error)
}

type AuthService interface {
	Register(ctx context.Context, creds domain.Credentials) (*domain.TokenPair, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}
