package ports

import (
	"context"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has exactly this email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create assigns the id and returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
