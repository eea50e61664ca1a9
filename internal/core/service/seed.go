package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
)

// EnsureAdmin creates an admin account for email unless one with that email
// already exists. It is safe to call on every start.
func EnsureAdmin(ctx context.Context, repo ports.UserRepository, hasher ports.PasswordHasher, email, password string, logger zerolog.Logger) error {
	if email == "" || password == "" {
		logger.Warn().Msg("admin seed skipped: no credentials configured")
		return nil
	}

	_, err := repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("admin password: %w", err)
	}

	user, err := repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrUserExists) {
		// another instance won the race
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info().Int64("user_id", user.ID).Msg("default admin created")
	return nil
}
