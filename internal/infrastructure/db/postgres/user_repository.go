package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// uniqueViolation is the SQLSTATE Postgres reports for a unique constraint.
const uniqueViolation = "23505"

const (
	queryFindByEmail = `SELECT id, email, password_hash, role, created_at FROM users WHERE email = $1 LIMIT 1`
	queryInsertUser  = `INSERT INTO users (email, password_hash, role, created_at) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
)

// UserRepository is the credential store. Email uniqueness is enforced by
// the users table, not by a read before the insert.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, queryFindByEmail, email).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}

	created := *user
	created.Role = role

	err := r.db.QueryRowContext(ctx, queryInsertUser,
		user.Email, user.PasswordHash, role, user.CreatedAt,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}
