package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *UserRepository) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock, NewUserRepository(db)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at"}).
			AddRow(int64(3), "a@x.com", "$2a$04$hash", "admin", created)
		mock.ExpectQuery(queryFindByEmail).WithArgs("a@x.com").WillReturnRows(rows)

		u, err := repo.FindByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(3), u.ID)
		assert.Equal(t, domain.RoleAdmin, u.Role)
		assert.Equal(t, "$2a$04$hash", u.PasswordHash)
		assert.True(t, created.Equal(u.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(queryFindByEmail).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

		u, err := repo.FindByEmail(context.Background(), "ghost@x.com")
		assert.Nil(t, u)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery(queryFindByEmail).WithArgs("a@x.com").WillReturnError(errors.New("conn reset"))

		_, err := repo.FindByEmail(context.Background(), "a@x.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrUserNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	t.Run("assigns id", func(t *testing.T) {
		mock.ExpectQuery(queryInsertUser).
			WithArgs("a@x.com", "digest", domain.RoleUser, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))

		u, err := repo.Create(context.Background(), &domain.User{Email: "a@x.com", PasswordHash: "digest"})
		require.NoError(t, err)
		assert.Equal(t, int64(11), u.ID)
		assert.Equal(t, domain.RoleUser, u.Role)
		assert.True(t, now.Equal(u.CreatedAt))
	})

	t.Run("unique violation maps to ErrUserExists", func(t *testing.T) {
		mock.ExpectQuery(queryInsertUser).
			WithArgs("a@x.com", "digest", domain.RoleAdmin, sqlmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := repo.Create(context.Background(), &domain.User{Email: "a@x.com", PasswordHash: "digest", Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, domain.ErrUserExists)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		mock.ExpectQuery(queryInsertUser).
			WithArgs("b@x.com", "digest", domain.RoleUser, sqlmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "53300"})

		_, err := repo.Create(context.Background(), &domain.User{Email: "b@x.com", PasswordHash: "digest"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrUserExists)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock, _ := setupMockDB(t)

	mock.ExpectExec(schemaUsers).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureSchema(context.Background(), db))

	mock.ExpectExec(schemaUsers).WillReturnError(errors.New("permission denied"))
	assert.Error(t, EnsureSchema(context.Background(), db))

	assert.NoError(t, mock.ExpectationsWereMet())
}
