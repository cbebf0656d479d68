package repository

import (
	"context"
	"database/sql"
	"errors"

	"article-platform/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, login, email, password_hash, created_at`

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Login, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByLogin returns the user with the given login, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE login = $1`, login)
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByLoginOrEmail returns the user whose login or email matches, or nil if not found.
func (r *PostgresRepository) GetByLoginOrEmail(ctx context.Context, loginOrEmail string) (*domain.User, error) {
	return r.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE login = $1 OR email = $1`,
		loginOrEmail)
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, login, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Login, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}
