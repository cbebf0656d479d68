package repository

import (
	"context"

	"article-platform/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByLoginOrEmail resolves the credential presented at login, which may
	// be either the login or the email address.
	GetByLoginOrEmail(ctx context.Context, loginOrEmail string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
