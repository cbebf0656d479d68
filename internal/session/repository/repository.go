package repository

import (
	"context"
	"time"

	"article-platform/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByDeviceAndIssuedAt(ctx context.Context, deviceID string, issuedAt time.Time) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Rotate replaces the session's refresh token metadata, but only if the
	// stored issued-at still equals prevIssuedAt. It reports whether a row
	// was updated; false means the token was already rotated or revoked.
	Rotate(ctx context.Context, userID, deviceID string, prevIssuedAt time.Time, s *domain.Session) (bool, error)
	// Delete removes the session identified by user, device and the current
	// refresh issued-at. It reports whether a row was deleted.
	Delete(ctx context.Context, userID, deviceID string, issuedAt time.Time) (bool, error)
}
