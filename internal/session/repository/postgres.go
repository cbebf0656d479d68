package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"article-platform/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, device_id, device_name, ip, last_active_at, refresh_issued_at, refresh_expires_at`

// GetByDeviceAndIssuedAt returns the session whose device and current refresh
// issued-at match, or nil if no such session exists.
func (r *PostgresRepository) GetByDeviceAndIssuedAt(ctx context.Context, deviceID string, issuedAt time.Time) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE device_id = $1 AND refresh_issued_at = $2`,
		deviceID, issuedAt).
		Scan(&s.ID, &s.UserID, &s.DeviceID, &s.DeviceName, &s.IP, &s.LastActiveAt, &s.RefreshIssuedAt, &s.RefreshExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Create persists the session. The session must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, device_id, device_name, ip, last_active_at, refresh_issued_at, refresh_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, s.DeviceID, s.DeviceName, s.IP, s.LastActiveAt, s.RefreshIssuedAt, s.RefreshExpiresAt)
	return err
}

// Rotate conditionally replaces the session's refresh token metadata. The
// WHERE clause on the previous issued-at makes rotation atomic: of two
// concurrent refreshes with the same token, only one can match the row.
func (r *PostgresRepository) Rotate(ctx context.Context, userID, deviceID string, prevIssuedAt time.Time, s *domain.Session) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET ip = $1, device_name = $2, last_active_at = $3, refresh_issued_at = $4, refresh_expires_at = $5
		 WHERE user_id = $6 AND device_id = $7 AND refresh_issued_at = $8`,
		s.IP, s.DeviceName, s.LastActiveAt, s.RefreshIssuedAt, s.RefreshExpiresAt,
		userID, deviceID, prevIssuedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the session matching user, device and current refresh issued-at.
func (r *PostgresRepository) Delete(ctx context.Context, userID, deviceID string, issuedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND device_id = $2 AND refresh_issued_at = $3`,
		userID, deviceID, issuedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
