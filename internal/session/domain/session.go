package domain

import "time"

// Session represents a refresh-token session tied to a device.
// RefreshIssuedAt identifies the currently valid refresh token for the
// device: a presented token whose issued-at no longer matches has been
// rotated out or revoked.
type Session struct {
	ID               string
	UserID           string
	DeviceID         string
	DeviceName       string
	IP               string
	LastActiveAt     time.Time
	RefreshIssuedAt  time.Time
	RefreshExpiresAt time.Time
}
