package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is returned when a token is malformed or its signature fails.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is well-formed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims holds JWT claims for the access token (user id only).
type AccessClaims struct {
	jwt.RegisteredClaims
}

// RefreshClaims holds JWT claims for the refresh token. DeviceID together with
// IssuedAt addresses the session row the token belongs to.
type RefreshClaims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"deviceId"`
}

// RefreshInfo is the decoded content of a refresh token.
type RefreshInfo struct {
	UserID   string
	DeviceID string
	// IssuedAt is the token's iat at second resolution; it is the join key
	// against the session store.
	IssuedAt time.Time
}

// TokenProvider issues and validates HS256 access and refresh tokens signed
// with a single shared secret. It holds no other state; the secret is injected,
// never read from process-wide globals.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with secret.
// accessTTL and refreshTTL bound the lifetimes of the respective tokens.
func NewTokenProvider(secret []byte, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess issues a short-lived access JWT carrying only the user id.
func (p *TokenProvider) IssueAccess(userID string) (string, error) {
	now := time.Now().UTC().Truncate(time.Second)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// IssueRefresh issues a refresh JWT bound to the given device and returns the
// token together with its issued-at. The caller must key the session row by
// that issued-at; iat is truncated to seconds because that is the resolution
// the JWT carries on the wire. Two tokens minted within the same wall-clock
// second therefore share an issued-at; rotation only advances it across a
// second boundary.
func (p *TokenProvider) IssueRefresh(userID, deviceID string) (token string, issuedAt time.Time, err error) {
	now := time.Now().UTC().Truncate(time.Second)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.refreshTTL)),
		},
		DeviceID: deviceID,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now, nil
}

// DecodeAccess verifies the access token's signature and expiry and returns the
// user id. Expired tokens fail with ErrTokenExpired, anything else with
// ErrTokenInvalid; callers needing the distinction (error messaging, logs)
// check with errors.Is.
func (p *TokenProvider) DecodeAccess(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, p.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", mapJWTError(err)
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

// DecodeRefresh verifies the refresh token's signature and expiry and returns
// its claims. The returned IssuedAt is what the session store was keyed with
// when the token was minted.
func (p *TokenProvider) DecodeRefresh(tokenString string) (*RefreshInfo, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, p.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, mapJWTError(err)
	}
	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.DeviceID == "" || claims.IssuedAt == nil {
		return nil, ErrTokenInvalid
	}
	return &RefreshInfo{
		UserID:   claims.Subject,
		DeviceID: claims.DeviceID,
		IssuedAt: claims.IssuedAt.Time.UTC(),
	}, nil
}

func (p *TokenProvider) keyFunc(*jwt.Token) (interface{}, error) {
	return p.secret, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}
