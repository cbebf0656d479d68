// Package middleware holds the Fiber middleware guarding authenticated routes.
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"

	"article-platform/backend/internal/security"
)

// RefreshCookie is the name of the cookie carrying the refresh token.
const RefreshCookie = "refreshToken"

const (
	userIDKey       = "auth.userID"
	refreshTokenKey = "auth.refreshToken"
)

// AccessDecoder validates an access token and returns the subject user id.
type AccessDecoder interface {
	DecodeAccess(token string) (string, error)
}

// RefreshVerifier validates a refresh token against the session store without rotating it.
type RefreshVerifier interface {
	VerifyRefresh(ctx context.Context, token string) (*security.RefreshInfo, error)
}

// RequireAccessToken admits requests bearing a valid access token in the
// Authorization header and records the caller's user id on the context.
func RequireAccessToken(decoder AccessDecoder) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		userID, err := decoder.DecodeAccess(token)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// RequireRefreshToken admits requests whose refresh cookie decodes and still
// names a live session. It does not rotate; the handler decides what happens
// to the session next.
func RequireRefreshToken(verifier RefreshVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(RefreshCookie)
		if token == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		info, err := verifier.VerifyRefresh(c.Context(), token)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals(userIDKey, info.UserID)
		c.Locals(refreshTokenKey, token)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by the auth middleware, or "".
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// RefreshToken returns the verified refresh token set by RequireRefreshToken, or "".
func RefreshToken(c fiber.Ctx) string {
	token, _ := c.Locals(refreshTokenKey).(string)
	return token
}
