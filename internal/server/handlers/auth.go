package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/rs/zerolog/log"

	authservice "article-platform/backend/internal/auth/service"
	"article-platform/backend/internal/security"
	"article-platform/backend/internal/server/middleware"
)

// AuthHandler exposes the auth lifecycle over HTTP: registration, login,
// refresh-token rotation and logout. The refresh token travels only in an
// http-only cookie; the access token only in response bodies.
type AuthHandler struct {
	auth          *authservice.AuthService
	refreshTTL    time.Duration
	secureCookies bool
}

// NewAuthHandler returns an AuthHandler. secureCookies should be true behind TLS.
func NewAuthHandler(auth *authservice.AuthService, refreshTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, refreshTTL: refreshTTL, secureCookies: secureCookies}
}

// Credential endpoints are throttled per client IP to slow down brute-force
// and bulk-signup attempts.
const (
	authRateLimit  = 5
	authRateWindow = 10 * time.Second
)

// RegisterRoutes mounts the /auth group on app.
func (h *AuthHandler) RegisterRoutes(app *fiber.App) {
	throttle := limiter.New(limiter.Config{
		Max:        authRateLimit,
		Expiration: authRateWindow,
	})
	group := app.Group("/auth")
	group.Post("/registration", h.Registration, throttle)
	group.Post("/login", h.Login, throttle)
	group.Post("/refresh-token", h.RefreshToken, middleware.RequireRefreshToken(h.auth))
	group.Post("/logout", h.Logout, middleware.RequireRefreshToken(h.auth))
}

// Registration creates an account. 204 on success; 400 with field-tagged
// messages on invalid input or a taken login/email.
func (h *AuthHandler) Registration(c fiber.Ctx) error {
	var req struct {
		Login    string `json:"login"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind().Body(&req); err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		return fieldErrorResponse(c, fiber.StatusBadRequest, "body", "invalid request body")
	}

	_, err := h.auth.Register(c.Context(), req.Login, req.Email, req.Password)
	if err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		if handled, resp := validationResponse(c, err); handled {
			return resp
		}
		switch {
		case errors.Is(err, authservice.ErrLoginTaken):
			return fieldErrorResponse(c, fiber.StatusBadRequest, "login", "login already exists")
		case errors.Is(err, authservice.ErrEmailTaken):
			return fieldErrorResponse(c, fiber.StatusBadRequest, "email", "email already exists")
		}
		log.Err(err).Msg("registration failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	registrationAttempts.WithLabelValues("success").Inc()
	return c.SendStatus(fiber.StatusNoContent)
}

// Login authenticates and opens a session. 200 with the access token in the
// body and the refresh token in a cookie; 401 on bad credentials.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	start := time.Now()
	var req struct {
		LoginOrEmail string `json:"loginOrEmail"`
		Password     string `json:"password"`
	}
	if err := c.Bind().Body(&req); err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		loginDuration.WithLabelValues("failure").Observe(time.Since(start).Seconds())
		return fieldErrorResponse(c, fiber.StatusBadRequest, "body", "invalid request body")
	}

	pair, err := h.auth.Login(c.Context(), req.LoginOrEmail, req.Password, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		loginDuration.WithLabelValues("failure").Observe(time.Since(start).Seconds())
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		log.Err(err).Msg("login failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	loginAttempts.WithLabelValues("success").Inc()
	loginDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	activeSessions.Inc()
	h.setRefreshCookie(c, pair.RefreshToken)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"accessToken": pair.AccessToken})
}

// RefreshToken rotates the refresh token behind the refresh-token middleware.
// A token that lost a rotation race comes back 401 like any other dead token.
func (h *AuthHandler) RefreshToken(c fiber.Ctx) error {
	token := middleware.RefreshToken(c)
	pair, err := h.auth.Refresh(c.Context(), token, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		refreshAttempts.WithLabelValues("failure").Inc()
		if isAuthFailure(err) {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		log.Err(err).Msg("refresh failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	refreshAttempts.WithLabelValues("success").Inc()
	h.setRefreshCookie(c, pair.RefreshToken)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"accessToken": pair.AccessToken})
}

// Logout revokes the session named by the refresh cookie. 204 on success;
// a second logout with the same token is a 401, not a no-op.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	token := middleware.RefreshToken(c)
	if err := h.auth.Logout(c.Context(), token); err != nil {
		logoutAttempts.WithLabelValues("failure").Inc()
		if isAuthFailure(err) {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		log.Err(err).Msg("logout failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	logoutAttempts.WithLabelValues("success").Inc()
	activeSessions.Dec()
	h.clearRefreshCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func isAuthFailure(err error) bool {
	return errors.Is(err, authservice.ErrSessionNotFound) ||
		errors.Is(err, security.ErrTokenExpired) ||
		errors.Is(err, security.ErrTokenInvalid)
}

func (h *AuthHandler) setRefreshCookie(c fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.refreshTTL),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
