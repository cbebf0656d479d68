// Package server assembles the Fiber application: routes, middleware and the
// operational endpoints.
package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	articleservice "article-platform/backend/internal/article/service"
	authservice "article-platform/backend/internal/auth/service"
	"article-platform/backend/internal/platform/guard"
	"article-platform/backend/internal/security"
	"article-platform/backend/internal/server/handlers"
	"article-platform/backend/internal/server/middleware"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Auth          *authservice.AuthService
	Articles      *articleservice.ArticleService
	ArticleStore  guard.ArticleGetter
	Tokens        *security.TokenProvider
	RefreshTTL    time.Duration
	SecureCookies bool
}

// Server wraps the Fiber app.
type Server struct {
	app *fiber.App
}

// New builds the application with all routes mounted.
func New(deps Deps) *Server {
	app := fiber.New(fiber.Config{AppName: "article-platform"})
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("OK")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.NewAuthHandler(deps.Auth, deps.RefreshTTL, deps.SecureCookies).RegisterRoutes(app)
	handlers.NewArticleHandler(deps.Articles, deps.ArticleStore, deps.Tokens).RegisterRoutes(app)

	return &Server{app: app}
}

// Listen serves HTTP on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
