package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	articlerepo "article-platform/backend/internal/article/repository"
	articleservice "article-platform/backend/internal/article/service"
	authservice "article-platform/backend/internal/auth/service"
	"article-platform/backend/internal/cache"
	"article-platform/backend/internal/config"
	"article-platform/backend/internal/db"
	"article-platform/backend/internal/events"
	"article-platform/backend/internal/security"
	"article-platform/backend/internal/server"
	sessionrepo "article-platform/backend/internal/session/repository"
	userrepo "article-platform/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer database.Close()

	var articleCache cache.Cache
	if cfg.RedisAddr != "" {
		articleCache, err = cache.NewRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
	} else {
		log.Warn().Msg("REDIS_ADDR empty, article cache disabled")
		articleCache = cache.NewNoop()
	}

	publisher, err := events.NewPublisher(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("events")
	}
	defer publisher.Close()

	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)
	articles := articlerepo.NewPostgresRepository(database)

	auth := authservice.NewAuthService(users, sessions, hasher, tokens, cfg.RefreshTTL(), publisher)
	articleSvc := articleservice.NewArticleService(articles, articleCache, cfg.CacheTTL())

	srv := server.New(server.Deps{
		Auth:          auth,
		Articles:      articleSvc,
		ArticleStore:  articles,
		Tokens:        tokens,
		RefreshTTL:    cfg.RefreshTTL(),
		SecureCookies: cfg.Env == "production",
	})

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.Listen(cfg.HTTPAddr); err != nil {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down HTTP server")
	if err := srv.Shutdown(); err != nil {
		log.Err(err).Msg("shutdown")
	}
	log.Info().Msg("HTTP server stopped")
}
