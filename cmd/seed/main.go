// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	articledomain "article-platform/backend/internal/article/domain"
	articlerepo "article-platform/backend/internal/article/repository"
	"article-platform/backend/internal/config"
	"article-platform/backend/internal/db"
	"article-platform/backend/internal/security"
	userdomain "article-platform/backend/internal/user/domain"
	userrepo "article-platform/backend/internal/user/repository"
)

const (
	devUserLogin = "dev"
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
)

var devArticles = []struct {
	title       string
	description string
}{
	{"Hello, world", "The obligatory first post."},
	{"Refresh tokens, rotated", "Why a refresh token should only ever work once."},
	{"Caching article reads", "Read-through caching with per-entity invalidation."},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(database)
	articles := articlerepo.NewPostgresRepository(database)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("lookup dev user: %v", err)
	}
	if existing != nil {
		log.Printf("dev user %s already present, nothing to do", devUserEmail)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hashed, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Login:        devUserLogin,
		Email:        devUserEmail,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	for i, seed := range devArticles {
		a := &articledomain.Article{
			ID:              uuid.New().String(),
			Title:           seed.title,
			Description:     seed.description,
			PublicationDate: time.Now().UTC().Add(time.Duration(-i) * time.Hour),
			AuthorID:        user.ID,
		}
		if err := articles.Create(ctx, a); err != nil {
			log.Fatalf("create article %q: %v", seed.title, err)
		}
	}
	log.Printf("seeded dev user %s (password %s) with %d articles", devUserEmail, devPassword, len(devArticles))
}
