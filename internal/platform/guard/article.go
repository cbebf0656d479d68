// Package guard holds request-scoped authorization checks shared by handlers.
package guard

import (
	"context"
	"errors"

	"article-platform/backend/internal/article/domain"
)

// Sentinel errors; handlers map them to 404 and 403.
var (
	ErrArticleNotFound = errors.New("article not found")
	ErrNotOwner        = errors.New("caller is not the article's author")
)

// ArticleGetter resolves an article by id; nil means no such article.
type ArticleGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Article, error)
}

// RequireArticle ensures the article exists. Returns it on success.
func RequireArticle(ctx context.Context, getter ArticleGetter, id string) (*domain.Article, error) {
	a, err := getter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrArticleNotFound
	}
	return a, nil
}

// RequireOwner ensures the article exists and userID authored it.
func RequireOwner(ctx context.Context, getter ArticleGetter, id, userID string) (*domain.Article, error) {
	a, err := RequireArticle(ctx, getter, id)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != userID {
		return nil, ErrNotOwner
	}
	return a, nil
}
