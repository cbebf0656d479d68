package repository

import (
	"context"

	"article-platform/backend/internal/article/domain"
)

// Repository defines persistence for articles.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	// List returns one page of articles matching the filter along with the
	// total number of matching rows. The filter must be normalized.
	List(ctx context.Context, f *domain.ListFilter) ([]*domain.Article, int, error)
	Create(ctx context.Context, a *domain.Article) error
	// Update replaces the article's mutable fields. It reports whether a row was updated.
	Update(ctx context.Context, a *domain.Article) (bool, error)
	// Delete removes the article. It reports whether a row was deleted.
	Delete(ctx context.Context, id string) (bool, error)
}
