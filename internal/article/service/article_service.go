package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"article-platform/backend/internal/article/domain"
	"article-platform/backend/internal/cache"
)

// Sentinel errors for the article service; handler maps them to HTTP statuses.
var (
	ErrArticleNotFound = errors.New("article not found")
)

// ArticleRepo is the minimal article repository needed by the service.
type ArticleRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	List(ctx context.Context, f *domain.ListFilter) ([]*domain.Article, int, error)
	Create(ctx context.Context, a *domain.Article) error
	Update(ctx context.Context, a *domain.Article) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ArticleService implements article CRUD with a read-through cache on single
// article reads. Cache failures degrade to the database, never to an error.
type ArticleService struct {
	repo     ArticleRepo
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewArticleService returns an ArticleService with the given dependencies.
func NewArticleService(repo ArticleRepo, c cache.Cache, cacheTTL time.Duration) *ArticleService {
	return &ArticleService{repo: repo, cache: c, cacheTTL: cacheTTL}
}

func cacheKey(id string) string { return "article-" + id }

// Get returns the article for id. Cached copies are served when present;
// misses populate the cache from the database.
func (s *ArticleService) Get(ctx context.Context, id string) (*domain.Article, error) {
	if raw, err := s.cache.Get(ctx, cacheKey(id)); err == nil {
		var a domain.Article
		if err := json.Unmarshal(raw, &a); err == nil {
			return &a, nil
		}
		// Unreadable entry; drop it and fall through to the database.
		_ = s.cache.Delete(ctx, cacheKey(id))
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Err(err).Str("article_id", id).Msg("article cache read failed")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrArticleNotFound
	}
	if raw, err := json.Marshal(a); err == nil {
		if err := s.cache.Set(ctx, cacheKey(id), raw, s.cacheTTL); err != nil {
			log.Err(err).Str("article_id", id).Msg("article cache write failed")
		}
	}
	return a, nil
}

// List returns one page of articles matching the filter. The filter is
// normalized here, so handlers can pass query parameters through untouched.
func (s *ArticleService) List(ctx context.Context, f *domain.ListFilter) (*domain.Page, error) {
	f.Normalize()
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	pagesCount := (total + f.PageSize - 1) / f.PageSize
	return &domain.Page{
		PagesCount: pagesCount,
		PageNumber: f.PageNumber,
		PageSize:   f.PageSize,
		TotalCount: total,
		Items:      items,
	}, nil
}

// Create validates and persists a new article authored by authorID.
func (s *ArticleService) Create(ctx context.Context, authorID, title, description string) (*domain.Article, error) {
	a := &domain.Article{
		ID:              uuid.New().String(),
		Title:           title,
		Description:     description,
		PublicationDate: time.Now().UTC(),
		AuthorID:        authorID,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the article's title and description and evicts the cached copy.
func (s *ArticleService) Update(ctx context.Context, id, title, description string) error {
	a := &domain.Article{ID: id, Title: title, Description: description}
	if err := a.Validate(); err != nil {
		return err
	}
	ok, err := s.repo.Update(ctx, a)
	if err != nil {
		return err
	}
	if !ok {
		return ErrArticleNotFound
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		log.Err(err).Str("article_id", id).Msg("article cache invalidation failed")
	}
	return nil
}

// Delete removes the article and evicts the cached copy.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrArticleNotFound
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		log.Err(err).Str("article_id", id).Msg("article cache invalidation failed")
	}
	return nil
}
