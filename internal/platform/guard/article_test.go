package guard

import (
	"context"
	"errors"
	"testing"

	"article-platform/backend/internal/article/domain"
)

type fakeGetter struct {
	articles map[string]*domain.Article
	err      error
}

func (g *fakeGetter) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.articles[id], nil
}

func TestRequireArticle(t *testing.T) {
	ctx := context.Background()
	getter := &fakeGetter{articles: map[string]*domain.Article{
		"a1": {ID: "a1", AuthorID: "u1"},
	}}

	a, err := RequireArticle(ctx, getter, "a1")
	if err != nil {
		t.Fatalf("RequireArticle: %v", err)
	}
	if a.ID != "a1" {
		t.Errorf("ID = %q, want a1", a.ID)
	}

	if _, err := RequireArticle(ctx, getter, "missing"); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("missing article = %v, want ErrArticleNotFound", err)
	}

	getter.err = errors.New("db down")
	if _, err := RequireArticle(ctx, getter, "a1"); errors.Is(err, ErrArticleNotFound) {
		t.Fatal("database failure must not read as missing article")
	}
}

func TestRequireOwner(t *testing.T) {
	ctx := context.Background()
	getter := &fakeGetter{articles: map[string]*domain.Article{
		"a1": {ID: "a1", AuthorID: "u1"},
	}}

	if _, err := RequireOwner(ctx, getter, "a1", "u1"); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := RequireOwner(ctx, getter, "a1", "u2"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner = %v, want ErrNotOwner", err)
	}
	if _, err := RequireOwner(ctx, getter, "missing", "u1"); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("missing = %v, want ErrArticleNotFound", err)
	}
}
