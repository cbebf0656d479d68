package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"article-platform/backend/internal/article/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an article repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const articleColumns = `id, title, description, publication_date, author_id`

// GetByID returns the article for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	var a domain.Article
	err := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id).
		Scan(&a.ID, &a.Title, &a.Description, &a.PublicationDate, &a.AuthorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// List returns one page of articles and the total count of matching rows.
// The sort column comes from the filter's whitelist, never from raw input.
func (r *PostgresRepository) List(ctx context.Context, f *domain.ListFilter) ([]*domain.Article, int, error) {
	where := ""
	args := []any{}
	if f.SearchTitleTerm != "" {
		where = `WHERE title ILIKE $1`
		args = append(args, "%"+f.SearchTitleTerm+"%")
	}

	var total int
	countQuery := strings.TrimSpace(`SELECT COUNT(*) FROM articles ` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if f.SortDirection == domain.SortAsc {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM articles %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		articleColumns, where, f.SortColumn(), direction, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, (f.PageNumber-1)*f.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.PublicationDate, &a.AuthorID); err != nil {
			return nil, 0, err
		}
		articles = append(articles, &a)
	}
	return articles, total, rows.Err()
}

// Create persists the article. The article must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, description, publication_date, author_id) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Title, a.Description, a.PublicationDate, a.AuthorID)
	return err
}

// Update replaces the article's title and description.
func (r *PostgresRepository) Update(ctx context.Context, a *domain.Article) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE articles SET title = $1, description = $2 WHERE id = $3`,
		a.Title, a.Description, a.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the article.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
