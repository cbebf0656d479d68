package domain

import (
	"strings"
	"time"

	"article-platform/backend/internal/platform/validation"
)

// Article is a published piece of content owned by a single author.
type Article struct {
	ID              string
	Title           string
	Description     string
	PublicationDate time.Time
	AuthorID        string
}

// Validate validates the article for persistence. Failures come back as
// validation.Errors tagged with the offending field.
func (a *Article) Validate() error {
	var verrs validation.Errors
	if strings.TrimSpace(a.Title) == "" {
		verrs = append(verrs, &validation.FieldError{Field: "title", Message: "title is required"})
	} else if len(a.Title) > 100 {
		verrs = append(verrs, &validation.FieldError{Field: "title", Message: "title must be at most 100 characters"})
	}
	if strings.TrimSpace(a.Description) == "" {
		verrs = append(verrs, &validation.FieldError{Field: "description", Message: "description is required"})
	} else if len(a.Description) > 1000 {
		verrs = append(verrs, &validation.FieldError{Field: "description", Message: "description must be at most 1000 characters"})
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// SortDirection orders a listing ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListFilter carries the pagination, search and ordering parameters of a listing.
type ListFilter struct {
	SearchTitleTerm string
	SortBy          string
	SortDirection   SortDirection
	PageNumber      int
	PageSize        int
}

var sortableColumns = map[string]string{
	"id":              "id",
	"title":           "title",
	"description":     "description",
	"publicationDate": "publication_date",
	"authorId":        "author_id",
}

// Normalize fills in listing defaults and discards unknown sort fields.
// Unknown values degrade to the default ordering rather than failing the request.
func (f *ListFilter) Normalize() {
	if _, ok := sortableColumns[f.SortBy]; !ok {
		f.SortBy = "publicationDate"
	}
	if f.SortDirection != SortAsc {
		f.SortDirection = SortDesc
	}
	if f.PageNumber < 1 {
		f.PageNumber = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
}

// SortColumn maps the filter's sort field to its database column.
// The filter must have been normalized first.
func (f *ListFilter) SortColumn() string {
	return sortableColumns[f.SortBy]
}

// Page is one page of a listing plus the counts needed to render pagination.
type Page struct {
	PagesCount int
	PageNumber int
	PageSize   int
	TotalCount int
	Items      []*Article
}
