package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"article-platform/backend/internal/article/domain"
	"article-platform/backend/internal/platform/validation"
)

type errorMessage struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

type errorBody struct {
	ErrorsMessages []errorMessage `json:"errorsMessages"`
}

func fieldErrorResponse(c fiber.Ctx, status int, field, message string) error {
	return c.Status(status).JSON(errorBody{ErrorsMessages: []errorMessage{{Message: message, Field: field}}})
}

// validationResponse renders validation.Errors as a 400 listing every failing
// field. Reports false when err is not a validation failure.
func validationResponse(c fiber.Ctx, err error) (bool, error) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return false, nil
	}
	body := errorBody{ErrorsMessages: make([]errorMessage, 0, len(verrs))}
	for _, fe := range verrs {
		body.ErrorsMessages = append(body.ErrorsMessages, errorMessage{Message: fe.Message, Field: fe.Field})
	}
	return true, c.Status(fiber.StatusBadRequest).JSON(body)
}

type articleView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PublicationDate time.Time `json:"publicationDate"`
	AuthorID        string    `json:"authorId"`
}

func toArticleView(a *domain.Article) articleView {
	return articleView{
		ID:              a.ID,
		Title:           a.Title,
		Description:     a.Description,
		PublicationDate: a.PublicationDate,
		AuthorID:        a.AuthorID,
	}
}

type pageView struct {
	PagesCount int           `json:"pagesCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalCount int           `json:"totalCount"`
	Items      []articleView `json:"items"`
}

func toPageView(p *domain.Page) pageView {
	items := make([]articleView, 0, len(p.Items))
	for _, a := range p.Items {
		items = append(items, toArticleView(a))
	}
	return pageView{
		PagesCount: p.PagesCount,
		Page:       p.PageNumber,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		Items:      items,
	}
}
