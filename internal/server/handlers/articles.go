package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	articledomain "article-platform/backend/internal/article/domain"
	articleservice "article-platform/backend/internal/article/service"
	"article-platform/backend/internal/platform/guard"
	"article-platform/backend/internal/server/middleware"
)

// ArticleHandler exposes article CRUD. Reads are public; writes require an
// access token, and updates and deletes additionally require authorship.
type ArticleHandler struct {
	articles *articleservice.ArticleService
	store    guard.ArticleGetter
	decoder  middleware.AccessDecoder
}

// NewArticleHandler returns an ArticleHandler. The store is consulted by the
// ownership guard and bypasses the read cache.
func NewArticleHandler(articles *articleservice.ArticleService, store guard.ArticleGetter, decoder middleware.AccessDecoder) *ArticleHandler {
	return &ArticleHandler{articles: articles, store: store, decoder: decoder}
}

// RegisterRoutes mounts the /articles group on app.
func (h *ArticleHandler) RegisterRoutes(app *fiber.App) {
	group := app.Group("/articles")
	access := middleware.RequireAccessToken(h.decoder)

	group.Get("/", h.List)
	group.Get("/:id", h.Get)
	group.Post("/", h.Create, access)
	group.Put("/:id", h.Update, access)
	group.Delete("/:id", h.Delete, access)
}

// List returns one page of articles. A page with no items is a 404.
func (h *ArticleHandler) List(c fiber.Ctx) error {
	pageNumber, _ := strconv.Atoi(c.Query("pageNumber"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	filter := &articledomain.ListFilter{
		SearchTitleTerm: c.Query("searchTitleTerm"),
		SortBy:          c.Query("sortBy"),
		SortDirection:   articledomain.SortDirection(c.Query("sortDirection")),
		PageNumber:      pageNumber,
		PageSize:        pageSize,
	}
	page, err := h.articles.List(c.Context(), filter)
	if err != nil {
		log.Err(err).Msg("article listing failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if len(page.Items) == 0 {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.Status(fiber.StatusOK).JSON(toPageView(page))
}

// Get returns a single article or 404.
func (h *ArticleHandler) Get(c fiber.Ctx) error {
	a, err := h.articles.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, articleservice.ErrArticleNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		log.Err(err).Msg("article read failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.Status(fiber.StatusOK).JSON(toArticleView(a))
}

// Create publishes a new article authored by the caller. 201 with the view.
func (h *ArticleHandler) Create(c fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return fieldErrorResponse(c, fiber.StatusBadRequest, "body", "invalid request body")
	}
	a, err := h.articles.Create(c.Context(), middleware.UserID(c), req.Title, req.Description)
	if err != nil {
		if handled, resp := validationResponse(c, err); handled {
			return resp
		}
		log.Err(err).Msg("article create failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.Status(fiber.StatusCreated).JSON(toArticleView(a))
}

// Update rewrites an article's title and description. Only the author may;
// 404 for a missing article, 403 for someone else's.
func (h *ArticleHandler) Update(c fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return fieldErrorResponse(c, fiber.StatusBadRequest, "body", "invalid request body")
	}

	id := c.Params("id")
	existing, err := guard.RequireOwner(c.Context(), h.store, id, middleware.UserID(c))
	if err != nil {
		return h.guardStatus(c, err)
	}
	if err := h.articles.Update(c.Context(), id, req.Title, req.Description); err != nil {
		if handled, resp := validationResponse(c, err); handled {
			return resp
		}
		if errors.Is(err, articleservice.ErrArticleNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		log.Err(err).Msg("article update failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	updated := *existing
	updated.Title = req.Title
	updated.Description = req.Description
	return c.Status(fiber.StatusOK).JSON(toArticleView(&updated))
}

// Delete removes an article. Same guards as Update; 204 on success.
func (h *ArticleHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := guard.RequireOwner(c.Context(), h.store, id, middleware.UserID(c)); err != nil {
		return h.guardStatus(c, err)
	}
	if err := h.articles.Delete(c.Context(), id); err != nil {
		if errors.Is(err, articleservice.ErrArticleNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		log.Err(err).Msg("article delete failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ArticleHandler) guardStatus(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, guard.ErrArticleNotFound):
		return c.SendStatus(fiber.StatusNotFound)
	case errors.Is(err, guard.ErrNotOwner):
		return c.SendStatus(fiber.StatusForbidden)
	}
	log.Err(err).Msg("article guard failed")
	return c.SendStatus(fiber.StatusInternalServerError)
}
