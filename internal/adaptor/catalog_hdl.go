package adaptor

import (
	"net/http"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ==================== CATEGORIES ====================

type CategoryHandler struct {
	service usecase.CategoryService
	log     *zap.Logger
}

func NewCategoryHandler(service usecase.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		log:     log.With(zap.String("handler", "category")),
	}
}

// List handles GET /categories?search=
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context(), r.URL.Query().Get("search"), pageFrom(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list categories")
		return
	}
	utils.ResponseSuccess(w, "success", categories)
}

// Create handles POST /categories (admin)
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CatalogEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create category")
		return
	}
	utils.ResponseCreated(w, "Category created", category)
}

// Delete handles DELETE /categories/{slug} (admin)
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "slug")); err != nil {
		handleServiceError(h.log, w, err, "delete category")
		return
	}
	utils.ResponseNoContent(w)
}

// ==================== GENRES ====================

type GenreHandler struct {
	service usecase.GenreService
	log     *zap.Logger
}

func NewGenreHandler(service usecase.GenreService, log *zap.Logger) *GenreHandler {
	return &GenreHandler{
		service: service,
		log:     log.With(zap.String("handler", "genre")),
	}
}

// List handles GET /genres?search=
func (h *GenreHandler) List(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.List(r.Context(), r.URL.Query().Get("search"), pageFrom(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list genres")
		return
	}
	utils.ResponseSuccess(w, "success", genres)
}

// Create handles POST /genres (admin)
func (h *GenreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CatalogEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	genre, err := h.service.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create genre")
		return
	}
	utils.ResponseCreated(w, "Genre created", genre)
}

// Delete handles DELETE /genres/{slug} (admin)
func (h *GenreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "slug")); err != nil {
		handleServiceError(h.log, w, err, "delete genre")
		return
	}
	utils.ResponseNoContent(w)
}
