package adaptor

import (
	"net/http"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TitleHandler struct {
	service usecase.TitleService
	log     *zap.Logger
}

func NewTitleHandler(service usecase.TitleService, log *zap.Logger) *TitleHandler {
	return &TitleHandler{
		service: service,
		log:     log.With(zap.String("handler", "title")),
	}
}

// List handles GET /titles?name=&category=&genre=&year=
func (h *TitleHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	year, err := utils.ParseOptionalInt(query.Get("year"))
	if err != nil {
		utils.ResponseBadRequest(w, "validation failed", map[string]string{"year": "Must be a whole number"})
		return
	}

	filter := &request.TitleQuery{
		Name:     query.Get("name"),
		Category: query.Get("category"),
		Genre:    query.Get("genre"),
		Year:     year,
	}

	titles, err := h.service.List(r.Context(), filter, pageFrom(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list titles")
		return
	}
	utils.ResponseSuccess(w, "success", titles)
}

// Get handles GET /titles/{title_id}
func (h *TitleHandler) Get(w http.ResponseWriter, r *http.Request) {
	title, err := h.service.Get(r.Context(), chi.URLParam(r, "title_id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get title")
		return
	}
	utils.ResponseSuccess(w, "success", title)
}

// Create handles POST /titles (admin)
func (h *TitleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title, err := h.service.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create title")
		return
	}
	utils.ResponseCreated(w, "Title created", title)
}

// Update handles PATCH /titles/{title_id} (admin)
func (h *TitleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateTitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title, err := h.service.Update(r.Context(), actorFrom(r), chi.URLParam(r, "title_id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update title")
		return
	}
	utils.ResponseSuccess(w, "Title updated", title)
}

// Delete handles DELETE /titles/{title_id} (admin)
func (h *TitleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "title_id")); err != nil {
		handleServiceError(h.log, w, err, "delete title")
		return
	}
	utils.ResponseNoContent(w)
}
