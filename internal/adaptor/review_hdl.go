package adaptor

import (
	"net/http"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// List handles GET /titles/{title_id}/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.List(r.Context(), chi.URLParam(r, "title_id"), pageFrom(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list reviews")
		return
	}
	utils.ResponseSuccess(w, "success", reviews)
}

// Get handles GET /titles/{title_id}/reviews/{review_id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.Get(r.Context(), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get review")
		return
	}
	utils.ResponseSuccess(w, "success", review)
}

// Create handles POST /titles/{title_id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.Create(r.Context(), actorFrom(r), chi.URLParam(r, "title_id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create review")
		return
	}
	utils.ResponseCreated(w, "Review created", review)
}

// Update handles PATCH /titles/{title_id}/reviews/{review_id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.Update(r.Context(), actorFrom(r), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update review")
		return
	}
	utils.ResponseSuccess(w, "Review updated", review)
}

// Delete handles DELETE /titles/{title_id}/reviews/{review_id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"))
	if err != nil {
		handleServiceError(h.log, w, err, "delete review")
		return
	}
	utils.ResponseNoContent(w)
}
