package adaptor

import (
	"net/http"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CommentHandler struct {
	service usecase.CommentService
	log     *zap.Logger
}

func NewCommentHandler(service usecase.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		log:     log.With(zap.String("handler", "comment")),
	}
}

// List handles GET /titles/{title_id}/reviews/{review_id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.List(r.Context(), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), pageFrom(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list comments")
		return
	}
	utils.ResponseSuccess(w, "success", comments)
}

func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.service.Get(r.Context(),
		chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), chi.URLParam(r, "comment_id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get comment")
		return
	}
	utils.ResponseSuccess(w, "success", comment)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Create(r.Context(), actorFrom(r),
		chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create comment")
		return
	}
	utils.ResponseCreated(w, "Comment created", comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Update(r.Context(), actorFrom(r),
		chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), chi.URLParam(r, "comment_id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update comment")
		return
	}
	utils.ResponseSuccess(w, "Comment updated", comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), actorFrom(r),
		chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), chi.URLParam(r, "comment_id"))
	if err != nil {
		handleServiceError(h.log, w, err, "delete comment")
		return
	}
	utils.ResponseNoContent(w)
}
