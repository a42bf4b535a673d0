package adaptor

import (
	"net/http"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// List handles GET /users?search=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), actorFrom(r), r.URL.Query().Get("search"), pageFrom(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list users")
		return
	}
	utils.ResponseSuccess(w, "success", users)
}

// Create handles POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create user")
		return
	}
	utils.ResponseCreated(w, "User created", user)
}

// Get handles GET /users/{username}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), actorFrom(r), chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(h.log, w, err, "get user")
		return
	}
	utils.ResponseSuccess(w, "success", user)
}

// Update handles PATCH /users/{username}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), actorFrom(r), chi.URLParam(r, "username"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update user")
		return
	}
	utils.ResponseSuccess(w, "User updated", user)
}

// Delete handles DELETE /users/{username}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "username")); err != nil {
		handleServiceError(h.log, w, err, "delete user")
		return
	}
	utils.ResponseNoContent(w)
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), actorFrom(r))
	if err != nil {
		handleServiceError(h.log, w, err, "get profile")
		return
	}
	utils.ResponseSuccess(w, "success", user)
}

// UpdateMe handles PATCH /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), actorFrom(r), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update profile")
		return
	}
	utils.ResponseSuccess(w, "Profile updated", user)
}
