package adaptor

import (
	"net/http"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req request.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Signup(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "signup")
		return
	}

	utils.ResponseSuccess(w, "Confirmation code sent", resp)
}

// ReissueCode handles PATCH /auth/signup (admin)
func (h *AuthHandler) ReissueCode(w http.ResponseWriter, r *http.Request) {
	var req request.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.ReissueCode(r.Context(), actorFrom(r), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "reissue confirmation code")
		return
	}

	utils.ResponseSuccess(w, "Confirmation code sent", resp)
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req request.TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.ExchangeToken(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "exchange token")
		return
	}

	utils.ResponseSuccess(w, "success", resp)
}

// Refresh handles POST /auth/token/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Refresh(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "refresh token")
		return
	}

	utils.ResponseSuccess(w, "success", resp)
}

// Logout handles POST /auth/logout. The body is optional.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req request.LogoutRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	jti, _ := utils.GetTokenIDFromContext(r.Context())
	if err := h.service.Logout(r.Context(), actorFrom(r), jti, &req); err != nil {
		handleServiceError(h.log, w, err, "logout")
		return
	}

	utils.ResponseNoContent(w)
}
