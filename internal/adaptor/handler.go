package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/policy"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/apperror"
	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Category *CategoryHandler
	Genre    *GenreHandler
	Title    *TitleHandler
	Review   *ReviewHandler
	Comment  *CommentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		User:     NewUserHandler(service.User, log),
		Category: NewCategoryHandler(service.Category, log),
		Genre:    NewGenreHandler(service.Genre, log),
		Title:    NewTitleHandler(service.Title, log),
		Review:   NewReviewHandler(service.Review, log),
		Comment:  NewCommentHandler(service.Comment, log),
	}
}

// actorFrom builds the policy actor from what Authenticate put in the context.
func actorFrom(r *http.Request) policy.Actor {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return policy.Anonymous()
	}
	username, _ := utils.GetUsernameFromContext(r.Context())
	role, _ := utils.GetRoleFromContext(r.Context())
	return policy.Actor{ID: userID, Username: username, Role: entity.UserRole(role)}
}

// decodeJSON reads the body into dst and answers 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

func pageFrom(r *http.Request) *request.PaginatedRequest {
	return request.PaginationFromQuery(r.URL.Query())
}

// handleServiceError maps service errors to HTTP responses. Anything that is
// not an *apperror.Error is logged and hidden behind a generic 500.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	switch appErr.Kind {
	case apperror.KindValidation:
		log.Warn(operation+" validation failed", zap.String("message", appErr.Message), zap.Any("fields", appErr.Fields))
		utils.ResponseBadRequest(w, appErr.Message, appErr.Fields)

	case apperror.KindAuthentication:
		log.Warn(operation+" failed - unauthenticated", zap.String("message", appErr.Message))
		utils.ResponseUnauthorized(w, appErr.Message)

	case apperror.KindAuthorization:
		log.Warn(operation+" failed - forbidden", zap.String("message", appErr.Message))
		utils.ResponseForbidden(w, apperror.ErrForbidden.Message)

	case apperror.KindNotFound:
		log.Debug(operation+" failed - not found", zap.String("message", appErr.Message))
		utils.ResponseNotFound(w, appErr.Message)

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
