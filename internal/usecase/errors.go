package usecase

import (
	"errors"

	"yamdb-api/internal/data/repository"
	"yamdb-api/pkg/apperror"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// validateRequest runs struct validation and returns a validation error carrying the field map.
func validateRequest(log *zap.Logger, op string, req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		log.Warn(op+" validation failed", zap.Any("errors", errs))
		return apperror.Validation("validation failed", errs)
	}
	return nil
}

// parseID treats a malformed id in a path as a missing resource.
func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.NotFound("%s %s not found", what, raw)
	}
	return id, nil
}

// duplicateError maps a unique-constraint violation to the validation error
// the client sees. It returns nil for any other error.
func duplicateError(err error) error {
	constraint, ok := repository.DuplicateConstraint(err)
	if !ok {
		return nil
	}

	switch constraint {
	case repository.ConstraintUsername:
		return apperror.FieldInvalid("username", "A user with that username already exists")
	case repository.ConstraintEmail:
		return apperror.FieldInvalid("email", "A user with that email already exists")
	case repository.ConstraintCategorySlug:
		return apperror.FieldInvalid("slug", "A category with that slug already exists")
	case repository.ConstraintGenreSlug:
		return apperror.FieldInvalid("slug", "A genre with that slug already exists")
	case repository.ConstraintReviewAuthor:
		return apperror.Validation("only one review per title", map[string]string{
			"title": "You have already reviewed this title",
		})
	default:
		return apperror.Validation("duplicate value", nil)
	}
}

// missingReferenceError maps a foreign key violation, a parent deleted between
// lookup and write, to what the client would have seen had the delete come first.
// It returns nil for any other error.
func missingReferenceError(err error) error {
	constraint, ok := repository.MissingReferenceConstraint(err)
	if !ok {
		return nil
	}

	switch constraint {
	case repository.ConstraintTitleCategory:
		return apperror.FieldInvalid("category", "Unknown category")
	case repository.ConstraintTitleGenre:
		return apperror.FieldInvalid("genre", "Unknown genre")
	case repository.ConstraintReviewTitle, repository.ConstraintGenreTitle:
		return apperror.NotFound("title not found")
	case repository.ConstraintCommentReview:
		return apperror.NotFound("review not found")
	case repository.ConstraintReviewUser, repository.ConstraintCommentUser:
		return apperror.ErrAuthenticationRequired
	default:
		return apperror.Validation("referenced record does not exist", nil)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
