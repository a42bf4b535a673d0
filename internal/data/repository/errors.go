package repository

import (
	"errors"

	"yamdb-api/pkg/database"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrMissingReference = errors.New("referenced record does not exist")
)

// unique constraint names from schema.sql
const (
	ConstraintUsername     = "users_username_key"
	ConstraintEmail        = "users_email_key"
	ConstraintCategorySlug = "categories_slug_key"
	ConstraintGenreSlug    = "genres_slug_key"
	ConstraintReviewAuthor = "reviews_title_author_key"
)

// foreign key names postgres derives for the inline REFERENCES in schema.sql
const (
	ConstraintTitleCategory = "titles_category_id_fkey"
	ConstraintTitleGenre    = "title_genres_genre_id_fkey"
	ConstraintGenreTitle    = "title_genres_title_id_fkey"
	ConstraintReviewTitle   = "reviews_title_id_fkey"
	ConstraintReviewUser    = "reviews_author_id_fkey"
	ConstraintCommentReview = "comments_review_id_fkey"
	ConstraintCommentUser   = "comments_author_id_fkey"
)

// DuplicateError is returned when a write hits a unique constraint.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return "duplicate value violates " + e.Constraint
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// MissingReferenceError is returned when a write points at a row that was
// deleted after it was looked up.
type MissingReferenceError struct {
	Constraint string
}

func (e *MissingReferenceError) Error() string {
	return "referenced record missing for " + e.Constraint
}

func (e *MissingReferenceError) Is(target error) bool {
	return target == ErrMissingReference
}

// asConstraintError converts unique and foreign key violations into
// *DuplicateError and *MissingReferenceError and leaves other errors alone.
func asConstraintError(err error) error {
	if constraint, ok := database.UniqueViolation(err); ok {
		return &DuplicateError{Constraint: constraint}
	}
	if constraint, ok := database.ForeignKeyViolation(err); ok {
		return &MissingReferenceError{Constraint: constraint}
	}
	return err
}

// DuplicateConstraint returns the violated constraint name if err is a duplicate.
func DuplicateConstraint(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Constraint, true
	}
	return "", false
}

// MissingReferenceConstraint returns the violated foreign key name if err is a missing reference.
func MissingReferenceConstraint(err error) (string, bool) {
	var missing *MissingReferenceError
	if errors.As(err, &missing) {
		return missing.Constraint, true
	}
	return "", false
}
