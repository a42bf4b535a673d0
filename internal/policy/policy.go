// Package policy decides who may do what. Every function here is pure: the
// decision depends only on the actor, the action and the resource.
package policy

import (
	"yamdb-api/internal/data/entity"
	"yamdb-api/pkg/apperror"

	"github.com/google/uuid"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Kind string

const (
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
	KindUser     Kind = "user"    // admin user management
	KindProfile  Kind = "profile" // the caller's own account
)

// Actor is the caller. The zero value is an anonymous caller.
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     entity.UserRole
}

func Anonymous() Actor {
	return Actor{}
}

func (a Actor) Authenticated() bool {
	return a.ID != uuid.Nil
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated() && a.Role == entity.RoleAdmin
}

func (a Actor) IsModerator() bool {
	return a.Authenticated() && a.Role == entity.RoleModerator
}

// Resource identifies what is being accessed. AuthorID is set only for
// discussion objects that already exist.
type Resource struct {
	Kind     Kind
	AuthorID uuid.UUID
}

func Collection(kind Kind) Resource {
	return Resource{Kind: kind}
}

func Owned(kind Kind, authorID uuid.UUID) Resource {
	return Resource{Kind: kind, AuthorID: authorID}
}

// CanAccess is the single authorization rule set for the API.
func CanAccess(actor Actor, action Action, res Resource) bool {
	switch res.Kind {
	case KindCategory, KindGenre, KindTitle:
		if action == ActionRead {
			return true
		}
		return actor.IsAdmin()

	case KindReview, KindComment:
		switch action {
		case ActionRead:
			return true
		case ActionCreate:
			return actor.Authenticated()
		case ActionUpdate, ActionDelete:
			if !actor.Authenticated() {
				return false
			}
			isAuthor := res.AuthorID != uuid.Nil && res.AuthorID == actor.ID
			return isAuthor || actor.IsModerator() || actor.IsAdmin()
		}
		return false

	case KindUser:
		return actor.IsAdmin()

	case KindProfile:
		switch action {
		case ActionRead, ActionUpdate:
			return actor.Authenticated()
		}
		return false
	}

	return false
}

// Check is CanAccess with the denial turned into the matching error:
// anonymous callers get an authentication error, everyone else a forbidden one.
func Check(actor Actor, action Action, res Resource) error {
	if CanAccess(actor, action, res) {
		return nil
	}
	if !actor.Authenticated() {
		return apperror.ErrAuthenticationRequired
	}
	return apperror.ErrForbidden
}
