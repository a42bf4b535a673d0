package entity

import (
	"fmt"
	"strings"
	"time"
)

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// ParseRole accepts exactly the three known roles, case-insensitively.
func ParseRole(s string) (UserRole, error) {
	switch role := UserRole(strings.ToLower(strings.TrimSpace(s))); role {
	case RoleUser, RoleModerator, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r UserRole) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

type User struct {
	Base
	Username         string     `db:"username"`
	Email            string     `db:"email"`
	FirstName        string     `db:"first_name"`
	LastName         string     `db:"last_name"`
	Bio              string     `db:"bio"`
	Role             UserRole   `db:"role"`
	ConfirmationCode string     `db:"confirmation_code"` // bcrypt hash, empty when none is outstanding
	CodeIssuedAt     *time.Time `db:"code_issued_at"`
	IsConfirmed      bool       `db:"is_confirmed"`
}
