package domain

import (
	"fmt"
	"strings"
	"time"
)

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// ParseUserRole validates a role string.
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(strings.ToLower(strings.TrimSpace(s))) {
	case UserRoleMember:
		return UserRoleMember, nil
	case UserRoleAdmin:
		return UserRoleAdmin, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

// User represents a portal account.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        UserRole
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin reports whether the user has cross-user access.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Member is the roster projection used by rankings.
type Member struct {
	ID          string
	DisplayName string
	Email       string
}
