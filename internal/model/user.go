package model

import (
	"slices"
	"time"
)

const (
	RoleOwner = "owner"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Avatar       *string   `db:"avatar" json:"avatar,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasRole reports whether the user holds any of the given roles.
// Roles are flat: admin does not imply agent.
func (u *User) HasRole(roles ...string) bool {
	return slices.Contains(roles, u.Role)
}

func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAgent, RoleAdmin:
		return true
	}
	return false
}
