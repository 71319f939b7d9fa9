// Package models holds the server-side domain records.
package models

import "time"

// Role is the server-assigned authorization role of a user.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
)

// ParseRole accepts only the roles a client may request at registration.
// An empty value yields RoleUser.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case "":
		return RoleUser, true
	case RoleUser, RoleSeller:
		return Role(s), true
	default:
		return "", false
	}
}

type FullName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// User is the identity record. PasswordHash is only populated when the
// repository is asked for it explicitly and is never serialized.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     FullName  `json:"fullName"`
	Role         Role      `json:"role"`
	Addresses    []Address `json:"addresses"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
