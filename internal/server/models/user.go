// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Role is the authorisation role assigned to a user.
type Role string

const (
	RoleNormal Role = "normal"
	RoleAdmin  Role = "admin"
)

// ParseRole validates a role read from storage.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleNormal, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q: %w", s, common.ErrorStorageFailure)
	}
}

// User is an account. PasswordHash holds the digest only and is excluded
// from JSON so it can never be echoed back to a client.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}
