package models

import (
	"time"
)

// User roles.
const (
	RoleAdmin           = "admin"
	RolePropertyManager = "property-manager"
	RoleStaff           = "staff"
)

// User is an application account able to log in to the management UI.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
