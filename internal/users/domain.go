// Package users manages staff accounts and their role assignments.
package users

import "time"

// User is a staff account that can act on the system.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserInput carries fields for a new account.
type CreateUserInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UpdateUserInput carries partial updates; nil fields stay unchanged.
type UpdateUserInput struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}
