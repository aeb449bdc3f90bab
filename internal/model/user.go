package model

import "time"

// Role enumerates user roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCandidate Role = "candidate"
)

// User represents an account, either an administrator or a candidate.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=150"`
	Password string `json:"password" binding:"required,min=1"`
}

// CreateUserRequest is the admin payload for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"required,oneof=admin candidate"`
}

// UpdateUserRequest is the admin payload for updating a user.
type UpdateUserRequest struct {
	Password *string `json:"password" binding:"omitempty,min=6"`
	IsActive *bool   `json:"is_active" binding:"omitempty"`
}
