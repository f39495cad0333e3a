package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff account. Every user carries exactly one role.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type SystemStats struct {
	TotalUsers    int `json:"total_users"`
	ActiveUsers   int `json:"active_users"`
	TotalPatients int `json:"total_patients"`
	TotalDoctors  int `json:"total_doctors"`
}

type CreateUserInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin doctor nurse receptionist pharmacist accountant lab_technician radiologist"`
}

// UpdateUserInput is a partial update; nil fields are left alone and an
// empty password keeps the current one.
type UpdateUserInput struct {
	Name     *string `json:"name" validate:"omitempty,min=2"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin doctor nurse receptionist pharmacist accountant lab_technician radiologist"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
