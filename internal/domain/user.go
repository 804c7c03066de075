package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of an account
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// CanAdminister reports whether the role grants access to administrative endpoints
func (r Role) CanAdminister() bool {
	return r == RoleAdmin
}

// User represents a registered account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Phone        string    `json:"phone" db:"phone"`
	Address      string    `json:"address" db:"address"`
	AnswerHash   string    `json:"-" db:"answer_hash"`
	Role         Role      `json:"role" db:"role"`
	Photo        *PhotoRef `json:"-" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserProfile is the public projection of a user
type UserProfile struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Role     Role   `json:"role"`
	HasPhoto bool   `json:"has_photo"`
}

// Profile strips credentials from the user
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:       u.ID.String(),
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Address:  u.Address,
		Role:     u.Role,
		HasPhoto: u.Photo != nil,
	}
}

// UserSummary is the buyer projection embedded in orders
type UserSummary struct {
	ID   uuid.UUID `json:"_id"`
	Name string    `json:"name"`
}

// PhotoRef points at a binary photo kept in the blob store
type PhotoRef struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
