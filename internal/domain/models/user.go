package models

import "time"

// User is an account that owns conversations.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserPatch enumerates the fields a profile update may set. A nil field
// means "leave unchanged"; Password is re-hashed before persisting.
type UserPatch struct {
	Email    *string
	FullName *string
	Password *string
}
