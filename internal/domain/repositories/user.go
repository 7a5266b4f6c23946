package repositories

import (
	"context"

	"companion/internal/domain/models"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrConflict if the email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by primary key.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email (unique).
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update persists email, full name and password hash for an existing user.
	Update(ctx context.Context, user *models.User) error
}
