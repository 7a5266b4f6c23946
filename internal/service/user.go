package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"

	"companion/internal/domain"
	"companion/internal/domain/models"
	"companion/internal/domain/repositories"
)

// UserService handles profile reads and updates.
type UserService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// UpdateProfile applies a field-by-field merge of the patch onto the user.
// Only fields present in the patch change; a new password is re-hashed.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, patch *models.UserPatch) (*models.User, error) {
	if err := validateUserPatch(patch); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	updated := *user

	if patch.Email != nil {
		updated.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.FullName != nil {
		updated.FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updated.HashedPassword = string(hashed)
	}

	if err := s.userRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "id", updated.ID)

	return &updated, nil
}

func validateUserPatch(patch *models.UserPatch) error {
	return validation.ValidateStruct(patch,
		validation.Field(&patch.Email, is.Email),
		validation.Field(&patch.FullName, validation.Length(1, 200)),
		validation.Field(&patch.Password, validation.Length(8, 72)),
	)
}
