package userRepo

import (
	"context"
	"errors"

	"giftkit/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("a user with this email already exists")
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// Create inserts a new user record.
	Create(ctx context.Context, user *models.User) error
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail retrieves a user by its email address, password hash included.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ListByRole returns every user holding role, newest first.
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	// CountByRole counts the users holding role.
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}
