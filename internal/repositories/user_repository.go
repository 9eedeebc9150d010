package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// UserRepository interface for user-specific operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
