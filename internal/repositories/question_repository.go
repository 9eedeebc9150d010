package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// QuestionRepository interface for question-specific operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error

	// Bulk operations
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
	DeleteBatch(ctx context.Context, ids []uint) (int64, error)

	// Validation helpers
	Exists(ctx context.Context, id uint) (bool, error)
}
