package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// ResultRepository interface for result-specific operations. Results are
// append-only; there is deliberately no Update or Delete.
type ResultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	GetByID(ctx context.Context, id uint) (*models.Result, error)

	// Query operations
	GetByQuiz(ctx context.Context, quizID uint, filters ResultFilters) ([]*models.Result, error)        // Student identity resolved
	GetByStudent(ctx context.Context, studentID uint, filters ResultFilters) ([]*models.Result, error)
	HasCompletedResult(ctx context.Context, studentID, quizID uint) (bool, error)
}
