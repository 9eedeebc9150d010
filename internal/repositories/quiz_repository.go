package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// QuizRepository interface for quiz-specific operations
type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, quiz *models.Quiz, questionIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) // Questions resolved in stored order
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) (int64, error)

	// Question reference management
	ReplaceQuestions(ctx context.Context, quizID uint, questionIDs []uint) error
	CountQuestions(ctx context.Context, quizID uint) (int, error)

	// Query operations
	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByInstructor(ctx context.Context, instructorID uint, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Permission checks
	IsOwner(ctx context.Context, quizID, userID uint) (bool, error)
}
