package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

// Create persists a quiz and its ordered question references in one
// transaction. The referenced questions must already exist.
func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz, questionIDs []uint) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		return insertQuestionRefs(tx, quiz.ID, questionIDs)
	})
}

// GetByID retrieves a quiz with its instructor but without resolving questions
func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.db.WithContext(ctx).
		Preload("Instructor").
		First(&quiz, id).Error

	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

// GetByIDWithQuestions retrieves a quiz with its question rows resolved in
// stored order. This is the explicit resolve step the grading path depends on.
func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Questions.Question").
		First(&quiz, id).Error

	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

// Update saves quiz metadata only; question references are replaced
// separately via ReplaceQuestions.
func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", quiz.ID).
		Updates(map[string]interface{}{
			"name":                quiz.Name,
			"summary":             quiz.Summary,
			"timing":              quiz.Timing,
			"number_of_questions": quiz.NumberOfQuestions,
		}).Error
}

// Delete removes the quiz row and its question references. It returns the
// number of quiz rows removed so callers can report an honest deletion
// summary.
func (q *QuizPostgreSQL) Delete(ctx context.Context, id uint) (int64, error) {
	var deleted int64
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&models.QuizQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete question references: %w", err)
		}

		result := tx.Delete(&models.Quiz{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete quiz: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// ReplaceQuestions swaps the quiz's question reference list for the given
// ids, preserving the given order.
func (q *QuizPostgreSQL) ReplaceQuestions(ctx context.Context, quizID uint, questionIDs []uint) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to clear question references: %w", err)
		}
		return insertQuestionRefs(tx, quizID, questionIDs)
	})
}

// CountQuestions counts the actually referenced questions, independent of the
// informational number_of_questions column.
func (q *QuizPostgreSQL) CountQuestions(ctx context.Context, quizID uint) (int, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.QuizQuestion{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error

	return int(count), err
}

// List retrieves quizzes with filters and pagination
func (q *QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	query := q.db.WithContext(ctx).Model(&models.Quiz{})

	if filters.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filters.InstructorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy, sortOrder := filters.NormalizedSort()
	query = applyPaginationAndSort(query, sortBy, sortOrder, filters.Limit, filters.Offset)

	var quizzes []*models.Quiz
	err := query.Preload("Instructor").Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

// GetByInstructor retrieves quizzes owned by a specific instructor
func (q *QuizPostgreSQL) GetByInstructor(ctx context.Context, instructorID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.InstructorID = &instructorID
	return q.List(ctx, filters)
}

// IsOwner checks if a user owns a quiz
func (q *QuizPostgreSQL) IsOwner(ctx context.Context, quizID, userID uint) (bool, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ? AND instructor_id = ?", quizID, userID).
		Count(&count).Error

	return count > 0, err
}

func insertQuestionRefs(tx *gorm.DB, quizID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}

	refs := make([]models.QuizQuestion, len(questionIDs))
	for i, questionID := range questionIDs {
		refs[i] = models.QuizQuestion{
			QuizID:     quizID,
			QuestionID: questionID,
			Position:   i,
		}
	}

	if err := tx.Create(&refs).Error; err != nil {
		return fmt.Errorf("failed to create question references: %w", err)
	}
	return nil
}

// applyPaginationAndSort applies shared pagination and ordering rules. The
// sort column and direction must already be normalized against the whitelist.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
