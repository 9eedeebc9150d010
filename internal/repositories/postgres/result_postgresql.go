package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, result *models.Result) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Result, error) {
	var result models.Result
	err := r.db.WithContext(ctx).
		Preload("Student").
		First(&result, id).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetByQuiz retrieves all results for a quiz with the student identity
// resolved. An empty slice, not an error, means no submissions yet.
func (r *ResultPostgreSQL) GetByQuiz(ctx context.Context, quizID uint, filters repositories.ResultFilters) ([]*models.Result, error) {
	query := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID)

	query = applyResultFilters(query, filters)

	var results []*models.Result
	err := query.
		Preload("Student").
		Order("created_at ASC").
		Find(&results).Error

	return results, err
}

func (r *ResultPostgreSQL) GetByStudent(ctx context.Context, studentID uint, filters repositories.ResultFilters) ([]*models.Result, error) {
	query := r.db.WithContext(ctx).
		Where("student_id = ?", studentID)

	query = applyResultFilters(query, filters)

	var results []*models.Result
	err := query.
		Order("created_at ASC").
		Find(&results).Error

	return results, err
}

// HasCompletedResult reports whether the student already has a completed
// result for this quiz. Submission only consults it when the duplicate
// policy is enabled.
func (r *ResultPostgreSQL) HasCompletedResult(ctx context.Context, studentID, quizID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Result{}).
		Where("student_id = ? AND quiz_id = ? AND completed = ?", studentID, quizID, true).
		Count(&count).Error

	return count > 0, err
}

func applyResultFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.Completed != nil {
		query = query.Where("completed = ?", *filters.Completed)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
