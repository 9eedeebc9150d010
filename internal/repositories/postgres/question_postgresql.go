package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	err := q.db.WithContext(ctx).First(&question, id).Error
	if err != nil {
		return nil, err
	}

	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"text":           question.Text,
			"type":           question.Type,
			"options":        question.Options,
			"correct_answer": question.CorrectAnswer,
		}).Error
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&models.Question{}, id).Error
}

// GetByIDs retrieves questions for the given ids. Order of the returned slice
// is not guaranteed; callers that need quiz order resolve through the quiz's
// question references instead.
func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []*models.Question
	err := q.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&questions).Error

	return questions, err
}

// DeleteBatch removes the given questions and returns how many rows were
// actually deleted.
func (q *QuestionPostgreSQL) DeleteBatch(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := q.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.Question{})

	return result.RowsAffected, result.Error
}

func (q *QuestionPostgreSQL) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Count(&count).Error

	return count > 0, err
}
