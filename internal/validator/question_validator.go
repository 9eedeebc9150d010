package validator

import (
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// QuestionValidator enforces question-level invariants, most importantly
// that the answer key variant agrees with the question type. It runs before
// any question write.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a complete question object
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.Text == "" {
		return apperrors.NewValidationError("question", "question text is required", nil)
	}

	if question.CorrectAnswer.IsZero() {
		return apperrors.NewValidationError("correctAnswer", "correct answer is required", nil)
	}

	return v.ValidateAnswerKey(question.Type, question.CorrectAnswer)
}

// ValidateAnswerKey checks the shape-matches-type invariant: multiple choice
// questions carry an answer list, every other type a single string.
func (v *QuestionValidator) ValidateAnswerKey(questionType models.QuestionType, key models.AnswerKey) error {
	switch questionType {
	case models.MultipleChoice:
		if !key.IsMultiple() {
			return apperrors.NewValidationError("correctAnswer",
				"correct answer must be an array for multiple choice questions", key)
		}
		if len(key.Values) == 0 {
			return apperrors.NewValidationError("correctAnswer",
				"multiple choice questions need at least one correct answer", key)
		}
	case models.TrueFalse, models.SingleChoice, models.ShortAnswer:
		if key.IsMultiple() {
			return apperrors.NewValidationError("correctAnswer",
				fmt.Sprintf("correct answer must be a string for %s questions", questionType), key)
		}
	default:
		return apperrors.NewValidationError("type",
			fmt.Sprintf("unsupported question type: %s", questionType), questionType)
	}

	return nil
}

// ValidateBatch validates multiple questions
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) error {
	if len(questions) == 0 {
		return apperrors.NewValidationError("questions", "question batch cannot be empty", nil)
	}

	for i, question := range questions {
		if err := v.ValidateQuestion(question); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}

	return nil
}
