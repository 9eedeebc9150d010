package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// ===== PERMISSION CHECKS =====

func (s *quizService) requireInstructor(ctx context.Context, userID uint) error {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return ErrUserInactive
	}
	if user.Role != models.RoleInstructor {
		return NewPermissionError(userID, 0, "quiz", "create", "instructor role required")
	}
	return nil
}

func (s *quizService) requireOwner(ctx context.Context, quizID, userID uint, action string) error {
	isOwner, err := s.repo.Quiz().IsOwner(ctx, quizID, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to check quiz ownership: %w", err)
	}
	if !isOwner {
		// Missing quizzes report as not found, not forbidden.
		if _, err := s.repo.Quiz().GetByID(ctx, quizID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		return NewPermissionError(userID, quizID, "quiz", action, "not the owning instructor")
	}
	return nil
}

// ===== QUIZ RESOLUTION AND CACHING =====

func quizCacheKey(id uint) string {
	return fmt.Sprintf("quiz:%d", id)
}

// cachedQuiz is the shape a resolved quiz takes in the cache. Quiz hides its
// Questions relation from API payloads, so marshaling the model directly
// would drop the questions on the round trip.
type cachedQuiz struct {
	Quiz      models.Quiz           `json:"quiz"`
	Questions []models.QuizQuestion `json:"questions"`
}

// resolveQuiz loads a quiz with its questions in stored order, serving from
// cache when possible.
func (s *quizService) resolveQuiz(ctx context.Context, id uint) (*models.Quiz, error) {
	var cached cachedQuiz
	if err := s.cache.Get(ctx, quizCacheKey(id), &cached); err == nil {
		quiz := cached.Quiz
		quiz.Questions = cached.Questions
		return &quiz, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Quiz cache read failed", "quiz_id", id, "error", err)
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	entry := cachedQuiz{Quiz: *quiz, Questions: quiz.Questions}
	if err := s.cache.Set(ctx, quizCacheKey(id), entry, s.opts.CacheTTL); err != nil {
		s.logger.Warn("Quiz cache write failed", "quiz_id", id, "error", err)
	}

	return quiz, nil
}

func (s *quizService) invalidateQuiz(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, quizCacheKey(id)); err != nil {
		s.logger.Warn("Quiz cache invalidation failed", "quiz_id", id, "error", err)
	}
}

// ===== EVENTS =====

// publishEvent emits an event without failing the calling operation; the
// write that triggered it has already been committed.
func (s *quizService) publishEvent(ctx context.Context, event *events.QuizEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}

// ===== RESPONSE BUILDERS =====

func (s *quizService) buildQuizResponse(quiz *models.Quiz, withQuestions bool) *QuizResponse {
	resp := &QuizResponse{
		ID:                quiz.ID,
		Name:              quiz.Name,
		Summary:           quiz.Summary,
		Timing:            quiz.Timing,
		NumberOfQuestions: quiz.NumberOfQuestions,
		QuestionCount:     len(quiz.Questions),
		CreatedAt:         quiz.CreatedAt,
		UpdatedAt:         quiz.UpdatedAt,
	}
	if quiz.Instructor.ID != 0 {
		resp.Instructor = buildUserResponse(&quiz.Instructor)
	}
	if withQuestions {
		resp.Questions = quiz.OrderedQuestions()
	}
	return resp
}

func (s *quizService) buildQuizListResponse(quizzes []*models.Quiz, total int64, filters repositories.QuizFilters) *QuizListResponse {
	items := make([]*QuizResponse, len(quizzes))
	for i, quiz := range quizzes {
		items[i] = s.buildQuizResponse(quiz, false)
	}
	return &QuizListResponse{
		Quizzes: items,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}
}

func buildUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
