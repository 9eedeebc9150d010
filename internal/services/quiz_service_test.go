package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQuizService(repo *MockRepository, opts QuizServiceOptions) (QuizService, *events.MockEventPublisher) {
	return newTestQuizServiceWithCache(repo, cache.NoopCache{}, opts)
}

func newTestQuizServiceWithCache(repo *MockRepository, cs cache.CacheService, opts QuizServiceOptions) (QuizService, *events.MockEventPublisher) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewQuizService(repo, cs, publisher, validator.New(), logger, opts)
	return svc, publisher
}

// jsonCache stores entries through a JSON round trip the way the Redis
// cache does.
type jsonCache struct {
	entries map[string][]byte
}

func newJSONCache() *jsonCache {
	return &jsonCache{entries: make(map[string][]byte)}
}

func (c *jsonCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *jsonCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *jsonCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func instructorUser(id uint) *models.User {
	return &models.User{ID: id, Username: "prof", Email: "prof@example.com", Role: models.RoleInstructor, IsActive: true}
}

func sampleQuiz(id uint, questions ...models.Question) *models.Quiz {
	quiz := &models.Quiz{ID: id, Name: "Geography", InstructorID: 1}
	for i, q := range questions {
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			QuizID:     id,
			QuestionID: q.ID,
			Position:   i,
			Question:   q,
		})
	}
	return quiz
}

func TestQuizService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates questions and quiz", func(t *testing.T) {
		repo := NewMockRepository()
		svc, publisher := newTestQuizService(repo, QuizServiceOptions{})

		repo.UserRepo.On("GetByID", ctx, uint(1)).Return(instructorUser(1), nil)

		var nextID uint32
		repo.QuestionRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Question")).
			Run(func(args mock.Arguments) {
				q := args.Get(1).(*models.Question)
				q.ID = uint(atomic.AddUint32(&nextID, 1))
			}).Return(nil)

		repo.QuizRepo.On("Create", ctx, mock.AnythingOfType("*models.Quiz"), mock.AnythingOfType("[]uint")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*models.Quiz).ID = 10
			}).Return(nil)

		resolved := sampleQuiz(10,
			models.Question{ID: 1, Text: "Capital of France?", Type: models.ShortAnswer, CorrectAnswer: models.SingleAnswerKey("paris")},
			models.Question{ID: 2, Text: "Pick the mammals", Type: models.MultipleChoice, CorrectAnswer: models.MultipleAnswerKey("cat", "dog")},
		)
		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(10)).Return(resolved, nil)

		timing := 15
		req := &CreateQuizRequest{
			Name:    "Geography",
			Summary: "Capitals and animals",
			Timing:  &timing,
			Questions: []CreateQuestionRequest{
				{Text: "Capital of France?", Type: models.ShortAnswer, CorrectAnswer: models.SingleAnswerKey("paris")},
				{Text: "Pick the mammals", Type: models.MultipleChoice, CorrectAnswer: models.MultipleAnswerKey("cat", "dog")},
			},
		}

		resp, err := svc.Create(ctx, req, 1)
		require.NoError(t, err)
		assert.Equal(t, uint(10), resp.ID)
		assert.Len(t, resp.Questions, 2)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventQuizCreated, published[0].Type)

		repo.AssertExpectations(t)
	})

	t.Run("rejects non-instructor", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		student := &models.User{ID: 2, Role: models.RoleStudent, IsActive: true}
		repo.UserRepo.On("GetByID", ctx, uint(2)).Return(student, nil)

		timing := 5
		req := &CreateQuizRequest{
			Name:    "Nope",
			Summary: "Not yours to create",
			Timing:  &timing,
			Questions: []CreateQuestionRequest{
				{Text: "True?", Type: models.TrueFalse, CorrectAnswer: models.SingleAnswerKey("true")},
			},
		}
		_, err := svc.Create(ctx, req, 2)
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))
		repo.QuizRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects answer key shape mismatching question type", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.UserRepo.On("GetByID", ctx, uint(1)).Return(instructorUser(1), nil)

		timing := 5
		req := &CreateQuizRequest{
			Name:    "Broken",
			Summary: "Mismatched answer key",
			Timing:  &timing,
			Questions: []CreateQuestionRequest{
				{Text: "Pick two", Type: models.MultipleChoice, CorrectAnswer: models.SingleAnswerKey("a")},
			},
		}
		_, err := svc.Create(ctx, req, 1)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects missing name", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		_, err := svc.Create(ctx, &CreateQuizRequest{}, 1)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("requires summary, timing and questions", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		_, err := svc.Create(ctx, &CreateQuizRequest{Name: "Bare"}, 1)
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		fields := make([]string, len(verrs))
		for i, ve := range verrs {
			fields[i] = ve.Field
		}
		assert.Contains(t, fields, "summary")
		assert.Contains(t, fields, "timing")
		assert.Contains(t, fields, "questions")
	})
}


func TestQuizService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves questions in stored order", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		quiz := sampleQuiz(7,
			models.Question{ID: 3, Text: "Q1", Type: models.TrueFalse, CorrectAnswer: models.SingleAnswerKey("true")},
			models.Question{ID: 1, Text: "Q2", Type: models.TrueFalse, CorrectAnswer: models.SingleAnswerKey("false")},
		)
		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(7)).Return(quiz, nil)

		resp, err := svc.GetByID(ctx, 7)
		require.NoError(t, err)
		require.Len(t, resp.Questions, 2)
		assert.Equal(t, uint(3), resp.Questions[0].ID)
		assert.Equal(t, uint(1), resp.Questions[1].ID)
		assert.Equal(t, 2, resp.QuestionCount)
	})

	t.Run("maps missing quiz to ErrQuizNotFound", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.GetByID(ctx, 99)
		assert.ErrorIs(t, err, ErrQuizNotFound)
	})
}

func TestQuizService_Submit(t *testing.T) {
	ctx := context.Background()

	quiz := sampleQuiz(5,
		models.Question{ID: 1, Text: "Capital of France?", Type: models.ShortAnswer, CorrectAnswer: models.SingleAnswerKey("paris")},
		models.Question{ID: 2, Text: "Pick the mammals", Type: models.MultipleChoice, CorrectAnswer: models.MultipleAnswerKey("cat", "dog")},
	)

	t.Run("grades and records a result", func(t *testing.T) {
		repo := NewMockRepository()
		svc, publisher := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quiz, nil)

		var recorded *models.Result
		repo.ResultRepo.On("Create", ctx, mock.AnythingOfType("*models.Result")).
			Run(func(args mock.Arguments) {
				recorded = args.Get(1).(*models.Result)
				recorded.ID = 42
			}).Return(nil)

		req := &SubmitQuizRequest{Answers: []grading.Answer{
			grading.SingleAnswer("PARIS"),
			grading.MultipleAnswer("dog", "cat"),
		}}

		score, err := svc.Submit(ctx, 5, 3, req)
		require.NoError(t, err)
		assert.Equal(t, 2, score.Score)
		assert.Equal(t, "2/2", score.ScoreString)
		assert.Equal(t, "100%", score.Percentage)
		assert.Equal(t, grading.PerformanceExcellent, score.Performance)

		require.NotNil(t, recorded)
		assert.Equal(t, uint(3), recorded.StudentID)
		assert.Equal(t, uint(5), recorded.QuizID)
		assert.Equal(t, 2, recorded.Score)
		assert.True(t, recorded.Completed)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 2)
		assert.Equal(t, events.EventQuizSubmitted, published[0].Type)
		assert.Equal(t, events.EventResultRecorded, published[1].Type)

		// Duplicate policy is off, so no prior-attempt lookup happens.
		repo.ResultRepo.AssertNotCalled(t, "HasCompletedResult", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repeat submissions append by default", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quiz, nil)
		repo.ResultRepo.On("Create", ctx, mock.AnythingOfType("*models.Result")).Return(nil)

		req := &SubmitQuizRequest{Answers: []grading.Answer{grading.SingleAnswer("paris")}}

		_, err := svc.Submit(ctx, 5, 3, req)
		require.NoError(t, err)
		_, err = svc.Submit(ctx, 5, 3, req)
		require.NoError(t, err)

		repo.ResultRepo.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("rejects duplicate when policy enabled", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{RejectDuplicateSubmissions: true})

		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quiz, nil)
		repo.ResultRepo.On("HasCompletedResult", ctx, uint(3), uint(5)).Return(true, nil)

		_, err := svc.Submit(ctx, 5, 3, &SubmitQuizRequest{})
		assert.ErrorIs(t, err, ErrDuplicateSubmission)
		repo.ResultRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("grades identically on a cache hit", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizServiceWithCache(repo, newJSONCache(), QuizServiceOptions{})

		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quiz, nil).Once()
		repo.ResultRepo.On("Create", ctx, mock.AnythingOfType("*models.Result")).Return(nil)

		req := &SubmitQuizRequest{Answers: []grading.Answer{
			grading.SingleAnswer("paris"),
			grading.MultipleAnswer("cat", "dog"),
		}}

		first, err := svc.Submit(ctx, 5, 3, req)
		require.NoError(t, err)
		assert.Equal(t, "2/2", first.ScoreString)

		// The second submission is served from the cache and must see the
		// same questions the first one graded against.
		second, err := svc.Submit(ctx, 5, 3, req)
		require.NoError(t, err)
		assert.Equal(t, "2/2", second.ScoreString)
		assert.Equal(t, grading.PerformanceExcellent, second.Performance)

		repo.QuizRepo.AssertNumberOfCalls(t, "GetByIDWithQuestions", 1)
	})

	t.Run("serves questions from the cache intact", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizServiceWithCache(repo, newJSONCache(), QuizServiceOptions{})

		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quiz, nil).Once()

		warm, err := svc.GetQuestions(ctx, 5)
		require.NoError(t, err)
		cachedQuestions, err := svc.GetQuestions(ctx, 5)
		require.NoError(t, err)

		require.Len(t, cachedQuestions, len(warm))
		assert.Equal(t, warm[0].ID, cachedQuestions[0].ID)
		assert.Equal(t, warm[1].CorrectAnswer, cachedQuestions[1].CorrectAnswer)
	})

	t.Run("grades an empty submission as zero", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quiz, nil)
		repo.ResultRepo.On("Create", ctx, mock.AnythingOfType("*models.Result")).Return(nil)

		score, err := svc.Submit(ctx, 5, 3, &SubmitQuizRequest{})
		require.NoError(t, err)
		assert.Equal(t, 0, score.Score)
		assert.Equal(t, "0/2", score.ScoreString)
		assert.Equal(t, grading.PerformancePoor, score.Performance)
	})
}

func TestQuizService_GetQuestionCount(t *testing.T) {
	ctx := context.Background()

	t.Run("counts referenced questions", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("GetByID", ctx, uint(5)).Return(&models.Quiz{ID: 5, InstructorID: 1}, nil)
		repo.QuizRepo.On("CountQuestions", ctx, uint(5)).Return(3, nil)

		count, err := svc.GetQuestionCount(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("reports a missing quiz as not found", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("GetByID", ctx, uint(404)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.GetQuestionCount(ctx, 404)
		assert.ErrorIs(t, err, ErrQuizNotFound)
		repo.QuizRepo.AssertNotCalled(t, "CountQuestions", mock.Anything, mock.Anything)
	})
}

func TestQuizService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("reports what was actually removed", func(t *testing.T) {
		repo := NewMockRepository()
		svc, publisher := newTestQuizService(repo, QuizServiceOptions{})

		quiz := sampleQuiz(5,
			models.Question{ID: 1, Type: models.TrueFalse, Text: "Q1", CorrectAnswer: models.SingleAnswerKey("true")},
			models.Question{ID: 2, Type: models.TrueFalse, Text: "Q2", CorrectAnswer: models.SingleAnswerKey("false")},
		)
		repo.QuizRepo.On("IsOwner", ctx, uint(5), uint(1)).Return(true, nil)
		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quiz, nil)
		repo.QuizRepo.On("Delete", ctx, uint(5)).Return(int64(1), nil)
		repo.QuestionRepo.On("DeleteBatch", ctx, []uint{1, 2}).Return(int64(2), nil)

		summary, err := svc.Delete(ctx, 5, 1)
		require.NoError(t, err)
		assert.True(t, summary.Acknowledged)
		assert.Equal(t, int64(1), summary.DeletedQuizzes)
		assert.Equal(t, int64(2), summary.DeletedQuestions)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventQuizDeleted, published[0].Type)
	})

	t.Run("reports a missing quiz as not found", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("IsOwner", ctx, uint(404), uint(1)).Return(false, nil)
		repo.QuizRepo.On("GetByID", ctx, uint(404)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Delete(ctx, 404, 1)
		assert.ErrorIs(t, err, ErrQuizNotFound)
	})

	t.Run("refuses non-owner", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("IsOwner", ctx, uint(5), uint(9)).Return(false, nil)
		repo.QuizRepo.On("GetByID", ctx, uint(5)).Return(&models.Quiz{ID: 5, InstructorID: 1}, nil)

		_, err := svc.Delete(ctx, 5, 9)
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))
		repo.QuizRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestQuizService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts questions by id presence", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		existing := &models.Quiz{ID: 5, Name: "Old", InstructorID: 1}
		repo.QuizRepo.On("IsOwner", ctx, uint(5), uint(1)).Return(true, nil)
		repo.QuizRepo.On("GetByID", ctx, uint(5)).Return(existing, nil)
		repo.QuizRepo.On("Update", ctx, existing).Return(nil)

		repo.QuestionRepo.On("Exists", ctx, uint(1)).Return(true, nil)
		repo.QuestionRepo.On("Update", ctx, mock.AnythingOfType("*models.Question")).Return(nil)
		repo.QuestionRepo.On("Create", ctx, mock.AnythingOfType("*models.Question")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*models.Question).ID = 7
			}).Return(nil)

		repo.QuizRepo.On("ReplaceQuestions", ctx, uint(5), []uint{1, 7}).Return(nil)
		repo.QuizRepo.On("CountQuestions", ctx, uint(5)).Return(2, nil)
		repo.QuizRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(sampleQuiz(5), nil)

		name := "New"
		questions := []UpdateQuestionRequest{
			{ID: 1, Text: "Edited", Type: models.TrueFalse, CorrectAnswer: models.SingleAnswerKey("true")},
			{Text: "Fresh", Type: models.ShortAnswer, CorrectAnswer: models.SingleAnswerKey("go")},
		}
		_, err := svc.Update(ctx, 5, &UpdateQuizRequest{Name: &name, Questions: &questions}, 1)
		require.NoError(t, err)
		assert.Equal(t, "New", existing.Name)
		repo.AssertExpectations(t)
	})

	t.Run("fails when an updated question is missing", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		existing := &models.Quiz{ID: 5, Name: "Old", InstructorID: 1}
		repo.QuizRepo.On("IsOwner", ctx, uint(5), uint(1)).Return(true, nil)
		repo.QuizRepo.On("GetByID", ctx, uint(5)).Return(existing, nil)
		repo.QuizRepo.On("Update", ctx, existing).Return(nil)
		repo.QuestionRepo.On("Exists", ctx, uint(99)).Return(false, nil)

		questions := []UpdateQuestionRequest{
			{ID: 99, Text: "Ghost", Type: models.TrueFalse, CorrectAnswer: models.SingleAnswerKey("true")},
		}
		_, err := svc.Update(ctx, 5, &UpdateQuizRequest{Questions: &questions}, 1)
		assert.ErrorIs(t, err, ErrQuestionNotFound)
	})
}

func TestQuizService_Results(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can read quiz results", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("IsOwner", ctx, uint(5), uint(1)).Return(true, nil)
		repo.ResultRepo.On("GetByQuiz", ctx, uint(5), repositories.ResultFilters{}).Return([]*models.Result{
			{ID: 1, StudentID: 3, QuizID: 5, Score: 2, Performance: grading.PerformanceExcellent, Completed: true},
		}, nil)

		results, err := svc.GetQuizResults(ctx, 5, 1, repositories.ResultFilters{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 2, results[0].Score)
	})

	t.Run("non-owner cannot read quiz results", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newTestQuizService(repo, QuizServiceOptions{})

		repo.QuizRepo.On("IsOwner", ctx, uint(5), uint(3)).Return(false, nil)
		repo.QuizRepo.On("GetByID", ctx, uint(5)).Return(&models.Quiz{ID: 5, InstructorID: 1}, nil)

		_, err := svc.GetQuizResults(ctx, 5, 3, repositories.ResultFilters{})
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))
	})
}
