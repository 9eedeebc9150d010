package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// questionCreateConcurrency bounds parallel question inserts during quiz
// creation.
const questionCreateConcurrency = 4

type QuizServiceOptions struct {
	CacheTTL time.Duration

	// RejectDuplicateSubmissions refuses a second completed attempt for the
	// same student and quiz. When off, every submission appends a result.
	RejectDuplicateSubmissions bool
}

type quizService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
	opts      QuizServiceOptions
}

func NewQuizService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
	opts QuizServiceOptions,
) QuizService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &quizService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		validator: v,
		logger:    logger,
		opts:      opts,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, instructorID uint) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "instructor_id", instructorID, "name", req.Name)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	if err := s.requireInstructor(ctx, instructorID); err != nil {
		return nil, err
	}

	questions := make([]*models.Question, len(req.Questions))
	for i, qr := range req.Questions {
		questions[i] = &models.Question{
			Text:          qr.Text,
			Type:          qr.Type,
			Options:       qr.Options,
			CorrectAnswer: qr.CorrectAnswer,
		}
	}
	if err := s.validator.Question().ValidateBatch(questions); err != nil {
		return nil, err
	}

	questionIDs, err := s.createQuestions(ctx, questions)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		Name:              req.Name,
		Summary:           req.Summary,
		Timing:            req.Timing,
		NumberOfQuestions: req.NumberOfQuestions,
		InstructorID:      instructorID,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Quiz().Create(ctx, quiz, questionIDs)
	})
	if err != nil {
		// The quiz row never landed; drop the questions created above so
		// they do not linger unreferenced.
		s.cleanupQuestions(ctx, questionIDs)
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.publishEvent(ctx, events.NewQuizEvent(events.EventQuizCreated, events.QuizCreatedEvent{
		QuizID:        quiz.ID,
		Name:          quiz.Name,
		InstructorID:  instructorID,
		QuestionCount: len(questionIDs),
	}))

	s.logger.Info("Quiz created successfully", "quiz_id", quiz.ID, "questions", len(questionIDs))

	return s.GetByID(ctx, quiz.ID)
}

func (s *quizService) GetByID(ctx context.Context, id uint) (*QuizResponse, error) {
	quiz, err := s.resolveQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildQuizResponse(quiz, true), nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID uint) (*QuizResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	if err := s.requireOwner(ctx, id, userID, "update"); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if req.Name != nil {
		quiz.Name = *req.Name
	}
	if req.Summary != nil {
		quiz.Summary = *req.Summary
	}
	if req.Timing != nil {
		quiz.Timing = req.Timing
	}
	if req.NumberOfQuestions != nil {
		quiz.NumberOfQuestions = req.NumberOfQuestions
	}

	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	if req.Questions != nil {
		if err := s.upsertQuestions(ctx, id, *req.Questions); err != nil {
			return nil, err
		}
	}

	s.invalidateQuiz(ctx, id)

	count, err := s.repo.Quiz().CountQuestions(ctx, id)
	if err != nil {
		count = 0
	}
	s.publishEvent(ctx, events.NewQuizEvent(events.EventQuizUpdated, events.QuizUpdatedEvent{
		QuizID:        id,
		Name:          quiz.Name,
		QuestionCount: count,
	}))

	return s.GetByID(ctx, id)
}

func (s *quizService) Delete(ctx context.Context, id uint, userID uint) (*repositories.DeleteSummary, error) {
	if err := s.requireOwner(ctx, id, userID, "delete"); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	questionIDs := quiz.QuestionIDs()

	summary := &repositories.DeleteSummary{}
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		deletedQuizzes, err := txRepo.Quiz().Delete(ctx, id)
		if err != nil {
			return err
		}
		var deletedQuestions int64
		if len(questionIDs) > 0 {
			deletedQuestions, err = txRepo.Question().DeleteBatch(ctx, questionIDs)
			if err != nil {
				return err
			}
		}
		summary.DeletedQuizzes = deletedQuizzes
		summary.DeletedQuestions = deletedQuestions
		summary.Acknowledged = deletedQuizzes > 0
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.invalidateQuiz(ctx, id)

	s.publishEvent(ctx, events.NewQuizEvent(events.EventQuizDeleted, events.QuizDeletedEvent{
		QuizID:           id,
		DeletedQuestions: summary.DeletedQuestions,
	}))

	s.logger.Info("Quiz deleted",
		"quiz_id", id,
		"deleted_quizzes", summary.DeletedQuizzes,
		"deleted_questions", summary.DeletedQuestions)

	return summary, nil
}

// ===== QUESTION ACCESS =====

func (s *quizService) GetQuestions(ctx context.Context, quizID uint) ([]models.Question, error) {
	quiz, err := s.resolveQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return quiz.OrderedQuestions(), nil
}

func (s *quizService) GetQuestionCount(ctx context.Context, quizID uint) (int, error) {
	// Counting over quiz_questions yields 0 for a quiz that never existed,
	// so existence is checked separately.
	if _, err := s.repo.Quiz().GetByID(ctx, quizID); err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrQuizNotFound
		}
		return 0, fmt.Errorf("failed to get quiz: %w", err)
	}

	count, err := s.repo.Quiz().CountQuestions(ctx, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// ===== LISTING =====

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error) {
	quizzes, total, err := s.repo.Quiz().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return s.buildQuizListResponse(quizzes, total, filters), nil
}

func (s *quizService) GetByInstructor(ctx context.Context, instructorID uint, filters repositories.QuizFilters) (*QuizListResponse, error) {
	quizzes, total, err := s.repo.Quiz().GetByInstructor(ctx, instructorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructor quizzes: %w", err)
	}
	return s.buildQuizListResponse(quizzes, total, filters), nil
}

// ===== SUBMISSION =====

func (s *quizService) Submit(ctx context.Context, quizID uint, studentID uint, req *SubmitQuizRequest) (*grading.ScoreResult, error) {
	s.logger.Info("Grading submission", "quiz_id", quizID, "student_id", studentID)

	quiz, err := s.resolveQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if s.opts.RejectDuplicateSubmissions {
		completed, err := s.repo.Result().HasCompletedResult(ctx, studentID, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to check prior submissions: %w", err)
		}
		if completed {
			return nil, ErrDuplicateSubmission
		}
	}

	score := grading.Score(quiz.OrderedQuestions(), req.Answers)

	result := &models.Result{
		StudentID:   studentID,
		QuizID:      quizID,
		Score:       score.Score,
		Performance: score.Performance,
		Completed:   true,
	}
	if err := s.repo.Result().Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	s.publishEvent(ctx, events.NewQuizEvent(events.EventQuizSubmitted, events.QuizSubmittedEvent{
		QuizID:         quizID,
		StudentID:      studentID,
		Score:          score.Score,
		TotalQuestions: score.TotalQuestions,
		Performance:    score.Performance,
	}))
	s.publishEvent(ctx, events.NewQuizEvent(events.EventResultRecorded, events.ResultRecordedEvent{
		ResultID:    result.ID,
		QuizID:      quizID,
		StudentID:   studentID,
		Score:       result.Score,
		Performance: result.Performance,
		Completed:   result.Completed,
	}))

	s.logger.Info("Submission graded",
		"quiz_id", quizID,
		"student_id", studentID,
		"score", score.ScoreString,
		"performance", score.Performance)

	return &score, nil
}

// ===== RESULTS =====

func (s *quizService) GetQuizResults(ctx context.Context, quizID uint, userID uint, filters repositories.ResultFilters) ([]*models.Result, error) {
	if err := s.requireOwner(ctx, quizID, userID, "read results of"); err != nil {
		return nil, err
	}

	results, err := s.repo.Result().GetByQuiz(ctx, quizID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %w", err)
	}
	return results, nil
}

func (s *quizService) GetStudentResults(ctx context.Context, studentID uint, filters repositories.ResultFilters) ([]*models.Result, error) {
	results, err := s.repo.Result().GetByStudent(ctx, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get student results: %w", err)
	}
	return results, nil
}

// ===== QUESTION CREATION =====

// createQuestions inserts the questions concurrently and returns their ids
// in request order.
func (s *quizService) createQuestions(ctx context.Context, questions []*models.Question) ([]uint, error) {
	if len(questions) == 0 {
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(questionCreateConcurrency)

	for _, question := range questions {
		question := question
		g.Go(func() error {
			return s.repo.Question().Create(gctx, question)
		})
	}

	if err := g.Wait(); err != nil {
		created := make([]uint, 0, len(questions))
		for _, q := range questions {
			if q.ID != 0 {
				created = append(created, q.ID)
			}
		}
		s.cleanupQuestions(ctx, created)
		return nil, fmt.Errorf("failed to create questions: %w", err)
	}

	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids, nil
}

func (s *quizService) cleanupQuestions(ctx context.Context, ids []uint) {
	if len(ids) == 0 {
		return
	}
	if _, err := s.repo.Question().DeleteBatch(ctx, ids); err != nil {
		s.logger.Warn("Failed to clean up orphaned questions", "ids", ids, "error", err)
	}
}

// upsertQuestions writes the submitted question set and points the quiz's
// references at it in submission order. Writes are applied one at a time; a
// failure part way through leaves the earlier writes in place.
func (s *quizService) upsertQuestions(ctx context.Context, quizID uint, reqs []UpdateQuestionRequest) error {
	ids := make([]uint, len(reqs))
	for i, qr := range reqs {
		question := &models.Question{
			ID:            qr.ID,
			Text:          qr.Text,
			Type:          qr.Type,
			Options:       qr.Options,
			CorrectAnswer: qr.CorrectAnswer,
		}
		if err := s.validator.Question().ValidateQuestion(question); err != nil {
			return err
		}

		if question.ID != 0 {
			exists, err := s.repo.Question().Exists(ctx, question.ID)
			if err != nil {
				return fmt.Errorf("failed to resolve question %d: %w", question.ID, err)
			}
			if !exists {
				return ErrQuestionNotFound
			}
			if err := s.repo.Question().Update(ctx, question); err != nil {
				return fmt.Errorf("failed to update question %d: %w", question.ID, err)
			}
		} else {
			if err := s.repo.Question().Create(ctx, question); err != nil {
				return fmt.Errorf("failed to create question: %w", err)
			}
		}
		ids[i] = question.ID
	}

	if err := s.repo.Quiz().ReplaceQuestions(ctx, quizID, ids); err != nil {
		return fmt.Errorf("failed to update question references: %w", err)
	}
	return nil
}
