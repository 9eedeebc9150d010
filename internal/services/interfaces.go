package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// ===== REQUEST DTOS =====

type CreateQuestionRequest struct {
	Text          string              `json:"question" validate:"required,min=1"`
	Type          models.QuestionType `json:"type" validate:"required,question_type"`
	Options       []models.Option     `json:"options" validate:"omitempty,dive"`
	CorrectAnswer models.AnswerKey    `json:"correctAnswer"`
}

type CreateQuizRequest struct {
	Name              string                  `json:"name" validate:"required,min=1,max=200"`
	Summary           string                  `json:"summary" validate:"required,max=1000"`
	Timing            *int                    `json:"timing" validate:"required,min=1"`
	NumberOfQuestions *int                    `json:"numberOfQuestions" validate:"omitempty,min=0"`
	Questions         []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// UpdateQuestionRequest upserts one question during a quiz update: an id
// updates the existing question, a zero id creates a new one.
type UpdateQuestionRequest struct {
	ID            uint                `json:"id"`
	Text          string              `json:"question" validate:"required,min=1"`
	Type          models.QuestionType `json:"type" validate:"required,question_type"`
	Options       []models.Option     `json:"options" validate:"omitempty,dive"`
	CorrectAnswer models.AnswerKey    `json:"correctAnswer"`
}

type UpdateQuizRequest struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=200"`
	Summary           *string `json:"summary" validate:"omitempty,max=1000"`
	Timing            *int    `json:"timing" validate:"omitempty,min=1"`
	NumberOfQuestions *int    `json:"numberOfQuestions" validate:"omitempty,min=0"`

	// Questions, when present, replaces the quiz's question set in the
	// given order. A nil field leaves the questions untouched.
	Questions *[]UpdateQuestionRequest `json:"questions" validate:"omitempty,dive"`
}

// SubmitQuizRequest carries the student's answers aligned by index with the
// quiz's stored question order. Missing or malformed entries count as
// unanswered, never as errors.
type SubmitQuizRequest struct {
	Answers []grading.Answer `json:"answers"`
}

type RegisterRequest struct {
	Username string          `json:"username" validate:"required,min=2,max=100"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ===== RESPONSE DTOS =====

type QuizResponse struct {
	ID                uint              `json:"id"`
	Name              string            `json:"name"`
	Summary           string            `json:"summary"`
	Timing            *int              `json:"timing"`
	NumberOfQuestions *int              `json:"numberOfQuestions"`
	QuestionCount     int               `json:"questionCount"`
	Instructor        *UserResponse     `json:"instructor,omitempty"`
	Questions         []models.Question `json:"questions,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type QuizListResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type UserResponse struct {
	ID          uint            `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// ===== SERVICE INTERFACES =====

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, instructorID uint) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID uint) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, userID uint) (*repositories.DeleteSummary, error)

	GetQuestions(ctx context.Context, quizID uint) ([]models.Question, error)
	GetQuestionCount(ctx context.Context, quizID uint) (int, error)

	List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error)
	GetByInstructor(ctx context.Context, instructorID uint, filters repositories.QuizFilters) (*QuizListResponse, error)

	Submit(ctx context.Context, quizID uint, studentID uint, req *SubmitQuizRequest) (*grading.ScoreResult, error)
	GetQuizResults(ctx context.Context, quizID uint, userID uint, filters repositories.ResultFilters) ([]*models.Result, error)
	GetStudentResults(ctx context.Context, studentID uint, filters repositories.ResultFilters) ([]*models.Result, error)
}

type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	GetByID(ctx context.Context, id uint) (*UserResponse, error)
}

// ExportService renders a quiz's recorded results for download.
type ExportService interface {
	ExportResultsXLSX(ctx context.Context, quizID uint, userID uint) ([]byte, error)
	ExportResultsCSV(ctx context.Context, quizID uint, userID uint) ([]byte, error)
}

// ServiceManager bundles the services behind one injection point for the
// handler layer.
type ServiceManager struct {
	Quiz   QuizService
	User   UserService
	Export ExportService
}
