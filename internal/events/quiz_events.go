package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of quiz lifecycle events
type EventType string

const (
	// Quiz lifecycle events
	EventQuizCreated EventType = "quiz.created"
	EventQuizUpdated EventType = "quiz.updated"
	EventQuizDeleted EventType = "quiz.deleted"

	// Submission events
	EventQuizSubmitted  EventType = "quiz.submitted"
	EventResultRecorded EventType = "result.recorded"
)

// QuizEvent is the envelope for all quiz-service events
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewQuizEvent builds an event envelope with a fresh id and timestamp.
func NewQuizEvent(eventType EventType, data interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data:      data,
	}
}

// Event payloads

type QuizCreatedEvent struct {
	QuizID        uint   `json:"quiz_id"`
	Name          string `json:"name"`
	InstructorID  uint   `json:"instructor_id"`
	QuestionCount int    `json:"question_count"`
}

type QuizUpdatedEvent struct {
	QuizID        uint   `json:"quiz_id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

type QuizDeletedEvent struct {
	QuizID           uint  `json:"quiz_id"`
	DeletedQuestions int64 `json:"deleted_questions"`
}

type QuizSubmittedEvent struct {
	QuizID         uint   `json:"quiz_id"`
	StudentID      uint   `json:"student_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
	Performance    string `json:"performance"`
}

type ResultRecordedEvent struct {
	ResultID    uint   `json:"result_id"`
	QuizID      uint   `json:"quiz_id"`
	StudentID   uint   `json:"student_id"`
	Score       int    `json:"score"`
	Performance string `json:"performance"`
	Completed   bool   `json:"completed"`
}
