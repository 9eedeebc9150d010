package models

import (
	"time"

	"gorm.io/gorm"
)

type Quiz struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Summary string `json:"summary" gorm:"type:text" validate:"max=1000"`

	// Timing is the allotted time in minutes. NumberOfQuestions is
	// informational metadata and may drift from the actual question count.
	Timing            *int `json:"timing"`
	NumberOfQuestions *int `json:"numberOfQuestions"`

	InstructorID uint `json:"instructor_id" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Instructor User           `json:"instructor" gorm:"foreignKey:InstructorID"`
	Questions  []QuizQuestion `json:"-" gorm:"foreignKey:QuizID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion links a quiz to one of its questions. Position preserves the
// stored question order; submitted answers are aligned to it by index.
type QuizQuestion struct {
	QuizID     uint `json:"quiz_id" gorm:"primaryKey"`
	QuestionID uint `json:"question_id" gorm:"primaryKey"`
	Position   int  `json:"position" gorm:"not null;index"`

	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// OrderedQuestions returns the quiz's questions in stored order. The slice is
// only meaningful after the Questions relation has been resolved.
func (q *Quiz) OrderedQuestions() []Question {
	questions := make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		questions[i] = qq.Question
	}
	return questions
}

// QuestionIDs returns the referenced question ids in stored order.
func (q *Quiz) QuestionIDs() []uint {
	ids := make([]uint, len(q.Questions))
	for i, qq := range q.Questions {
		ids[i] = qq.QuestionID
	}
	return ids
}
