package models

import "time"

// Result is the immutable record of one submission attempt. Repeated
// submissions by the same student each append a new row; rows are never
// updated.
type Result struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	StudentID   uint   `json:"studentId" gorm:"not null;index"`
	QuizID      uint   `json:"quizId" gorm:"not null;index"`
	Score       int    `json:"score" gorm:"not null"`
	Performance string `json:"performance" gorm:"not null;size:20"`
	Completed   bool   `json:"completed" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Student User `json:"student" gorm:"foreignKey:StudentID"`
	Quiz    Quiz `json:"-" gorm:"foreignKey:QuizID"`
}

func (Result) TableName() string {
	return "results"
}
