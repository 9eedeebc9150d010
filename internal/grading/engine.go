// Package grading scores quiz submissions against stored answer keys. It is
// pure computation: callers resolve the quiz's questions and persist the
// outcome themselves.
package grading

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// Answer is one submitted answer: a single string, a list of strings, or
// nothing at all. Absent and malformed answers grade as incorrect, never as
// an error.
type Answer struct {
	Single   string
	Values   []string
	multiple bool
	present  bool
}

func SingleAnswer(value string) Answer {
	return Answer{Single: value, present: true}
}

func MultipleAnswer(values ...string) Answer {
	return Answer{Values: values, multiple: true, present: true}
}

func (a Answer) IsMultiple() bool {
	return a.multiple
}

func (a Answer) IsPresent() bool {
	return a.present
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.present {
		return []byte("null"), nil
	}
	if a.multiple {
		values := a.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(a.Single)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Answer{}
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = SingleAnswer(single)
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err == nil {
		*a = MultipleAnswer(values...)
		return nil
	}

	// Anything else (numbers, objects) counts as no answer rather than a
	// request failure.
	*a = Answer{}
	return nil
}

// CorrectAnswerEcho pairs a question's prompt with its answer key. The
// scoring response echoes one entry per question, right or wrong.
type CorrectAnswerEcho struct {
	Question      string           `json:"question"`
	CorrectAnswer models.AnswerKey `json:"correctAnswer"`
}

type ScoreResult struct {
	Score          int                 `json:"score"`
	TotalQuestions int                 `json:"totalQuestions"`
	ScoreString    string              `json:"scoreString"`
	Percentage     string              `json:"percentage"`
	Performance    string              `json:"performance"`
	CorrectAnswers []CorrectAnswerEcho `json:"correctAnswers"`
}

// Performance bands, checked highest first with inclusive lower edges.
const (
	PerformanceExcellent    = "Excellent!"
	PerformanceGreat        = "Great"
	PerformanceGood         = "Good"
	PerformanceSatisfactory = "Satisfactory"
	PerformanceFair         = "Fair"
	PerformancePoor         = "Poor"
)

// PerformanceFor maps a score percentage to its qualitative band.
func PerformanceFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return PerformanceExcellent
	case percentage >= 80:
		return PerformanceGreat
	case percentage >= 70:
		return PerformanceGood
	case percentage >= 60:
		return PerformanceSatisfactory
	case percentage >= 50:
		return PerformanceFair
	default:
		return PerformancePoor
	}
}

// Score grades a submission. questions is the quiz's question sequence in
// stored order and answers is aligned to it by index; a shorter answers slice
// means the trailing questions were left unanswered.
func Score(questions []models.Question, answers []Answer) ScoreResult {
	score := 0
	echoes := make([]CorrectAnswerEcho, len(questions))

	for i, question := range questions {
		var submitted Answer
		if i < len(answers) {
			submitted = answers[i]
		}

		if isCorrect(question.CorrectAnswer, submitted) {
			score++
		}

		echoes[i] = CorrectAnswerEcho{
			Question:      question.Text,
			CorrectAnswer: question.CorrectAnswer,
		}
	}

	total := len(questions)
	percentage := 0.0
	if total > 0 {
		percentage = float64(score) / float64(total) * 100
	}

	return ScoreResult{
		Score:          score,
		TotalQuestions: total,
		ScoreString:    fmt.Sprintf("%d/%d", score, total),
		Percentage:     fmt.Sprintf("%d%%", int(math.Round(percentage))),
		Performance:    PerformanceFor(percentage),
		CorrectAnswers: echoes,
	}
}

// isCorrect dispatches on the answer key variant. The multiple variant is
// order-independent and case-insensitive but length-sensitive: the submitted
// list must have the same raw length as the key and contain every key
// element. The single variant is a case-insensitive string comparison.
func isCorrect(key models.AnswerKey, submitted Answer) bool {
	if key.IsMultiple() {
		submittedValues := []string{}
		if submitted.IsMultiple() {
			submittedValues = lowerAll(submitted.Values)
		}

		if len(key.Values) != len(submittedValues) {
			return false
		}
		for _, want := range lowerAll(key.Values) {
			if !contains(submittedValues, want) {
				return false
			}
		}
		return true
	}

	if !submitted.IsPresent() || submitted.IsMultiple() {
		return false
	}
	return strings.ToLower(submitted.Single) == strings.ToLower(key.Single)
}

func lowerAll(values []string) []string {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	return lowered
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
