package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates the per-entity repositories behind one handle so
// services depend on a single injection point.
type Repository interface {
	Quiz() QuizRepository
	Question() QuestionRepository
	Result() ResultRepository
	User() UserRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err came from a lookup that matched no row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	InstructorID *uint  `json:"instructor_id"`
	Limit        int    `json:"limit"`
	Offset       int    `json:"offset"`
	SortBy       string `json:"sort_by"`    // "created_at", "name"
	SortOrder    string `json:"sort_order"` // "asc", "desc"
}

// quizSortColumns whitelists the columns quiz listings may order by.
var quizSortColumns = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"name":       {},
	"id":         {},
}

// NormalizedSort resolves the filter's sort column and direction against the
// whitelist so raw request input never reaches an ORDER BY clause. Unknown
// values fall back to created_at desc.
func (f QuizFilters) NormalizedSort() (column, direction string) {
	column = f.SortBy
	if _, ok := quizSortColumns[column]; !ok {
		column = "created_at"
	}
	direction = "desc"
	if f.SortOrder == "asc" {
		direction = "asc"
	}
	return column, direction
}

type ResultFilters struct {
	StudentID *uint `json:"student_id"`
	Completed *bool `json:"completed"`
	Limit     int   `json:"limit"`
	Offset    int   `json:"offset"`
}

// DeleteSummary reports what a cascading quiz deletion actually removed.
type DeleteSummary struct {
	Acknowledged     bool  `json:"acknowledged"`
	DeletedQuestions int64 `json:"deletedQuestions"`
	DeletedQuizzes   int64 `json:"deletedQuizzes"`
}
