package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type QuestionType string

const (
	TrueFalse      QuestionType = "true/false"
	SingleChoice   QuestionType = "single choice"
	MultipleChoice QuestionType = "multiple choice"
	ShortAnswer    QuestionType = "short answer"
)

// Option is one selectable choice of a question. Options are stored in
// presentation order; short-answer questions carry none.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type OptionList []Option

func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (o *OptionList) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into OptionList", value)
	}
	return json.Unmarshal(data, o)
}

// AnswerKeyKind discriminates the two variants of an answer key.
type AnswerKeyKind string

const (
	AnswerKeySingle   AnswerKeyKind = "single"
	AnswerKeyMultiple AnswerKeyKind = "multiple"
)

// AnswerKey is the canonical correct answer of a question: either a single
// string (true/false, single choice, short answer) or a set of strings
// (multiple choice). The variant is carried explicitly instead of being
// sniffed from the payload shape at grading time.
//
// On the wire it keeps the legacy representation: a bare JSON string for the
// single variant and a JSON string array for the multiple variant.
type AnswerKey struct {
	Kind   AnswerKeyKind
	Single string
	Values []string
}

func SingleAnswerKey(value string) AnswerKey {
	return AnswerKey{Kind: AnswerKeySingle, Single: value}
}

func MultipleAnswerKey(values ...string) AnswerKey {
	return AnswerKey{Kind: AnswerKeyMultiple, Values: values}
}

func (k AnswerKey) IsMultiple() bool {
	return k.Kind == AnswerKeyMultiple
}

func (k AnswerKey) IsZero() bool {
	return k.Kind == ""
}

func (k AnswerKey) MarshalJSON() ([]byte, error) {
	if k.Kind == AnswerKeyMultiple {
		values := k.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(k.Single)
}

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*k = SingleAnswerKey(single)
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err == nil {
		*k = MultipleAnswerKey(values...)
		return nil
	}

	return fmt.Errorf("answer key must be a string or an array of strings")
}

func (k AnswerKey) Value() (driver.Value, error) {
	data, err := k.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (k *AnswerKey) Scan(value interface{}) error {
	if value == nil {
		*k = AnswerKey{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AnswerKey", value)
	}
	return k.UnmarshalJSON(data)
}

// MatchesType reports whether the key variant agrees with the question type:
// multiple choice requires the multiple variant, every other type the single
// variant.
func (k AnswerKey) MatchesType(qt QuestionType) bool {
	if qt == MultipleChoice {
		return k.Kind == AnswerKeyMultiple
	}
	return k.Kind == AnswerKeySingle
}

type Question struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Text          string       `json:"question" gorm:"not null;type:text" validate:"required,min=1"`
	Type          QuestionType `json:"type" gorm:"not null;size:30;index" validate:"required,question_type"`
	Options       OptionList   `json:"options" gorm:"type:jsonb"`
	CorrectAnswer AnswerKey    `json:"correctAnswer" gorm:"not null;type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}
