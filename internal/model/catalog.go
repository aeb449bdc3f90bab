package model

import "time"

// AnswerType enumerates how a question is answered.
type AnswerType string

const (
	AnswerTypeLongText       AnswerType = "long_text"
	AnswerTypeShortText      AnswerType = "short_text"
	AnswerTypeMultipleChoice AnswerType = "multiple_choice"
)

// Valid reports whether t is a known answer type.
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerTypeLongText, AnswerTypeShortText, AnswerTypeMultipleChoice:
		return true
	}
	return false
}

// TestType categorizes question sets (e.g. aptitude, domain knowledge).
type TestType struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuestionSet is an ordered collection of questions with a fixed duration.
type QuestionSet struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	TestTypeID      int64     `json:"test_type_id"`
	TestTypeName    string    `json:"test_type,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	WarningMinutes  int       `json:"warning_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Question is a single question, optionally carrying selectable options.
type Question struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	Sections      *string          `json:"sections,omitempty"`
	AnswerType    AnswerType       `json:"answer_type"`
	AllowMultiple bool             `json:"allow_multiple"`
	Order         int              `json:"order"`
	Options       []QuestionOption `json:"options"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// QuestionOption is a selectable choice. IsCorrect is admin-only and must
// never reach candidate-facing responses.
type QuestionOption struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
	Order      int    `json:"order"`
}

// CandidateOption is the candidate-facing view of an option, with the
// correctness flag withheld.
type CandidateOption struct {
	ID         int64  `json:"id"`
	OptionText string `json:"option_text"`
	Order      int    `json:"order"`
}

// CandidateQuestion is the candidate-facing view of a question.
type CandidateQuestion struct {
	ID            int64             `json:"id"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Sections      *string           `json:"sections,omitempty"`
	AnswerType    AnswerType        `json:"answer_type"`
	AllowMultiple bool              `json:"allow_multiple"`
	Options       []CandidateOption `json:"options"`
}

// ForCandidate strips the correctness flags off a question.
func (q *Question) ForCandidate() CandidateQuestion {
	out := CandidateQuestion{
		ID:            q.ID,
		Title:         q.Title,
		Body:          q.Body,
		Sections:      q.Sections,
		AnswerType:    q.AnswerType,
		AllowMultiple: q.AllowMultiple,
		Options:       make([]CandidateOption, 0, len(q.Options)),
	}
	for _, opt := range q.Options {
		out.Options = append(out.Options, CandidateOption{
			ID:         opt.ID,
			OptionText: opt.OptionText,
			Order:      opt.Order,
		})
	}
	return out
}

// CreateTestTypeRequest is the payload for creating a test type.
type CreateTestTypeRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty"`
}

// CreateQuestionSetRequest is the payload for creating a question set.
type CreateQuestionSetRequest struct {
	Name            string  `json:"name" binding:"required,min=1,max=200"`
	TestTypeID      int64   `json:"test_type_id" binding:"required"`
	Description     *string `json:"description" binding:"omitempty"`
	DurationMinutes int     `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	WarningMinutes  int     `json:"warning_minutes" binding:"omitempty,min=1"`
}

// UpdateQuestionSetRequest is the payload for updating a question set.
type UpdateQuestionSetRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=200"`
	TestTypeID      *int64  `json:"test_type_id" binding:"omitempty"`
	Description     *string `json:"description" binding:"omitempty"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	WarningMinutes  *int    `json:"warning_minutes" binding:"omitempty,min=1"`
}

// OptionInput is a single option within a question create/update payload.
type OptionInput struct {
	OptionText string `json:"option_text" binding:"required"`
	IsCorrect  bool   `json:"is_correct"`
}

// CreateQuestionRequest is the payload for creating a question inside a set.
type CreateQuestionRequest struct {
	Title         string        `json:"title" binding:"required,min=1,max=200"`
	Body          string        `json:"body" binding:"required"`
	Sections      *string       `json:"sections" binding:"omitempty"`
	AnswerType    AnswerType    `json:"answer_type" binding:"omitempty"`
	AllowMultiple bool          `json:"allow_multiple"`
	Options       []OptionInput `json:"options" binding:"omitempty,dive"`
}

// UpdateQuestionRequest is the payload for updating a question.
type UpdateQuestionRequest struct {
	Title         *string       `json:"title" binding:"omitempty,min=1,max=200"`
	Body          *string       `json:"body" binding:"omitempty"`
	Sections      *string       `json:"sections" binding:"omitempty"`
	AnswerType    *AnswerType   `json:"answer_type" binding:"omitempty"`
	AllowMultiple *bool         `json:"allow_multiple" binding:"omitempty"`
	Options       []OptionInput `json:"options" binding:"omitempty,dive"`
}

// ReorderQuestionsRequest is the payload for reordering questions in a set.
type ReorderQuestionsRequest struct {
	QuestionIDs []int64 `json:"question_ids" binding:"required,min=1"`
}
