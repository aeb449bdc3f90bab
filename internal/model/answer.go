package model

import "time"

// Answer is a candidate's autosaved response to one question. Unique per
// (session, question); mutable only while IsFinal is false and the owning
// session is in progress.
type Answer struct {
	ID                int64     `json:"id"`
	SessionID         int64     `json:"session_id"`
	QuestionID        int64     `json:"question_id"`
	AnswerText        *string   `json:"answer_text,omitempty"`
	SelectedOptionIDs []int64   `json:"selected_option_ids"`
	IsFinal           bool      `json:"is_final"`
	LastSavedAt       time.Time `json:"last_saved_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SaveAnswerRequest is the candidate autosave payload. For multiple-choice
// questions SelectedOptionIDs is the complete desired selection set
// (full replace, not incremental).
type SaveAnswerRequest struct {
	SessionID         int64   `json:"session_id" binding:"required"`
	QuestionID        int64   `json:"question_id" binding:"required"`
	AnswerText        *string `json:"answer_text" binding:"omitempty"`
	SelectedOptionIDs []int64 `json:"selected_option_ids" binding:"omitempty"`
}
