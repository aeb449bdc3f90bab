package model

import "time"

// SessionStatus enumerates test session states. "assigned" never appears on
// a persisted row (no session row exists until a successful start) but it
// is part of the storage enum for forward compatibility.
type SessionStatus string

const (
	SessionStatusAssigned      SessionStatus = "assigned"
	SessionStatusInProgress    SessionStatus = "in_progress"
	SessionStatusSubmitted     SessionStatus = "submitted"
	SessionStatusAutoSubmitted SessionStatus = "auto_submitted"
	SessionStatusExpired       SessionStatus = "expired"
)

// Terminal reports whether the status is absorbing: no transition leaves it.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusSubmitted, SessionStatusAutoSubmitted, SessionStatusExpired:
		return true
	}
	return false
}

// TestSession is one timed attempt at a question set, bound to exactly one
// assignment. EndTime is computed once at start and never recomputed; it is
// the sole source of truth for expiry.
type TestSession struct {
	ID             int64         `json:"id"`
	AssignmentID   int64         `json:"assignment_id"`
	QuestionSetID  int64         `json:"question_set_id"`
	CandidateID    int64         `json:"candidate_id"`
	Status         SessionStatus `json:"status"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	SubmittedAt    *time.Time    `json:"submitted_at,omitempty"`
	ViolationToken string        `json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Overdue reports whether the session's deadline has passed at the given
// instant.
func (s *TestSession) Overdue(now time.Time) bool {
	return !s.EndTime.After(now)
}

// StartSessionRequest is the candidate payload for starting a session.
type StartSessionRequest struct {
	SessionCode string `json:"session_code" binding:"required,min=1,max=32"`
}

// ValidateSessionRequest is the candidate payload for pre-flighting a code.
type ValidateSessionRequest struct {
	SessionCode string `json:"session_code" binding:"required,min=1,max=32"`
}

// SubmitRequest is the candidate payload for final submission.
type SubmitRequest struct {
	SessionID int64 `json:"session_id" binding:"required"`
}
