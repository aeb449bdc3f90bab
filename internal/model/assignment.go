package model

import "time"

// TestAssignment is a candidate's entitlement to take one question set,
// identified by a one-time session code. Immutable except for deactivation;
// retakes get a brand new assignment with a fresh code.
type TestAssignment struct {
	ID            int64     `json:"id"`
	QuestionSetID int64     `json:"question_set_id"`
	CandidateID   int64     `json:"candidate_id"`
	SessionCode   string    `json:"session_code"`
	AssignedAt    time.Time `json:"assigned_at"`
	IsActive      bool      `json:"is_active"`
}

// CreateAssignmentRequest is the admin payload assigning a question set to
// a candidate.
type CreateAssignmentRequest struct {
	QuestionSetID int64 `json:"question_set_id" binding:"required"`
	CandidateID   int64 `json:"candidate_id" binding:"required"`
}

// CandidateAssignment is the candidate-facing listing row: the assignment
// joined with its question set and the status of its latest session.
type CandidateAssignment struct {
	AssignmentID    int64  `json:"assignment_id"`
	QuestionSetID   int64  `json:"question_set_id"`
	SetName         string `json:"test_title"`
	TestType        string `json:"test_type"`
	DurationMinutes int    `json:"duration_minutes"`
	WarningMinutes  int    `json:"warning_minutes"`
	Status          string `json:"status"`
	SessionCode     string `json:"session_code"`
}
