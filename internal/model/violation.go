package model

import "time"

// ViolationType enumerates discrete proctoring events reported by the
// candidate's browser.
type ViolationType string

const (
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
	ViolationTabSwitch      ViolationType = "tab_switch"
	ViolationWindowBlur     ViolationType = "window_blur"
	ViolationDevtoolsOpen   ViolationType = "devtools_open"
	ViolationUnknown        ViolationType = "unknown"
)

// Valid reports whether t is a known violation type.
func (t ViolationType) Valid() bool {
	switch t {
	case ViolationFullscreenExit, ViolationTabSwitch, ViolationWindowBlur,
		ViolationDevtoolsOpen, ViolationUnknown:
		return true
	}
	return false
}

// Violation is an append-only proctoring event tied to a session. Rows are
// never mutated or deleted.
type Violation struct {
	ID        int64         `json:"id"`
	SessionID int64         `json:"session_id"`
	EventType ViolationType `json:"event_type"`
	Metadata  *string       `json:"metadata,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// LogViolationRequest is the candidate payload for reporting a violation.
// Token must match the session's violation token.
type LogViolationRequest struct {
	SessionID int64         `json:"session_id" binding:"required"`
	Token     string        `json:"token" binding:"required"`
	EventType ViolationType `json:"event_type" binding:"required"`
	Metadata  *string       `json:"metadata" binding:"omitempty"`
}
