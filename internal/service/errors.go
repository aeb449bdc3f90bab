package service

import "errors"

// Errors shared across services.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrDuplicateName    = errors.New("a resource with that name already exists")
	ErrResourceInUse    = errors.New("resource is referenced by other records")
	ErrSessionExpired   = errors.New("session expired")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrSessionNotActive = errors.New("session is not active")
	ErrAnswerLocked     = errors.New("answer is locked")
	ErrQuestionNotInSet = errors.New("question does not belong to the session's set")
	ErrViolationToken   = errors.New("invalid violation token")
)
