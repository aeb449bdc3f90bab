package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrLoginActive        ErrCode = "LOGIN_ALREADY_ACTIVE"
	ErrLoginInvalidated   ErrCode = "LOGIN_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminAccessOnly     ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrInvalidSessionCode ErrCode = "INVALID_SESSION_CODE"
	ErrCodeInactive       ErrCode = "SESSION_CODE_INACTIVE"
	ErrSessionInProgress  ErrCode = "SESSION_IN_PROGRESS"
	ErrSessionUsed        ErrCode = "SESSION_USED"
	ErrSessionExpired     ErrCode = "SESSION_EXPIRED"
	ErrSessionNotActive   ErrCode = "SESSION_NOT_ACTIVE"
	ErrAlreadySubmitted   ErrCode = "ALREADY_SUBMITTED"
	ErrAnswerLocked       ErrCode = "ANSWER_LOCKED"
	ErrQuestionNotInSet   ErrCode = "QUESTION_NOT_IN_SET"
	ErrInvalidAnswerType  ErrCode = "INVALID_ANSWER_TYPE"
	ErrViolationToken     ErrCode = "INVALID_VIOLATION_TOKEN"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrLoginActive:
		return "You are already logged in on another device."
	case ErrLoginInvalidated:
		return "Your login session has ended. Please sign in again."
	case ErrTokenRequired:
		return "Authentication token required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "Resource cannot be deleted because it is still in use."

	// ─── Session lifecycle ─────────────────────────────────────────────
	case ErrInvalidSessionCode:
		return "Invalid session code."
	case ErrCodeInactive:
		return "This session code has been deactivated."
	case ErrSessionInProgress:
		return "A session is already in progress for this code."
	case ErrSessionUsed:
		return "This session code has already been used."
	case ErrSessionExpired:
		return "The session has expired."
	case ErrSessionNotActive:
		return "The session is not active."
	case ErrAlreadySubmitted:
		return "The session has already been submitted."
	case ErrAnswerLocked:
		return "This answer has been finalized and can no longer be changed."
	case ErrQuestionNotInSet:
		return "The question does not belong to this session's question set."
	case ErrInvalidAnswerType:
		return "Invalid answer type."
	case ErrViolationToken:
		return "Invalid violation token."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
