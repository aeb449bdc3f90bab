package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vantora/vantora-backend/internal/middleware"
	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/response"
	"github.com/vantora/vantora-backend/internal/service"
	"github.com/vantora/vantora-backend/internal/validator"
)

// CandidateHandler handles the candidate-facing test-taking endpoints.
type CandidateHandler struct {
	assignmentService *service.AssignmentService
	sessionService    *service.SessionService
	violationService  *service.ViolationService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(
	assignmentService *service.AssignmentService,
	sessionService *service.SessionService,
	violationService *service.ViolationService,
) *CandidateHandler {
	return &CandidateHandler{
		assignmentService: assignmentService,
		sessionService:    sessionService,
		violationService:  violationService,
	}
}

// ListAssignments godoc
// GET /api/v1/candidate/assignments
// Returns the candidate's active assignments with latest-session status.
func (h *CandidateHandler) ListAssignments(c *gin.Context) {
	claims := middleware.GetClaims(c)
	list, err := h.assignmentService.ListForCandidate(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": list})
}

// ValidateCode godoc
// POST /api/v1/candidate/sessions/validate
// Pre-flights a session code without side effects.
func (h *CandidateHandler) ValidateCode(c *gin.Context) {
	var req model.ValidateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	result, err := h.assignmentService.Validate(c.Request.Context(), req.SessionCode, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// StartSession godoc
// POST /api/v1/candidate/sessions/start
// Resolves the session code and starts a timed session, returning the
// question payload and the violation token.
func (h *CandidateHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	ctx := c.Request.Context()

	assignment, err := h.assignmentService.ResolveForStart(ctx, req.SessionCode, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrInvalidSessionCode)
		case errors.Is(err, service.ErrCodeWrongUser):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		case errors.Is(err, service.ErrCodeInactive):
			response.Fail(c, http.StatusForbidden, response.ErrCodeInactive)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	result, err := h.sessionService.Start(ctx, assignment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
		case errors.Is(err, service.ErrSessionInProgress):
			response.Fail(c, http.StatusConflict, response.ErrSessionInProgress)
		case errors.Is(err, service.ErrSessionUsed):
			response.Fail(c, http.StatusConflict, response.ErrSessionUsed)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// SaveAnswer godoc
// POST /api/v1/candidate/answers
// Autosaves one answer into a live session.
func (h *CandidateHandler) SaveAnswer(c *gin.Context) {
	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	err := h.sessionService.SaveAnswer(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionExpired):
			response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrSessionNotActive):
			response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
		case errors.Is(err, service.ErrAnswerLocked):
			response.Fail(c, http.StatusConflict, response.ErrAnswerLocked)
		case errors.Is(err, service.ErrQuestionNotInSet):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrQuestionNotInSet)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Submit godoc
// POST /api/v1/candidate/sessions/submit
// Finalizes a live session as submitted and locks its answers.
func (h *CandidateHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	session, err := h.sessionService.Submit(c.Request.Context(), claims.UserID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionExpired):
			response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrSessionNotActive):
			response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// LogViolation godoc
// POST /api/v1/candidate/violations
// Records a proctoring event, gated by the session's violation token.
// Events are accepted even after the session is finalized.
func (h *CandidateHandler) LogViolation(c *gin.Context) {
	var req model.LogViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	violation, err := h.violationService.Record(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrViolationToken):
			response.Fail(c, http.StatusForbidden, response.ErrViolationToken)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"violation": violation})
}
