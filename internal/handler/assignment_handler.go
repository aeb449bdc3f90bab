package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/response"
	"github.com/vantora/vantora-backend/internal/service"
	"github.com/vantora/vantora-backend/internal/validator"
)

// AssignmentHandler handles the admin assignment endpoints.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// Create godoc
// POST /api/v1/admin/assignments
// Assigns a question set to a candidate under a fresh session code.
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req model.CreateAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignment, err := h.assignmentService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"assignment": assignment})
}

// Regenerate godoc
// POST /api/v1/admin/assignments/:assignment_id/regenerate
// Deactivates the assignment and issues a replacement with a fresh code.
// Refused while the latest session is in progress.
func (h *AssignmentHandler) Regenerate(c *gin.Context) {
	assignmentID, ok := pathID(c, "assignment_id")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.Regenerate(c.Request.Context(), assignmentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionInProgress):
			response.Fail(c, http.StatusConflict, response.ErrSessionInProgress)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"assignment": assignment})
}

// SetActive godoc
// PATCH /api/v1/admin/assignments/:assignment_id/active
func (h *AssignmentHandler) SetActive(c *gin.Context) {
	assignmentID, ok := pathID(c, "assignment_id")
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.assignmentService.SetActive(c.Request.Context(), assignmentID, *req.IsActive); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
