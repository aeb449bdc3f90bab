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

// CatalogHandler handles the admin catalog endpoints: test types, question
// sets, and questions.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) failCatalog(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrDuplicateName):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrResourceInUse):
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
	case errors.Is(err, service.ErrInvalidAnswerType),
		errors.Is(err, service.ErrOptionsRequired),
		errors.Is(err, service.ErrOptionsForbidden),
		errors.Is(err, service.ErrReorderMismatch):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidAnswerType)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ListTestTypes godoc
// GET /api/v1/admin/test-types
func (h *CatalogHandler) ListTestTypes(c *gin.Context) {
	types, err := h.catalogService.ListTestTypes(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test_types": types})
}

// CreateTestType godoc
// POST /api/v1/admin/test-types
func (h *CatalogHandler) CreateTestType(c *gin.Context) {
	var req model.CreateTestTypeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	t, err := h.catalogService.CreateTestType(c.Request.Context(), &req)
	if err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"test_type": t})
}

// ListQuestionSets godoc
// GET /api/v1/admin/question-sets
func (h *CatalogHandler) ListQuestionSets(c *gin.Context) {
	sets, err := h.catalogService.ListQuestionSets(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question_sets": sets})
}

// GetQuestionSet godoc
// GET /api/v1/admin/question-sets/:set_id
func (h *CatalogHandler) GetQuestionSet(c *gin.Context) {
	setID, ok := pathID(c, "set_id")
	if !ok {
		return
	}

	set, questions, err := h.catalogService.GetQuestionSet(c.Request.Context(), setID)
	if err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question_set": set, "questions": questions})
}

// CreateQuestionSet godoc
// POST /api/v1/admin/question-sets
func (h *CatalogHandler) CreateQuestionSet(c *gin.Context) {
	var req model.CreateQuestionSetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	set, err := h.catalogService.CreateQuestionSet(c.Request.Context(), &req)
	if err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question_set": set})
}

// UpdateQuestionSet godoc
// PATCH /api/v1/admin/question-sets/:set_id
func (h *CatalogHandler) UpdateQuestionSet(c *gin.Context) {
	setID, ok := pathID(c, "set_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionSetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	set, err := h.catalogService.UpdateQuestionSet(c.Request.Context(), setID, &req)
	if err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question_set": set})
}

// DeleteQuestionSet godoc
// DELETE /api/v1/admin/question-sets/:set_id
// Refused while assignments reference the set.
func (h *CatalogHandler) DeleteQuestionSet(c *gin.Context) {
	setID, ok := pathID(c, "set_id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteQuestionSet(c.Request.Context(), setID); err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// CreateQuestion godoc
// POST /api/v1/admin/question-sets/:set_id/questions
func (h *CatalogHandler) CreateQuestion(c *gin.Context) {
	setID, ok := pathID(c, "set_id")
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.catalogService.CreateQuestion(c.Request.Context(), setID, &req)
	if err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// UpdateQuestion godoc
// PATCH /api/v1/admin/question-sets/:set_id/questions/:question_id
func (h *CatalogHandler) UpdateQuestion(c *gin.Context) {
	setID, ok := pathID(c, "set_id")
	if !ok {
		return
	}
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.catalogService.UpdateQuestion(c.Request.Context(), setID, questionID, &req)
	if err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/question-sets/:set_id/questions/:question_id
// Refused once any session has answered the question.
func (h *CatalogHandler) DeleteQuestion(c *gin.Context) {
	setID, ok := pathID(c, "set_id")
	if !ok {
		return
	}
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteQuestion(c.Request.Context(), setID, questionID); err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ReorderQuestions godoc
// PUT /api/v1/admin/question-sets/:set_id/questions/order
func (h *CatalogHandler) ReorderQuestions(c *gin.Context) {
	setID, ok := pathID(c, "set_id")
	if !ok {
		return
	}

	var req model.ReorderQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.catalogService.ReorderQuestions(c.Request.Context(), setID, req.QuestionIDs); err != nil {
		h.failCatalog(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
