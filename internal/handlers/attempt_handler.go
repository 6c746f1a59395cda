package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// AdmitAttempt creates the single attempt a student may have for a test
// @Summary Admit attempt
// @Description Learners may omit student_id; it defaults to the caller.
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.AdmitRequest true "Student and test"
// @Success 201 {object} models.Attempt
// @Failure 400 {object} ErrorResponse "ATTEMPT_LIMIT_REACHED or validation failure"
// @Failure 404 {object} ErrorResponse
// @Router /attempts [post]
func (h *AttemptHandler) AdmitAttempt(c *gin.Context) {
	var req services.AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	h.LogRequest(c, "Admitting attempt", "student_id", req.StudentID, "test_id", req.TestID)

	attempt, err := h.attemptService.Admit(c.Request.Context(), h.identity(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// CheckAttempt reports whether an admission would currently succeed
// @Summary Check admission
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.AdmitRequest true "Student and test"
// @Success 200 {object} services.CheckResponse
// @Failure 400 {object} ErrorResponse
// @Router /attempts/check [post]
func (h *AttemptHandler) CheckAttempt(c *gin.Context) {
	var req services.AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	resp, err := h.attemptService.Check(c.Request.Context(), h.identity(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RecordSelection replaces the selected answers of one question of an attempt
// @Summary Record selection
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param selection body services.RecordSelectionRequest true "Question and selected answers"
// @Success 200 {object} services.AttemptQuestionView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/selections [post]
func (h *AttemptHandler) RecordSelection(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	var req services.RecordSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	h.LogRequest(c, "Recording selection", "attempt_id", attemptID, "question_id", req.QuestionID)

	view, err := h.attemptService.RecordSelection(c.Request.Context(), h.identity(c), attemptID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetAttempt returns an attempt with its verdicts and selected answers
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.AttemptView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Getting attempt", "attempt_id", id)

	view, err := h.attemptService.GetByID(c.Request.Context(), h.identity(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListAttempts lists attempts. Learners only ever see their own.
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Param student_id query string false "Student filter"
// @Param test_id query string false "Test filter"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} services.AttemptListResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	var req services.ListAttemptsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	h.LogRequest(c, "Listing attempts", "limit", req.Limit, "offset", req.Offset)

	resp, err := h.attemptService.List(c.Request.Context(), h.identity(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteAttempt removes one attempt with its selections and verdicts
// @Summary Delete attempt
// @Tags attempts
// @Param id path string true "Attempt ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [delete]
func (h *AttemptHandler) DeleteAttempt(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting attempt", "attempt_id", id)

	if err := h.attemptService.Delete(c.Request.Context(), h.identity(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteAllAttempts removes every attempt
// @Summary Delete all attempts
// @Tags attempts
// @Produce json
// @Success 200 {object} services.DeleteAllResponse
// @Router /attempts [delete]
func (h *AttemptHandler) DeleteAllAttempts(c *gin.Context) {
	h.LogRequest(c, "Deleting all attempts")

	resp, err := h.attemptService.DeleteAll(c.Request.Context(), h.identity(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
