package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type TestHandler struct {
	BaseHandler
	testService services.TestService
}

func NewTestHandler(testService services.TestService, logger utils.Logger) *TestHandler {
	return &TestHandler{
		BaseHandler: NewBaseHandler(logger),
		testService: testService,
	}
}

// ListTests returns test metadata without questions
// @Summary List tests
// @Tags tests
// @Produce json
// @Param subject_id query string false "Filter by subject"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} services.TestListResponse
// @Failure 400 {object} ErrorResponse
// @Router /tests [get]
func (h *TestHandler) ListTests(c *gin.Context) {
	var req services.ListTestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	h.LogRequest(c, "Listing tests", "limit", req.Limit, "offset", req.Offset)

	resp, err := h.testService.List(c.Request.Context(), h.identity(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTest returns the test as seen by the caller
// @Summary Get test
// @Description Learners receive a freshly shuffled presentation without the answer key.
// @Description Staff receive canonical order and may ask for the attempts too.
// @Tags tests
// @Produce json
// @Param id path string true "Test ID"
// @Param include_attempts query bool false "Include attempts (ignored for learners)"
// @Success 200 {object} services.TestView
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [get]
func (h *TestHandler) GetTest(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	includeAttempts := parseBoolQuery(c, "include_attempts")
	h.LogRequest(c, "Getting test", "test_id", id, "include_attempts", includeAttempts)

	view, err := h.testService.GetTestView(c.Request.Context(), h.identity(c), id, includeAttempts)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreateTest creates a test with its questions and answers
// @Summary Create test
// @Tags tests
// @Accept json
// @Produce json
// @Param test body services.CreateTestRequest true "Test data"
// @Success 201 {object} services.TestView
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /tests [post]
func (h *TestHandler) CreateTest(c *gin.Context) {
	h.LogRequest(c, "Creating test")

	var req services.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	view, err := h.testService.Create(c.Request.Context(), h.identity(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// UpdateTest changes name, type, time limit and subject. Questions are not touched.
// @Summary Update test metadata
// @Tags tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param test body services.UpdateTestRequest true "Test metadata"
// @Success 200 {object} services.TestView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [put]
func (h *TestHandler) UpdateTest(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating test", "test_id", id)

	var req services.UpdateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	view, err := h.testService.UpdateMetadata(c.Request.Context(), h.identity(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteTest removes a test nobody has attempted
// @Summary Delete test
// @Tags tests
// @Param id path string true "Test ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tests/{id} [delete]
func (h *TestHandler) DeleteTest(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting test", "test_id", id)

	if err := h.testService.Delete(c.Request.Context(), h.identity(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddQuestion appends a question to a test
// @Summary Add question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param question body services.QuestionRequest true "Question data"
// @Success 201 {object} services.QuestionView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/questions [post]
func (h *TestHandler) AddQuestion(c *gin.Context) {
	testID := ParseStringIDParam(c, "id")
	if testID == "" {
		return
	}

	h.LogRequest(c, "Adding question", "test_id", testID)

	var req services.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	view, err := h.testService.AddQuestion(c.Request.Context(), h.identity(c), testID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetQuestion returns a question with its answer key
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} services.QuestionView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *TestHandler) GetQuestion(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Getting question", "question_id", id)

	view, err := h.testService.GetQuestion(c.Request.Context(), h.identity(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateQuestion rewords a question no attempt refers to
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Question text and mode"
// @Success 200 {object} services.QuestionView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *TestHandler) UpdateQuestion(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	view, err := h.testService.UpdateQuestion(c.Request.Context(), h.identity(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteQuestion removes a question no attempt refers to
// @Summary Delete question
// @Tags questions
// @Param id path string true "Question ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *TestHandler) DeleteQuestion(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	if err := h.testService.DeleteQuestion(c.Request.Context(), h.identity(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteAnswer removes an answer option from a question no attempt refers to
// @Summary Delete answer
// @Tags questions
// @Param id path string true "Answer ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /answers/{id} [delete]
func (h *TestHandler) DeleteAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting answer", "answer_id", id)

	if err := h.testService.DeleteAnswer(c.Request.Context(), h.identity(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
