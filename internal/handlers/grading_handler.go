package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	exportService  services.ExportService
}

func NewGradingHandler(
	gradingService services.GradingService,
	exportService services.ExportService,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		exportService:  exportService,
	}
}

// GradeAttempt computes the verdict of every question of an attempt
// @Summary Grade attempt
// @Description Exact-match grading. Re-running on an unchanged attempt yields the same verdicts.
// @Tags grading
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.GradeSummary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/calculate/{id} [post]
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	h.LogRequest(c, "Grading attempt", "attempt_id", attemptID)

	summary, err := h.gradingService.GradeAttempt(c.Request.Context(), h.identity(c), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportResults streams an xlsx workbook of the test's attempts and verdicts
// @Summary Export test results
// @Tags grading
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Test ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/results/export [get]
func (h *GradingHandler) ExportResults(c *gin.Context) {
	testID := ParseStringIDParam(c, "id")
	if testID == "" {
		return
	}

	h.LogRequest(c, "Exporting test results", "test_id", testID)

	data, err := h.exportService.ExportTestResults(c.Request.Context(), h.identity(c), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="test-%s-results.xlsx"`, testID))
	c.Data(http.StatusOK, xlsxContentType, data)
}
