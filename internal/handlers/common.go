package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/auth"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeAttemptLimitReached = "ATTEMPT_LIMIT_REACHED"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// requestLogger returns the request-scoped logger tagged with the caller, if known
func (h *BaseHandler) requestLogger(c *gin.Context) utils.Logger {
	logger := utils.GetLoggerFromContext(c, h.logger)
	if identity := auth.IdentityFromContext(c); identity != nil {
		logger = logger.With("user_id", identity.SubjectID, "role", identity.Role)
	}
	return logger
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"remote_addr", c.ClientIP(),
	}
	fields = append(fields, additionalFields...)

	h.requestLogger(c).Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.requestLogger(c).LogError(err, message, additionalFields...)
}

// LogWarn logs warning messages with context
func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.requestLogger(c).Warn(message, additionalFields...)
}

// identity returns the caller resolved by the auth middleware
func (h *BaseHandler) identity(c *gin.Context) *models.Identity {
	return auth.IdentityFromContext(c)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
		Code:    code,
	}

	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil && statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode, "error", err)
	}

	c.JSON(statusCode, errorResp)
}

// respondBindError answers a request whose body or query could not be decoded
func (h *BaseHandler) respondBindError(c *gin.Context, err error) {
	h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Invalid request payload", err, err.Error())
}

// handleServiceError maps the service error taxonomy onto HTTP responses. None of these
// outcomes is retried by the server.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	var businessRuleError *services.BusinessRuleError
	var permissionError *services.PermissionError

	switch {
	case services.IsUnauthenticated(err):
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthenticated, "Invalid or missing credentials", err)

	case errors.As(err, &permissionError):
		h.RespondWithError(c, http.StatusForbidden, CodeForbidden, "Access denied", err, map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})

	case services.IsForbidden(err):
		h.RespondWithError(c, http.StatusForbidden, CodeForbidden, "Insufficient permissions", err)

	case services.IsAttemptLimit(err):
		h.RespondWithError(c, http.StatusBadRequest, CodeAttemptLimitReached, services.ErrAttemptLimitReached.Error(), err)

	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, notFoundMessage(err), err)

	case errors.As(err, &validationErrors):
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Validation failed", err, validationErrors)

	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Validation failed", err, err.Error())

	case errors.As(err, &businessRuleError):
		h.RespondWithError(c, http.StatusConflict, CodeConflict, businessRuleError.Message, err, map[string]interface{}{
			"rule":    businessRuleError.Rule,
			"context": businessRuleError.Context,
		})

	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, CodeConflict, err.Error(), err)

	default:
		h.RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Internal server error", err)
	}
}

func notFoundMessage(err error) string {
	for _, target := range []error{
		services.ErrTestNotFound,
		services.ErrSubjectNotFound,
		services.ErrQuestionNotFound,
		services.ErrAnswerNotFound,
		services.ErrStudentNotFound,
		services.ErrAttemptNotFound,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return services.ErrNotFound.Error()
}
