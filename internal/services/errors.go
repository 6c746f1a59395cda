package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-service/internal/auth"
	apperrors "github.com/SAP-F-2025/exam-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrUnauthenticated  = auth.ErrUnauthenticated
	ErrForbidden        = auth.ErrForbidden
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Entity lookups
	ErrTestNotFound     = errors.New("test not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrAttemptNotFound  = errors.New("attempt not found")

	// Admission
	ErrAttemptLimitReached = errors.New("reached limit")

	// Selection recording
	ErrQuestionNotInTest      = errors.New("question does not belong to the attempt's test")
	ErrSelectionNotInQuestion = errors.New("selected answer does not belong to the question")
	ErrAttemptFinalized       = errors.New("attempt is finalized - selections can no longer change")

	// Deletion policy
	ErrTestHasAttempts    = errors.New("test cannot be deleted - has existing attempts")
	ErrQuestionHasHistory = errors.New("question cannot be deleted - referenced by attempts")
	ErrAnswerHasHistory   = errors.New("answer cannot be deleted - its question is referenced by attempts")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// Unwrap lets errors.Is(err, ErrForbidden) match permission errors
func (pe *PermissionError) Unwrap() error {
	return ErrForbidden
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrSubjectNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsForbidden checks if error represents an insufficient-role condition
func IsForbidden(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrForbidden) || errors.As(err, &pe)
}

func IsAttemptLimit(err error) bool {
	return errors.Is(err, ErrAttemptLimitReached)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrQuestionNotInTest) ||
		errors.Is(err, ErrSelectionNotInQuestion) {
		return true
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAttemptFinalized) ||
		errors.Is(err, ErrTestHasAttempts) ||
		errors.Is(err, ErrQuestionHasHistory) ||
		errors.Is(err, ErrAnswerHasHistory)
}
