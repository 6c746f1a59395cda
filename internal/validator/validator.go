package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Validate performs complete validation (struct tags, then answer-key rules for tests and questions)
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	var errs ValidationErrors
	switch value := s.(type) {
	case *models.Test:
		errs = v.questionValidator.ValidateTest(value)
	case *models.Question:
		errs = v.questionValidator.ValidateQuestion("", value)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	// User role validation, accepts the legacy aliases too
	validate.RegisterValidation("user_role", validateUserRole)

	// Test type validation
	validate.RegisterValidation("test_type", validateTestType)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateUserRole(fl validator.FieldLevel) bool {
	_, ok := models.ParseRole(fl.Field().String())
	return ok
}

func validateTestType(fl validator.FieldLevel) bool {
	validTypes := []models.TestType{
		models.TestTypeQuiz,
		models.TestTypeExam,
		models.TestTypePractice,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}
