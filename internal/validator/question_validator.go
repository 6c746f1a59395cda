package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

const (
	MinAnswersPerQuestion = 2
	MaxAnswersPerQuestion = 10
)

// QuestionValidator checks the shape of a question's answer key
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateTest validates every question of a test being authored
func (v *QuestionValidator) ValidateTest(test *models.Test) ValidationErrors {
	var errs ValidationErrors
	for i := range test.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		errs = append(errs, v.ValidateQuestion(prefix, &test.Questions[i])...)
	}
	return errs
}

// ValidateQuestion validates the answer options of one question. A question may have no
// correct option; a single-answer question may have at most one.
func (v *QuestionValidator) ValidateQuestion(prefix string, question *models.Question) ValidationErrors {
	var errs ValidationErrors
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	if strings.TrimSpace(question.Text) == "" {
		errs = append(errs, *NewValidationErrorWithRule(field("question"), "is required", "required", question.Text))
	}

	count := len(question.Answers)
	if count < MinAnswersPerQuestion || count > MaxAnswersPerQuestion {
		errs = append(errs, *NewValidationErrorWithRule(field("answers"),
			fmt.Sprintf("must contain between %d and %d options", MinAnswersPerQuestion, MaxAnswersPerQuestion),
			"answer_count", count))
	}

	correct := 0
	seen := make(map[string]struct{}, count)
	for i, answer := range question.Answers {
		text := strings.TrimSpace(answer.Text)
		if text == "" {
			errs = append(errs, *NewValidationErrorWithRule(field(fmt.Sprintf("answers[%d].answer", i)), "is required", "required", answer.Text))
			continue
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			errs = append(errs, *NewValidationErrorWithRule(field(fmt.Sprintf("answers[%d].answer", i)), "duplicates another option", "unique_answer", answer.Text))
		}
		seen[key] = struct{}{}
		if answer.IsCorrect {
			correct++
		}
	}

	if !question.AllowsMultipleCorrectAnswers && correct > 1 {
		errs = append(errs, *NewValidationErrorWithRule(field("answers"),
			"single-answer question must have at most one correct option", "single_correct", correct))
	}

	return errs
}
