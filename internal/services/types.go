package services

import (
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// ===== TEST AUTHORING =====

type AnswerRequest struct {
	Answer    string `json:"answer" validate:"required,max=1000"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionRequest struct {
	Question                     string          `json:"question" validate:"required,max=5000"`
	AllowsMultipleCorrectAnswers bool            `json:"allows_multiple_correct_answers"`
	Answers                      []AnswerRequest `json:"answers" validate:"required,min=2,max=10,dive"`
}

type CreateTestRequest struct {
	Name      string            `json:"name" validate:"required,max=255"`
	Type      string            `json:"type" validate:"required,test_type"`
	TimeLimit int               `json:"time_limit" validate:"required,gt=0,max=1440"`
	SubjectID string            `json:"subject_id" validate:"required"`
	Questions []QuestionRequest `json:"questions" validate:"omitempty,dive"`
}

type UpdateTestRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Type      string `json:"type" validate:"required,test_type"`
	TimeLimit int    `json:"time_limit" validate:"required,gt=0,max=1440"`
	SubjectID string `json:"subject_id" validate:"required"`
}

type UpdateQuestionRequest struct {
	Question                     string `json:"question" validate:"required,max=5000"`
	AllowsMultipleCorrectAnswers bool   `json:"allows_multiple_correct_answers"`
}

type ListTestsRequest struct {
	SubjectID *string `form:"subject_id"`
	Limit     int     `form:"limit" validate:"min=0,max=100"`
	Offset    int     `form:"offset" validate:"min=0"`
}

// TestSummary is a test without its questions.
type TestSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      models.TestType `json:"type"`
	TimeLimit int             `json:"time_limit"`
	SubjectID string          `json:"subject_id"`
	Subject   *models.Subject `json:"subject,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type TestListResponse struct {
	Tests  []TestSummary `json:"tests"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ===== ATTEMPTS =====

// AdmitRequest identifies the pair to admit. Learners may omit student_id.
type AdmitRequest struct {
	StudentID string `json:"student_id"`
	TestID    string `json:"test_id" validate:"required"`
	TimeSpent int    `json:"time_spent" validate:"min=0"`
}

type CheckResponse struct {
	Check bool `json:"check"`
}

type RecordSelectionRequest struct {
	QuestionID string   `json:"question_id" validate:"required"`
	AnswerIDs  []string `json:"answer_ids" validate:"max=10,dive,required"`
}

type ListAttemptsRequest struct {
	StudentID *string `form:"student_id"`
	TestID    *string `form:"test_id"`
	Limit     int     `form:"limit" validate:"min=0,max=100"`
	Offset    int     `form:"offset" validate:"min=0"`
}

type AttemptListResponse struct {
	Attempts []*AttemptView `json:"attempts"`
	Total    int64          `json:"total"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
}

type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}

// ===== GRADING =====

type QuestionVerdict struct {
	AttemptQuestionID string `json:"attempt_question_id"`
	QuestionID        string `json:"question_id"`
	IsRight           bool   `json:"is_right"`
}

// GradeSummary acknowledges a grading pass. It carries per-question verdicts only; any
// aggregate score is derived by the caller.
type GradeSummary struct {
	AttemptID       string            `json:"attempt_id"`
	GradedQuestions int               `json:"graded_questions"`
	Verdicts        []QuestionVerdict `json:"verdicts"`
	GradedAt        time.Time         `json:"graded_at"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
