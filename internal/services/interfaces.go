package services

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// Every operation takes the resolved caller explicitly; no service keeps per-request state.

type TestService interface {
	// GetTestView returns the sanitized test. Learners get a freshly shuffled presentation
	// order and never see is_correct.
	GetTestView(ctx context.Context, identity *models.Identity, testID string, includeAttempts bool) (*TestView, error)
	List(ctx context.Context, identity *models.Identity, req *ListTestsRequest) (*TestListResponse, error)
	Create(ctx context.Context, identity *models.Identity, req *CreateTestRequest) (*TestView, error)
	UpdateMetadata(ctx context.Context, identity *models.Identity, testID string, req *UpdateTestRequest) (*TestView, error)
	Delete(ctx context.Context, identity *models.Identity, testID string) error

	AddQuestion(ctx context.Context, identity *models.Identity, testID string, req *QuestionRequest) (*QuestionView, error)
	GetQuestion(ctx context.Context, identity *models.Identity, questionID string) (*QuestionView, error)
	UpdateQuestion(ctx context.Context, identity *models.Identity, questionID string, req *UpdateQuestionRequest) (*QuestionView, error)
	DeleteQuestion(ctx context.Context, identity *models.Identity, questionID string) error
	DeleteAnswer(ctx context.Context, identity *models.Identity, answerID string) error
}

type AttemptService interface {
	// Admit creates the single attempt allowed for a (student, test) pair
	Admit(ctx context.Context, identity *models.Identity, req *AdmitRequest) (*models.Attempt, error)
	Check(ctx context.Context, identity *models.Identity, req *AdmitRequest) (*CheckResponse, error)
	RecordSelection(ctx context.Context, identity *models.Identity, attemptID string, req *RecordSelectionRequest) (*AttemptQuestionView, error)

	GetByID(ctx context.Context, identity *models.Identity, attemptID string) (*AttemptView, error)
	List(ctx context.Context, identity *models.Identity, req *ListAttemptsRequest) (*AttemptListResponse, error)

	Delete(ctx context.Context, identity *models.Identity, attemptID string) error
	DeleteAll(ctx context.Context, identity *models.Identity) (*DeleteAllResponse, error)
}

type GradingService interface {
	// GradeAttempt computes and stores a verdict for every question of the attempt and
	// finalizes it. Re-running overwrites previous verdicts with the same values.
	GradeAttempt(ctx context.Context, identity *models.Identity, attemptID string) (*GradeSummary, error)
}

type ExportService interface {
	ExportTestResults(ctx context.Context, identity *models.Identity, testID string) ([]byte, error)
}

type ExamEventService interface {
	NotifyAttemptAdmitted(ctx context.Context, attempt *models.Attempt)
	NotifySelectionRecorded(ctx context.Context, attemptID, questionID string, answerIDs []string)
	NotifyAttemptGraded(ctx context.Context, attempt *models.Attempt, summary *GradeSummary, right int)
	NotifyAttemptDeleted(ctx context.Context, attemptID string, count int64, deletedBy string)
}
