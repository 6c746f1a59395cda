package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the repositories used by the services. Every method accepts an optional
// transaction; a nil tx runs against the default connection.
type Repository interface {
	Test() TestRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Student() StudentRepository

	// WithTransaction runs fn inside a database transaction, rolling back when fn fails.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	StudentID *string `json:"student_id"`
	TestID    *string `json:"test_id"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "time_spent"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type TestFilters struct {
	SubjectID *string `json:"subject_id"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

// AggregateOptions selects which branches of the test tree GetAggregate loads.
type AggregateOptions struct {
	IncludeAttempts bool
}

// TestRepository loads and mutates tests. GetAggregate returns questions and answers in
// ascending creation order; callers must not reorder the returned slices in place.
// Reads outside a transaction may be served from cache, and writers must call
// InvalidateAggregate once their transaction has committed.
type TestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Test, error)
	List(ctx context.Context, tx *gorm.DB, filters TestFilters) ([]*models.Test, int64, error)
	GetAggregate(ctx context.Context, tx *gorm.DB, id string, opts AggregateOptions) (*models.Test, error)
	UpdateMetadata(ctx context.Context, tx *gorm.DB, test *models.Test) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	InvalidateAggregate(ctx context.Context, id string)

	HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	GetSubject(ctx context.Context, tx *gorm.DB, id string) (*models.Subject, error)
}

type QuestionRepository interface {
	// Create inserts the question together with its answers.
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error)
	// Update changes the question text and answer mode. Answers are untouched.
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	HasAttemptHistory(ctx context.Context, tx *gorm.DB, id string) (bool, error)

	GetAnswer(ctx context.Context, tx *gorm.DB, id string) (*models.Answer, error)
	DeleteAnswer(ctx context.Context, tx *gorm.DB, id string) error
}

type AttemptRepository interface {
	// Create fails with an error satisfying IsDuplicateKeyError when the student already
	// has an attempt for the test.
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error)
	// GetByIDForUpdate locks the attempt row until tx ends. Selection writes and grading
	// take this lock so they never interleave on one attempt.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) // Include questions, selections, student
	ExistsForStudentAndTest(ctx context.Context, tx *gorm.DB, studentID, testID string) (bool, error)
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetByTestWithDetails(ctx context.Context, tx *gorm.DB, testID string) ([]*models.Attempt, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error)

	// Selection and verdict management
	GetAttemptQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID string) (*models.AttemptQuestion, error)
	CreateAttemptQuestion(ctx context.Context, tx *gorm.DB, aq *models.AttemptQuestion) error
	// EnsureAttemptQuestion returns the AttemptQuestion for the pair, creating it when missing.
	// A concurrent creator does not make it fail.
	EnsureAttemptQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID string) (*models.AttemptQuestion, error)
	ReplaceSelection(ctx context.Context, tx *gorm.DB, attemptQuestionID string, answerIDs []string) error
	UpdateVerdict(ctx context.Context, tx *gorm.DB, attemptQuestionID string, isRight bool) error
	CreateGradingRun(ctx context.Context, tx *gorm.DB, run *models.GradingRun) error
	// Finalize stamps finalized_at unless it is already set.
	Finalize(ctx context.Context, tx *gorm.DB, id string, at time.Time) error
}

// StudentRepository is read-only: students are owned by the identity service.
type StudentRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Student, error)
}
