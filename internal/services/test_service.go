package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/auth"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
	"gorm.io/gorm"
)

type testService struct {
	repo      repositories.Repository
	shuffler  *Shuffler
	logger    *slog.Logger
	audit     *ServiceLogger
	validator *validator.Validator
}

func NewTestService(repo repositories.Repository, shuffler *Shuffler, logger *slog.Logger, validator *validator.Validator) TestService {
	return &testService{
		repo:      repo,
		shuffler:  shuffler,
		logger:    logger,
		audit:     NewServiceLogger(logger, LogConfig{Service: "exam-service", Component: "authoring"}),
		validator: validator,
	}
}

// ===== READ =====

func (s *testService) GetTestView(ctx context.Context, identity *models.Identity, testID string, includeAttempts bool) (*TestView, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	// Other students' attempts are never shown to a learner
	opts := repositories.AggregateOptions{
		IncludeAttempts: includeAttempts && !identity.Role.IsLearner(),
	}

	test, err := s.repo.Test().GetAggregate(ctx, nil, testID, opts)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to load test: %w", err)
	}

	var rng *rand.Rand
	if identity.Role.IsLearner() {
		rng = s.shuffler.Rand()
	}
	return BuildTestView(test, identity.Role, rng), nil
}

// List returns test metadata only. Questions and answers are loaded per test through
// GetTestView, so listing never exposes an answer key.
func (s *testService) List(ctx context.Context, identity *models.Identity, req *ListTestsRequest) (*TestListResponse, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	filters := repositories.TestFilters{
		SubjectID: req.SubjectID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if filters.Limit == 0 {
		filters.Limit = DefaultPageSize
	}

	tests, total, err := s.repo.Test().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	summaries := make([]TestSummary, 0, len(tests))
	for _, t := range tests {
		summary := TestSummary{
			ID:        t.ID,
			Name:      t.Name,
			Type:      t.Type,
			TimeLimit: t.TimeLimit,
			SubjectID: t.SubjectID,
			CreatedAt: t.CreatedAt,
		}
		if t.Subject.ID != "" {
			subject := t.Subject
			summary.Subject = &subject
		}
		summaries = append(summaries, summary)
	}

	return &TestListResponse{
		Tests:  summaries,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

// ===== AUTHORING =====

func (s *testService) Create(ctx context.Context, identity *models.Identity, req *CreateTestRequest) (*TestView, error) {
	if err := auth.RequireRole(identity, models.RoleAdministrator); err != nil {
		return nil, err
	}

	s.logger.Info("Creating test", "name", req.Name, "subject_id", req.SubjectID, "user_id", identity.SubjectID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	test := &models.Test{
		Name:      req.Name,
		Type:      models.TestType(req.Type),
		TimeLimit: req.TimeLimit,
		SubjectID: req.SubjectID,
	}
	base := time.Now().UTC()
	for i := range req.Questions {
		// Creation order is the canonical order, so timestamps follow request order
		test.Questions = append(test.Questions, buildQuestion(&req.Questions[i], "", base.Add(time.Duration(i)*time.Millisecond)))
	}
	if err := s.validator.Validate(test); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Test().GetSubject(ctx, tx, req.SubjectID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubjectNotFound
			}
			return fmt.Errorf("failed to get subject: %w", err)
		}
		return s.repo.Test().Create(ctx, tx, test)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Test created successfully", "test_id", test.ID, "questions", len(test.Questions))
	s.audit.WithOperation(ctx, "create_test", identity.SubjectID).
		LogAudit(AuditEventCreate, test.ID, "test", map[string]interface{}{"questions": len(test.Questions)})

	return s.GetTestView(ctx, identity, test.ID, false)
}

func (s *testService) UpdateMetadata(ctx context.Context, identity *models.Identity, testID string, req *UpdateTestRequest) (*TestView, error) {
	if err := auth.RequireRole(identity, models.RoleAdministrator); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Test().GetByID(ctx, tx, testID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrTestNotFound
			}
			return fmt.Errorf("failed to get test: %w", err)
		}
		if _, err := s.repo.Test().GetSubject(ctx, tx, req.SubjectID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubjectNotFound
			}
			return fmt.Errorf("failed to get subject: %w", err)
		}

		// Questions and verdicts are left alone, graded attempts stay valid
		return s.repo.Test().UpdateMetadata(ctx, tx, &models.Test{
			ID:        testID,
			Name:      req.Name,
			Type:      models.TestType(req.Type),
			TimeLimit: req.TimeLimit,
			SubjectID: req.SubjectID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.repo.Test().InvalidateAggregate(ctx, testID)
	s.logger.Info("Test metadata updated", "test_id", testID, "user_id", identity.SubjectID)
	s.audit.WithOperation(ctx, "update_test", identity.SubjectID).LogAudit(AuditEventUpdate, testID, "test", nil)

	return s.GetTestView(ctx, identity, testID, false)
}

func (s *testService) Delete(ctx context.Context, identity *models.Identity, testID string) error {
	if err := auth.RequireRole(identity, models.RoleAdministrator); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Test().GetByID(ctx, tx, testID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrTestNotFound
			}
			return fmt.Errorf("failed to get test: %w", err)
		}

		hasAttempts, err := s.repo.Test().HasAttempts(ctx, tx, testID)
		if err != nil {
			return err
		}
		if hasAttempts {
			return ErrTestHasAttempts
		}

		return s.repo.Test().Delete(ctx, tx, testID)
	})
	if err != nil {
		return err
	}

	s.repo.Test().InvalidateAggregate(ctx, testID)
	s.logger.Info("Test deleted", "test_id", testID, "user_id", identity.SubjectID)
	s.audit.WithOperation(ctx, "delete_test", identity.SubjectID).LogAudit(AuditEventDelete, testID, "test", nil)
	return nil
}

func (s *testService) AddQuestion(ctx context.Context, identity *models.Identity, testID string, req *QuestionRequest) (*QuestionView, error) {
	if err := auth.RequireRole(identity, models.RoleAdministrator, models.RoleInstructor); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question := buildQuestion(req, testID, time.Now().UTC())
	if err := s.validator.Validate(&question); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Test().GetByID(ctx, tx, testID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrTestNotFound
			}
			return fmt.Errorf("failed to get test: %w", err)
		}
		return s.repo.Question().Create(ctx, tx, &question)
	})
	if err != nil {
		return nil, err
	}

	s.repo.Test().InvalidateAggregate(ctx, testID)
	s.logger.Info("Question added", "test_id", testID, "question_id", question.ID, "user_id", identity.SubjectID)

	return buildQuestionView(&question, identity.Role), nil
}

func (s *testService) GetQuestion(ctx context.Context, identity *models.Identity, questionID string) (*QuestionView, error) {
	if err := auth.RequireRole(identity, models.RoleAdministrator, models.RoleInstructor); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByIDWithAnswers(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return buildQuestionView(question, identity.Role), nil
}

// UpdateQuestion changes the text and answer mode of a question nobody has attempted yet.
// Once an attempt refers to the question its meaning is frozen, like its answer key.
func (s *testService) UpdateQuestion(ctx context.Context, identity *models.Identity, questionID string, req *UpdateQuestionRequest) (*QuestionView, error) {
	if err := auth.RequireRole(identity, models.RoleAdministrator, models.RoleInstructor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var question *models.Question
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		question, err = s.repo.Question().GetByIDWithAnswers(ctx, tx, questionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}

		hasHistory, err := s.repo.Question().HasAttemptHistory(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if hasHistory {
			return ErrQuestionHasHistory
		}

		question.Text = req.Question
		question.AllowsMultipleCorrectAnswers = req.AllowsMultipleCorrectAnswers
		// Switching to single-answer mode must not leave several correct options
		if err := s.validator.Validate(question); err != nil {
			return err
		}
		return s.repo.Question().Update(ctx, tx, question)
	})
	if err != nil {
		return nil, err
	}

	s.repo.Test().InvalidateAggregate(ctx, question.TestID)
	s.logger.Info("Question updated", "question_id", questionID, "user_id", identity.SubjectID)
	s.audit.WithOperation(ctx, "update_question", identity.SubjectID).LogAudit(AuditEventUpdate, questionID, "question", nil)

	return buildQuestionView(question, identity.Role), nil
}

// DeleteQuestion refuses to remove a question that any attempt refers to, so historical
// verdicts are never orphaned.
func (s *testService) DeleteQuestion(ctx context.Context, identity *models.Identity, questionID string) error {
	if err := auth.RequireRole(identity, models.RoleAdministrator, models.RoleInstructor); err != nil {
		return err
	}

	var testID string
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		question, err := s.repo.Question().GetByIDWithAnswers(ctx, tx, questionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		testID = question.TestID

		hasHistory, err := s.repo.Question().HasAttemptHistory(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if hasHistory {
			return ErrQuestionHasHistory
		}

		return s.repo.Question().Delete(ctx, tx, questionID)
	})
	if err != nil {
		return err
	}

	s.repo.Test().InvalidateAggregate(ctx, testID)
	s.logger.Info("Question deleted", "question_id", questionID, "user_id", identity.SubjectID)
	return nil
}

// DeleteAnswer refuses to touch a question any attempt refers to. Removing even an
// unselected option would change the answer key and flip verdicts on regrading.
func (s *testService) DeleteAnswer(ctx context.Context, identity *models.Identity, answerID string) error {
	if err := auth.RequireRole(identity, models.RoleAdministrator, models.RoleInstructor); err != nil {
		return err
	}

	var testID string
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		answer, err := s.repo.Question().GetAnswer(ctx, tx, answerID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAnswerNotFound
			}
			return fmt.Errorf("failed to get answer: %w", err)
		}

		question, err := s.repo.Question().GetByIDWithAnswers(ctx, tx, answer.QuestionID)
		if err != nil {
			return fmt.Errorf("failed to get question of answer: %w", err)
		}
		testID = question.TestID

		hasHistory, err := s.repo.Question().HasAttemptHistory(ctx, tx, question.ID)
		if err != nil {
			return err
		}
		if hasHistory {
			return ErrAnswerHasHistory
		}

		return s.repo.Question().DeleteAnswer(ctx, tx, answerID)
	})
	if err != nil {
		return err
	}

	s.repo.Test().InvalidateAggregate(ctx, testID)
	s.logger.Info("Answer deleted", "answer_id", answerID, "user_id", identity.SubjectID)
	return nil
}

func buildQuestionView(question *models.Question, role models.UserRole) *QuestionView {
	view := &QuestionView{
		ID:                           question.ID,
		Text:                         question.Text,
		AllowsMultipleCorrectAnswers: question.AllowsMultipleCorrectAnswers,
		TestID:                       question.TestID,
		Answers:                      make([]AnswerView, 0, len(question.Answers)),
	}
	for _, a := range question.Answers {
		view.Answers = append(view.Answers, ProjectAnswer(a, role))
	}
	return view
}

// buildQuestion maps a request onto a model, spacing answer timestamps so that the
// stored order matches the order given by the author.
func buildQuestion(req *QuestionRequest, testID string, createdAt time.Time) models.Question {
	question := models.Question{
		Text:                         req.Question,
		AllowsMultipleCorrectAnswers: req.AllowsMultipleCorrectAnswers,
		TestID:                       testID,
		CreatedAt:                    createdAt,
	}
	for i, a := range req.Answers {
		question.Answers = append(question.Answers, models.Answer{
			Text:      a.Answer,
			IsCorrect: a.IsCorrect,
			CreatedAt: createdAt.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return question
}
