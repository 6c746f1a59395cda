package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/auth"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
	"gorm.io/gorm"
)

type attemptService struct {
	repo      repositories.Repository
	events    ExamEventService
	logger    *slog.Logger
	opLogger  *ServiceLogger
	validator *validator.Validator
}

func NewAttemptService(repo repositories.Repository, events ExamEventService, logger *slog.Logger, validator *validator.Validator) AttemptService {
	return &attemptService{
		repo:      repo,
		events:    events,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "exam-service", Component: "attempt"}),
		validator: validator,
	}
}

// ===== ADMISSION =====

func (s *attemptService) Admit(ctx context.Context, identity *models.Identity, req *AdmitRequest) (attempt *models.Attempt, err error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	op := s.opLogger.WithOperation(ctx, "admit_attempt", identity.SubjectID)
	defer func() {
		resourceID := req.TestID
		if attempt != nil {
			resourceID = attempt.ID
		}
		op.LogResult(resourceID, "attempt", err)
	}()

	studentID, err := s.prepareAdmission(ctx, identity, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admitting attempt", "student_id", studentID, "test_id", req.TestID)

	attempt = &models.Attempt{
		StudentID: studentID,
		TestID:    req.TestID,
		TimeSpent: req.TimeSpent,
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		// Fast path. The unique index on (student_id, test_id) is what actually holds the
		// invariant when two admissions race past this read.
		exists, err := s.repo.Attempt().ExistsForStudentAndTest(ctx, tx, studentID, req.TestID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAttemptLimitReached
		}

		if err := s.repo.Attempt().Create(ctx, tx, attempt); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return ErrAttemptLimitReached
			}
			return err
		}

		return s.createAttemptQuestions(ctx, tx, attempt)
	})
	if err != nil {
		if !IsAttemptLimit(err) {
			err = fmt.Errorf("failed to admit attempt: %w", err)
		}
		return nil, err
	}

	s.logger.Info("Attempt admitted", "attempt_id", attempt.ID, "student_id", studentID, "test_id", req.TestID)
	s.events.NotifyAttemptAdmitted(ctx, attempt)

	return attempt, nil
}

// Check reports whether Admit would currently succeed for the pair.
func (s *attemptService) Check(ctx context.Context, identity *models.Identity, req *AdmitRequest) (*CheckResponse, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	studentID, err := s.prepareAdmission(ctx, identity, req)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Attempt().ExistsForStudentAndTest(ctx, nil, studentID, req.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to check attempt: %w", err)
	}
	if exists {
		return nil, ErrAttemptLimitReached
	}
	return &CheckResponse{Check: true}, nil
}

// prepareAdmission validates the request, resolves whose attempt it is and checks that the
// student and the test exist.
func (s *attemptService) prepareAdmission(ctx context.Context, identity *models.Identity, req *AdmitRequest) (string, error) {
	if err := s.validator.Validate(req); err != nil {
		return "", err
	}

	studentID := req.StudentID
	if identity.Role.IsLearner() {
		if studentID == "" {
			studentID = identity.SubjectID
		}
		if studentID != identity.SubjectID {
			return "", NewPermissionError(identity.SubjectID, studentID, "student", "admit", "learners may only start their own attempts")
		}
	}
	if studentID == "" {
		return "", ValidationErrors{*NewValidationError("student_id", "is required", nil)}
	}

	if _, err := s.repo.Student().GetByID(ctx, nil, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrStudentNotFound
		}
		return "", fmt.Errorf("failed to get student: %w", err)
	}
	if _, err := s.repo.Test().GetByID(ctx, nil, req.TestID); err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrTestNotFound
		}
		return "", fmt.Errorf("failed to get test: %w", err)
	}

	return studentID, nil
}

// createAttemptQuestions gives the attempt one empty AttemptQuestion per question of the
// test, so unanswered questions are graded as wrong.
func (s *attemptService) createAttemptQuestions(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	test, err := s.repo.Test().GetAggregate(ctx, tx, attempt.TestID, repositories.AggregateOptions{})
	if err != nil {
		return fmt.Errorf("failed to load test questions: %w", err)
	}

	for _, q := range test.Questions {
		aq := &models.AttemptQuestion{AttemptID: attempt.ID, QuestionID: q.ID}
		if err := s.repo.Attempt().CreateAttemptQuestion(ctx, tx, aq); err != nil {
			return err
		}
		attempt.Questions = append(attempt.Questions, *aq)
	}
	return nil
}

// ===== SELECTIONS =====

func (s *attemptService) RecordSelection(ctx context.Context, identity *models.Identity, attemptID string, req *RecordSelectionRequest) (*AttemptQuestionView, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	selected := uniqueIDs(req.AnswerIDs)
	var stored *models.AttemptQuestion
	var question *models.Question

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if err := authorizeAttemptAccess(identity, attempt, "record selection for"); err != nil {
			return err
		}
		// Graded attempts are closed, otherwise regrading would reveal the answer key
		if attempt.IsFinalized() {
			return ErrAttemptFinalized
		}

		question, err = s.repo.Question().GetByIDWithAnswers(ctx, tx, req.QuestionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		if question.TestID != attempt.TestID {
			return ErrQuestionNotInTest
		}
		for _, id := range selected {
			if !question.HasAnswer(id) {
				return fmt.Errorf("answer %s: %w", id, ErrSelectionNotInQuestion)
			}
		}
		if !question.AllowsMultipleCorrectAnswers && len(selected) > 1 {
			return ValidationErrors{*NewValidationError("answer_ids", "single-answer question accepts at most one option", len(selected))}
		}

		// Exists from admission, unless the question was added afterwards
		aq, err := s.repo.Attempt().EnsureAttemptQuestion(ctx, tx, attemptID, question.ID)
		if err != nil {
			return fmt.Errorf("failed to prepare attempt question: %w", err)
		}

		if err := s.repo.Attempt().ReplaceSelection(ctx, tx, aq.ID, selected); err != nil {
			return err
		}

		stored, err = s.repo.Attempt().GetAttemptQuestion(ctx, tx, attemptID, question.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Selection recorded",
		"attempt_id", attemptID,
		"question_id", req.QuestionID,
		"selected", len(selected))
	s.events.NotifySelectionRecorded(ctx, attemptID, req.QuestionID, selected)

	answers := make(map[string]models.Answer, len(question.Answers))
	for _, a := range question.Answers {
		answers[a.ID] = a
	}
	view := &AttemptQuestionView{
		ID:         stored.ID,
		QuestionID: stored.QuestionID,
		IsRight:    stored.IsRight,
		Answers:    make([]AttemptAnswerView, 0, len(stored.Answers)),
	}
	for _, aa := range stored.Answers {
		av := AttemptAnswerView{ID: aa.ID, AnswerID: aa.AnswerID}
		if a, ok := answers[aa.AnswerID]; ok {
			av.Answer = ProjectAnswer(a, identity.Role)
		}
		view.Answers = append(view.Answers, av)
	}
	return view, nil
}

// ===== READS =====

func (s *attemptService) GetByID(ctx context.Context, identity *models.Identity, attemptID string) (*AttemptView, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if err := authorizeAttemptAccess(identity, attempt, "view"); err != nil {
		return nil, err
	}

	return BuildAttemptView(attempt, identity.Role), nil
}

func (s *attemptService) List(ctx context.Context, identity *models.Identity, req *ListAttemptsRequest) (*AttemptListResponse, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	filters := repositories.AttemptFilters{
		StudentID: req.StudentID,
		TestID:    req.TestID,
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
	if filters.Limit == 0 {
		filters.Limit = DefaultPageSize
	}
	if identity.Role.IsLearner() {
		own := identity.SubjectID
		filters.StudentID = &own
	}

	attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	views := make([]*AttemptView, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, BuildAttemptView(a, identity.Role))
	}

	return &AttemptListResponse{
		Attempts: views,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

// ===== DELETION =====

func (s *attemptService) Delete(ctx context.Context, identity *models.Identity, attemptID string) error {
	if err := auth.RequireRole(identity, models.RoleAdministrator, models.RoleInstructor); err != nil {
		return err
	}

	op := s.opLogger.WithOperation(ctx, "delete_attempt", identity.SubjectID)

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		err := s.repo.Attempt().Delete(ctx, tx, attemptID)
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return err
	})
	op.LogResult(attemptID, "attempt", err)
	if err != nil {
		return err
	}

	op.LogAudit(AuditEventDelete, attemptID, "attempt", nil)
	s.events.NotifyAttemptDeleted(ctx, attemptID, 1, identity.SubjectID)
	return nil
}

func (s *attemptService) DeleteAll(ctx context.Context, identity *models.Identity) (*DeleteAllResponse, error) {
	if err := auth.RequireRole(identity, models.RoleAdministrator); err != nil {
		return nil, err
	}

	op := s.opLogger.WithOperation(ctx, "delete_all_attempts", identity.SubjectID)

	var deleted int64
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.Attempt().DeleteAll(ctx, tx)
		return err
	})
	op.LogResult("*", "attempt", err)
	if err != nil {
		return nil, fmt.Errorf("failed to delete attempts: %w", err)
	}

	op.LogAudit(AuditEventDelete, "*", "attempt", map[string]interface{}{"count": deleted})
	s.events.NotifyAttemptDeleted(ctx, "", deleted, identity.SubjectID)

	return &DeleteAllResponse{Deleted: deleted}, nil
}

// ===== HELPERS =====

// authorizeAttemptAccess lets learners act on their own attempts only.
func authorizeAttemptAccess(identity *models.Identity, attempt *models.Attempt, action string) error {
	if identity.Role.IsLearner() && attempt.StudentID != identity.SubjectID {
		return NewPermissionError(identity.SubjectID, attempt.ID, "attempt", action, "not owned by learner")
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
