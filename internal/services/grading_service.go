package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type gradingService struct {
	repo     repositories.Repository
	events   ExamEventService
	logger   *slog.Logger
	opLogger *ServiceLogger
	now      func() time.Time
}

func NewGradingService(repo repositories.Repository, events ExamEventService, logger *slog.Logger) GradingService {
	return &gradingService{
		repo:     repo,
		events:   events,
		logger:   logger,
		opLogger: NewServiceLogger(logger, LogConfig{Service: "exam-service", Component: "grading"}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GradeQuestion applies exact-match grading: the selection is right only when it equals the
// answer key as a set. Order and duplicates are ignored.
func GradeQuestion(correctIDs, selectedIDs []string) bool {
	correct := make(map[string]struct{}, len(correctIDs))
	for _, id := range correctIDs {
		correct[id] = struct{}{}
	}
	selected := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		if _, ok := correct[id]; !ok {
			return false
		}
		selected[id] = struct{}{}
	}
	return len(selected) == len(correct)
}

// GradeAttempt grades every AttemptQuestion of the attempt in one transaction and finalizes
// the attempt, after which selections can no longer change. Regrading a finalized attempt
// recomputes the same verdicts. A question that cannot be loaded aborts the whole pass and
// leaves previous verdicts in place.
func (s *gradingService) GradeAttempt(ctx context.Context, identity *models.Identity, attemptID string) (summary *GradeSummary, err error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	op := s.opLogger.WithOperation(ctx, "grade_attempt", identity.SubjectID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	s.logger.Info("Grading attempt", "attempt_id", attemptID, "role", identity.Role)

	var attempt *models.Attempt
	right := 0
	gradedAt := s.now()

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		// The row lock keeps selection writes out until verdicts and finalization commit
		locked, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if err := authorizeAttemptAccess(identity, locked, "grade"); err != nil {
			return err
		}

		attempt, err = s.repo.Attempt().GetByIDWithDetails(ctx, tx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to load attempt details: %w", err)
		}

		summary = &GradeSummary{
			AttemptID: attemptID,
			Verdicts:  make([]QuestionVerdict, 0, len(attempt.Questions)),
			GradedAt:  gradedAt,
		}
		verdicts := make(map[string]bool, len(attempt.Questions))

		for i := range attempt.Questions {
			aq := &attempt.Questions[i]

			question, err := s.repo.Question().GetByIDWithAnswers(ctx, tx, aq.QuestionID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					return fmt.Errorf("question %s of attempt %s: %w", aq.QuestionID, attemptID, ErrQuestionNotFound)
				}
				return fmt.Errorf("failed to load question %s: %w", aq.QuestionID, err)
			}

			isRight := GradeQuestion(question.CorrectAnswerIDs(), aq.SelectedAnswerIDs())
			if err := s.repo.Attempt().UpdateVerdict(ctx, tx, aq.ID, isRight); err != nil {
				return err
			}

			verdicts[aq.ID] = isRight
			if isRight {
				right++
			}
			summary.Verdicts = append(summary.Verdicts, QuestionVerdict{
				AttemptQuestionID: aq.ID,
				QuestionID:        aq.QuestionID,
				IsRight:           isRight,
			})
		}
		summary.GradedQuestions = len(summary.Verdicts)

		payload, err := json.Marshal(verdicts)
		if err != nil {
			return fmt.Errorf("failed to encode verdicts: %w", err)
		}
		err = s.repo.Attempt().CreateGradingRun(ctx, tx, &models.GradingRun{
			AttemptID: attemptID,
			Graded:    summary.GradedQuestions,
			Right:     right,
			Verdicts:  datatypes.JSON(payload),
			GradedAt:  gradedAt,
		})
		if err != nil {
			return err
		}
		return s.repo.Attempt().Finalize(ctx, tx, attemptID, gradedAt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attempt graded",
		"attempt_id", attemptID,
		"graded_questions", summary.GradedQuestions)
	op.LogAudit(AuditEventGrade, attemptID, "attempt", map[string]interface{}{"graded": summary.GradedQuestions, "right": right})
	s.events.NotifyAttemptGraded(ctx, attempt, summary, right)

	return summary, nil
}
