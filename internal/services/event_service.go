package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
)

// examEventService publishes exam lifecycle events. Publishing is best effort: failures are
// logged and never surface to the request that triggered them.
type examEventService struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewExamEventService(publisher events.EventPublisher, logger *slog.Logger) ExamEventService {
	return &examEventService{
		publisher: publisher,
		logger:    logger,
	}
}

func (s *examEventService) publish(ctx context.Context, event *events.ExamEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish exam event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
	}
}

func (s *examEventService) NotifyAttemptAdmitted(ctx context.Context, attempt *models.Attempt) {
	s.publish(ctx, events.NewAttemptAdmittedEvent(events.AttemptAdmittedEvent{
		AttemptID: attempt.ID,
		StudentID: attempt.StudentID,
		TestID:    attempt.TestID,
		CreatedAt: attempt.CreatedAt,
	}))
}

func (s *examEventService) NotifySelectionRecorded(ctx context.Context, attemptID, questionID string, answerIDs []string) {
	s.publish(ctx, events.NewSelectionRecordedEvent(events.SelectionRecordedEvent{
		AttemptID:  attemptID,
		QuestionID: questionID,
		AnswerIDs:  answerIDs,
	}))
}

func (s *examEventService) NotifyAttemptGraded(ctx context.Context, attempt *models.Attempt, summary *GradeSummary, right int) {
	gradedAt := summary.GradedAt
	if gradedAt.IsZero() {
		gradedAt = time.Now().UTC()
	}
	s.publish(ctx, events.NewAttemptGradedEvent(events.AttemptGradedEvent{
		AttemptID: attempt.ID,
		StudentID: attempt.StudentID,
		TestID:    attempt.TestID,
		Graded:    summary.GradedQuestions,
		Right:     right,
		GradedAt:  gradedAt,
	}))
}

func (s *examEventService) NotifyAttemptDeleted(ctx context.Context, attemptID string, count int64, deletedBy string) {
	s.publish(ctx, events.NewAttemptDeletedEvent(events.AttemptDeletedEvent{
		AttemptID: attemptID,
		Count:     count,
		DeletedBy: deletedBy,
	}))
}
