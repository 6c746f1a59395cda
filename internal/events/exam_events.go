package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the exam lifecycle events published by the service
type EventType string

const (
	EventAttemptAdmitted   EventType = "attempt.admitted"
	EventAttemptGraded     EventType = "attempt.graded"
	EventAttemptDeleted    EventType = "attempt.deleted"
	EventSelectionRecorded EventType = "selection.recorded"
)

const (
	EventSource  = "exam-service"
	EventVersion = "1.0"
)

// ExamEvent is the envelope for every published event
type ExamEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AttemptAdmittedEvent struct {
	AttemptID string    `json:"attempt_id"`
	StudentID string    `json:"student_id"`
	TestID    string    `json:"test_id"`
	CreatedAt time.Time `json:"created_at"`
}

type AttemptGradedEvent struct {
	AttemptID string    `json:"attempt_id"`
	StudentID string    `json:"student_id"`
	TestID    string    `json:"test_id"`
	Graded    int       `json:"graded"`
	Right     int       `json:"right"`
	GradedAt  time.Time `json:"graded_at"`
}

type AttemptDeletedEvent struct {
	AttemptID string `json:"attempt_id,omitempty"` // empty for bulk deletion
	Count     int64  `json:"count"`
	DeletedBy string `json:"deleted_by"`
}

type SelectionRecordedEvent struct {
	AttemptID  string   `json:"attempt_id"`
	QuestionID string   `json:"question_id"`
	AnswerIDs  []string `json:"answer_ids"`
}

// NewExamEvent wraps a payload in an envelope with a fresh id
func NewExamEvent(eventType EventType, data interface{}) *ExamEvent {
	return &ExamEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    EventSource,
		Version:   EventVersion,
		Data:      data,
	}
}

func NewAttemptAdmittedEvent(data AttemptAdmittedEvent) *ExamEvent {
	return NewExamEvent(EventAttemptAdmitted, data)
}

func NewAttemptGradedEvent(data AttemptGradedEvent) *ExamEvent {
	return NewExamEvent(EventAttemptGraded, data)
}

func NewAttemptDeletedEvent(data AttemptDeletedEvent) *ExamEvent {
	return NewExamEvent(EventAttemptDeleted, data)
}

func NewSelectionRecordedEvent(data SelectionRecordedEvent) *ExamEvent {
	return NewExamEvent(EventSelectionRecorded, data)
}
