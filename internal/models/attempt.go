package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Attempt is one student's single sitting of one test. The (student_id, test_id) pair is
// unique at the storage layer; admission relies on that index rather than on a prior read.
// FinalizedAt is set by the first successful grading pass; selections are frozen from then on.
type Attempt struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	TimeSpent   int        `json:"time_spent" gorm:"not null;default:0"` // seconds
	StudentID   string     `json:"student_id" gorm:"not null;size:36;uniqueIndex:idx_attempt_student_test"`
	TestID      string     `json:"test_id" gorm:"not null;size:36;uniqueIndex:idx_attempt_student_test;index"`
	FinalizedAt *time.Time `json:"finalized_at"`
	CreatedAt   time.Time  `json:"created_at"`

	// Relations
	Student   *Student          `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Test      *Test             `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Questions []AttemptQuestion `json:"questions,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

func (Attempt) TableName() string {
	return "attempts"
}

func (a *Attempt) IsFinalized() bool {
	return a.FinalizedAt != nil
}

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AttemptQuestion carries the verdict for one question of an attempt. IsRight stays nil
// until the attempt is graded.
type AttemptQuestion struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	IsRight    *bool  `json:"is_right"`
	AttemptID  string `json:"attempt_id" gorm:"not null;size:36;uniqueIndex:idx_attempt_question"`
	QuestionID string `json:"question_id" gorm:"not null;size:36;uniqueIndex:idx_attempt_question;index"`

	Question *Question       `json:"question,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT"`
	Answers  []AttemptAnswer `json:"answers" gorm:"foreignKey:AttemptQuestionID;constraint:OnDelete:CASCADE"`
}

func (AttemptQuestion) TableName() string {
	return "attempt_questions"
}

func (aq *AttemptQuestion) BeforeCreate(tx *gorm.DB) error {
	if aq.ID == "" {
		aq.ID = uuid.NewString()
	}
	return nil
}

// SelectedAnswerIDs returns the learner's selection for the question.
func (aq *AttemptQuestion) SelectedAnswerIDs() []string {
	ids := make([]string, 0, len(aq.Answers))
	for _, a := range aq.Answers {
		ids = append(ids, a.AnswerID)
	}
	return ids
}

type AttemptAnswer struct {
	ID                string `json:"id" gorm:"primaryKey;size:36"`
	AttemptQuestionID string `json:"attempt_question_id" gorm:"not null;size:36;index"`
	AnswerID          string `json:"answer_id" gorm:"not null;size:36;index"`

	Answer *Answer `json:"answer,omitempty" gorm:"foreignKey:AnswerID;constraint:OnDelete:RESTRICT"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

func (aa *AttemptAnswer) BeforeCreate(tx *gorm.DB) error {
	if aa.ID == "" {
		aa.ID = uuid.NewString()
	}
	return nil
}

// GradingRun is the audit record of one grading pass.
type GradingRun struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	AttemptID string         `json:"attempt_id" gorm:"not null;size:36;index"`
	Graded    int            `json:"graded"`
	Right     int            `json:"right"`
	Verdicts  datatypes.JSON `json:"verdicts" gorm:"type:jsonb"` // map[attempt_question_id]bool
	GradedAt  time.Time      `json:"graded_at"`
}

func (GradingRun) TableName() string {
	return "grading_runs"
}

func (g *GradingRun) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// AllModels lists every table owned or read by the service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Subject{},
		&Student{},
		&Test{},
		&Question{},
		&Answer{},
		&Attempt{},
		&AttemptQuestion{},
		&AttemptAnswer{},
		&GradingRun{},
	}
}
