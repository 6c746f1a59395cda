package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestType string

const (
	TestTypeQuiz     TestType = "quiz"
	TestTypeExam     TestType = "exam"
	TestTypePractice TestType = "practice"
)

type Subject struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
}

func (Subject) TableName() string {
	return "subjects"
}

type Test struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Type      TestType  `json:"type" gorm:"not null;size:32"`
	TimeLimit int       `json:"time_limit" gorm:"not null"` // minutes
	SubjectID string    `json:"subject_id" gorm:"not null;size:36;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Subject   Subject    `json:"subject" gorm:"foreignKey:SubjectID"`
	Questions []Question `json:"questions" gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`
	Attempts  []Attempt  `json:"attempts,omitempty" gorm:"foreignKey:TestID;constraint:OnDelete:RESTRICT"`
}

func (Test) TableName() string {
	return "tests"
}

func (t *Test) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type Question struct {
	ID                           string    `json:"id" gorm:"primaryKey;size:36"`
	Text                         string    `json:"question" gorm:"column:question;not null;type:text"`
	AllowsMultipleCorrectAnswers bool      `json:"allows_multiple_correct_answers" gorm:"not null;default:false"`
	TestID                       string    `json:"test_id" gorm:"not null;size:36;index"`
	CreatedAt                    time.Time `json:"created_at" gorm:"index"`

	Answers []Answer `json:"answers" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// CorrectAnswerIDs returns the answer key of the question.
func (q *Question) CorrectAnswerIDs() []string {
	ids := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		if a.IsCorrect {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// HasAnswer reports whether answerID is one of the question's options.
func (q *Question) HasAnswer(answerID string) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

type Answer struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Text       string    `json:"answer" gorm:"column:answer;not null;type:text"`
	IsCorrect  bool      `json:"is_correct" gorm:"not null;default:false"`
	QuestionID string    `json:"question_id" gorm:"not null;size:36;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
