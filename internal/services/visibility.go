package services

import (
	"math/rand/v2"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// AnswerView is the role-dependent representation of an answer option. Only
// AnswerWithKey carries the is_correct field; learners always receive AnswerWithoutKey.
type AnswerView interface {
	answerView()
}

type AnswerWithKey struct {
	ID         string `json:"id"`
	Text       string `json:"answer"`
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
}

type AnswerWithoutKey struct {
	ID         string `json:"id"`
	Text       string `json:"answer"`
	QuestionID string `json:"question_id"`
}

func (AnswerWithKey) answerView() {}
func (AnswerWithoutKey) answerView() {}

// ProjectAnswer is the single place where the answer key is exposed or withheld.
func ProjectAnswer(answer models.Answer, role models.UserRole) AnswerView {
	if role.CanSeeAnswerKey() {
		return AnswerWithKey{
			ID:         answer.ID,
			Text:       answer.Text,
			QuestionID: answer.QuestionID,
			IsCorrect:  answer.IsCorrect,
		}
	}
	return AnswerWithoutKey{
		ID:         answer.ID,
		Text:       answer.Text,
		QuestionID: answer.QuestionID,
	}
}

type QuestionView struct {
	ID                           string       `json:"id"`
	Text                         string       `json:"question"`
	AllowsMultipleCorrectAnswers bool         `json:"allows_multiple_correct_answers"`
	TestID                       string       `json:"test_id"`
	Answers                      []AnswerView `json:"answers"`
}

type TestView struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      models.TestType `json:"type"`
	TimeLimit int             `json:"time_limit"`
	SubjectID string          `json:"subject_id"`
	Subject   *models.Subject `json:"subject,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Questions []QuestionView  `json:"questions"`
	Attempts  []AttemptView   `json:"attempts,omitempty"`
}

type AttemptAnswerView struct {
	ID       string     `json:"id"`
	AnswerID string     `json:"answer_id"`
	Answer   AnswerView `json:"answer,omitempty"`
}

type AttemptQuestionView struct {
	ID         string              `json:"id"`
	QuestionID string              `json:"question_id"`
	IsRight    *bool               `json:"is_right"`
	Answers    []AttemptAnswerView `json:"answers"`
}

type AttemptView struct {
	ID          string                `json:"id"`
	TimeSpent   int                   `json:"time_spent"`
	StudentID   string                `json:"student_id"`
	TestID      string                `json:"test_id"`
	FinalizedAt *time.Time            `json:"finalized_at"`
	CreatedAt   time.Time             `json:"created_at"`
	Student     *models.Student       `json:"student,omitempty"`
	Questions   []AttemptQuestionView `json:"questions"`
}

// BuildTestView projects the canonical aggregate for role. Learners get question order and
// each question's answer order permuted with rng; other roles keep creation order.
// The aggregate is never modified.
func BuildTestView(test *models.Test, role models.UserRole, rng *rand.Rand) *TestView {
	questions := test.Questions
	shuffle := role.IsLearner() && rng != nil
	if shuffle {
		questions = Shuffle(rng, questions)
	}

	view := &TestView{
		ID:        test.ID,
		Name:      test.Name,
		Type:      test.Type,
		TimeLimit: test.TimeLimit,
		SubjectID: test.SubjectID,
		CreatedAt: test.CreatedAt,
		Questions: make([]QuestionView, 0, len(questions)),
	}
	if test.Subject.ID != "" {
		subject := test.Subject
		view.Subject = &subject
	}

	for _, q := range questions {
		answers := q.Answers
		if shuffle {
			answers = Shuffle(rng, answers)
		}
		qv := QuestionView{
			ID:                           q.ID,
			Text:                         q.Text,
			AllowsMultipleCorrectAnswers: q.AllowsMultipleCorrectAnswers,
			TestID:                       q.TestID,
			Answers:                      make([]AnswerView, 0, len(answers)),
		}
		for _, a := range answers {
			qv.Answers = append(qv.Answers, ProjectAnswer(a, role))
		}
		view.Questions = append(view.Questions, qv)
	}

	for i := range test.Attempts {
		view.Attempts = append(view.Attempts, *BuildAttemptView(&test.Attempts[i], role))
	}

	return view
}

// BuildAttemptView renders an attempt with selected answers projected for role.
func BuildAttemptView(attempt *models.Attempt, role models.UserRole) *AttemptView {
	view := &AttemptView{
		ID:          attempt.ID,
		TimeSpent:   attempt.TimeSpent,
		StudentID:   attempt.StudentID,
		TestID:      attempt.TestID,
		FinalizedAt: attempt.FinalizedAt,
		CreatedAt:   attempt.CreatedAt,
		Student:     attempt.Student,
		Questions:   make([]AttemptQuestionView, 0, len(attempt.Questions)),
	}

	for _, aq := range attempt.Questions {
		qv := AttemptQuestionView{
			ID:         aq.ID,
			QuestionID: aq.QuestionID,
			IsRight:    aq.IsRight,
			Answers:    make([]AttemptAnswerView, 0, len(aq.Answers)),
		}
		for _, aa := range aq.Answers {
			av := AttemptAnswerView{ID: aa.ID, AnswerID: aa.AnswerID}
			if aa.Answer != nil {
				av.Answer = ProjectAnswer(*aa.Answer, role)
			}
			qv.Answers = append(qv.Answers, av)
		}
		view.Questions = append(view.Questions, qv)
	}

	return view
}
