package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRequest(subjectID string) *CreateTestRequest {
	return &CreateTestRequest{
		Name:      "Mechanics",
		Type:      "exam",
		TimeLimit: 45,
		SubjectID: subjectID,
		Questions: []QuestionRequest{
			{
				Question: "Unit of force?",
				Answers: []AnswerRequest{
					{Answer: "Newton", IsCorrect: true},
					{Answer: "Joule"},
					{Answer: "Watt"},
				},
			},
			{
				Question:                     "Vector quantities?",
				AllowsMultipleCorrectAnswers: true,
				Answers: []AnswerRequest{
					{Answer: "Velocity", IsCorrect: true},
					{Answer: "Mass"},
					{Answer: "Force", IsCorrect: true},
				},
			},
		},
	}
}

func TestTestService_Create(t *testing.T) {
	env := newTestEnv()
	subjectID := env.repo.addSubject("Physics")

	view, err := env.tests.Create(context.Background(), administrator(), createTestRequest(subjectID))
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Mechanics", view.Name)
	assert.Equal(t, models.TestTypeExam, view.Type)
	require.NotNil(t, view.Subject)
	assert.Equal(t, "Physics", view.Subject.Name)

	// staff get the authored order back
	require.Len(t, view.Questions, 2)
	assert.Equal(t, "Unit of force?", view.Questions[0].Text)
	assert.Equal(t, "Vector quantities?", view.Questions[1].Text)
	texts := []string{}
	for _, a := range view.Questions[1].Answers {
		texts = append(texts, a.(AnswerWithKey).Text)
	}
	assert.Equal(t, []string{"Velocity", "Mass", "Force"}, texts)
}

func TestTestService_CreateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv()
	subjectID := env.repo.addSubject("Physics")

	tests := []struct {
		name     string
		identity *models.Identity
		mutate   func(req *CreateTestRequest)
		check    func(t *testing.T, err error)
	}{
		{
			name:     "instructor cannot create",
			identity: instructor(),
			check:    func(t *testing.T, err error) { assert.True(t, IsForbidden(err)) },
		},
		{
			name:     "unknown type",
			identity: administrator(),
			mutate:   func(req *CreateTestRequest) { req.Type = "survey" },
			check:    func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
		{
			name:     "two correct options on a single-answer question",
			identity: administrator(),
			mutate:   func(req *CreateTestRequest) { req.Questions[0].Answers[1].IsCorrect = true },
			check:    func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
		{
			name:     "duplicate options",
			identity: administrator(),
			mutate:   func(req *CreateTestRequest) { req.Questions[0].Answers[2].Answer = "newton" },
			check:    func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
		{
			name:     "single option",
			identity: administrator(),
			mutate:   func(req *CreateTestRequest) { req.Questions[0].Answers = req.Questions[0].Answers[:1] },
			check:    func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
		{
			name:     "unknown subject",
			identity: administrator(),
			mutate:   func(req *CreateTestRequest) { req.SubjectID = "missing" },
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrSubjectNotFound) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createTestRequest(subjectID)
			if tt.mutate != nil {
				tt.mutate(req)
			}
			view, err := env.tests.Create(context.Background(), tt.identity, req)
			require.Error(t, err)
			assert.Nil(t, view)
			tt.check(t, err)
		})
	}
}

func TestTestService_GetTestView(t *testing.T) {
	env := newTestEnv()
	env.repo.addStudent("stu-1", "Ada Lovelace")
	seeded := env.repo.addTest("Quiz", []string{"A*", "B"}, []string{"C*", "D*", "E"})

	_, err := env.attempts.Admit(context.Background(), learner("stu-1"), &AdmitRequest{TestID: seeded.test.ID})
	require.NoError(t, err)

	learnerView, err := env.tests.GetTestView(context.Background(), learner("stu-1"), seeded.test.ID, true)
	require.NoError(t, err)
	assert.Empty(t, learnerView.Attempts, "learners never receive attempts")

	raw, err := json.Marshal(learnerView)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "is_correct")

	staffView, err := env.tests.GetTestView(context.Background(), instructor(), seeded.test.ID, true)
	require.NoError(t, err)
	assert.Len(t, staffView.Attempts, 1)
	assert.Equal(t, seeded.questions[0].ID, staffView.Questions[0].ID)

	withoutAttempts, err := env.tests.GetTestView(context.Background(), instructor(), seeded.test.ID, false)
	require.NoError(t, err)
	assert.Empty(t, withoutAttempts.Attempts)

	_, err = env.tests.GetTestView(context.Background(), learner("stu-1"), "missing", false)
	assert.ErrorIs(t, err, ErrTestNotFound)

	_, err = env.tests.GetTestView(context.Background(), nil, seeded.test.ID, false)
	assert.True(t, IsUnauthenticated(err))
}

func TestTestService_UpdateMetadata(t *testing.T) {
	env := newTestEnv()
	seeded := env.repo.addTest("Quiz", []string{"A*", "B"})
	subjectID := env.repo.addSubject("Chemistry")
	req := &UpdateTestRequest{Name: "Renamed", Type: "practice", TimeLimit: 15, SubjectID: subjectID}

	_, err := env.tests.UpdateMetadata(context.Background(), instructor(), seeded.test.ID, req)
	assert.True(t, IsForbidden(err))

	view, err := env.tests.UpdateMetadata(context.Background(), administrator(), seeded.test.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Name)
	assert.Equal(t, models.TestTypePractice, view.Type)
	assert.Equal(t, subjectID, view.SubjectID)
	assert.Len(t, view.Questions, 1, "questions are untouched")

	_, err = env.tests.UpdateMetadata(context.Background(), administrator(), "missing", req)
	assert.ErrorIs(t, err, ErrTestNotFound)

	req.TimeLimit = 0
	_, err = env.tests.UpdateMetadata(context.Background(), administrator(), seeded.test.ID, req)
	assert.True(t, IsValidation(err))
}

func TestTestService_DeletionIsBlockedByHistory(t *testing.T) {
	env := newTestEnv()
	env.repo.addStudent("stu-1", "Ada Lovelace")
	seeded := env.repo.addTest("Quiz", []string{"A*", "B", "C"})
	question := seeded.questions[0]

	attempt, err := env.attempts.Admit(context.Background(), learner("stu-1"), &AdmitRequest{TestID: seeded.test.ID})
	require.NoError(t, err)
	_, err = env.attempts.RecordSelection(context.Background(), learner("stu-1"), attempt.ID, &RecordSelectionRequest{
		QuestionID: question.ID,
		AnswerIDs:  []string{question.Answers[0].ID},
	})
	require.NoError(t, err)

	err = env.tests.Delete(context.Background(), administrator(), seeded.test.ID)
	assert.ErrorIs(t, err, ErrTestHasAttempts)
	assert.True(t, IsConflict(err))

	err = env.tests.DeleteQuestion(context.Background(), instructor(), question.ID)
	assert.ErrorIs(t, err, ErrQuestionHasHistory)

	err = env.tests.DeleteAnswer(context.Background(), instructor(), question.Answers[0].ID)
	assert.ErrorIs(t, err, ErrAnswerHasHistory)

	// an option nobody selected is still part of an attempted question
	err = env.tests.DeleteAnswer(context.Background(), instructor(), question.Answers[2].ID)
	assert.ErrorIs(t, err, ErrAnswerHasHistory)

	require.NoError(t, env.attempts.Delete(context.Background(), administrator(), attempt.ID))
	require.NoError(t, env.tests.DeleteAnswer(context.Background(), instructor(), question.Answers[2].ID))
	require.NoError(t, env.tests.DeleteQuestion(context.Background(), instructor(), question.ID))
	require.NoError(t, env.tests.Delete(context.Background(), administrator(), seeded.test.ID))

	_, err = env.tests.GetTestView(context.Background(), administrator(), seeded.test.ID, false)
	assert.ErrorIs(t, err, ErrTestNotFound)
}

func TestTestService_AuthoringPermissions(t *testing.T) {
	env := newTestEnv()
	seeded := env.repo.addTest("Quiz", []string{"A*", "B"})
	req := &QuestionRequest{Question: "New?", Answers: []AnswerRequest{{Answer: "yes"}, {Answer: "no"}}}

	_, err := env.tests.AddQuestion(context.Background(), learner("stu-1"), seeded.test.ID, req)
	assert.True(t, IsForbidden(err))

	assert.True(t, IsForbidden(env.tests.Delete(context.Background(), instructor(), seeded.test.ID)))
	assert.True(t, IsForbidden(env.tests.DeleteQuestion(context.Background(), learner("stu-1"), seeded.questions[0].ID)))

	_, err = env.tests.AddQuestion(context.Background(), instructor(), "missing", req)
	assert.ErrorIs(t, err, ErrTestNotFound)

	added, err := env.tests.AddQuestion(context.Background(), administrator(), seeded.test.ID, req)
	require.NoError(t, err)
	assert.Len(t, added.Answers, 2)

	assert.ErrorIs(t, env.tests.DeleteQuestion(context.Background(), instructor(), "missing"), ErrQuestionNotFound)
	assert.ErrorIs(t, env.tests.DeleteAnswer(context.Background(), instructor(), "missing"), ErrAnswerNotFound)
}

func TestTestService_DeleteUnselectedCorrectAnswerKeepsVerdicts(t *testing.T) {
	env := newTestEnv()
	env.repo.addStudent("stu-1", "Ada Lovelace")
	seeded := env.repo.addTest("Quiz", []string{"A*", "B", "C*"})
	question := seeded.questions[0]

	attempt, err := env.attempts.Admit(context.Background(), learner("stu-1"), &AdmitRequest{TestID: seeded.test.ID})
	require.NoError(t, err)
	_, err = env.attempts.RecordSelection(context.Background(), learner("stu-1"), attempt.ID, &RecordSelectionRequest{
		QuestionID: question.ID,
		AnswerIDs:  []string{question.Answers[0].ID},
	})
	require.NoError(t, err)

	before, err := env.grading.GradeAttempt(context.Background(), instructor(), attempt.ID)
	require.NoError(t, err)
	require.False(t, before.Verdicts[0].IsRight)

	// C was never selected, but removing it would turn {A} into the full key
	err = env.tests.DeleteAnswer(context.Background(), instructor(), question.Answers[2].ID)
	assert.ErrorIs(t, err, ErrAnswerHasHistory)
	assert.True(t, IsConflict(err))

	after, err := env.grading.GradeAttempt(context.Background(), instructor(), attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Verdicts, after.Verdicts)
}

func TestTestService_InvalidatesCacheAfterCommit(t *testing.T) {
	env := newTestEnv()
	seeded := env.repo.addTest("Quiz", []string{"A*", "B"})
	testID := seeded.test.ID
	req := &QuestionRequest{Question: "New?", Answers: []AnswerRequest{{Answer: "yes", IsCorrect: true}, {Answer: "no"}}}

	added, err := env.tests.AddQuestion(context.Background(), instructor(), testID, req)
	require.NoError(t, err)
	_, err = env.tests.UpdateQuestion(context.Background(), instructor(), added.ID, &UpdateQuestionRequest{Question: "Renamed?"})
	require.NoError(t, err)
	require.NoError(t, env.tests.DeleteAnswer(context.Background(), instructor(), seeded.questions[0].Answers[1].ID))
	require.NoError(t, env.tests.DeleteQuestion(context.Background(), instructor(), added.ID))
	_, err = env.tests.UpdateMetadata(context.Background(), administrator(), testID, &UpdateTestRequest{
		Name: "Quiz 2", Type: "quiz", TimeLimit: 10, SubjectID: seeded.test.SubjectID,
	})
	require.NoError(t, err)
	require.NoError(t, env.tests.Delete(context.Background(), administrator(), testID))

	got := env.repo.invalidated()
	require.Len(t, got, 6)
	for _, inv := range got {
		assert.Equal(t, testID, inv.testID)
		assert.False(t, inv.inTx, "invalidated before the transaction committed")
	}
}

func TestTestService_FailedWriteDoesNotInvalidate(t *testing.T) {
	env := newTestEnv()
	env.repo.addStudent("stu-1", "Ada Lovelace")
	seeded := env.repo.addTest("Quiz", []string{"A*", "B"})
	_, err := env.attempts.Admit(context.Background(), learner("stu-1"), &AdmitRequest{TestID: seeded.test.ID})
	require.NoError(t, err)

	assert.Error(t, env.tests.DeleteQuestion(context.Background(), instructor(), seeded.questions[0].ID))
	assert.Error(t, env.tests.Delete(context.Background(), administrator(), seeded.test.ID))
	_, err = env.tests.AddQuestion(context.Background(), instructor(), "missing",
		&QuestionRequest{Question: "New?", Answers: []AnswerRequest{{Answer: "yes"}, {Answer: "no"}}})
	assert.Error(t, err)

	assert.Empty(t, env.repo.invalidated())
}

func TestTestService_List(t *testing.T) {
	env := newTestEnv()
	first := env.repo.addTest("Algebra", []string{"A*", "B"})
	env.repo.addTest("Geometry", []string{"A*", "B"})

	resp, err := env.tests.List(context.Background(), learner("stu-1"), &ListTestsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, DefaultPageSize, resp.Limit)
	require.Len(t, resp.Tests, 2)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "is_correct")
	assert.NotContains(t, string(body), "questions")

	subject := first.test.SubjectID
	resp, err = env.tests.List(context.Background(), instructor(), &ListTestsRequest{SubjectID: &subject})
	require.NoError(t, err)
	require.Len(t, resp.Tests, 1)
	assert.Equal(t, "Algebra", resp.Tests[0].Name)
	require.NotNil(t, resp.Tests[0].Subject)

	_, err = env.tests.List(context.Background(), nil, &ListTestsRequest{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.tests.List(context.Background(), instructor(), &ListTestsRequest{Limit: 101})
	assert.True(t, IsValidation(err))
}

func TestTestService_GetAndUpdateQuestion(t *testing.T) {
	env := newTestEnv()
	env.repo.addStudent("stu-1", "Ada Lovelace")
	seeded := env.repo.addTest("Quiz", []string{"A*", "B*", "C"}, []string{"X*", "Y"})
	multi := seeded.questions[0]

	t.Run("staff see the key", func(t *testing.T) {
		view, err := env.tests.GetQuestion(context.Background(), instructor(), multi.ID)
		require.NoError(t, err)
		require.Len(t, view.Answers, 3)
		assert.IsType(t, AnswerWithKey{}, view.Answers[0])

		_, err = env.tests.GetQuestion(context.Background(), learner("stu-1"), multi.ID)
		assert.True(t, IsForbidden(err))

		_, err = env.tests.GetQuestion(context.Background(), instructor(), "missing")
		assert.ErrorIs(t, err, ErrQuestionNotFound)
	})

	t.Run("single mode with two correct options is refused", func(t *testing.T) {
		_, err := env.tests.UpdateQuestion(context.Background(), instructor(), multi.ID, &UpdateQuestionRequest{
			Question: "Pick one", AllowsMultipleCorrectAnswers: false,
		})
		assert.True(t, IsValidation(err))
	})

	t.Run("text update", func(t *testing.T) {
		view, err := env.tests.UpdateQuestion(context.Background(), instructor(), multi.ID, &UpdateQuestionRequest{
			Question: "Pick all primes", AllowsMultipleCorrectAnswers: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "Pick all primes", view.Text)

		stored, err := env.tests.GetQuestion(context.Background(), administrator(), multi.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pick all primes", stored.Text)
	})

	t.Run("frozen once attempted", func(t *testing.T) {
		_, err := env.attempts.Admit(context.Background(), learner("stu-1"), &AdmitRequest{TestID: seeded.test.ID})
		require.NoError(t, err)

		_, err = env.tests.UpdateQuestion(context.Background(), instructor(), multi.ID, &UpdateQuestionRequest{
			Question: "Changed meaning", AllowsMultipleCorrectAnswers: true,
		})
		assert.ErrorIs(t, err, ErrQuestionHasHistory)
		assert.True(t, IsConflict(err))
	})

	t.Run("learners cannot edit", func(t *testing.T) {
		_, err := env.tests.UpdateQuestion(context.Background(), learner("stu-1"), multi.ID, &UpdateQuestionRequest{Question: "x"})
		assert.True(t, IsForbidden(err))
	})
}
