package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memRepo is an in-memory Repository. Transactions are serialized and rolled back on error;
// the (student_id, test_id) pair is unique like the database index.
type memRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data memData

	// skipExistsCheck makes ExistsForStudentAndTest always report false, reproducing two
	// admissions that both passed the read before either inserted.
	skipExistsCheck bool
	missingQuestion map[string]bool

	inTx          bool
	invalidations []invalidation
}

// invalidation records a cache invalidation and whether a transaction was still open.
type invalidation struct {
	testID string
	inTx   bool
}

type memData struct {
	subjects         map[string]models.Subject
	students         map[string]models.Student
	tests            map[string]models.Test
	questions        map[string]models.Question
	answers          map[string]models.Answer
	attempts         map[string]models.Attempt
	attemptQuestions map[string]models.AttemptQuestion
	attemptAnswers   map[string]models.AttemptAnswer
	gradingRuns      []models.GradingRun
}

func newMemRepo() *memRepo {
	return &memRepo{
		data: memData{
			subjects:         map[string]models.Subject{},
			students:         map[string]models.Student{},
			tests:            map[string]models.Test{},
			questions:        map[string]models.Question{},
			answers:          map[string]models.Answer{},
			attempts:         map[string]models.Attempt{},
			attemptQuestions: map[string]models.AttemptQuestion{},
			attemptAnswers:   map[string]models.AttemptAnswer{},
		},
		missingQuestion: map[string]bool{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d memData) clone() memData {
	return memData{
		subjects:         cloneMap(d.subjects),
		students:         cloneMap(d.students),
		tests:            cloneMap(d.tests),
		questions:        cloneMap(d.questions),
		answers:          cloneMap(d.answers),
		attempts:         cloneMap(d.attempts),
		attemptQuestions: cloneMap(d.attemptQuestions),
		attemptAnswers:   cloneMap(d.attemptAnswers),
		gradingRuns:      append([]models.GradingRun(nil), d.gradingRuns...),
	}
}

func (r *memRepo) Test() repositories.TestRepository { return memTests{r} }
func (r *memRepo) Question() repositories.QuestionRepository { return memQuestions{r} }
func (r *memRepo) Attempt() repositories.AttemptRepository { return memAttempts{r} }
func (r *memRepo) Student() repositories.StudentRepository { return memStudents{r} }

func (r *memRepo) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := r.data.clone()
	r.inTx = true
	r.mu.Unlock()

	err := fn(nil)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inTx = false
	if err != nil {
		r.data = snapshot
		return err
	}
	return nil
}

func (r *memRepo) invalidated() []invalidation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]invalidation(nil), r.invalidations...)
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// ===== seeding =====

type seededTest struct {
	test      *models.Test
	questions []*models.Question
}

func (r *memRepo) addSubject(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := models.Subject{ID: uuid.NewString(), Name: name}
	r.data.subjects[s.ID] = s
	return s.ID
}

func (r *memRepo) addStudent(id, name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.students[id] = models.Student{ID: id, FullName: name}
	return id
}

// answerSpec is "text" for a wrong option and "text*" for a correct one.
func (r *memRepo) addTest(name string, questions ...[]string) seededTest {
	subjectID := r.addSubject("Maths")

	r.mu.Lock()
	defer r.mu.Unlock()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	test := models.Test{ID: uuid.NewString(), Name: name, Type: models.TestTypeExam, TimeLimit: 30, SubjectID: subjectID, CreatedAt: base}
	r.data.tests[test.ID] = test

	out := seededTest{test: &test}
	for qi, specs := range questions {
		q := models.Question{
			ID:        uuid.NewString(),
			Text:      name + " question",
			TestID:    test.ID,
			CreatedAt: base.Add(time.Duration(qi) * time.Second),
		}
		correct := 0
		for ai, spec := range specs {
			isCorrect := len(spec) > 0 && spec[len(spec)-1] == '*'
			text := spec
			if isCorrect {
				text = spec[:len(spec)-1]
				correct++
			}
			a := models.Answer{
				ID:         uuid.NewString(),
				Text:       text,
				IsCorrect:  isCorrect,
				QuestionID: q.ID,
				CreatedAt:  q.CreatedAt.Add(time.Duration(ai) * time.Millisecond),
			}
			r.data.answers[a.ID] = a
			q.Answers = append(q.Answers, a)
		}
		q.AllowsMultipleCorrectAnswers = correct > 1
		stored := q
		stored.Answers = nil
		r.data.questions[q.ID] = stored
		qCopy := q
		out.questions = append(out.questions, &qCopy)
	}
	return out
}

func (r *memRepo) attemptCount(studentID, testID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.data.attempts {
		if a.StudentID == studentID && a.TestID == testID {
			n++
		}
	}
	return n
}

// ===== tests =====

type memTests struct{ r *memRepo }

func (m memTests) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	test.ID = newID(test.ID)
	stored := *test
	stored.Questions = nil
	m.r.data.tests[test.ID] = stored
	for i := range test.Questions {
		q := &test.Questions[i]
		q.TestID = test.ID
		m.r.insertQuestionLocked(q)
	}
	return nil
}

func (r *memRepo) insertQuestionLocked(q *models.Question) {
	q.ID = newID(q.ID)
	for i := range q.Answers {
		a := &q.Answers[i]
		a.ID = newID(a.ID)
		a.QuestionID = q.ID
		r.data.answers[a.ID] = *a
	}
	stored := *q
	stored.Answers = nil
	r.data.questions[q.ID] = stored
}

func (m memTests) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Test, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	t, ok := m.r.data.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t.Subject = m.r.data.subjects[t.SubjectID]
	return &t, nil
}

func (m memTests) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.Test
	for _, t := range m.r.data.tests {
		if filters.SubjectID != nil && t.SubjectID != *filters.SubjectID {
			continue
		}
		t.Subject = m.r.data.subjects[t.SubjectID]
		tCopy := t
		out = append(out, &tCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	total := int64(len(out))
	if filters.Offset < len(out) {
		out = out[filters.Offset:]
	} else {
		out = nil
	}
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (m memTests) InvalidateAggregate(ctx context.Context, id string) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.invalidations = append(m.r.invalidations, invalidation{testID: id, inTx: m.r.inTx})
}

func (m memTests) GetAggregate(ctx context.Context, tx *gorm.DB, id string, opts repositories.AggregateOptions) (*models.Test, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	t, ok := m.r.data.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t.Subject = m.r.data.subjects[t.SubjectID]
	for _, q := range m.r.data.questions {
		if q.TestID == id {
			q.Answers = m.r.answersOfLocked(q.ID)
			t.Questions = append(t.Questions, q)
		}
	}
	sort.Slice(t.Questions, func(i, j int) bool {
		if !t.Questions[i].CreatedAt.Equal(t.Questions[j].CreatedAt) {
			return t.Questions[i].CreatedAt.Before(t.Questions[j].CreatedAt)
		}
		return t.Questions[i].ID < t.Questions[j].ID
	})
	if opts.IncludeAttempts {
		for _, a := range m.r.data.attempts {
			if a.TestID == id {
				t.Attempts = append(t.Attempts, *m.r.attemptDetailsLocked(a))
			}
		}
	}
	return &t, nil
}

func (r *memRepo) answersOfLocked(questionID string) []models.Answer {
	var out []models.Answer
	for _, a := range r.data.answers {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m memTests) UpdateMetadata(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	t, ok := m.r.data.tests[test.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Name, t.Type, t.TimeLimit, t.SubjectID = test.Name, test.Type, test.TimeLimit, test.SubjectID
	m.r.data.tests[test.ID] = t
	return nil
}

func (m memTests) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.data.tests[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.r.data.tests, id)
	for qid, q := range m.r.data.questions {
		if q.TestID == id {
			delete(m.r.data.questions, qid)
			for aid, a := range m.r.data.answers {
				if a.QuestionID == qid {
					delete(m.r.data.answers, aid)
				}
			}
		}
	}
	return nil
}

func (m memTests) HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, a := range m.r.data.attempts {
		if a.TestID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m memTests) GetSubject(ctx context.Context, tx *gorm.DB, id string) (*models.Subject, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s, ok := m.r.data.subjects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

// ===== questions =====

type memQuestions struct{ r *memRepo }

func (m memQuestions) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.insertQuestionLocked(question)
	return nil
}

func (m memQuestions) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.data.questions[id]
	if !ok || m.r.missingQuestion[id] {
		return nil, gorm.ErrRecordNotFound
	}
	q.Answers = m.r.answersOfLocked(id)
	return &q, nil
}

func (m memQuestions) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.data.questions[question.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	q.Text, q.AllowsMultipleCorrectAnswers = question.Text, question.AllowsMultipleCorrectAnswers
	m.r.data.questions[q.ID] = q
	return nil
}

func (m memQuestions) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.data.questions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.r.data.questions, id)
	for aid, a := range m.r.data.answers {
		if a.QuestionID == id {
			delete(m.r.data.answers, aid)
		}
	}
	return nil
}

func (m memQuestions) HasAttemptHistory(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, aq := range m.r.data.attemptQuestions {
		if aq.QuestionID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m memQuestions) GetAnswer(ctx context.Context, tx *gorm.DB, id string) (*models.Answer, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.data.answers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (m memQuestions) DeleteAnswer(ctx context.Context, tx *gorm.DB, id string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.data.answers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.r.data.answers, id)
	return nil
}

// ===== attempts =====

type memAttempts struct{ r *memRepo }

func (m memAttempts) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, a := range m.r.data.attempts {
		if a.StudentID == attempt.StudentID && a.TestID == attempt.TestID {
			return repositories.ErrDuplicateKey
		}
	}
	attempt.ID = newID(attempt.ID)
	attempt.CreatedAt = time.Now()
	stored := *attempt
	stored.Questions = nil
	m.r.data.attempts[attempt.ID] = stored
	return nil
}

func (m memAttempts) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.data.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (m memAttempts) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	return m.GetByID(ctx, tx, id)
}

func (r *memRepo) attemptDetailsLocked(a models.Attempt) *models.Attempt {
	if s, ok := r.data.students[a.StudentID]; ok {
		a.Student = &s
	}
	a.Questions = nil
	for _, aq := range r.data.attemptQuestions {
		if aq.AttemptID == a.ID {
			a.Questions = append(a.Questions, r.attemptQuestionDetailsLocked(aq))
		}
	}
	// question creation order, like the join in the postgres repository
	sort.Slice(a.Questions, func(i, j int) bool {
		qi, qj := r.data.questions[a.Questions[i].QuestionID], r.data.questions[a.Questions[j].QuestionID]
		if !qi.CreatedAt.Equal(qj.CreatedAt) {
			return qi.CreatedAt.Before(qj.CreatedAt)
		}
		return qi.ID < qj.ID
	})
	return &a
}

func (r *memRepo) attemptQuestionDetailsLocked(aq models.AttemptQuestion) models.AttemptQuestion {
	aq.Answers = nil
	for _, aa := range r.data.attemptAnswers {
		if aa.AttemptQuestionID == aq.ID {
			if ans, ok := r.data.answers[aa.AnswerID]; ok {
				aa.Answer = &ans
			}
			aq.Answers = append(aq.Answers, aa)
		}
	}
	sort.Slice(aq.Answers, func(i, j int) bool { return aq.Answers[i].ID < aq.Answers[j].ID })
	return aq
}

func (m memAttempts) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.data.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.r.attemptDetailsLocked(a), nil
}

func (m memAttempts) ExistsForStudentAndTest(ctx context.Context, tx *gorm.DB, studentID, testID string) (bool, error) {
	if m.r.skipExistsCheck {
		return false, nil
	}
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, a := range m.r.data.attempts {
		if a.StudentID == studentID && a.TestID == testID {
			return true, nil
		}
	}
	return false, nil
}

func (m memAttempts) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.Attempt
	for _, a := range m.r.data.attempts {
		if filters.StudentID != nil && a.StudentID != *filters.StudentID {
			continue
		}
		if filters.TestID != nil && a.TestID != *filters.TestID {
			continue
		}
		out = append(out, m.r.attemptDetailsLocked(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if filters.Offset < len(out) {
		out = out[filters.Offset:]
	} else {
		out = nil
	}
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (m memAttempts) GetByTestWithDetails(ctx context.Context, tx *gorm.DB, testID string) ([]*models.Attempt, error) {
	id := testID
	list, _, err := m.List(ctx, tx, repositories.AttemptFilters{TestID: &id})
	return list, err
}

func (m memAttempts) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.data.attempts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.r.deleteAttemptLocked(id)
	return nil
}

func (r *memRepo) deleteAttemptLocked(id string) {
	for aqID, aq := range r.data.attemptQuestions {
		if aq.AttemptID != id {
			continue
		}
		for aaID, aa := range r.data.attemptAnswers {
			if aa.AttemptQuestionID == aqID {
				delete(r.data.attemptAnswers, aaID)
			}
		}
		delete(r.data.attemptQuestions, aqID)
	}
	delete(r.data.attempts, id)
}

func (m memAttempts) DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	n := int64(len(m.r.data.attempts))
	for id := range m.r.data.attempts {
		m.r.deleteAttemptLocked(id)
	}
	m.r.data.gradingRuns = nil
	return n, nil
}

func (m memAttempts) GetAttemptQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID string) (*models.AttemptQuestion, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, aq := range m.r.data.attemptQuestions {
		if aq.AttemptID == attemptID && aq.QuestionID == questionID {
			detailed := m.r.attemptQuestionDetailsLocked(aq)
			return &detailed, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memAttempts) CreateAttemptQuestion(ctx context.Context, tx *gorm.DB, aq *models.AttemptQuestion) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, existing := range m.r.data.attemptQuestions {
		if existing.AttemptID == aq.AttemptID && existing.QuestionID == aq.QuestionID {
			return repositories.ErrDuplicateKey
		}
	}
	aq.ID = newID(aq.ID)
	stored := *aq
	stored.Answers = nil
	m.r.data.attemptQuestions[aq.ID] = stored
	return nil
}

func (m memAttempts) EnsureAttemptQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID string) (*models.AttemptQuestion, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, aq := range m.r.data.attemptQuestions {
		if aq.AttemptID == attemptID && aq.QuestionID == questionID {
			detailed := m.r.attemptQuestionDetailsLocked(aq)
			return &detailed, nil
		}
	}
	aq := models.AttemptQuestion{ID: uuid.NewString(), AttemptID: attemptID, QuestionID: questionID}
	m.r.data.attemptQuestions[aq.ID] = aq
	return &aq, nil
}

func (m memAttempts) Finalize(ctx context.Context, tx *gorm.DB, id string, at time.Time) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.data.attempts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if a.FinalizedAt == nil {
		stamp := at
		a.FinalizedAt = &stamp
		m.r.data.attempts[id] = a
	}
	return nil
}

func (m memAttempts) ReplaceSelection(ctx context.Context, tx *gorm.DB, attemptQuestionID string, answerIDs []string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for id, aa := range m.r.data.attemptAnswers {
		if aa.AttemptQuestionID == attemptQuestionID {
			delete(m.r.data.attemptAnswers, id)
		}
	}
	for _, answerID := range answerIDs {
		aa := models.AttemptAnswer{ID: uuid.NewString(), AttemptQuestionID: attemptQuestionID, AnswerID: answerID}
		m.r.data.attemptAnswers[aa.ID] = aa
	}
	aq := m.r.data.attemptQuestions[attemptQuestionID]
	aq.IsRight = nil
	m.r.data.attemptQuestions[attemptQuestionID] = aq
	return nil
}

func (m memAttempts) UpdateVerdict(ctx context.Context, tx *gorm.DB, attemptQuestionID string, isRight bool) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	aq, ok := m.r.data.attemptQuestions[attemptQuestionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	verdict := isRight
	aq.IsRight = &verdict
	m.r.data.attemptQuestions[attemptQuestionID] = aq
	return nil
}

func (m memAttempts) CreateGradingRun(ctx context.Context, tx *gorm.DB, run *models.GradingRun) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	run.ID = newID(run.ID)
	m.r.data.gradingRuns = append(m.r.data.gradingRuns, *run)
	return nil
}

// ===== students =====

type memStudents struct{ r *memRepo }

func (m memStudents) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Student, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s, ok := m.r.data.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

// ===== wiring =====

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	repo      *memRepo
	publisher *events.MockEventPublisher
	tests     TestService
	attempts  AttemptService
	grading   GradingService
	export    ExportService
}

func newTestEnv() *testEnv {
	repo := newMemRepo()
	logger := discardLogger()
	publisher := events.NewMockEventPublisher(logger)
	eventService := NewExamEventService(publisher, logger)
	v := validator.New()

	return &testEnv{
		repo:      repo,
		publisher: publisher,
		tests:     NewTestService(repo, NewShuffler(), logger, v),
		attempts:  NewAttemptService(repo, eventService, logger, v),
		grading:   NewGradingService(repo, eventService, logger),
		export:    NewExportService(repo, logger),
	}
}

func learner(id string) *models.Identity {
	return &models.Identity{SubjectID: id, Role: models.RoleLearner}
}

func instructor() *models.Identity {
	return &models.Identity{SubjectID: "instructor-1", Role: models.RoleInstructor}
}

func administrator() *models.Identity {
	return &models.Identity{SubjectID: "admin-1", Role: models.RoleAdministrator}
}
