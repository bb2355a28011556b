package service_test

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/eleventutor/backend/internal/domain/mockexam"
	"github.com/eleventutor/backend/internal/domain/practice"
	"github.com/eleventutor/backend/internal/domain/progress"
	"github.com/eleventutor/backend/internal/domain/question"
	"github.com/eleventutor/backend/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory implementation of every store interface.
// Questions are sampled in insertion order, which keeps tests deterministic.
type fakeStore struct {
	mu sync.Mutex

	questions     map[string]*question.Question
	questionOrder []string

	progress map[string]*progress.Record

	sessions        map[string]*practice.Session
	answers         map[string]map[string]practice.Answer
	answerOrder     map[string][]string
	practiceResults map[string]practice.Result

	exams       map[string]*mockexam.Session
	examResults map[string]mockexam.Result
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		questions:       make(map[string]*question.Question),
		progress:        make(map[string]*progress.Record),
		sessions:        make(map[string]*practice.Session),
		answers:         make(map[string]map[string]practice.Answer),
		answerOrder:     make(map[string][]string),
		practiceResults: make(map[string]practice.Result),
		exams:           make(map[string]*mockexam.Session),
		examResults:     make(map[string]mockexam.Result),
	}
}

func (f *fakeStore) addQuestion(q *question.Question) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions[q.ID] = q
	f.questionOrder = append(f.questionOrder, q.ID)
}

// ── QuestionRepository ──────────────────────────────────────────────────────

func (f *fakeStore) GetQuestion(id string) (*question.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return q, nil
}

func (f *fakeStore) GetQuestionsByIDs(ids []string) (map[string]*question.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[string]*question.Question, len(ids))
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			result[id] = q
		}
	}
	return result, nil
}

func (f *fakeStore) SampleQuestions(filter store.SampleFilter, count int) ([]question.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	excluded := make(map[string]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}

	var matches []question.Question
	for _, id := range f.questionOrder {
		if len(matches) == count {
			break
		}
		q := f.questions[id]
		if excluded[id] {
			continue
		}
		if filter.Subject != nil && q.Subject != *filter.Subject {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, q.QuestionType) {
			continue
		}
		if filter.MinDifficulty > 0 && q.Difficulty < filter.MinDifficulty {
			continue
		}
		if filter.MaxDifficulty > 0 && q.Difficulty > filter.MaxDifficulty {
			continue
		}
		matches = append(matches, *q)
	}
	return matches, nil
}

func containsType(types []question.Type, t question.Type) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

// ── ProgressStore ───────────────────────────────────────────────────────────

func recordKey(userID string, subject question.Subject, qtype question.Type) string {
	return userID + "|" + string(subject) + "|" + string(qtype)
}

func (f *fakeStore) GetProgress(userID string, subject question.Subject, qtype question.Type) (*progress.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.progress[recordKey(userID, subject, qtype)]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) ListProgress(userID string) ([]progress.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []progress.Record
	for _, r := range f.progress {
		if r.UserID == userID {
			records = append(records, *r)
		}
	}
	return records, nil
}

func (f *fakeStore) SaveProgress(record *progress.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.progress[recordKey(record.UserID, record.Subject, record.QuestionType)] = &copied
	return nil
}

// ── PracticeStore ───────────────────────────────────────────────────────────

func (f *fakeStore) SavePracticeSession(s *practice.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeStore) GetPracticeSession(id string) (*practice.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) UpsertAnswer(a *practice.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byQuestion, ok := f.answers[a.SessionID]
	if !ok {
		byQuestion = make(map[string]practice.Answer)
		f.answers[a.SessionID] = byQuestion
	}
	if _, exists := byQuestion[a.QuestionID]; !exists {
		f.answerOrder[a.SessionID] = append(f.answerOrder[a.SessionID], a.QuestionID)
	}
	byQuestion[a.QuestionID] = *a
	return nil
}

func (f *fakeStore) SessionAnswers(sessionID string) ([]practice.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var answers []practice.Answer
	for _, qid := range f.answerOrder[sessionID] {
		answers = append(answers, f.answers[sessionID][qid])
	}
	return answers, nil
}

func (f *fakeStore) CompletePracticeSession(id string, completedAt time.Time, result practice.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.CompletedAt = &completedAt
	f.practiceResults[id] = result
	return nil
}

func (f *fakeStore) PracticeResult(id string) (*practice.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.practiceResults[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &result, nil
}

// ── MockExamStore ───────────────────────────────────────────────────────────

func (f *fakeStore) SaveMockExam(s *mockexam.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.exams[s.ID] = &copied
	return nil
}

func (f *fakeStore) GetMockExam(id string) (*mockexam.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.exams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	copied.Answers = copyStringMap(s.Answers)
	copied.AnswerTimes = copyIntMap(s.AnswerTimes)
	return &copied, nil
}

func (f *fakeStore) SaveMockExamAnswers(id string, answers map[string]string, answerTimes map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.exams[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Answers = copyStringMap(answers)
	s.AnswerTimes = copyIntMap(answerTimes)
	return nil
}

func (f *fakeStore) CompleteMockExam(id string, completedAt time.Time, result mockexam.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.exams[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = mockexam.StatusCompleted
	s.CompletedAt = &completedAt
	f.examResults[id] = result
	return nil
}

func (f *fakeStore) MockExamResult(id string) (*mockexam.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.examResults[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &result, nil
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
