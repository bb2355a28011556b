package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleventutor/backend/internal/domain/mockexam"
	"github.com/eleventutor/backend/internal/domain/practice"
	"github.com/eleventutor/backend/internal/domain/progress"
	"github.com/eleventutor/backend/internal/domain/question"
	"github.com/eleventutor/backend/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuestion(subject question.Subject, qtype question.Type, difficulty int) *question.Question {
	return &question.Question{
		ID:           uuid.NewString(),
		Subject:      subject,
		QuestionType: qtype,
		Format:       "multiple_choice",
		Difficulty:   difficulty,
		Content: question.Content{
			Text:    "What is 1/2 + 1/4?",
			Options: []string{"3/4", "2/6", "1/8", "1/6"},
		},
		Answer:      question.Answer{Value: "3/4", AcceptVariations: []string{"0.75"}},
		Explanation: "Convert to quarters: 2/4 + 1/4 = 3/4.",
		Hints: []question.Hint{
			{Level: 1, Text: "Find a common denominator.", Penalty: 0.5},
		},
		Tags:      []string{"fractions"},
		CreatedAt: time.Now().UTC(),
	}
}

// ── Questions ───────────────────────────────────────────────────────────────

func TestQuestionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	q := testQuestion(question.SubjectMaths, question.TypeFractions, 3)

	require.NoError(t, s.SaveQuestion(q))

	got, err := s.GetQuestion(q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)
	assert.Equal(t, q.Subject, got.Subject)
	assert.Equal(t, q.QuestionType, got.QuestionType)
	assert.Equal(t, q.Content, got.Content)
	assert.Equal(t, q.Answer, got.Answer)
	assert.Equal(t, q.Hints, got.Hints)
	assert.Equal(t, q.Tags, got.Tags)
}

func TestGetQuestionNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetQuestion("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetQuestionsByIDs(t *testing.T) {
	s := newTestStore(t)
	q1 := testQuestion(question.SubjectMaths, question.TypeFractions, 3)
	q2 := testQuestion(question.SubjectEnglish, question.TypeGrammar, 2)
	require.NoError(t, s.SaveQuestion(q1))
	require.NoError(t, s.SaveQuestion(q2))

	got, err := s.GetQuestionsByIDs([]string{q1.ID, q2.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, q1.ID)
	assert.Contains(t, got, q2.ID)

	empty, err := s.GetQuestionsByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSampleQuestionsFilters(t *testing.T) {
	s := newTestStore(t)
	maths := question.SubjectMaths
	for d := 1; d <= 5; d++ {
		require.NoError(t, s.SaveQuestion(testQuestion(maths, question.TypeFractions, d)))
	}
	require.NoError(t, s.SaveQuestion(testQuestion(question.SubjectEnglish, question.TypeGrammar, 3)))

	got, err := s.SampleQuestions(store.SampleFilter{
		Subject:       &maths,
		Types:         []question.Type{question.TypeFractions},
		MinDifficulty: 2,
		MaxDifficulty: 4,
	}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, q := range got {
		assert.Equal(t, maths, q.Subject)
		assert.GreaterOrEqual(t, q.Difficulty, 2)
		assert.LessOrEqual(t, q.Difficulty, 4)
	}
}

func TestSampleQuestionsExcludesIDs(t *testing.T) {
	s := newTestStore(t)
	q1 := testQuestion(question.SubjectMaths, question.TypeFractions, 3)
	q2 := testQuestion(question.SubjectMaths, question.TypeFractions, 3)
	require.NoError(t, s.SaveQuestion(q1))
	require.NoError(t, s.SaveQuestion(q2))

	got, err := s.SampleQuestions(store.SampleFilter{ExcludeIDs: []string{q1.ID}}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, q2.ID, got[0].ID)
}

// ── Progress ────────────────────────────────────────────────────────────────

func TestProgressUpsert(t *testing.T) {
	s := newTestStore(t)
	record := progress.NewRecord("user-1", question.SubjectMaths, question.TypeFractions)
	require.NoError(t, s.SaveProgress(record))

	record.Apply(true, progress.DefaultAlpha, time.Now().UTC())
	require.NoError(t, s.SaveProgress(record))

	got, err := s.GetProgress("user-1", question.SubjectMaths, question.TypeFractions)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, 1, got.TotalAttempted)
	assert.Equal(t, 1, got.TotalCorrect)
	assert.InDelta(t, record.MasteryScore, got.MasteryScore, 1e-9)
	require.NotNil(t, got.LastPracticed)

	records, err := s.ListProgress("user-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGetProgressNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProgress("user-1", question.SubjectMaths, question.TypeAlgebra)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ── Practice sessions ───────────────────────────────────────────────────────

func TestPracticeSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	subject := question.SubjectMaths
	qtype := question.TypeFractions
	limit := 20
	session := practice.New("user-1", &subject, &qtype, []string{"q1", "q2"}, true, &limit)

	require.NoError(t, s.SavePracticeSession(session))

	got, err := s.GetPracticeSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	require.NotNil(t, got.Subject)
	assert.Equal(t, subject, *got.Subject)
	require.NotNil(t, got.TimeLimitMinutes)
	assert.Equal(t, limit, *got.TimeLimitMinutes)
	assert.Equal(t, []string{"q1", "q2"}, got.QuestionIDs)
	assert.True(t, got.IsTimed)
	assert.Nil(t, got.CompletedAt)
}

func TestUpsertAnswerOverwrites(t *testing.T) {
	s := newTestStore(t)
	session := practice.New("user-1", nil, nil, []string{"q1"}, false, nil)
	require.NoError(t, s.SavePracticeSession(session))

	first := &practice.Answer{
		SessionID: session.ID, QuestionID: "q1", UserAnswer: "wrong",
		IsCorrect: false, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.UpsertAnswer(first))

	second := &practice.Answer{
		SessionID: session.ID, QuestionID: "q1", UserAnswer: "right",
		IsCorrect: true, Score: 1.0, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.UpsertAnswer(second))

	answers, err := s.SessionAnswers(session.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "right", answers[0].UserAnswer)
	assert.True(t, answers[0].IsCorrect)
	assert.Equal(t, 1.0, answers[0].Score)
}

func TestSessionAnswersKeepFirstSubmissionOrder(t *testing.T) {
	s := newTestStore(t)
	session := practice.New("user-1", nil, nil, []string{"q1", "q2"}, false, nil)
	require.NoError(t, s.SavePracticeSession(session))

	// q1's stamp has no fractional second and q2's does, so lexicographic
	// ordering of the stored strings would invert them.
	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpsertAnswer(&practice.Answer{
		SessionID: session.ID, QuestionID: "q1", UserAnswer: "a", CreatedAt: base,
	}))
	require.NoError(t, s.UpsertAnswer(&practice.Answer{
		SessionID: session.ID, QuestionID: "q2", UserAnswer: "b", CreatedAt: base.Add(100 * time.Millisecond),
	}))

	answers, err := s.SessionAnswers(session.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "q1", answers[0].QuestionID)
	assert.Equal(t, "q2", answers[1].QuestionID)

	// Resubmitting q1 later must not move it behind q2.
	require.NoError(t, s.UpsertAnswer(&practice.Answer{
		SessionID: session.ID, QuestionID: "q1", UserAnswer: "c", CreatedAt: base.Add(time.Minute),
	}))

	answers, err = s.SessionAnswers(session.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "q1", answers[0].QuestionID)
	assert.Equal(t, "c", answers[0].UserAnswer)
	assert.Equal(t, "q2", answers[1].QuestionID)
}

func TestCompletePracticeSessionAndResult(t *testing.T) {
	s := newTestStore(t)
	session := practice.New("user-1", nil, nil, []string{"q1"}, false, nil)
	require.NoError(t, s.SavePracticeSession(session))

	_, err := s.PracticeResult(session.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "open session has no result yet")

	result := practice.Result{
		SessionID:       session.ID,
		TotalQuestions:  1,
		CorrectAnswers:  1,
		TotalScore:      1.0,
		Accuracy:        1.0,
		QuestionsByType: map[question.Type]practice.TypeStats{},
		Strengths:       []question.Type{},
		AreasToImprove:  []question.Type{},
	}
	require.NoError(t, s.CompletePracticeSession(session.ID, time.Now().UTC(), result))

	got, err := s.PracticeResult(session.ID)
	require.NoError(t, err)
	assert.Equal(t, result, *got)

	reloaded, err := s.GetPracticeSession(session.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Completed())
}

func TestCompletePracticeSessionNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.CompletePracticeSession("missing", time.Now().UTC(), practice.Result{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ── Mock exams ──────────────────────────────────────────────────────────────

func testExam() *mockexam.Session {
	papers := []mockexam.Paper{
		{PaperNumber: 1, Sections: []mockexam.SectionQuestions{
			{Section: question.SubjectMaths, SectionIndex: 0, QuestionIDs: []string{"q1", "q2"}, TimeSeconds: 1140},
		}},
		{PaperNumber: 2, Sections: []mockexam.SectionQuestions{
			{Section: question.SubjectMaths, SectionIndex: 0, QuestionIDs: []string{"q3", "q4"}, TimeSeconds: 1140},
		}},
	}
	return mockexam.New("user-1", 1, papers)
}

func TestMockExamRoundTrip(t *testing.T) {
	s := newTestStore(t)
	exam := testExam()

	require.NoError(t, s.SaveMockExam(exam))

	got, err := s.GetMockExam(exam.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.ID, got.ID)
	assert.Equal(t, mockexam.StatusInProgress, got.Status)
	assert.Equal(t, exam.Papers, got.Papers)
	assert.NotNil(t, got.Answers)
	assert.NotNil(t, got.AnswerTimes)
}

func TestSaveMockExamAnswers(t *testing.T) {
	s := newTestStore(t)
	exam := testExam()
	require.NoError(t, s.SaveMockExam(exam))

	answers := map[string]string{"q1": "3/4"}
	times := map[string]int{"q1": 42}
	require.NoError(t, s.SaveMockExamAnswers(exam.ID, answers, times))

	got, err := s.GetMockExam(exam.ID)
	require.NoError(t, err)
	assert.Equal(t, answers, got.Answers)
	assert.Equal(t, times, got.AnswerTimes)

	err = s.SaveMockExamAnswers("missing", answers, times)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompleteMockExamAndResult(t *testing.T) {
	s := newTestStore(t)
	exam := testExam()
	require.NoError(t, s.SaveMockExam(exam))

	_, err := s.MockExamResult(exam.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "in-progress exam has no result yet")

	now := time.Now().UTC()
	result := mockexam.BuildResult(exam, map[string]bool{"q1": true}, now)
	require.NoError(t, s.CompleteMockExam(exam.ID, now, result))

	got, err := s.MockExamResult(exam.ID)
	require.NoError(t, err)
	assert.Equal(t, result.TotalCorrect, got.TotalCorrect)
	assert.Equal(t, result.TotalQuestions, got.TotalQuestions)

	reloaded, err := s.GetMockExam(exam.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Completed())
	assert.Equal(t, mockexam.StatusCompleted, reloaded.Status)
}
