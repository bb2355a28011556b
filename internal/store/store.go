package store

import (
	"errors"
	"time"

	"github.com/eleventutor/backend/internal/domain/mockexam"
	"github.com/eleventutor/backend/internal/domain/practice"
	"github.com/eleventutor/backend/internal/domain/progress"
	"github.com/eleventutor/backend/internal/domain/question"
)

var (
	ErrNotFound = errors.New("not found")
)

// SampleFilter restricts question sampling. Nil/empty fields are ignored; a
// difficulty band of (0,0) means any difficulty.
type SampleFilter struct {
	Subject       *question.Subject
	Types         []question.Type
	MinDifficulty int
	MaxDifficulty int
	ExcludeIDs    []string
}

// QuestionRepository is the read-only question bank surface the session
// engines consume. The engines never mutate question content.
type QuestionRepository interface {
	GetQuestion(id string) (*question.Question, error)
	GetQuestionsByIDs(ids []string) (map[string]*question.Question, error)
	// SampleQuestions returns up to count distinct matches in random order;
	// callers must check the returned length against count.
	SampleQuestions(filter SampleFilter, count int) ([]question.Question, error)
}

// ProgressStore persists mastery records, one per
// (user, subject, question type).
type ProgressStore interface {
	GetProgress(userID string, subject question.Subject, qtype question.Type) (*progress.Record, error)
	ListProgress(userID string) ([]progress.Record, error)
	// SaveProgress upserts on the (user, subject, question type) key, so a
	// concurrent first creation resolves to a single record.
	SaveProgress(record *progress.Record) error
}

// PracticeStore persists practice sessions and their answers.
type PracticeStore interface {
	SavePracticeSession(s *practice.Session) error
	GetPracticeSession(id string) (*practice.Session, error)
	UpsertAnswer(a *practice.Answer) error
	SessionAnswers(sessionID string) ([]practice.Answer, error)
	CompletePracticeSession(id string, completedAt time.Time, result practice.Result) error
	PracticeResult(id string) (*practice.Result, error)
}

// MockExamStore persists mock exam sessions.
type MockExamStore interface {
	SaveMockExam(s *mockexam.Session) error
	GetMockExam(id string) (*mockexam.Session, error)
	SaveMockExamAnswers(id string, answers map[string]string, answerTimes map[string]int) error
	CompleteMockExam(id string, completedAt time.Time, result mockexam.Result) error
	MockExamResult(id string) (*mockexam.Result, error)
}
