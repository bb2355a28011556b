package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/eleventutor/backend/internal/domain/mockexam"
	"github.com/eleventutor/backend/internal/domain/question"
	"github.com/eleventutor/backend/internal/store"
	"github.com/eleventutor/backend/internal/worker"
)

// sectionFetchWorkers is how many concurrent lookups assemble a section's
// question payloads.
const sectionFetchWorkers = 4

// MockExamStoreDeps is everything the mock exam engine needs from storage.
type MockExamStoreDeps interface {
	store.MockExamStore
	store.QuestionRepository
}

// MockExamService runs fixed-format two-paper mock exams. It samples
// broadly across difficulty and never touches the Progress Tracker: exam
// performance is deliberately isolated from adaptive practice mastery.
type MockExamService struct {
	store  MockExamStoreDeps
	logger *slog.Logger
	locks  *keyMutex
}

// NewMockExamService creates a MockExamService.
func NewMockExamService(s MockExamStoreDeps, logger *slog.Logger) *MockExamService {
	return &MockExamService{
		store:  s,
		logger: logger,
		locks:  newKeyMutex(),
	}
}

// CreateExam builds a two-paper exam from the fixed section table. Each
// section is sampled independently per paper with no repeats anywhere in
// the exam. Fails with ErrInsufficientQuestions if any pool runs dry, in
// which case nothing is persisted.
func (m *MockExamService) CreateExam(userID string, examNumber int) (*mockexam.Session, error) {
	if examNumber < 1 || examNumber > mockexam.ExamCount {
		return nil, fmt.Errorf("%w: %d", ErrInvalidExamNumber, examNumber)
	}

	var usedIDs []string
	papers := make([]mockexam.Paper, 0, mockexam.PapersPerExam)

	for paperNumber := 1; paperNumber <= mockexam.PapersPerExam; paperNumber++ {
		paper := mockexam.Paper{PaperNumber: paperNumber}

		for sectionIndex, cfg := range mockexam.PaperSections {
			ids, err := m.sampleSection(cfg, usedIDs)
			if err != nil {
				return nil, err
			}
			usedIDs = append(usedIDs, ids...)

			paper.Sections = append(paper.Sections, mockexam.SectionQuestions{
				Section:      cfg.Section,
				SectionIndex: sectionIndex,
				QuestionIDs:  ids,
				TimeSeconds:  cfg.TimeSeconds,
			})
		}
		papers = append(papers, paper)
	}

	session := mockexam.New(userID, examNumber, papers)
	if err := m.store.SaveMockExam(session); err != nil {
		return nil, fmt.Errorf("save exam: %w", err)
	}

	m.logger.Info("mock exam created",
		"exam_id", session.ID,
		"user_id", userID,
		"exam_number", examNumber,
	)
	return session, nil
}

// sampleSection draws one section's question ids, honoring subtype quotas
// (the english section reserves separate comprehension and vocabulary
// pools) and excluding everything already used in the exam. Sections
// without quotas draw from the subject's full catalogue type list, so rows
// with types outside the catalogue never enter an exam.
func (m *MockExamService) sampleSection(cfg mockexam.SectionConfig, usedIDs []string) ([]string, error) {
	subject := cfg.Section

	if len(cfg.Subtypes) == 0 {
		return m.samplePool(subject, question.Catalogue[subject], cfg.Count, usedIDs, string(subject))
	}

	var ids []string
	for _, quota := range cfg.Subtypes {
		exclude := append(append([]string{}, usedIDs...), ids...)
		pool, err := m.samplePool(subject, quota.Types, quota.Count, exclude, quota.Name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, pool...)
	}
	return ids, nil
}

func (m *MockExamService) samplePool(subject question.Subject, types []question.Type, count int, excludeIDs []string, poolName string) ([]string, error) {
	questions, err := m.store.SampleQuestions(store.SampleFilter{
		Subject:    &subject,
		Types:      types,
		ExcludeIDs: excludeIDs,
	}, count)
	if err != nil {
		return nil, err
	}
	if len(questions) < count {
		return nil, fmt.Errorf("%w: pool %q has %d of %d required",
			ErrInsufficientQuestions, poolName, len(questions), count)
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids, nil
}

// GetExam returns the stored exam session.
func (m *MockExamService) GetExam(examID string) (*mockexam.Session, error) {
	return m.store.GetMockExam(examID)
}

// GetSectionQuestions returns the full question payloads for one section,
// in the section's frozen order. Lookups fan out over a small worker pool.
func (m *MockExamService) GetSectionQuestions(examID string, paperNumber, sectionIndex int) ([]question.Question, error) {
	session, err := m.store.GetMockExam(examID)
	if err != nil {
		return nil, err
	}

	paper := session.Paper(paperNumber)
	if paper == nil {
		return nil, fmt.Errorf("%w: paper %d", ErrSectionNotFound, paperNumber)
	}
	if sectionIndex < 0 || sectionIndex >= len(paper.Sections) {
		return nil, fmt.Errorf("%w: section index %d", ErrSectionNotFound, sectionIndex)
	}
	section := paper.Sections[sectionIndex]
	if len(section.QuestionIDs) == 0 {
		return nil, fmt.Errorf("%w: section %d is empty", ErrSectionNotFound, sectionIndex)
	}

	type fetch struct {
		q   *question.Question
		err error
	}

	pool := worker.NewPool[fetch](sectionFetchWorkers, len(section.QuestionIDs))
	for _, qid := range section.QuestionIDs {
		id := qid
		pool.Submit(id, func() fetch {
			q, err := m.store.GetQuestion(id)
			return fetch{q: q, err: err}
		})
	}
	pool.Close()

	byID := make(map[string]*question.Question, len(section.QuestionIDs))
	for result := range pool.Results() {
		if result.Output.err != nil {
			return nil, fmt.Errorf("load question %s: %w", result.JobID, result.Output.err)
		}
		byID[result.JobID] = result.Output.q
	}

	questions := make([]question.Question, 0, len(section.QuestionIDs))
	for _, qid := range section.QuestionIDs {
		if q, ok := byID[qid]; ok {
			questions = append(questions, *q)
		}
	}
	return questions, nil
}

// AnswerFeedback is the immediate response to an exam answer submission.
// The exam result itself is only computed at completion.
type AnswerFeedback struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// SubmitAnswer records (or overwrites) the answer and time for a question.
// It does not update the Progress Tracker. Submissions against a completed
// exam fail with ErrExamCompleted.
func (m *MockExamService) SubmitAnswer(examID, questionID, userAnswer string, timeTakenSeconds int) (*AnswerFeedback, error) {
	m.locks.Lock(examID)
	defer m.locks.Unlock(examID)

	session, err := m.store.GetMockExam(examID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return nil, ErrExamCompleted
	}
	if !session.Contains(questionID) {
		return nil, ErrQuestionNotInSession
	}

	session.Answers[questionID] = userAnswer
	session.AnswerTimes[questionID] = timeTakenSeconds
	if err := m.store.SaveMockExamAnswers(examID, session.Answers, session.AnswerTimes); err != nil {
		return nil, fmt.Errorf("save answers: %w", err)
	}

	q, err := m.store.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	return &AnswerFeedback{
		IsCorrect:     q.Check(userAnswer),
		CorrectAnswer: q.Answer.Value,
		Explanation:   q.Explanation,
	}, nil
}

// CompleteExam grades every question of the exam against the stored
// answers (unanswered counts as incorrect), aggregates section, paper and
// overall results and marks the exam completed. Idempotent: a completed
// exam returns its stored result.
func (m *MockExamService) CompleteExam(examID string) (*mockexam.Result, error) {
	m.locks.Lock(examID)
	defer m.locks.Unlock(examID)

	session, err := m.store.GetMockExam(examID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return m.store.MockExamResult(examID)
	}

	var allIDs []string
	for _, paper := range session.Papers {
		for _, section := range paper.Sections {
			allIDs = append(allIDs, section.QuestionIDs...)
		}
	}
	questions, err := m.store.GetQuestionsByIDs(allIDs)
	if err != nil {
		return nil, err
	}

	correctByID := make(map[string]bool, len(session.Answers))
	for qid, userAnswer := range session.Answers {
		if q, ok := questions[qid]; ok {
			correctByID[qid] = q.Check(userAnswer)
		}
	}

	now := time.Now().UTC()
	result := mockexam.BuildResult(session, correctByID, now)
	if err := m.store.CompleteMockExam(examID, now, result); err != nil {
		return nil, fmt.Errorf("complete exam: %w", err)
	}

	m.logger.Info("mock exam completed",
		"exam_id", examID,
		"correct", result.TotalCorrect,
		"total", result.TotalQuestions,
	)
	return &result, nil
}
