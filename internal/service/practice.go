package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/eleventutor/backend/internal/domain/practice"
	"github.com/eleventutor/backend/internal/domain/question"
	"github.com/eleventutor/backend/internal/store"
)

// neutralDifficulty is the target level for mixed sessions where no
// (subject, question type) mastery record applies.
const neutralDifficulty = 3

// maxTolerance widens a difficulty band from ±0 to ±4, which covers the
// whole 1..5 range from any target.
const maxTolerance = 4

// PracticeStoreDeps is everything the practice engine needs from storage.
type PracticeStoreDeps interface {
	store.PracticeStore
	store.QuestionRepository
}

// PracticeService runs open-ended, difficulty-adaptive practice sessions.
type PracticeService struct {
	store       PracticeStoreDeps
	tracker     *ProgressTracker
	hintPenalty float64
	logger      *slog.Logger
	locks       *keyMutex
}

// NewPracticeService creates a PracticeService.
func NewPracticeService(s PracticeStoreDeps, tracker *ProgressTracker, hintPenalty float64, logger *slog.Logger) *PracticeService {
	return &PracticeService{
		store:       s,
		tracker:     tracker,
		hintPenalty: hintPenalty,
		logger:      logger,
		locks:       newKeyMutex(),
	}
}

// StartOptions configures a new practice session.
type StartOptions struct {
	Subject          *question.Subject
	QuestionType     *question.Type
	NumQuestions     int
	IsTimed          bool
	TimeLimitMinutes *int
}

// StartSession resolves a target difficulty, samples the question sequence
// and persists the session in the open state. It prefers questions at the
// target difficulty, widening the tolerance band one level at a time until
// enough distinct questions are found; if the bank cannot supply the full
// count even at maximum tolerance it fails with ErrInsufficientQuestions
// and persists nothing.
func (p *PracticeService) StartSession(userID string, opts StartOptions) (*practice.Session, error) {
	target := neutralDifficulty
	if opts.Subject != nil && opts.QuestionType != nil {
		level, err := p.tracker.RecommendedDifficulty(userID, *opts.Subject, *opts.QuestionType)
		if err != nil {
			return nil, err
		}
		target = level
	}

	questionIDs, err := p.sampleQuestionIDs(opts, target)
	if err != nil {
		return nil, err
	}

	session := practice.New(userID, opts.Subject, opts.QuestionType, questionIDs, opts.IsTimed, opts.TimeLimitMinutes)
	if err := p.store.SavePracticeSession(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	p.logger.Info("practice session started",
		"session_id", session.ID,
		"user_id", userID,
		"questions", len(questionIDs),
		"target_difficulty", target,
	)
	return session, nil
}

func (p *PracticeService) sampleQuestionIDs(opts StartOptions, target int) ([]string, error) {
	var types []question.Type
	if opts.QuestionType != nil {
		types = []question.Type{*opts.QuestionType}
	}

	var selected []string
	for tolerance := 0; tolerance <= maxTolerance; tolerance++ {
		filter := store.SampleFilter{
			Subject:       opts.Subject,
			Types:         types,
			MinDifficulty: clampDifficulty(target - tolerance),
			MaxDifficulty: clampDifficulty(target + tolerance),
			ExcludeIDs:    selected,
		}
		questions, err := p.store.SampleQuestions(filter, opts.NumQuestions-len(selected))
		if err != nil {
			return nil, err
		}
		for _, q := range questions {
			selected = append(selected, q.ID)
		}
		if len(selected) == opts.NumQuestions {
			return selected, nil
		}
	}
	return nil, fmt.Errorf("%w: requested %d", ErrInsufficientQuestions, opts.NumQuestions)
}

func clampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}

// SubmitAnswer grades an answer against the question's canonical answer,
// upserts the stored answer for (session, question) and immediately feeds
// the outcome into the Progress Tracker under the question's own subject
// and type, so partial sessions still move mastery.
func (p *PracticeService) SubmitAnswer(sessionID, questionID, userAnswer string, timeTakenSeconds, hintsUsed int) (*practice.Answer, error) {
	p.locks.Lock(sessionID)
	defer p.locks.Unlock(sessionID)

	session, err := p.store.GetPracticeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return nil, ErrSessionClosed
	}
	if !session.Contains(questionID) {
		return nil, ErrQuestionNotInSession
	}

	q, err := p.store.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}

	isCorrect := q.Check(userAnswer)
	answer := &practice.Answer{
		SessionID:        sessionID,
		QuestionID:       questionID,
		UserAnswer:       userAnswer,
		IsCorrect:        isCorrect,
		TimeTakenSeconds: timeTakenSeconds,
		HintsUsed:        hintsUsed,
		Score:            practice.Score(isCorrect, hintsUsed, p.hintPenalty),
		CreatedAt:        time.Now().UTC(),
	}
	if err := p.store.UpsertAnswer(answer); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	if _, err := p.tracker.RecordAnswer(session.UserID, q.Subject, q.QuestionType, isCorrect); err != nil {
		return nil, fmt.Errorf("record answer in progress tracker: %w", err)
	}

	return answer, nil
}

// GetSession returns the session and its answers in submission order.
func (p *PracticeService) GetSession(sessionID string) (*practice.Session, []practice.Answer, error) {
	session, err := p.store.GetPracticeSession(sessionID)
	if err != nil {
		return nil, nil, err
	}
	answers, err := p.store.SessionAnswers(sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, answers, nil
}

// NextQuestion returns the first unanswered question id in sequence order,
// or empty when every question has an answer.
func (p *PracticeService) NextQuestion(sessionID string) (string, error) {
	session, answers, err := p.GetSession(sessionID)
	if err != nil {
		return "", err
	}

	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = true
	}
	for _, qid := range session.QuestionIDs {
		if !answered[qid] {
			return qid, nil
		}
	}
	return "", nil
}

// CompleteSession closes the session and returns its result. Questions
// without a submitted answer count as incorrect with zero score. Completion
// is idempotent: a closed session returns its stored result unchanged.
func (p *PracticeService) CompleteSession(sessionID string) (*practice.Result, error) {
	p.locks.Lock(sessionID)
	defer p.locks.Unlock(sessionID)

	session, err := p.store.GetPracticeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return p.store.PracticeResult(sessionID)
	}

	answers, err := p.store.SessionAnswers(sessionID)
	if err != nil {
		return nil, err
	}

	questions, err := p.store.GetQuestionsByIDs(session.QuestionIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.CompletedAt = &now
	result := practice.BuildResult(session, answers, func(qid string) (question.Type, bool) {
		q, ok := questions[qid]
		if !ok {
			return "", false
		}
		return q.QuestionType, true
	})

	if err := p.store.CompletePracticeSession(sessionID, now, result); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	p.logger.Info("practice session completed",
		"session_id", sessionID,
		"correct", result.CorrectAnswers,
		"total", result.TotalQuestions,
	)
	return &result, nil
}
