package practice

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/eleventutor/backend/internal/domain/question"
)

// DefaultHintPenalty is the score deduction per hint used on a correct
// answer.
const DefaultHintPenalty = 0.5

// Session is an open-ended practice session. The question sequence is
// frozen at creation and never re-shuffled.
type Session struct {
	ID               string
	UserID           string
	Subject          *question.Subject // nil for mixed practice
	QuestionType     *question.Type    // nil unless practicing one type
	IsTimed          bool
	TimeLimitMinutes *int // advisory only, never enforced server-side
	QuestionIDs      []string
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// New creates an open session over the given frozen question sequence.
func New(userID string, subject *question.Subject, qtype *question.Type, questionIDs []string, isTimed bool, timeLimitMinutes *int) *Session {
	return &Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		Subject:          subject,
		QuestionType:     qtype,
		IsTimed:          isTimed,
		TimeLimitMinutes: timeLimitMinutes,
		QuestionIDs:      questionIDs,
		StartedAt:        time.Now().UTC(),
	}
}

// Completed reports whether the session has been closed.
func (s *Session) Completed() bool {
	return s.CompletedAt != nil
}

// Contains reports whether the question is part of the session's sequence.
func (s *Session) Contains(questionID string) bool {
	for _, id := range s.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// Answer is one submitted answer. At most one exists per
// (session, question); resubmission overwrites.
type Answer struct {
	SessionID        string
	QuestionID       string
	UserAnswer       string
	IsCorrect        bool
	TimeTakenSeconds int
	HintsUsed        int
	Score            float64
	CreatedAt        time.Time
}

// Score computes the per-question score: 1.0 minus the hint penalty per
// hint when correct, floored at zero; always 0 when incorrect.
func Score(correct bool, hintsUsed int, hintPenalty float64) float64 {
	if !correct {
		return 0
	}
	score := 1.0 - float64(hintsUsed)*hintPenalty
	if score < 0 {
		return 0
	}
	return score
}

// TypeStats is the per-question-type attempt breakdown in a result.
type TypeStats struct {
	Attempted int `json:"attempted"`
	Correct   int `json:"correct"`
}

// Result is the summary produced when a session is completed.
type Result struct {
	SessionID        string                      `json:"session_id"`
	Subject          *question.Subject           `json:"subject,omitempty"`
	TotalQuestions   int                         `json:"total_questions"`
	CorrectAnswers   int                         `json:"correct_answers"`
	TotalScore       float64                     `json:"total_score"`
	Accuracy         float64                     `json:"accuracy"`
	TimeTakenMinutes float64                     `json:"time_taken_minutes"`
	QuestionsByType  map[question.Type]TypeStats `json:"questions_by_type"`
	Strengths        []question.Type             `json:"strengths"`
	AreasToImprove   []question.Type             `json:"areas_to_improve"`
}

// BuildResult aggregates a closed session. Questions with no submitted
// answer count as incorrect with zero score. typeOf resolves a question id
// to its question type; ids it cannot resolve are excluded from the
// per-type breakdown but still count in the totals.
func BuildResult(s *Session, answers []Answer, typeOf func(questionID string) (question.Type, bool)) Result {
	byID := make(map[string]Answer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}

	result := Result{
		SessionID:       s.ID,
		Subject:         s.Subject,
		TotalQuestions:  len(s.QuestionIDs),
		QuestionsByType: make(map[question.Type]TypeStats),
		Strengths:       []question.Type{},
		AreasToImprove:  []question.Type{},
	}

	for _, qid := range s.QuestionIDs {
		a, answered := byID[qid]
		if answered && a.IsCorrect {
			result.CorrectAnswers++
		}
		if answered {
			result.TotalScore += a.Score
		}

		qtype, ok := typeOf(qid)
		if !ok {
			continue
		}
		stats := result.QuestionsByType[qtype]
		stats.Attempted++
		if answered && a.IsCorrect {
			stats.Correct++
		}
		result.QuestionsByType[qtype] = stats
	}

	if result.TotalQuestions > 0 {
		result.Accuracy = float64(result.CorrectAnswers) / float64(result.TotalQuestions)
	}
	if s.CompletedAt != nil {
		result.TimeTakenMinutes = s.CompletedAt.Sub(s.StartedAt).Minutes()
	}

	for _, qtype := range sortedTypes(result.QuestionsByType) {
		stats := result.QuestionsByType[qtype]
		if stats.Attempted == 0 {
			continue
		}
		accuracy := float64(stats.Correct) / float64(stats.Attempted)
		switch {
		case accuracy >= 0.8:
			result.Strengths = append(result.Strengths, qtype)
		case accuracy < 0.5:
			result.AreasToImprove = append(result.AreasToImprove, qtype)
		}
	}

	return result
}

// sortedTypes gives a stable iteration order for the breakdown map.
func sortedTypes(m map[question.Type]TypeStats) []question.Type {
	types := make([]question.Type, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
