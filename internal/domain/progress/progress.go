package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/eleventutor/backend/internal/domain/question"
)

// DefaultAlpha is the exponential smoothing factor applied to the mastery
// score on every graded answer.
const DefaultAlpha = 0.2

// levelThresholds map a mastery score to a difficulty level. A score below
// the first threshold is level 1; at or above the last is level 5.
var levelThresholds = [4]float64{0.30, 0.50, 0.70, 0.85}

// Record tracks a learner's mastery of one (subject, question type) pair.
// There is exactly one record per (UserID, Subject, QuestionType).
type Record struct {
	ID             string
	UserID         string
	Subject        question.Subject
	QuestionType   question.Type
	TotalAttempted int
	TotalCorrect   int
	CurrentLevel   int
	MasteryScore   float64
	LastPracticed  *time.Time
	Streak         int
}

// NewRecord creates a fresh record at level 1 with no history.
func NewRecord(userID string, subject question.Subject, qtype question.Type) *Record {
	return &Record{
		ID:           uuid.NewString(),
		UserID:       userID,
		Subject:      subject,
		QuestionType: qtype,
		CurrentLevel: 1,
	}
}

// Apply folds one graded answer into the record. The mastery score moves by
// exponential smoothing: score' = score*(1-alpha) + outcome*alpha, which
// keeps it inside [0,1]. The level is recomputed from the smoothed score,
// so it can jump more than one band in a single update.
func (r *Record) Apply(correct bool, alpha float64, now time.Time) {
	r.TotalAttempted++
	if correct {
		r.TotalCorrect++
		r.Streak++
	} else {
		r.Streak = 0
	}

	outcome := 0.0
	if correct {
		outcome = 1.0
	}
	r.MasteryScore = r.MasteryScore*(1-alpha) + outcome*alpha
	r.CurrentLevel = LevelFor(r.MasteryScore)
	r.LastPracticed = &now
}

// LevelFor returns the difficulty level (1..5) for a mastery score.
func LevelFor(mastery float64) int {
	level := 1
	for _, threshold := range levelThresholds {
		if mastery >= threshold {
			level++
		}
	}
	return level
}
