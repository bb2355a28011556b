package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/eleventutor/backend/internal/domain/progress"
	"github.com/eleventutor/backend/internal/domain/question"
	"github.com/eleventutor/backend/internal/store"
)

// ProgressTracker is the single source of truth for per-learner mastery.
// It advises a difficulty level per (subject, question type) and ranks weak
// areas. Updates to the same key are serialized: the smoothing update is a
// read-modify-write that must not interleave.
type ProgressTracker struct {
	store  store.ProgressStore
	alpha  float64
	logger *slog.Logger
	locks  *keyMutex
}

// NewProgressTracker creates a tracker with the given smoothing factor.
func NewProgressTracker(s store.ProgressStore, alpha float64, logger *slog.Logger) *ProgressTracker {
	return &ProgressTracker{
		store:  s,
		alpha:  alpha,
		logger: logger,
		locks:  newKeyMutex(),
	}
}

func progressKey(userID string, subject question.Subject, qtype question.Type) string {
	return userID + "|" + string(subject) + "|" + string(qtype)
}

// GetOrCreate returns the mastery record for the key, creating a default
// one (level 1, mastery 0) if none exists. The store upserts on the unique
// key, so concurrent first creations resolve to one record.
func (t *ProgressTracker) GetOrCreate(userID string, subject question.Subject, qtype question.Type) (*progress.Record, error) {
	key := progressKey(userID, subject, qtype)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	return t.getOrCreateLocked(userID, subject, qtype)
}

func (t *ProgressTracker) getOrCreateLocked(userID string, subject question.Subject, qtype question.Type) (*progress.Record, error) {
	record, err := t.store.GetProgress(userID, subject, qtype)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	record = progress.NewRecord(userID, subject, qtype)
	if err := t.store.SaveProgress(record); err != nil {
		return nil, fmt.Errorf("create progress record: %w", err)
	}
	return record, nil
}

// RecordAnswer folds one graded answer into the matching record, creating
// it if absent. This is the only mutator of mastery state.
func (t *ProgressTracker) RecordAnswer(userID string, subject question.Subject, qtype question.Type, isCorrect bool) (*progress.Record, error) {
	key := progressKey(userID, subject, qtype)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	record, err := t.getOrCreateLocked(userID, subject, qtype)
	if err != nil {
		return nil, err
	}

	record.Apply(isCorrect, t.alpha, time.Now().UTC())
	if err := t.store.SaveProgress(record); err != nil {
		return nil, fmt.Errorf("save progress record: %w", err)
	}

	t.logger.Debug("progress updated",
		"user_id", userID,
		"subject", subject,
		"question_type", qtype,
		"mastery", record.MasteryScore,
		"level", record.CurrentLevel,
	)
	return record, nil
}

// RecommendedDifficulty returns the current level (1..5) for the key; a
// never-practiced key yields level 1.
func (t *ProgressTracker) RecommendedDifficulty(userID string, subject question.Subject, qtype question.Type) (int, error) {
	record, err := t.GetOrCreate(userID, subject, qtype)
	if err != nil {
		return 0, err
	}
	return record.CurrentLevel, nil
}

// WeakArea is one entry of the weak-area ranking.
type WeakArea struct {
	Subject        question.Subject `json:"subject"`
	QuestionType   question.Type    `json:"question_type"`
	MasteryScore   float64          `json:"mastery_score"`
	TotalAttempted int              `json:"total_attempted"`
}

// WeakAreas ranks the learner's practiced areas ascending by mastery,
// breaking ties by oldest last_practiced. Records never attempted are
// excluded so untouched areas don't surface as false weaknesses.
func (t *ProgressTracker) WeakAreas(userID string, limit int) ([]WeakArea, error) {
	records, err := t.store.ListProgress(userID)
	if err != nil {
		return nil, err
	}

	attempted := records[:0]
	for _, r := range records {
		if r.TotalAttempted > 0 {
			attempted = append(attempted, r)
		}
	}
	sortByWeakness(attempted)

	if limit > 0 && len(attempted) > limit {
		attempted = attempted[:limit]
	}

	areas := make([]WeakArea, len(attempted))
	for i, r := range attempted {
		areas[i] = WeakArea{
			Subject:        r.Subject,
			QuestionType:   r.QuestionType,
			MasteryScore:   r.MasteryScore,
			TotalAttempted: r.TotalAttempted,
		}
	}
	return areas, nil
}

func sortByWeakness(records []progress.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].MasteryScore != records[j].MasteryScore {
			return records[i].MasteryScore < records[j].MasteryScore
		}
		// Ties: oldest practice first; never-practiced sorts last.
		li, lj := records[i].LastPracticed, records[j].LastPracticed
		switch {
		case li == nil:
			return false
		case lj == nil:
			return true
		default:
			return li.Before(*lj)
		}
	})
}

// TypeProgress is the per-type leaf of a progress summary.
type TypeProgress struct {
	Mastery   float64 `json:"mastery"`
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Level     int     `json:"level"`
	Streak    int     `json:"streak"`
}

// SubjectProgress aggregates a subject's types.
type SubjectProgress struct {
	Mastery        float64                        `json:"mastery"`
	TotalAttempted int                            `json:"total_attempted"`
	TotalCorrect   int                            `json:"total_correct"`
	Types          map[question.Type]TypeProgress `json:"types"`
}

// Recommendation is one suggested next practice area.
type Recommendation struct {
	Subject      question.Subject `json:"subject"`
	QuestionType question.Type    `json:"question_type"`
	Reason       string           `json:"reason"`
}

// Summary is the full fan-out of a learner's mastery state.
type Summary struct {
	UserID          string                               `json:"user_id"`
	OverallMastery  float64                              `json:"overall_mastery"`
	Subjects        map[question.Subject]SubjectProgress `json:"subjects"`
	WeakAreas       []WeakArea                           `json:"weak_areas"`
	RecommendedNext []Recommendation                     `json:"recommended_next"`
}

// recommendationLimit caps the recommended_next list.
const recommendationLimit = 5

// Summary builds the complete progress picture: per-subject and per-type
// mastery, the weak-area ranking, and recommendations. Recommendations put
// weak practiced areas first, then never-attempted catalogue pairs in
// catalogue order.
func (t *ProgressTracker) Summary(userID string) (*Summary, error) {
	records, err := t.store.ListProgress(userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		UserID:          userID,
		Subjects:        make(map[question.Subject]SubjectProgress),
		WeakAreas:       []WeakArea{},
		RecommendedNext: []Recommendation{},
	}

	totalAttempted, totalCorrect := 0, 0
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[string(r.Subject)+"|"+string(r.QuestionType)] = true

		sp, ok := summary.Subjects[r.Subject]
		if !ok {
			sp = SubjectProgress{Types: make(map[question.Type]TypeProgress)}
		}
		sp.TotalAttempted += r.TotalAttempted
		sp.TotalCorrect += r.TotalCorrect
		sp.Types[r.QuestionType] = TypeProgress{
			Mastery:   r.MasteryScore,
			Attempted: r.TotalAttempted,
			Correct:   r.TotalCorrect,
			Level:     r.CurrentLevel,
			Streak:    r.Streak,
		}
		summary.Subjects[r.Subject] = sp

		totalAttempted += r.TotalAttempted
		totalCorrect += r.TotalCorrect
	}

	for subject, sp := range summary.Subjects {
		if sp.TotalAttempted > 0 {
			sp.Mastery = float64(sp.TotalCorrect) / float64(sp.TotalAttempted)
			summary.Subjects[subject] = sp
		}
	}
	if totalAttempted > 0 {
		summary.OverallMastery = float64(totalCorrect) / float64(totalAttempted)
	}

	weak, err := t.WeakAreas(userID, 0)
	if err != nil {
		return nil, err
	}
	summary.WeakAreas = weak

	for _, area := range weak {
		if len(summary.RecommendedNext) == recommendationLimit {
			break
		}
		summary.RecommendedNext = append(summary.RecommendedNext, Recommendation{
			Subject:      area.Subject,
			QuestionType: area.QuestionType,
			Reason:       fmt.Sprintf("low mastery (%.0f%%)", area.MasteryScore*100),
		})
	}

	for _, subject := range question.Subjects {
		if len(summary.RecommendedNext) == recommendationLimit {
			break
		}
		for _, qtype := range question.Catalogue[subject] {
			if len(summary.RecommendedNext) == recommendationLimit {
				break
			}
			if seen[string(subject)+"|"+string(qtype)] {
				continue
			}
			summary.RecommendedNext = append(summary.RecommendedNext, Recommendation{
				Subject:      subject,
				QuestionType: qtype,
				Reason:       "not practiced yet",
			})
		}
	}

	return summary, nil
}
