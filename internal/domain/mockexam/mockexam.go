// Package mockexam models the fixed two-paper GL Assessment format:
// each paper runs english (20 questions, 15 min), maths (30, 19 min),
// non-verbal reasoning (20, 8 min) and verbal reasoning (20, 8 min),
// giving 90 questions and 50 minutes per paper, 180 per exam.
package mockexam

import (
	"time"

	"github.com/google/uuid"

	"github.com/eleventutor/backend/internal/domain/question"
)

// Status is the exam lifecycle state. The transition is one-way.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// PapersPerExam is fixed by the exam format.
const PapersPerExam = 2

// ExamCount is how many canonical exams exist (exam_number 1..ExamCount).
const ExamCount = 3

// SubtypeQuota reserves part of a section for a named pool of question
// types, e.g. 12 comprehension questions within the english section.
type SubtypeQuota struct {
	Name  string
	Types []question.Type
	Count int
}

// SectionConfig fixes the shape of one section of a paper.
type SectionConfig struct {
	Section     question.Subject
	Count       int
	TimeSeconds int
	Subtypes    []SubtypeQuota // nil: draw Count from the whole subject pool
}

// PaperSections is the invariant section table, in paper order.
var PaperSections = [4]SectionConfig{
	{
		Section:     question.SubjectEnglish,
		Count:       20,
		TimeSeconds: 900,
		Subtypes: []SubtypeQuota{
			{Name: "comprehension", Types: []question.Type{question.TypeComprehension}, Count: 12},
			{Name: "vocabulary", Types: []question.Type{
				question.TypeVocabulary, question.TypeGrammar, question.TypeSpelling,
				question.TypeSentenceCompletion, question.TypePunctuation,
			}, Count: 8},
		},
	},
	{Section: question.SubjectMaths, Count: 30, TimeSeconds: 1140},
	{Section: question.SubjectNonVerbalReasoning, Count: 20, TimeSeconds: 480},
	{Section: question.SubjectVerbalReasoning, Count: 20, TimeSeconds: 480},
}

// QuestionsPerPaper is derived from PaperSections (90).
var QuestionsPerPaper = func() int {
	total := 0
	for _, s := range PaperSections {
		total += s.Count
	}
	return total
}()

// SectionQuestions is one sampled section within a paper.
type SectionQuestions struct {
	Section      question.Subject `json:"section"`
	SectionIndex int              `json:"section_index"`
	QuestionIDs  []string         `json:"question_ids"`
	TimeSeconds  int              `json:"time_seconds"`
}

// Paper is one of the two papers of an exam.
type Paper struct {
	PaperNumber int                `json:"paper_number"`
	Sections    []SectionQuestions `json:"sections"`
}

// TotalQuestions counts the questions across the paper's sections.
func (p *Paper) TotalQuestions() int {
	total := 0
	for _, s := range p.Sections {
		total += len(s.QuestionIDs)
	}
	return total
}

// Session is a complete mock exam attempt.
type Session struct {
	ID          string
	UserID      string
	ExamNumber  int // 1..ExamCount
	Papers      []Paper
	Status      Status
	StartedAt   time.Time
	CompletedAt *time.Time
	Answers     map[string]string // question id -> submitted answer
	AnswerTimes map[string]int    // question id -> seconds spent
}

// New creates an in-progress exam session over the sampled papers.
func New(userID string, examNumber int, papers []Paper) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		ExamNumber:  examNumber,
		Papers:      papers,
		Status:      StatusInProgress,
		StartedAt:   time.Now().UTC(),
		Answers:     make(map[string]string),
		AnswerTimes: make(map[string]int),
	}
}

// Completed reports whether the exam has been finalized.
func (s *Session) Completed() bool {
	return s.Status == StatusCompleted
}

// Contains reports whether the question belongs to any section of the exam.
func (s *Session) Contains(questionID string) bool {
	for _, paper := range s.Papers {
		for _, section := range paper.Sections {
			for _, qid := range section.QuestionIDs {
				if qid == questionID {
					return true
				}
			}
		}
	}
	return false
}

// Paper returns the paper with the given number, or nil.
func (s *Session) Paper(paperNumber int) *Paper {
	for i := range s.Papers {
		if s.Papers[i].PaperNumber == paperNumber {
			return &s.Papers[i]
		}
	}
	return nil
}

// SectionResult is the graded outcome of one section.
type SectionResult struct {
	Section         question.Subject `json:"section"`
	Total           int              `json:"total"`
	Correct         int              `json:"correct"`
	Accuracy        float64          `json:"accuracy"`
	TimeUsedSeconds int              `json:"time_used_seconds"`
}

// PaperResult sums a paper's four section results.
type PaperResult struct {
	PaperNumber      int             `json:"paper_number"`
	Sections         []SectionResult `json:"sections"`
	TotalQuestions   int             `json:"total_questions"`
	TotalCorrect     int             `json:"total_correct"`
	Accuracy         float64         `json:"accuracy"`
	TotalTimeSeconds int             `json:"total_time_seconds"`
}

// SubjectStats is one entry of the whole-exam subject breakdown.
type SubjectStats struct {
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"`
	TimeSeconds int     `json:"time_seconds"`
}

// Result is the full exam outcome, section -> paper -> overall.
type Result struct {
	ExamID           string                            `json:"exam_id"`
	UserID           string                            `json:"user_id"`
	Papers           []PaperResult                     `json:"papers"`
	TotalQuestions   int                               `json:"total_questions"`
	TotalCorrect     int                               `json:"total_correct"`
	OverallAccuracy  float64                           `json:"overall_accuracy"`
	TotalTimeSeconds int                               `json:"total_time_seconds"`
	SubjectBreakdown map[question.Subject]SubjectStats `json:"subject_breakdown"`
	CompletedAt      time.Time                         `json:"completed_at"`
}

// BuildResult grades the whole exam. correctByID carries the correctness of
// every answered question; unanswered questions count as incorrect. Time
// used per section is the sum of recorded answer times for its questions.
func BuildResult(s *Session, correctByID map[string]bool, completedAt time.Time) Result {
	result := Result{
		ExamID:           s.ID,
		UserID:           s.UserID,
		SubjectBreakdown: make(map[question.Subject]SubjectStats),
		CompletedAt:      completedAt,
	}

	for _, paper := range s.Papers {
		paperResult := PaperResult{PaperNumber: paper.PaperNumber}

		for _, section := range paper.Sections {
			sectionResult := SectionResult{
				Section: section.Section,
				Total:   len(section.QuestionIDs),
			}
			for _, qid := range section.QuestionIDs {
				if correctByID[qid] {
					sectionResult.Correct++
				}
				sectionResult.TimeUsedSeconds += s.AnswerTimes[qid]
			}
			if sectionResult.Total > 0 {
				sectionResult.Accuracy = float64(sectionResult.Correct) / float64(sectionResult.Total)
			}
			paperResult.Sections = append(paperResult.Sections, sectionResult)

			paperResult.TotalQuestions += sectionResult.Total
			paperResult.TotalCorrect += sectionResult.Correct
			paperResult.TotalTimeSeconds += sectionResult.TimeUsedSeconds

			stats := result.SubjectBreakdown[section.Section]
			stats.Total += sectionResult.Total
			stats.Correct += sectionResult.Correct
			stats.TimeSeconds += sectionResult.TimeUsedSeconds
			result.SubjectBreakdown[section.Section] = stats
		}

		if paperResult.TotalQuestions > 0 {
			paperResult.Accuracy = float64(paperResult.TotalCorrect) / float64(paperResult.TotalQuestions)
		}
		result.Papers = append(result.Papers, paperResult)

		result.TotalQuestions += paperResult.TotalQuestions
		result.TotalCorrect += paperResult.TotalCorrect
		result.TotalTimeSeconds += paperResult.TotalTimeSeconds
	}

	for subject, stats := range result.SubjectBreakdown {
		if stats.Total > 0 {
			stats.Accuracy = float64(stats.Correct) / float64(stats.Total)
			result.SubjectBreakdown[subject] = stats
		}
	}

	if result.TotalQuestions > 0 {
		result.OverallAccuracy = float64(result.TotalCorrect) / float64(result.TotalQuestions)
	}

	return result
}
