package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleventutor/backend/internal/domain/mockexam"
	"github.com/eleventutor/backend/internal/domain/question"
	"github.com/eleventutor/backend/internal/service"
	"github.com/eleventutor/backend/internal/store"
)

func newTestMockExam(t *testing.T) (*service.MockExamService, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	return service.NewMockExamService(fs, testLogger()), fs
}

// seedExamBank fills every pool with enough questions for one full exam,
// plus headroom so sampling has choices.
func seedExamBank(fs *fakeStore) {
	addQuestions(fs, question.SubjectEnglish, question.TypeComprehension, 3, 30)
	addQuestions(fs, question.SubjectEnglish, question.TypeVocabulary, 3, 10)
	addQuestions(fs, question.SubjectEnglish, question.TypeGrammar, 3, 10)
	addQuestions(fs, question.SubjectMaths, question.TypeFractions, 3, 70)
	addQuestions(fs, question.SubjectNonVerbalReasoning, question.TypeNVRSequences, 3, 50)
	addQuestions(fs, question.SubjectVerbalReasoning, question.TypeVRSynonyms, 3, 50)
}

func TestCreateExamFormat(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)

	require.Len(t, session.Papers, mockexam.PapersPerExam)
	assert.Equal(t, mockexam.StatusInProgress, session.Status)

	total := 0
	seen := make(map[string]bool)
	for _, paper := range session.Papers {
		require.Len(t, paper.Sections, len(mockexam.PaperSections))
		assert.Equal(t, mockexam.QuestionsPerPaper, paper.TotalQuestions())
		for i, section := range paper.Sections {
			cfg := mockexam.PaperSections[i]
			assert.Equal(t, cfg.Section, section.Section)
			assert.Equal(t, cfg.TimeSeconds, section.TimeSeconds)
			assert.Len(t, section.QuestionIDs, cfg.Count)
			for _, qid := range section.QuestionIDs {
				assert.False(t, seen[qid], "question %s repeated within the exam", qid)
				seen[qid] = true
				total++
			}
		}
	}
	assert.Equal(t, 2*mockexam.QuestionsPerPaper, total)
}

func TestCreateExamEnglishSubtypeQuotas(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)

	english := session.Papers[0].Sections[0]
	require.Equal(t, question.SubjectEnglish, english.Section)

	comprehension := 0
	for _, qid := range english.QuestionIDs {
		q, err := fs.GetQuestion(qid)
		require.NoError(t, err)
		if q.QuestionType == question.TypeComprehension {
			comprehension++
		}
	}
	assert.Equal(t, 12, comprehension)
	assert.Equal(t, 8, len(english.QuestionIDs)-comprehension)
}

func TestCreateExamSkipsUncataloguedTypes(t *testing.T) {
	svc, fs := newTestMockExam(t)

	// Seeded first, so insertion-order sampling would pick these up if the
	// maths section did not filter on the catalogue's type list.
	rogue := addQuestions(fs, question.SubjectMaths, question.Type("mental_arithmetic_legacy"), 3, 60)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)

	rogueIDs := make(map[string]bool, len(rogue))
	for _, id := range rogue {
		rogueIDs[id] = true
	}
	catalogued := make(map[question.Type]bool)
	for _, qt := range question.Catalogue[question.SubjectMaths] {
		catalogued[qt] = true
	}

	for _, paper := range session.Papers {
		for _, qid := range paper.Sections[1].QuestionIDs {
			assert.False(t, rogueIDs[qid], "question %s has a type outside the catalogue", qid)
			q, err := fs.GetQuestion(qid)
			require.NoError(t, err)
			assert.True(t, catalogued[q.QuestionType])
		}
	}
}

func TestCreateExamInvalidNumber(t *testing.T) {
	svc, _ := newTestMockExam(t)

	_, err := svc.CreateExam("user-1", 0)
	assert.ErrorIs(t, err, service.ErrInvalidExamNumber)

	_, err = svc.CreateExam("user-1", mockexam.ExamCount+1)
	assert.ErrorIs(t, err, service.ErrInvalidExamNumber)
}

func TestCreateExamInsufficientPool(t *testing.T) {
	svc, fs := newTestMockExam(t)
	// Maths pool too small for two papers of 30.
	addQuestions(fs, question.SubjectEnglish, question.TypeComprehension, 3, 30)
	addQuestions(fs, question.SubjectEnglish, question.TypeVocabulary, 3, 20)
	addQuestions(fs, question.SubjectMaths, question.TypeFractions, 3, 40)
	addQuestions(fs, question.SubjectNonVerbalReasoning, question.TypeNVRSequences, 3, 50)
	addQuestions(fs, question.SubjectVerbalReasoning, question.TypeVRSynonyms, 3, 50)

	_, err := svc.CreateExam("user-1", 1)
	require.ErrorIs(t, err, service.ErrInsufficientQuestions)
	assert.Empty(t, fs.exams, "nothing may be persisted on failure")
}

func TestGetSectionQuestionsPreservesOrder(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)

	section := session.Papers[0].Sections[1]
	questions, err := svc.GetSectionQuestions(session.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, questions, len(section.QuestionIDs))
	for i, q := range questions {
		assert.Equal(t, section.QuestionIDs[i], q.ID)
	}
}

func TestGetSectionQuestionsBounds(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)

	_, err = svc.GetSectionQuestions(session.ID, 3, 0)
	assert.ErrorIs(t, err, service.ErrSectionNotFound)

	_, err = svc.GetSectionQuestions(session.ID, 1, 99)
	assert.ErrorIs(t, err, service.ErrSectionNotFound)

	_, err = svc.GetSectionQuestions("missing", 1, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubmitAnswerFeedback(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)
	qid := session.Papers[0].Sections[1].QuestionIDs[0]

	feedback, err := svc.SubmitAnswer(session.ID, qid, "right", 25)
	require.NoError(t, err)
	assert.True(t, feedback.IsCorrect)
	assert.Equal(t, "right", feedback.CorrectAnswer)

	reloaded, err := svc.GetExam(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "right", reloaded.Answers[qid])
	assert.Equal(t, 25, reloaded.AnswerTimes[qid])
}

func TestExamSubmitAnswerRejectsForeignQuestion(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(session.ID, "not-in-exam", "x", 5)
	assert.ErrorIs(t, err, service.ErrQuestionNotInSession)
}

func TestCompleteExamGradesEverything(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)

	// Answer paper 1's maths section correctly, leave the rest blank.
	for _, qid := range session.Papers[0].Sections[1].QuestionIDs {
		_, err := svc.SubmitAnswer(session.ID, qid, "right", 20)
		require.NoError(t, err)
	}

	result, err := svc.CompleteExam(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 180, result.TotalQuestions)
	assert.Equal(t, 30, result.TotalCorrect)
	assert.InDelta(t, 30.0/180.0, result.OverallAccuracy, 1e-9)

	reloaded, err := svc.GetExam(session.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Completed())
}

func TestCompleteExamIdempotent(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)

	first, err := svc.CompleteExam(session.ID)
	require.NoError(t, err)
	second, err := svc.CompleteExam(session.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExamSubmitAnswerAfterCompletion(t *testing.T) {
	svc, fs := newTestMockExam(t)
	seedExamBank(fs)

	session, err := svc.CreateExam("user-1", 1)
	require.NoError(t, err)
	qid := session.Papers[0].Sections[1].QuestionIDs[0]

	_, err = svc.CompleteExam(session.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(session.ID, qid, "right", 10)
	assert.ErrorIs(t, err, service.ErrExamCompleted)
}
