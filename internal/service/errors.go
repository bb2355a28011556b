package service

import "errors"

var (
	// ErrInsufficientQuestions means the question bank cannot supply the
	// requested number of distinct questions for the filter.
	ErrInsufficientQuestions = errors.New("insufficient questions available")

	// ErrSessionClosed means the practice session has already been completed.
	ErrSessionClosed = errors.New("session already completed")

	// ErrQuestionNotInSession means the question id is not part of the
	// session's frozen question sequence.
	ErrQuestionNotInSession = errors.New("question not part of session")

	// ErrExamCompleted means the mock exam has already been finalized.
	ErrExamCompleted = errors.New("exam already completed")

	// ErrInvalidExamNumber means the exam number is outside 1..3.
	ErrInvalidExamNumber = errors.New("invalid exam number")

	// ErrSectionNotFound means the paper number or section index does not
	// exist within the exam.
	ErrSectionNotFound = errors.New("section not found")
)
