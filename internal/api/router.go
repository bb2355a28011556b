// internal/api/router.go
package api

import "net/http"

// RegisterRoutes wires every handler onto the mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Questions (read-only repository surface)
	mux.HandleFunc("GET /questions/{questionID}", h.getQuestion)

	// Practice sessions
	mux.HandleFunc("POST /users/{userID}/practice/sessions", h.startPracticeSession)
	mux.HandleFunc("GET /practice/sessions/{sessionID}", h.getPracticeSession)
	mux.HandleFunc("GET /practice/sessions/{sessionID}/next", h.nextPracticeQuestion)
	mux.HandleFunc("POST /practice/sessions/{sessionID}/answers", h.submitPracticeAnswer)
	mux.HandleFunc("POST /practice/sessions/{sessionID}/complete", h.completePracticeSession)

	// Mock exams
	mux.HandleFunc("POST /users/{userID}/mock-exams", h.createMockExam)
	mux.HandleFunc("GET /mock-exams/{examID}", h.getMockExam)
	mux.HandleFunc("GET /mock-exams/{examID}/papers/{paperNumber}/sections/{sectionIndex}/questions", h.getMockExamSectionQuestions)
	mux.HandleFunc("POST /mock-exams/{examID}/answers", h.submitMockExamAnswer)
	mux.HandleFunc("POST /mock-exams/{examID}/complete", h.completeMockExam)

	// Progress
	mux.HandleFunc("GET /users/{userID}/progress", h.getProgressSummary)
	mux.HandleFunc("GET /users/{userID}/progress/weak-areas", h.getWeakAreas)
	mux.HandleFunc("GET /users/{userID}/progress/recommended-difficulty", h.getRecommendedDifficulty)
}
