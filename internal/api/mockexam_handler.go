package api

import (
	"net/http"
	"strconv"

	"github.com/eleventutor/backend/internal/domain/mockexam"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateMockExamRequest struct {
	ExamNumber int `json:"exam_number"`
}

type MockExamResponse struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	ExamNumber  int              `json:"exam_number"`
	Status      string           `json:"status"`
	Papers      []mockexam.Paper `json:"papers"`
	StartedAt   string           `json:"started_at"`
	CompletedAt *string          `json:"completed_at,omitempty"`
}

type SubmitMockExamAnswerRequest struct {
	QuestionID       string `json:"question_id"`
	Answer           string `json:"answer"`
	TimeTakenSeconds int    `json:"time_taken_seconds"`
}

type SectionQuestionsResponse struct {
	PaperNumber  int                `json:"paper_number"`
	SectionIndex int                `json:"section_index"`
	Questions    []QuestionResponse `json:"questions"`
}

func mockExamResponse(s *mockexam.Session) MockExamResponse {
	resp := MockExamResponse{
		ID:         s.ID,
		UserID:     s.UserID,
		ExamNumber: s.ExamNumber,
		Status:     string(s.Status),
		Papers:     s.Papers,
		StartedAt:  s.StartedAt.Format(timeLayout),
	}
	if s.CompletedAt != nil {
		v := s.CompletedAt.Format(timeLayout)
		resp.CompletedAt = &v
	}
	return resp
}

// ── Handlers ────────────────────────────────────────────────────────────────

// createMockExam samples a full two-paper exam.
// @Summary      Create a mock exam
// @Description  Builds a two-paper exam from the fixed section table with no repeated questions anywhere in the exam.
// @Tags         MockExams
// @Accept       json
// @Produce      json
// @Param        userID  path      string                 true  "User ID"
// @Param        body    body      CreateMockExamRequest  true  "Exam number (1-3)"
// @Success      201     {object}  MockExamResponse
// @Failure      400     {object}  map[string]string  "invalid exam number"
// @Failure      409     {object}  map[string]string  "insufficient questions"
// @Failure      500     {object}  map[string]string
// @Router       /users/{userID}/mock-exams [post]
func (h *Handler) createMockExam(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req CreateMockExamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.mockExam.CreateExam(userID, req.ExamNumber)
	if h.handleServiceError(w, err, "exam") {
		return
	}

	respondJSON(w, http.StatusCreated, mockExamResponse(session))
}

// getMockExam returns the stored exam session.
// @Summary      Get a mock exam
// @Tags         MockExams
// @Produce      json
// @Param        examID  path      string  true  "Exam ID"
// @Success      200     {object}  MockExamResponse
// @Failure      404     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /mock-exams/{examID} [get]
func (h *Handler) getMockExam(w http.ResponseWriter, r *http.Request) {
	examID := r.PathValue("examID")

	session, err := h.mockExam.GetExam(examID)
	if h.handleServiceError(w, err, "exam") {
		return
	}

	respondJSON(w, http.StatusOK, mockExamResponse(session))
}

// getMockExamSectionQuestions returns one section's question payloads.
// @Summary      Get section questions
// @Description  Returns the full question payloads for one section, in the section's frozen order.
// @Tags         MockExams
// @Produce      json
// @Param        examID        path      string  true  "Exam ID"
// @Param        paperNumber   path      int     true  "Paper number (1-2)"
// @Param        sectionIndex  path      int     true  "Section index (0-3)"
// @Success      200           {object}  SectionQuestionsResponse
// @Failure      400           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /mock-exams/{examID}/papers/{paperNumber}/sections/{sectionIndex}/questions [get]
func (h *Handler) getMockExamSectionQuestions(w http.ResponseWriter, r *http.Request) {
	examID := r.PathValue("examID")

	paperNumber, err := strconv.Atoi(r.PathValue("paperNumber"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_failure", "paper number must be an integer")
		return
	}
	sectionIndex, err := strconv.Atoi(r.PathValue("sectionIndex"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_failure", "section index must be an integer")
		return
	}

	questions, err := h.mockExam.GetSectionQuestions(examID, paperNumber, sectionIndex)
	if h.handleServiceError(w, err, "exam") {
		return
	}

	resp := SectionQuestionsResponse{
		PaperNumber:  paperNumber,
		SectionIndex: sectionIndex,
		Questions:    make([]QuestionResponse, len(questions)),
	}
	for i := range questions {
		resp.Questions[i] = questionResponse(&questions[i])
	}

	respondJSON(w, http.StatusOK, resp)
}

// submitMockExamAnswer records an exam answer and returns feedback.
// @Summary      Submit an exam answer
// @Description  Records (or overwrites) the answer and time for a question and returns immediate correctness feedback. Mastery records are not touched.
// @Tags         MockExams
// @Accept       json
// @Produce      json
// @Param        examID  path      string                       true  "Exam ID"
// @Param        body    body      SubmitMockExamAnswerRequest  true  "Answer"
// @Success      200     {object}  service.AnswerFeedback
// @Failure      400     {object}  map[string]string  "question not in exam"
// @Failure      404     {object}  map[string]string
// @Failure      409     {object}  map[string]string  "exam already completed"
// @Failure      500     {object}  map[string]string
// @Router       /mock-exams/{examID}/answers [post]
func (h *Handler) submitMockExamAnswer(w http.ResponseWriter, r *http.Request) {
	examID := r.PathValue("examID")

	var req SubmitMockExamAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.QuestionID == "" {
		respondError(w, http.StatusBadRequest, "validation_failure", "question_id is required")
		return
	}

	feedback, err := h.mockExam.SubmitAnswer(examID, req.QuestionID, req.Answer, req.TimeTakenSeconds)
	if h.handleServiceError(w, err, "exam") {
		return
	}

	respondJSON(w, http.StatusOK, feedback)
}

// completeMockExam grades the exam and returns the full result.
// @Summary      Complete a mock exam
// @Description  Grades every question (unanswered counts as incorrect), aggregates section, paper and overall results and marks the exam completed. Idempotent.
// @Tags         MockExams
// @Produce      json
// @Param        examID  path      string  true  "Exam ID"
// @Success      200     {object}  mockexam.Result
// @Failure      404     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /mock-exams/{examID}/complete [post]
func (h *Handler) completeMockExam(w http.ResponseWriter, r *http.Request) {
	examID := r.PathValue("examID")

	result, err := h.mockExam.CompleteExam(examID)
	if h.handleServiceError(w, err, "exam") {
		return
	}

	respondJSON(w, http.StatusOK, result)
}
