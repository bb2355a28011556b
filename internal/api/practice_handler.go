package api

import (
	"net/http"

	"github.com/eleventutor/backend/internal/domain/practice"
	"github.com/eleventutor/backend/internal/domain/question"
	"github.com/eleventutor/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type StartSessionRequest struct {
	Subject          *string `json:"subject,omitempty"`
	QuestionType     *string `json:"question_type,omitempty"`
	NumQuestions     int     `json:"num_questions"`
	IsTimed          bool    `json:"is_timed"`
	TimeLimitMinutes *int    `json:"time_limit_minutes,omitempty"`
}

type SessionResponse struct {
	ID               string   `json:"id"`
	UserID           string   `json:"user_id"`
	Subject          *string  `json:"subject,omitempty"`
	QuestionType     *string  `json:"question_type,omitempty"`
	IsTimed          bool     `json:"is_timed"`
	TimeLimitMinutes *int     `json:"time_limit_minutes,omitempty"`
	QuestionIDs      []string `json:"question_ids"`
	StartedAt        string   `json:"started_at"`
	CompletedAt      *string  `json:"completed_at,omitempty"`
}

type AnswerResponse struct {
	QuestionID       string  `json:"question_id"`
	UserAnswer       string  `json:"user_answer"`
	IsCorrect        bool    `json:"is_correct"`
	TimeTakenSeconds int     `json:"time_taken_seconds"`
	HintsUsed        int     `json:"hints_used"`
	Score            float64 `json:"score"`
}

type GetSessionResponse struct {
	SessionResponse
	Answers []AnswerResponse `json:"answers"`
}

type SubmitPracticeAnswerRequest struct {
	QuestionID       string `json:"question_id"`
	Answer           string `json:"answer"`
	TimeTakenSeconds int    `json:"time_taken_seconds"`
	HintsUsed        int    `json:"hints_used"`
}

type NextQuestionResponse struct {
	QuestionID *string `json:"question_id"` // null once every question is answered
}

func sessionResponse(s *practice.Session) SessionResponse {
	resp := SessionResponse{
		ID:               s.ID,
		UserID:           s.UserID,
		IsTimed:          s.IsTimed,
		TimeLimitMinutes: s.TimeLimitMinutes,
		QuestionIDs:      s.QuestionIDs,
		StartedAt:        s.StartedAt.Format(timeLayout),
	}
	if s.Subject != nil {
		v := string(*s.Subject)
		resp.Subject = &v
	}
	if s.QuestionType != nil {
		v := string(*s.QuestionType)
		resp.QuestionType = &v
	}
	if s.CompletedAt != nil {
		v := s.CompletedAt.Format(timeLayout)
		resp.CompletedAt = &v
	}
	return resp
}

func answerResponse(a practice.Answer) AnswerResponse {
	return AnswerResponse{
		QuestionID:       a.QuestionID,
		UserAnswer:       a.UserAnswer,
		IsCorrect:        a.IsCorrect,
		TimeTakenSeconds: a.TimeTakenSeconds,
		HintsUsed:        a.HintsUsed,
		Score:            a.Score,
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// startPracticeSession opens a new adaptive practice session.
// @Summary      Start a practice session
// @Description  Samples a question sequence at the learner's recommended difficulty, widening the band until enough distinct questions are found.
// @Tags         Practice
// @Accept       json
// @Produce      json
// @Param        userID  path      string               true  "User ID"
// @Param        body    body      StartSessionRequest  true  "Session options"
// @Success      201     {object}  SessionResponse
// @Failure      400     {object}  map[string]string
// @Failure      409     {object}  map[string]string  "insufficient questions"
// @Failure      500     {object}  map[string]string
// @Router       /users/{userID}/practice/sessions [post]
func (h *Handler) startPracticeSession(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	opts := service.StartOptions{
		NumQuestions:     req.NumQuestions,
		IsTimed:          req.IsTimed,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	if opts.NumQuestions <= 0 {
		opts.NumQuestions = h.defaultSessionLength
	}
	if req.Subject != nil {
		v := question.Subject(*req.Subject)
		opts.Subject = &v
	}
	if req.QuestionType != nil {
		v := question.Type(*req.QuestionType)
		opts.QuestionType = &v
	}

	session, err := h.practice.StartSession(userID, opts)
	if h.handleServiceError(w, err, "session") {
		return
	}

	respondJSON(w, http.StatusCreated, sessionResponse(session))
}

// getPracticeSession returns a session with its submitted answers.
// @Summary      Get a practice session
// @Description  Returns the session and its answers in submission order.
// @Tags         Practice
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  GetSessionResponse
// @Failure      404        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /practice/sessions/{sessionID} [get]
func (h *Handler) getPracticeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	session, answers, err := h.practice.GetSession(sessionID)
	if h.handleServiceError(w, err, "session") {
		return
	}

	resp := GetSessionResponse{
		SessionResponse: sessionResponse(session),
		Answers:         make([]AnswerResponse, len(answers)),
	}
	for i, a := range answers {
		resp.Answers[i] = answerResponse(a)
	}

	respondJSON(w, http.StatusOK, resp)
}

// nextPracticeQuestion returns the next unanswered question id.
// @Summary      Next question
// @Description  Returns the first unanswered question id in sequence order, or null once every question is answered.
// @Tags         Practice
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  NextQuestionResponse
// @Failure      404        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /practice/sessions/{sessionID}/next [get]
func (h *Handler) nextPracticeQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	questionID, err := h.practice.NextQuestion(sessionID)
	if h.handleServiceError(w, err, "session") {
		return
	}

	var resp NextQuestionResponse
	if questionID != "" {
		resp.QuestionID = &questionID
	}
	respondJSON(w, http.StatusOK, resp)
}

// submitPracticeAnswer grades one answer and updates mastery.
// @Summary      Submit a practice answer
// @Description  Grades the answer, stores it (resubmission overwrites) and feeds the outcome into the learner's mastery record.
// @Tags         Practice
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string                       true  "Session ID"
// @Param        body       body      SubmitPracticeAnswerRequest  true  "Answer"
// @Success      200        {object}  AnswerResponse
// @Failure      400        {object}  map[string]string  "question not in session"
// @Failure      404        {object}  map[string]string
// @Failure      409        {object}  map[string]string  "session already completed"
// @Failure      500        {object}  map[string]string
// @Router       /practice/sessions/{sessionID}/answers [post]
func (h *Handler) submitPracticeAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	var req SubmitPracticeAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.QuestionID == "" {
		respondError(w, http.StatusBadRequest, "validation_failure", "question_id is required")
		return
	}

	answer, err := h.practice.SubmitAnswer(sessionID, req.QuestionID, req.Answer, req.TimeTakenSeconds, req.HintsUsed)
	if h.handleServiceError(w, err, "session") {
		return
	}

	respondJSON(w, http.StatusOK, answerResponse(*answer))
}

// completePracticeSession closes the session and returns its result.
// @Summary      Complete a practice session
// @Description  Closes the session and returns its result; unanswered questions count as incorrect. Completing an already-closed session returns the stored result.
// @Tags         Practice
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  practice.Result
// @Failure      404        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /practice/sessions/{sessionID}/complete [post]
func (h *Handler) completePracticeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	result, err := h.practice.CompleteSession(sessionID)
	if h.handleServiceError(w, err, "session") {
		return
	}

	respondJSON(w, http.StatusOK, result)
}
