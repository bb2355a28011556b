package api

import (
	"net/http"

	"github.com/eleventutor/backend/internal/domain/question"
)

// QuestionResponse is a question payload as served to clients. The
// canonical answer never appears here; grading happens server-side.
type QuestionResponse struct {
	ID           string           `json:"id"`
	Subject      string           `json:"subject"`
	QuestionType string           `json:"question_type"`
	Format       string           `json:"format"`
	Difficulty   int              `json:"difficulty"`
	Content      question.Content `json:"content"`
	Hints        []question.Hint  `json:"hints,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
}

func questionResponse(q *question.Question) QuestionResponse {
	return QuestionResponse{
		ID:           q.ID,
		Subject:      string(q.Subject),
		QuestionType: string(q.QuestionType),
		Format:       q.Format,
		Difficulty:   q.Difficulty,
		Content:      q.Content,
		Hints:        q.Hints,
		Tags:         q.Tags,
	}
}

// getQuestion returns a question payload without its canonical answer.
// @Summary      Get a question
// @Description  Returns the presentable question payload; grading data stays server-side.
// @Tags         Questions
// @Produce      json
// @Param        questionID  path      string  true  "Question ID"
// @Success      200         {object}  QuestionResponse
// @Failure      404         {object}  map[string]string
// @Failure      500         {object}  map[string]string
// @Router       /questions/{questionID} [get]
func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("questionID")

	q, err := h.questions.GetQuestion(questionID)
	if h.handleServiceError(w, err, "question") {
		return
	}

	respondJSON(w, http.StatusOK, questionResponse(q))
}
