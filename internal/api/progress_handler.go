package api

import (
	"net/http"
	"strconv"

	"github.com/eleventutor/backend/internal/domain/question"
	"github.com/eleventutor/backend/internal/service"
)

type WeakAreasResponse struct {
	UserID    string             `json:"user_id"`
	WeakAreas []service.WeakArea `json:"weak_areas"`
}

type RecommendedDifficultyResponse struct {
	Subject      string `json:"subject"`
	QuestionType string `json:"question_type"`
	Level        int    `json:"level"`
}

// getProgressSummary returns the learner's full mastery picture.
// @Summary      Get progress summary
// @Description  Per-subject and per-type mastery, the weak-area ranking and up to five recommended next practice areas.
// @Tags         Progress
// @Produce      json
// @Param        userID  path      string  true  "User ID"
// @Success      200     {object}  service.Summary
// @Failure      500     {object}  map[string]string
// @Router       /users/{userID}/progress [get]
func (h *Handler) getProgressSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	summary, err := h.tracker.Summary(userID)
	if h.handleServiceError(w, err, "progress") {
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// getWeakAreas ranks the learner's practiced areas by mastery.
// @Summary      Get weak areas
// @Description  Practiced areas ranked ascending by mastery; never-attempted areas are excluded.
// @Tags         Progress
// @Produce      json
// @Param        userID  path      string  true   "User ID"
// @Param        limit   query     int     false  "Maximum entries (0 = all)"
// @Success      200     {object}  WeakAreasResponse
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /users/{userID}/progress/weak-areas [get]
func (h *Handler) getWeakAreas(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respondError(w, http.StatusBadRequest, "validation_failure", "limit must be a non-negative integer")
			return
		}
		limit = v
	}

	areas, err := h.tracker.WeakAreas(userID, limit)
	if h.handleServiceError(w, err, "progress") {
		return
	}

	respondJSON(w, http.StatusOK, WeakAreasResponse{UserID: userID, WeakAreas: areas})
}

// getRecommendedDifficulty returns the current level for one area.
// @Summary      Get recommended difficulty
// @Description  Returns the difficulty level (1-5) for a (subject, question type) pair; a never-practiced pair yields level 1.
// @Tags         Progress
// @Produce      json
// @Param        userID         path      string  true  "User ID"
// @Param        subject        query     string  true  "Subject"
// @Param        question_type  query     string  true  "Question type"
// @Success      200            {object}  RecommendedDifficultyResponse
// @Failure      400            {object}  map[string]string
// @Failure      500            {object}  map[string]string
// @Router       /users/{userID}/progress/recommended-difficulty [get]
func (h *Handler) getRecommendedDifficulty(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	subject := r.URL.Query().Get("subject")
	qtype := r.URL.Query().Get("question_type")
	if subject == "" || qtype == "" {
		respondError(w, http.StatusBadRequest, "validation_failure", "subject and question_type are required")
		return
	}

	level, err := h.tracker.RecommendedDifficulty(userID, question.Subject(subject), question.Type(qtype))
	if h.handleServiceError(w, err, "progress") {
		return
	}

	respondJSON(w, http.StatusOK, RecommendedDifficultyResponse{
		Subject:      subject,
		QuestionType: qtype,
		Level:        level,
	})
}
