// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleventutor/backend/internal/service"
	"github.com/eleventutor/backend/internal/store"
)

// timeLayout is the wire format for every timestamp in API payloads.
const timeLayout = time.RFC3339

// Handler holds all dependencies needed by HTTP handlers.
// Instead of relying on package-level globals, every handler method
// receives its dependencies through this struct.
type Handler struct {
	questions store.QuestionRepository
	tracker   *service.ProgressTracker
	practice  *service.PracticeService
	mockExam  *service.MockExamService
	logger    *slog.Logger

	defaultSessionLength int
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(
	questions store.QuestionRepository,
	tracker *service.ProgressTracker,
	practiceSvc *service.PracticeService,
	mockExamSvc *service.MockExamService,
	defaultSessionLength int,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		questions:            questions,
		tracker:              tracker,
		practice:             practiceSvc,
		mockExam:             mockExamSvc,
		defaultSessionLength: defaultSessionLength,
		logger:               logger,
	}
}

// errorBody is the wire shape of every error response. Code is a stable,
// machine-readable reason so callers can tell "try a different id" from
// "try fewer questions".
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorBody{Error: message, Code: code})
}

// decodeJSON reads the request body into v, reporting a 400 on malformed
// input. Returns false if the caller should bail out.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failure", "invalid json")
		return false
	}
	return true
}

// handleServiceError maps domain errors onto the HTTP error taxonomy.
// Returns true if an error was handled (caller should return).
func (h *Handler) handleServiceError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", entity+" not found")
	case errors.Is(err, service.ErrSectionNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrSessionClosed), errors.Is(err, service.ErrExamCompleted):
		respondError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, service.ErrQuestionNotInSession), errors.Is(err, service.ErrInvalidExamNumber):
		respondError(w, http.StatusBadRequest, "validation_failure", err.Error())
	case errors.Is(err, service.ErrInsufficientQuestions):
		respondError(w, http.StatusConflict, "insufficient_questions", err.Error())
	default:
		h.logger.Error("internal error", "error", err, "entity", entity)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
	return true
}
