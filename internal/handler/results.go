package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/neetmock/internal/auth"
	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/scoring"
)

var testTypes = map[string]bool{"neet": true, "full": true, "chapter": true}

func validateSubmission(sub model.Submission) error {
	v := &auth.ValidationError{}
	if !testTypes[sub.TestType] {
		v.Fields = append(v.Fields, auth.FieldError{Field: "testType", Msg: "testType must be neet, full or chapter"})
	}
	if sub.TimeTaken < 0 {
		v.Fields = append(v.Fields, auth.FieldError{Field: "timeTaken", Msg: "timeTaken must not be negative"})
	}
	if len(sub.Questions) == 0 {
		v.Fields = append(v.Fields, auth.FieldError{Field: "questions", Msg: "questions must not be empty"})
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

// handleSubmit stores a finished test. The tally is computed from the
// reported outcome flags; answers are not checked against a corpus.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var sub model.Submission
	if !decodeJSON(w, r, &sub) {
		return
	}
	if err := validateSubmission(sub); err != nil {
		writeValidation(w, r, err)
		return
	}

	rec, err := h.store.SaveTestResult(user.ID, sub, scoring.Tally(sub.Questions))
	if err != nil {
		slog.Error("failed to save test result", "user", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	slog.Info("saved test result", "user", user.ID, "result", rec.ID, "type", rec.TestType, "score", rec.Score)
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	hp, err := h.store.ListTestResults(user.ID, page, limit)
	if err != nil {
		slog.Error("failed to list history", "user", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	writeJSON(w, http.StatusOK, hp)
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "resultID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	rec, err := h.store.GetTestResult(id)
	if err != nil {
		slog.Error("failed to get test result", "result", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	if rec == nil || (rec.UserID != user.ID && user.Role != model.UserRoleAdmin) {
		writeError(w, r, http.StatusNotFound, "ErrNotFound")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
