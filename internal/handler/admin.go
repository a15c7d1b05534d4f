package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pavelanni/neetmock/internal/auth"
	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/report"
	"github.com/pavelanni/neetmock/internal/store"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		credentials
		Role model.UserRole `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := auth.ValidateRegistration(req.Name, req.Email, req.Password); err != nil {
		writeValidation(w, r, err)
		return
	}
	switch req.Role {
	case "":
		req.Role = model.UserRoleStudent
	case model.UserRoleStudent, model.UserRoleAdmin:
	default:
		writeValidation(w, r, &auth.ValidationError{Fields: []auth.FieldError{{Field: "role", Msg: "role must be student or admin"}}})
		return
	}

	user, err := h.createUser(strings.TrimSpace(req.Name), req.Email, req.Password, req.Role)
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, r, http.StatusConflict, "ErrEmailTaken")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ExportAllResults()
	if err != nil {
		slog.Error("failed to export results", "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	if results == nil {
		results = []model.StudentResult{}
	}
	export := model.ResultsExport{
		ExportedAt: time.Now().UTC(),
		Results:    results,
	}

	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="results.xlsx"`)
		if err := report.WriteXLSX(w, export); err != nil {
			slog.Error("failed to write excel export", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, export)
}
