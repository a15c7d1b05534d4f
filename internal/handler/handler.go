// Package handler serves the results API that stores finished tests.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pavelanni/neetmock/internal/auth"
	appI18n "github.com/pavelanni/neetmock/internal/i18n"
	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/store"
)

// maxBodyBytes bounds request bodies; a 180-question submission is far
// smaller.
const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
	auth  *auth.Service
}

// New creates a new Handler.
func New(s *store.Store, a *auth.Service) *Handler {
	return &Handler{store: s, auth: a}
}

// Routes registers the API routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/auth/profile", h.handleProfile)
		r.Post("/test/submit", h.handleSubmit)
		r.Get("/test/history", h.handleHistory)
		r.Get("/test/{resultID}", h.handleGetResult)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/admin/users", h.handleListUsers)
			r.Post("/admin/users", h.handleCreateUser)
			r.Get("/admin/export", h.handleExport)
		})
	})
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Lang           string
	AllowedOrigins []string
}

// NewRouter builds the full HTTP stack with the API mounted under /api.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware(cfg.Lang))

	r.Get("/healthz", h.handleHealth)
	r.Route("/api", h.Routes)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		writeError(w, r, http.StatusServiceUnavailable, "ErrServer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Message   string            `json:"message"`
	Errors    []auth.FieldError `json:"errors,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError sends a localized error message.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, errorBody{
		Message:   appI18n.T(r.Context(), msgID),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeValidation(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{
		Message:   appI18n.T(r.Context(), "ErrValidation"),
		RequestID: middleware.GetReqID(r.Context()),
	}
	var ve *auth.ValidationError
	if errors.As(err, &ve) {
		body.Errors = ve.Fields
		if len(ve.Fields) > 0 {
			body.Message = ve.Fields[0].Msg
		}
	}
	writeJSON(w, http.StatusBadRequest, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Debug("bad request body", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return false
	}
	return true
}
