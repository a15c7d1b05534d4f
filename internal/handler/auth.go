package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/neetmock/internal/auth"
	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/store"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// requireAuth checks the bearer token and loads the user into the context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, r, http.StatusUnauthorized, "ErrNoToken")
			return
		}

		claims, err := h.auth.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			slog.Debug("rejected token", "error", err)
			writeError(w, r, http.StatusUnauthorized, "ErrBadToken")
			return
		}
		id, err := claims.UserID()
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "ErrBadToken")
			return
		}

		user, err := h.store.GetUserByID(id)
		if err != nil {
			slog.Error("failed to get user", "id", id, "error", err)
			writeError(w, r, http.StatusInternalServerError, "ErrServer")
			return
		}
		if user == nil {
			writeError(w, r, http.StatusUnauthorized, "ErrBadToken")
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeError(w, r, http.StatusUnauthorized, "ErrNoToken")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, http.StatusForbidden, "ErrForbidden")
		})
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := auth.ValidateRegistration(req.Name, req.Email, req.Password); err != nil {
		writeValidation(w, r, err)
		return
	}

	user, err := h.createUser(strings.TrimSpace(req.Name), req.Email, req.Password, model.UserRoleStudent)
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, r, http.StatusConflict, "ErrEmailTaken")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	h.writeToken(w, r, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := auth.ValidateLogin(req.Email, req.Password); err != nil {
		writeValidation(w, r, err)
		return
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	if user == nil {
		writeError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}
	h.writeToken(w, r, http.StatusOK, user)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}

func (h *Handler) createUser(name, email, password string, role model.UserRole) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		return nil, err
	}
	id, err := h.store.CreateUser(model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	return h.store.GetUserByID(id)
}

func (h *Handler) writeToken(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	token, err := h.auth.Issue(u)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrServer")
		return
	}
	writeJSON(w, status, model.AuthResponse{
		Token: token,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	})
}
