package store

import (
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/neetmock/internal/model"
)

const userColumns = `id, name, email, password_hash, role, created_at`

// CreateUser inserts a new user. Emails are stored lower-cased; a
// duplicate email returns ErrEmailTaken.
func (s *Store) CreateUser(u model.User) (int64, error) {
	email := normalizeEmail(u.Email)
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO users (name, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.Name, email, u.PasswordHash, u.Role, time.Now().UTC(),
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrEmailTaken
	}
	if err != nil {
		slog.Error("failed to create user", "email", email, "error", err)
		return 0, err
	}
	slog.Info("created user", "id", id, "email", email, "role", u.Role)
	return id, nil
}

// GetUserByEmail returns a user by email, or nil if none exists.
func (s *Store) GetUserByEmail(email string) (*model.User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email),
	))
}

// GetUserByID returns a user by ID, or nil if none exists.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
}

func (s *Store) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
