package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents an account on the persistence service.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Question is a single multiple-choice item from the corpus.
type Question struct {
	ID          string   `json:"id" yaml:"id"`
	Number      int      `json:"number,omitempty" yaml:"-"`
	Subject     string   `json:"subject" yaml:"-"`
	Chapter     string   `json:"chapter" yaml:"-"`
	ChapterID   string   `json:"chapterId" yaml:"-"`
	Text        string   `json:"question" yaml:"question"`
	Options     []string `json:"options" yaml:"options"`
	Correct     int      `json:"correct" yaml:"correct"`
	Year        int      `json:"year,omitempty" yaml:"year,omitempty"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Chapter groups questions within a subject.
type Chapter struct {
	ID         string     `json:"id" yaml:"-"`
	SubjectKey string     `json:"subjectKey" yaml:"-"`
	Name       string     `json:"name" yaml:"name"`
	Topics     []string   `json:"topics" yaml:"topics"`
	Questions  []Question `json:"questions" yaml:"questions"`
}

// Subject is the top level of the corpus hierarchy.
type Subject struct {
	Key      string              `json:"key" yaml:"key"`
	Name     string              `json:"name" yaml:"name"`
	Icon     string              `json:"icon" yaml:"icon"`
	Chapters map[string]*Chapter `json:"chapters" yaml:"chapters"`
}

// TestMode selects the sampling policy for a session.
type TestMode string

const (
	ModeCustom TestMode = "custom"
	ModeFull   TestMode = "full"
	ModeNEET   TestMode = "neet"
)

// TestType is the label the persistence service stores for a mode.
func (m TestMode) TestType() string {
	switch m {
	case ModeNEET:
		return "neet"
	case ModeFull:
		return "full"
	default:
		return "chapter"
	}
}

// TestConfig is chosen by the caller before a session is built.
type TestConfig struct {
	Mode     TestMode `json:"mode"`
	Chapters []string `json:"chapters"`
}

// SessionStatus represents the lifecycle state of a test session.
type SessionStatus string

const (
	StatusInitializing SessionStatus = "initializing"
	StatusActive       SessionStatus = "active"
	StatusPaused       SessionStatus = "paused"
	StatusSubmitting   SessionStatus = "submitting"
	StatusCompleted    SessionStatus = "completed"
)

// PaletteStatus is the navigator badge shown for a question position.
type PaletteStatus string

const (
	PaletteCurrent        PaletteStatus = "current"
	PaletteMarkedAnswered PaletteStatus = "marked-answered"
	PaletteMarked         PaletteStatus = "marked"
	PaletteAnswered       PaletteStatus = "answered"
	PaletteNotVisited     PaletteStatus = "not-visited"
)

// QuestionOutcome is the scored state of one position in a session.
type QuestionOutcome struct {
	Position  int      `json:"position"`
	Question  Question `json:"question"`
	Selected  *int     `json:"selected,omitempty"`
	Attempted bool     `json:"attempted"`
	Correct   *bool    `json:"correct,omitempty"`
}

// Summary aggregates a list of outcomes under the marking scheme.
type Summary struct {
	Total       int     `json:"total"`
	Attempted   int     `json:"attempted"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Unattempted int     `json:"unattempted"`
	Score       int     `json:"score"`
	MaxScore    int     `json:"maxScore"`
	Percentage  float64 `json:"percentage"`
	Accuracy    float64 `json:"accuracy"`
	TimeSpent   int     `json:"timeSpent"`
	Marked      int     `json:"marked"`
}

// SubjectPerformance is the per-subject slice of a Summary.
type SubjectPerformance struct {
	Subject     string  `json:"subject"`
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Unattempted int     `json:"unattempted"`
	Score       int     `json:"score"`
	MaxScore    int     `json:"maxScore"`
	Percentage  float64 `json:"percentage"`
	Accuracy    float64 `json:"accuracy"`
}

// ScoredResult is produced once when a session completes.
type ScoredResult struct {
	SessionID  string               `json:"sessionId"`
	Mode       TestMode             `json:"mode"`
	Questions  []QuestionOutcome    `json:"questions"`
	Summary    Summary              `json:"summary"`
	Subjects   []SubjectPerformance `json:"subjects"`
	Budget     int                  `json:"budget"`
	FinishedAt time.Time            `json:"finishedAt"`
}
