package model

import "time"

// SubmittedQuestion is the redacted per-question outcome sent to the persistence service.
type SubmittedQuestion struct {
	Subject      string `json:"subject"`
	Chapter      string `json:"chapter"`
	UserAnswer   *int   `json:"userAnswer"`
	CorrectIndex int    `json:"correctIndex"`
	IsCorrect    bool   `json:"isCorrect"`
	IsAttempted  bool   `json:"isAttempted"`
}

// Submission is the body of POST /test/submit.
type Submission struct {
	TestType  string              `json:"testType"`
	TimeTaken int                 `json:"timeTaken"`
	Questions []SubmittedQuestion `json:"questions"`
}

// TestRecord is a stored submission as listed in the history.
type TestRecord struct {
	ID          int64               `json:"_id"`
	UserID      int64               `json:"userId"`
	TestType    string              `json:"testType"`
	TimeTaken   int                 `json:"timeTaken"`
	Total       int                 `json:"totalQuestions"`
	Correct     int                 `json:"correct"`
	Incorrect   int                 `json:"incorrect"`
	Unattempted int                 `json:"unattempted"`
	Score       int                 `json:"score"`
	MaxScore    int                 `json:"maxScore"`
	Percentage  float64             `json:"percentage"`
	Accuracy    float64             `json:"accuracy"`
	CreatedAt   time.Time           `json:"createdAt"`
	Questions   []SubmittedQuestion `json:"questions,omitempty"`
}

// Pagination describes one page of history.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// HistoryPage is the body of GET /test/history.
type HistoryPage struct {
	History    []TestRecord `json:"history"`
	Pagination Pagination   `json:"pagination"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string   `json:"token"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// ResultsExport is the top-level JSON structure for the export command.
type ResultsExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Results    []StudentResult `json:"results"`
}

// StudentResult holds one user's stored tests for export.
type StudentResult struct {
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Tests []TestRecord `json:"tests"`
}
