package store

import (
	"fmt"

	"github.com/pavelanni/neetmock/internal/model"
)

// ExportAllResults builds export-ready results for every user, including
// per-question outcomes.
func (s *Store) ExportAllResults() ([]model.StudentResult, error) {
	users, err := s.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var results []model.StudentResult
	for _, u := range users {
		tests, err := s.userResults(u.ID)
		if err != nil {
			return nil, fmt.Errorf("results for user %d: %w", u.ID, err)
		}
		for i := range tests {
			tests[i].Questions, err = s.resultQuestions(tests[i].ID)
			if err != nil {
				return nil, fmt.Errorf("questions for result %d: %w", tests[i].ID, err)
			}
		}
		results = append(results, model.StudentResult{
			Name:  u.Name,
			Email: u.Email,
			Tests: tests,
		})
	}
	return results, nil
}

func (s *Store) userResults(userID int64) ([]model.TestRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+resultColumns+` FROM test_results WHERE user_id = $1 ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []model.TestRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
