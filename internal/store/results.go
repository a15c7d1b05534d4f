package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/neetmock/internal/model"
)

// Default and maximum history page sizes.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

const resultColumns = `id, user_id, test_type, time_taken, total_questions, correct, incorrect,
	unattempted, score, max_score, percentage, accuracy, created_at`

// SaveTestResult stores a submission and its tally in one transaction.
func (s *Store) SaveTestResult(userID int64, sub model.Submission, sum model.Summary) (*model.TestRecord, error) {
	rec := &model.TestRecord{
		UserID:      userID,
		TestType:    sub.TestType,
		TimeTaken:   sub.TimeTaken,
		Total:       sum.Total,
		Correct:     sum.Correct,
		Incorrect:   sum.Incorrect,
		Unattempted: sum.Unattempted,
		Score:       sum.Score,
		MaxScore:    sum.MaxScore,
		Percentage:  sum.Percentage,
		Accuracy:    sum.Accuracy,
		CreatedAt:   time.Now().UTC(),
		Questions:   sub.Questions,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(
		`INSERT INTO test_results (user_id, test_type, time_taken, total_questions, correct, incorrect,
			unattempted, score, max_score, percentage, accuracy, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		rec.UserID, rec.TestType, rec.TimeTaken, rec.Total, rec.Correct, rec.Incorrect,
		rec.Unattempted, rec.Score, rec.MaxScore, rec.Percentage, rec.Accuracy, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("insert test result: %w", err)
	}

	for i, q := range sub.Questions {
		var answer sql.NullInt64
		if q.UserAnswer != nil {
			answer = sql.NullInt64{Int64: int64(*q.UserAnswer), Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO test_result_questions (result_id, position, subject, chapter, user_answer,
				correct_index, is_correct, is_attempted)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, i+1, q.Subject, q.Chapter, answer, q.CorrectIndex, q.IsCorrect, q.IsAttempted,
		)
		if err != nil {
			return nil, fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// ListTestResults returns one page of a user's results, newest first,
// without per-question detail. Page numbers start at 1.
func (s *Store) ListTestResults(userID int64, page, limit int) (model.HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM test_results WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return model.HistoryPage{}, fmt.Errorf("count results: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT `+resultColumns+` FROM test_results WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, (page-1)*limit,
	)
	if err != nil {
		return model.HistoryPage{}, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	history := []model.TestRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return model.HistoryPage{}, err
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return model.HistoryPage{}, err
	}

	return model.HistoryPage{
		History: history,
		Pagination: model.Pagination{
			Page:  page,
			Pages: (total + limit - 1) / limit,
			Total: total,
		},
	}, nil
}

// GetTestResult returns a stored result with its questions.
func (s *Store) GetTestResult(id int64) (*model.TestRecord, error) {
	row := s.db.QueryRow(`SELECT `+resultColumns+` FROM test_results WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Questions, err = s.resultQuestions(id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) resultQuestions(resultID int64) ([]model.SubmittedQuestion, error) {
	rows, err := s.db.Query(
		`SELECT subject, chapter, user_answer, correct_index, is_correct, is_attempted
		 FROM test_result_questions WHERE result_id = $1 ORDER BY position`, resultID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	var qs []model.SubmittedQuestion
	for rows.Next() {
		var q model.SubmittedQuestion
		var answer sql.NullInt64
		if err := rows.Scan(&q.Subject, &q.Chapter, &answer, &q.CorrectIndex, &q.IsCorrect, &q.IsAttempted); err != nil {
			return nil, err
		}
		if answer.Valid {
			a := int(answer.Int64)
			q.UserAnswer = &a
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (model.TestRecord, error) {
	var r model.TestRecord
	err := row.Scan(&r.ID, &r.UserID, &r.TestType, &r.TimeTaken, &r.Total, &r.Correct, &r.Incorrect,
		&r.Unattempted, &r.Score, &r.MaxScore, &r.Percentage, &r.Accuracy, &r.CreatedAt)
	return r, err
}
