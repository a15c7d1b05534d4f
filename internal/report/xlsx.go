// Package report renders stored results for download.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/neetmock/internal/model"
)

const (
	resultsSheet  = "Results"
	subjectsSheet = "Subjects"
)

var resultHeaders = []string{
	"name", "email", "result_id", "test_type", "created_at", "time_taken",
	"total", "correct", "incorrect", "unattempted", "score", "max_score", "percentage", "accuracy",
}

var subjectHeaders = []string{"name", "email", "subject", "tests", "questions", "correct", "incorrect", "unattempted"}

// WriteXLSX writes one row per stored test and a per-student subject
// summary as an Excel workbook.
func WriteXLSX(w io.Writer, export model.ResultsExport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	writeRow(f, resultsSheet, 1, toAny(resultHeaders))

	row := 2
	for _, sr := range export.Results {
		for _, t := range sr.Tests {
			writeRow(f, resultsSheet, row, []any{
				sr.Name, sr.Email, t.ID, t.TestType, t.CreatedAt.Format("2006-01-02 15:04:05"), t.TimeTaken,
				t.Total, t.Correct, t.Incorrect, t.Unattempted, t.Score, t.MaxScore, t.Percentage, t.Accuracy,
			})
			row++
		}
	}
	_ = f.SetColWidth(resultsSheet, "A", "N", 16)

	if _, err := f.NewSheet(subjectsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	writeRow(f, subjectsSheet, 1, toAny(subjectHeaders))
	row = 2
	for _, sr := range export.Results {
		for _, st := range subjectTotals(sr.Tests) {
			writeRow(f, subjectsSheet, row, []any{
				sr.Name, sr.Email, st.subject, st.tests, st.questions, st.correct, st.incorrect, st.unattempted,
			})
			row++
		}
	}
	_ = f.SetColWidth(subjectsSheet, "A", "H", 16)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write excel: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

type subjectTotal struct {
	subject     string
	tests       int
	questions   int
	correct     int
	incorrect   int
	unattempted int
}

// subjectTotals aggregates per-question outcomes by subject, sorted by name.
func subjectTotals(tests []model.TestRecord) []subjectTotal {
	bySubject := make(map[string]*subjectTotal)
	seen := make(map[string]map[int64]bool)
	for _, t := range tests {
		for _, q := range t.Questions {
			st, ok := bySubject[q.Subject]
			if !ok {
				st = &subjectTotal{subject: q.Subject}
				bySubject[q.Subject] = st
				seen[q.Subject] = make(map[int64]bool)
			}
			if !seen[q.Subject][t.ID] {
				seen[q.Subject][t.ID] = true
				st.tests++
			}
			st.questions++
			switch {
			case !q.IsAttempted:
				st.unattempted++
			case q.IsCorrect:
				st.correct++
			default:
				st.incorrect++
			}
		}
	}

	out := make([]subjectTotal, 0, len(bySubject))
	for _, st := range bySubject {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].subject < out[j].subject })
	return out
}
