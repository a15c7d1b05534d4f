package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/neetmock/internal/model"
)

func testExport() model.ResultsExport {
	created := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	one := 1
	return model.ResultsExport{
		ExportedAt: created,
		Results: []model.StudentResult{
			{
				Name:  "Asha",
				Email: "asha@example.com",
				Tests: []model.TestRecord{
					{
						ID: 7, TestType: "neet", TimeTaken: 600, Total: 3, Correct: 1, Incorrect: 1, Unattempted: 1,
						Score: 3, MaxScore: 12, Percentage: 25, Accuracy: 50, CreatedAt: created,
						Questions: []model.SubmittedQuestion{
							{Subject: "Physics", Chapter: "Optics", UserAnswer: &one, CorrectIndex: 1, IsCorrect: true, IsAttempted: true},
							{Subject: "Physics", Chapter: "Optics", UserAnswer: &one, CorrectIndex: 2, IsAttempted: true},
							{Subject: "Biology", Chapter: "Cell", CorrectIndex: 0},
						},
					},
				},
			},
			{Name: "Ravi", Email: "ravi@example.com"},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, testExport()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(resultsSheet)
	if err != nil {
		t.Fatalf("results rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and 1 result row, got %d rows", len(rows))
	}
	if rows[0][0] != "name" || rows[1][0] != "Asha" || rows[1][3] != "neet" || rows[1][4] != "2026-03-01 10:30:00" {
		t.Errorf("unexpected result row %v", rows[1])
	}
	if rows[1][10] != "3" || rows[1][11] != "12" {
		t.Errorf("unexpected score columns %v", rows[1][10:12])
	}

	rows, err = f.GetRows(subjectsSheet)
	if err != nil {
		t.Fatalf("subject rows: %v", err)
	}
	want := [][]string{
		subjectHeaders,
		{"Asha", "asha@example.com", "Biology", "1", "1", "0", "0", "1"},
		{"Asha", "asha@example.com", "Physics", "1", "2", "1", "1", "0"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d subject rows, got %d", len(want), len(rows))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("subjects[%d][%d] = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, model.ResultsExport{}); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := f.GetSheetList(); len(got) != 2 || got[0] != resultsSheet {
		t.Errorf("unexpected sheets %v", got)
	}
}
