package scoring

import (
	"reflect"
	"testing"

	"github.com/pavelanni/neetmock/internal/model"
)

func makeQuestions(subjects ...string) []model.Question {
	qs := make([]model.Question, len(subjects))
	for i, s := range subjects {
		qs[i] = model.Question{
			ID:      s + "-" + string(rune('a'+i)),
			Subject: s,
			Options: []string{"A", "B", "C", "D"},
			Correct: i % 4,
		}
	}
	return qs
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestScoreFifteenQuestions(t *testing.T) {
	qs := makeQuestions(repeat("Physics", 15)...)
	answers := make(map[int]int)
	for i, q := range qs {
		if i < 10 {
			answers[i] = q.Correct
		} else {
			answers[i] = (q.Correct + 1) % 4
		}
	}

	got := Score(qs, answers).Summary
	if got.Score != 35 {
		t.Errorf("score = %d, want 35", got.Score)
	}
	if got.MaxScore != 60 {
		t.Errorf("maxScore = %d, want 60", got.MaxScore)
	}
	if got.Percentage != 58.3 {
		t.Errorf("percentage = %v, want 58.3", got.Percentage)
	}
	if got.Accuracy != 66.7 {
		t.Errorf("accuracy = %v, want 66.7", got.Accuracy)
	}
	if got.Correct != 10 || got.Incorrect != 5 || got.Unattempted != 0 || got.Attempted != 15 {
		t.Errorf("unexpected counts: %+v", got)
	}
}

func TestScoreIdentity(t *testing.T) {
	qs := makeQuestions(repeat("Biology", 8)...)
	tests := []struct {
		name    string
		answers map[int]int
	}{
		{"none attempted", map[int]int{}},
		{"all correct", map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 0, 5: 1, 6: 2, 7: 3}},
		{"all wrong", map[int]int{0: 1, 1: 2, 2: 3, 3: 0, 4: 1, 5: 2, 6: 3, 7: 0}},
		{"mixed", map[int]int{0: 0, 2: 1, 5: 1, 7: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Score(qs, tt.answers).Summary
			if s.Score != s.Correct*4-s.Incorrect {
				t.Errorf("score %d != correct*4 - incorrect (%d, %d)", s.Score, s.Correct, s.Incorrect)
			}
			if s.MaxScore != len(qs)*4 {
				t.Errorf("maxScore = %d, want %d", s.MaxScore, len(qs)*4)
			}
			if s.Correct+s.Incorrect+s.Unattempted != s.Total {
				t.Errorf("counts do not add up: %+v", s)
			}
		})
	}
}

func TestScoreNegativeIsNotClipped(t *testing.T) {
	qs := makeQuestions(repeat("Chemistry", 6)...)
	answers := map[int]int{0: 0, 1: 0, 2: 0, 3: 1, 4: 1, 5: 0}
	s := Score(qs, answers).Summary
	if s.Correct != 1 || s.Incorrect != 5 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.Score != -1 {
		t.Errorf("score = %d, want -1", s.Score)
	}
	if s.Percentage != -4.2 {
		t.Errorf("percentage = %v, want -4.2", s.Percentage)
	}
}

func TestScoreUnattemptedDoesNotAffectScore(t *testing.T) {
	qs := makeQuestions(repeat("Physics", 4)...)
	a := Score(qs, map[int]int{0: 0}).Summary
	b := Score(append(qs, makeQuestions(repeat("Physics", 4)...)...), map[int]int{0: 0}).Summary
	if a.Score != b.Score {
		t.Errorf("unattempted questions changed score: %d vs %d", a.Score, b.Score)
	}
	if a.Accuracy != 100 || b.Accuracy != 100 {
		t.Errorf("accuracy should only count attempted questions: %v, %v", a.Accuracy, b.Accuracy)
	}
}

func TestScoreEmpty(t *testing.T) {
	s := Score(nil, nil).Summary
	if s != (model.Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestScoreIsPure(t *testing.T) {
	qs := makeQuestions("Physics", "Chemistry", "Biology", "Biology")
	answers := map[int]int{0: 0, 2: 3}
	first := Score(qs, answers)
	second := Score(qs, answers)
	if !reflect.DeepEqual(first, second) {
		t.Error("Score is not repeatable")
	}
	if len(answers) != 2 {
		t.Error("Score mutated the answer map")
	}
}

func TestScoreOutcomes(t *testing.T) {
	qs := makeQuestions("Physics", "Physics", "Physics")
	r := Score(qs, map[int]int{0: 0, 1: 3})

	if r.Questions[0].Position != 1 || r.Questions[2].Position != 3 {
		t.Error("positions should be 1-based and sequential")
	}
	if o := r.Questions[0]; !o.Attempted || o.Correct == nil || !*o.Correct || *o.Selected != 0 {
		t.Errorf("expected first outcome correct, got %+v", o)
	}
	if o := r.Questions[1]; !o.Attempted || o.Correct == nil || *o.Correct {
		t.Errorf("expected second outcome incorrect, got %+v", o)
	}
	if o := r.Questions[2]; o.Attempted || o.Correct != nil || o.Selected != nil {
		t.Errorf("expected third outcome unattempted, got %+v", o)
	}
}

func TestBySubject(t *testing.T) {
	qs := makeQuestions("Physics", "Chemistry", "Physics", "Biology")
	// Correct indexes are 0, 1, 2, 3.
	r := Score(qs, map[int]int{0: 0, 1: 0, 2: 2})

	if len(r.Subjects) != 3 {
		t.Fatalf("expected 3 subjects, got %d", len(r.Subjects))
	}
	want := []model.SubjectPerformance{
		{Subject: "Physics", Total: 2, Correct: 2, Score: 8, MaxScore: 8, Percentage: 100, Accuracy: 100},
		{Subject: "Chemistry", Total: 1, Incorrect: 1, Score: -1, MaxScore: 4, Percentage: -25, Accuracy: 0},
		{Subject: "Biology", Total: 1, Unattempted: 1, Score: 0, MaxScore: 4, Percentage: 0, Accuracy: 0},
	}
	if !reflect.DeepEqual(r.Subjects, want) {
		t.Errorf("BySubject =\n%+v\nwant\n%+v", r.Subjects, want)
	}
}

func TestTally(t *testing.T) {
	s := Tally([]model.SubmittedQuestion{
		{IsAttempted: true, IsCorrect: true},
		{IsAttempted: true, IsCorrect: false},
		{IsAttempted: false, IsCorrect: false},
	})
	if s.Correct != 1 || s.Incorrect != 1 || s.Unattempted != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Score != 3 || s.MaxScore != 12 || s.Percentage != 25 || s.Accuracy != 50 {
		t.Errorf("unexpected derived values: %+v", s)
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{95, "A+"}, {90, "A+"}, {85, "A"}, {72.5, "B+"}, {60, "B"},
		{50.1, "C"}, {40, "D"}, {39.9, "F"}, {-10, "F"},
	}
	for _, tt := range tests {
		if got := Grade(tt.pct).Grade; got != tt.want {
			t.Errorf("Grade(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestHistory(t *testing.T) {
	records := func(pcts ...float64) []model.TestRecord {
		out := make([]model.TestRecord, len(pcts))
		for i, p := range pcts {
			out[i] = model.TestRecord{Percentage: p}
		}
		return out
	}
	tests := []struct {
		name string
		page model.HistoryPage
		want HistoryStats
	}{
		{"empty", model.HistoryPage{}, HistoryStats{}},
		{
			"empty page with server total",
			model.HistoryPage{Pagination: model.Pagination{Page: 3, Pages: 2, Total: 12}},
			HistoryStats{Taken: 12},
		},
		{
			"single test",
			model.HistoryPage{History: records(58.3), Pagination: model.Pagination{Total: 1}},
			HistoryStats{Taken: 1, Average: 58.3, Best: 58.3},
		},
		{
			"average over loaded page only",
			model.HistoryPage{History: records(50, 75, 62.5), Pagination: model.Pagination{Total: 25}},
			HistoryStats{Taken: 25, Average: 62.5, Best: 75},
		},
		{
			"negative percentages",
			model.HistoryPage{History: records(-10, -4.4), Pagination: model.Pagination{Total: 2}},
			HistoryStats{Taken: 2, Average: -7.2, Best: -4.4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := History(tt.page); got != tt.want {
				t.Errorf("History() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
