// Package results is a read-only view over a completed session used by the
// review screen.
package results

import (
	"strings"

	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/scoring"
)

// Filter selects which outcomes to review. An empty Subject or "all"
// matches every subject; the comparison ignores case.
type Filter struct {
	Subject       string
	IncorrectOnly bool
}

// OptionView is one option of an expanded question.
type OptionView struct {
	Index    int
	Label    string
	Text     string
	Correct  bool
	Selected bool
}

// Detail is the expanded form of a single question.
type Detail struct {
	Position    int
	Subject     string
	Chapter     string
	Year        int
	Text        string
	Options     []OptionView
	Attempted   bool
	Correct     bool
	Explanation string
}

// Analyzer answers review queries about a scored result.
type Analyzer struct {
	result *model.ScoredResult
}

// New wraps a scored result. The result is not copied and must not be
// modified afterwards.
func New(result *model.ScoredResult) *Analyzer {
	return &Analyzer{result: result}
}

// Summary returns the overall summary.
func (a *Analyzer) Summary() model.Summary {
	return a.result.Summary
}

// Grade returns the letter grade for the overall percentage.
func (a *Analyzer) Grade() scoring.GradeInfo {
	return scoring.Grade(a.result.Summary.Percentage)
}

// Subjects returns per-subject performance in first-appearance order.
func (a *Analyzer) Subjects() []model.SubjectPerformance {
	return append([]model.SubjectPerformance(nil), a.result.Subjects...)
}

// SubjectNames lists the subjects present in the result.
func (a *Analyzer) SubjectNames() []string {
	names := make([]string, len(a.result.Subjects))
	for i, s := range a.result.Subjects {
		names[i] = s.Subject
	}
	return names
}

// Filter returns the outcomes matching f in session order. Positions are
// never renumbered.
func (a *Analyzer) Filter(f Filter) []model.QuestionOutcome {
	subject := strings.ToLower(strings.TrimSpace(f.Subject))
	var out []model.QuestionOutcome
	for _, o := range a.result.Questions {
		if subject != "" && subject != "all" && strings.ToLower(o.Question.Subject) != subject {
			continue
		}
		if f.IncorrectOnly && !isIncorrect(o) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func isIncorrect(o model.QuestionOutcome) bool {
	return o.Attempted && (o.Correct == nil || !*o.Correct)
}

// Expand returns the full view of the question at a one-based position.
func (a *Analyzer) Expand(position int) (Detail, bool) {
	if position < 1 || position > len(a.result.Questions) {
		return Detail{}, false
	}
	o := a.result.Questions[position-1]
	q := o.Question
	d := Detail{
		Position:    o.Position,
		Subject:     q.Subject,
		Chapter:     q.Chapter,
		Year:        q.Year,
		Text:        q.Text,
		Attempted:   o.Attempted,
		Correct:     o.Correct != nil && *o.Correct,
		Explanation: q.Explanation,
		Options:     make([]OptionView, len(q.Options)),
	}
	for i, text := range q.Options {
		d.Options[i] = OptionView{
			Index:    i,
			Label:    OptionLabel(i),
			Text:     text,
			Correct:  i == q.Correct,
			Selected: o.Selected != nil && *o.Selected == i,
		}
	}
	return d, true
}

// OptionLabel returns the letter shown next to an option index.
func OptionLabel(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}
