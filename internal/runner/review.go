package runner

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	appI18n "github.com/pavelanni/neetmock/internal/i18n"
	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/results"
)

const previewRunes = 60

// Summary prints the score card for a result.
func (r *Runner) Summary(ctx context.Context, res *model.ScoredResult) {
	a := results.New(res)
	sum := a.Summary()
	g := a.Grade()

	r.println("")
	r.println(appI18n.T(ctx, "ResultsTitle"))
	r.println(appI18n.Td(ctx, "ScoreLine", map[string]any{
		"Score": sum.Score, "MaxScore": sum.MaxScore, "Percentage": sum.Percentage,
	}))
	r.println(appI18n.Td(ctx, "GradeLine", map[string]any{"Grade": g.Grade}) + "  " + g.Message)
	r.println(appI18n.Td(ctx, "BreakdownLine", map[string]any{
		"Correct": sum.Correct, "Plus": sum.Correct * 4, "Incorrect": sum.Incorrect, "Unattempted": sum.Unattempted,
	}))
	r.println(appI18n.Td(ctx, "AccuracyLine", map[string]any{
		"Accuracy": sum.Accuracy, "Time": FormatClock(sum.TimeSpent),
	}))
	for _, s := range a.Subjects() {
		r.println(appI18n.Td(ctx, "SubjectLine", map[string]any{
			"Subject": s.Subject, "Correct": s.Correct, "Total": s.Total, "Incorrect": s.Incorrect,
			"Score": s.Score, "MaxScore": s.MaxScore, "Percentage": s.Percentage,
		}))
	}
}

// Review lets the student browse the scored questions until q or end of
// input.
func (r *Runner) Review(ctx context.Context, res *model.ScoredResult) error {
	a := results.New(res)
	var f results.Filter

	r.println("")
	r.println(appI18n.T(ctx, "ReviewHelp"))
	r.list(ctx, a, f)

	lines := r.readLines()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			switch strings.ToLower(fields[0]) {
			case "q":
				return nil
			case "f":
				f.Subject = ""
				if len(fields) > 1 {
					f.Subject = strings.Join(fields[1:], " ")
				}
				r.list(ctx, a, f)
			case "i":
				f.IncorrectOnly = !f.IncorrectOnly
				r.list(ctx, a, f)
			case "e":
				n := 0
				if len(fields) > 1 {
					n, _ = strconv.Atoi(fields[1])
				}
				if !r.expand(ctx, a, res, n) {
					r.println(appI18n.T(ctx, "UnknownCommand"))
				}
			case "h", "?":
				r.println(appI18n.T(ctx, "ReviewHelp"))
			default:
				r.println(appI18n.T(ctx, "UnknownCommand"))
			}
		}
	}
}

func (r *Runner) list(ctx context.Context, a *results.Analyzer, f results.Filter) {
	shown := a.Filter(f)
	subject := f.Subject
	if subject == "" {
		subject = "all"
	}
	r.println(appI18n.Td(ctx, "FilterLine", map[string]any{
		"Shown": len(shown), "Total": a.Summary().Total, "Subject": subject, "IncorrectOnly": f.IncorrectOnly,
	}))
	if len(shown) == 0 {
		r.println(appI18n.T(ctx, "NoMatches"))
		return
	}
	for _, o := range shown {
		r.printf("%4d. %s [%s] %s\n", o.Position, outcomeGlyph(o), o.Question.Subject, preview(o.Question.Text))
	}
}

func outcomeGlyph(o model.QuestionOutcome) string {
	switch {
	case !o.Attempted:
		return "-"
	case o.Correct != nil && *o.Correct:
		return "+"
	default:
		return "x"
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

func (r *Runner) expand(ctx context.Context, a *results.Analyzer, res *model.ScoredResult, position int) bool {
	d, ok := a.Expand(position)
	if !ok {
		return false
	}

	r.println("")
	r.println(appI18n.Td(ctx, "QuestionHeader", map[string]any{
		"Number": d.Position, "Total": len(res.Questions), "Subject": d.Subject, "Chapter": d.Chapter,
	}))
	if d.Year > 0 {
		r.println(appI18n.Td(ctx, "YearTag", map[string]any{"Year": d.Year}))
	}
	r.println(d.Text)

	var correct, selected string
	for _, o := range d.Options {
		tag := ""
		switch {
		case o.Correct && o.Selected:
			tag = "  [+]"
		case o.Correct:
			tag = "  [correct]"
		case o.Selected:
			tag = "  [x]"
		}
		r.printf("  %s. %s%s\n", o.Label, o.Text, tag)
		if o.Correct {
			correct = o.Label
		}
		if o.Selected {
			selected = o.Label
		}
	}
	r.println(appI18n.Td(ctx, "CorrectAnswer", map[string]any{"Label": correct}))
	if d.Attempted {
		r.println(appI18n.Td(ctx, "YourAnswer", map[string]any{"Label": selected}))
	} else {
		r.println(appI18n.T(ctx, "NotAttempted"))
	}

	text := d.Explanation
	if text == "" && r.explainer != nil {
		o := res.Questions[position-1]
		ectx, cancel := context.WithTimeout(ctx, r.explainTimeout)
		generated, err := r.explainer.Explain(ectx, o.Question, o.Selected)
		cancel()
		if err != nil {
			slog.Warn("failed to generate explanation", "question", o.Question.ID, "error", err)
		}
		text = generated
	}
	if text == "" {
		r.println(appI18n.T(ctx, "ExplanationUnavailable"))
	} else {
		r.println(appI18n.Td(ctx, "Explanation", map[string]any{"Text": text}))
	}
	return true
}
