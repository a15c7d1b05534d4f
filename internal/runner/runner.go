// Package runner drives a test session and its review from a line-based
// terminal.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	appI18n "github.com/pavelanni/neetmock/internal/i18n"
	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/results"
	"github.com/pavelanni/neetmock/internal/session"
)

// Explainer produces an explanation for a question that has none stored.
type Explainer interface {
	Explain(ctx context.Context, q model.Question, selected *int) (string, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithExplainer enables generated explanations in review.
func WithExplainer(e Explainer) Option {
	return func(r *Runner) { r.explainer = e }
}

// WithExplainTimeout bounds each explanation request.
func WithExplainTimeout(d time.Duration) Option {
	return func(r *Runner) { r.explainTimeout = d }
}

// Runner reads commands from in and writes screens to out.
type Runner struct {
	in             io.Reader
	out            io.Writer
	explainer      Explainer
	explainTimeout time.Duration

	startOnce sync.Once
	lines     chan string
}

// New creates a runner.
func New(in io.Reader, out io.Writer, opts ...Option) *Runner {
	r := &Runner{in: in, out: out, explainTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// readLines starts the single goroutine that feeds input lines to every
// loop. The channel is closed at end of input.
func (r *Runner) readLines() <-chan string {
	r.startOnce.Do(func() {
		r.lines = make(chan string)
		go func() {
			defer close(r.lines)
			sc := bufio.NewScanner(r.in)
			for sc.Scan() {
				r.lines <- sc.Text()
			}
			if err := sc.Err(); err != nil {
				slog.Warn("input error", "error", err)
			}
		}()
	})
	return r.lines
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) println(s string) {
	fmt.Fprintln(r.out, s)
}

// Take runs the session until it completes and returns the result. The
// session is started if it has not been. End of input submits the test.
// Cancelling ctx disposes the session and returns ctx.Err().
func (r *Runner) Take(ctx context.Context, plan session.Plan, ctrl *session.Controller) (*model.ScoredResult, error) {
	r.header(ctx, plan)
	if ctrl.Status() == model.StatusInitializing {
		ctrl.Start(ctx)
	}
	r.render(ctx, ctrl)

	lines := r.readLines()
	confirming := false
	for {
		select {
		case <-ctx.Done():
			ctrl.Dispose()
			return nil, ctx.Err()
		case <-ctrl.Done():
			r.println(appI18n.T(ctx, "TimeUp"))
			return ctrl.Result(), nil
		case line, ok := <-lines:
			if !ok {
				res := ctrl.Submit()
				r.println(appI18n.T(ctx, "Submitted"))
				return res, nil
			}
			if confirming {
				confirming = false
				if isYes(line) {
					res := ctrl.Submit()
					r.println(appI18n.T(ctx, "Submitted"))
					return res, nil
				}
				r.render(ctx, ctrl)
				continue
			}
			confirming = r.command(ctx, ctrl, line)
		}
	}
}

// command applies one input line and reports whether a submit
// confirmation is now pending.
func (r *Runner) command(ctx context.Context, ctrl *session.Controller, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		r.render(ctx, ctrl)
		return false
	}

	cmd := fields[0]
	if ctrl.Status() == model.StatusPaused && cmd != "r" && cmd != "s" && cmd != "h" {
		r.println(appI18n.T(ctx, "PausedLocked"))
		return false
	}

	switch cmd {
	case "a", "b", "c", "d", "e", "f", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if !ctrl.Answer(optionIndex(cmd)) {
			r.println(appI18n.T(ctx, "NoSuchOption"))
			return false
		}
	case "x":
		ctrl.ClearAnswer()
	case "m":
		ctrl.ToggleMark()
	case "n":
		ctrl.Next()
	case "p":
		ctrl.Prev()
	case "g":
		if len(fields) < 2 {
			r.println(appI18n.T(ctx, "UnknownCommand"))
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || !ctrl.GoTo(n-1) {
			r.println(appI18n.T(ctx, "UnknownCommand"))
			return false
		}
	case "l":
		r.palette(ctx, ctrl.State())
		return false
	case "z":
		if ctrl.Pause() {
			r.println(appI18n.T(ctx, "Paused"))
		}
		return false
	case "r":
		if ctrl.Resume() {
			r.println(appI18n.T(ctx, "Resumed"))
		}
	case "s":
		st := ctrl.State()
		r.println(appI18n.Td(ctx, "ConfirmSubmit", map[string]any{
			"Answered": st.Answered, "Total": st.Total, "Marked": st.Marked,
		}))
		return true
	case "h", "?":
		r.println(appI18n.T(ctx, "HelpText"))
		return false
	default:
		r.println(appI18n.T(ctx, "UnknownCommand"))
		return false
	}
	r.render(ctx, ctrl)
	return false
}

// optionIndex maps a letter or digit command to a zero-based option.
// Letters stop at f because g and later are navigation commands.
func optionIndex(cmd string) int {
	if cmd[0] >= '1' && cmd[0] <= '9' {
		return int(cmd[0] - '1')
	}
	return int(cmd[0] - 'a')
}

func isYes(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (r *Runner) header(ctx context.Context, plan session.Plan) {
	r.println(appI18n.T(ctx, "AppTitle"))
	r.println(appI18n.Td(ctx, "SessionHeader", map[string]any{
		"Mode":    modeName(ctx, plan.Mode),
		"Count":   len(plan.Questions),
		"Minutes": plan.TimeBudget / 60,
	}))
	r.println(appI18n.T(ctx, "MarkingScheme"))
	for _, q := range session.NEETQuotas {
		missing, ok := plan.Shortfalls[q.SubjectKey]
		if !ok {
			continue
		}
		r.println(appI18n.Td(ctx, "ShortfallWarning", map[string]any{
			"Available": q.Target - missing, "Subject": q.SubjectKey, "Target": q.Target,
		}))
	}
	r.println(appI18n.T(ctx, "HelpText"))
}

func modeName(ctx context.Context, m model.TestMode) string {
	switch m {
	case model.ModeNEET:
		return appI18n.T(ctx, "ModeNEET")
	case model.ModeFull:
		return appI18n.T(ctx, "ModeFull")
	default:
		return appI18n.T(ctx, "ModeCustom")
	}
}

func (r *Runner) render(ctx context.Context, ctrl *session.Controller) {
	st := ctrl.State()
	if st.Total == 0 {
		return
	}
	q := st.Question

	r.println("")
	r.println(appI18n.Td(ctx, "TimeRemaining", map[string]any{"Time": FormatClock(st.Remaining)}))
	r.println(appI18n.Td(ctx, "QuestionHeader", map[string]any{
		"Number": st.Position + 1, "Total": st.Total, "Subject": q.Subject, "Chapter": q.Chapter,
	}))
	if q.Year > 0 {
		r.println(appI18n.Td(ctx, "YearTag", map[string]any{"Year": q.Year}))
	}
	if st.IsMarked {
		r.println(appI18n.T(ctx, "MarkedForReview"))
	}
	r.println(q.Text)
	for i, opt := range q.Options {
		marker := "  "
		if st.Selected != nil && *st.Selected == i {
			marker = "> "
		}
		r.printf("%s%s. %s\n", marker, results.OptionLabel(i), opt)
	}
	r.println(appI18n.Tp(ctx, "QuestionsAnswered", st.Answered))
}

func (r *Runner) palette(ctx context.Context, st session.Snapshot) {
	var b strings.Builder
	for i, p := range st.Palette {
		if i > 0 && i%10 == 0 {
			b.WriteString(" |")
		}
		fmt.Fprintf(&b, " %d%s", i+1, paletteGlyph(p))
	}
	r.println(appI18n.Td(ctx, "Palette", map[string]any{"Palette": b.String()}))
	r.println(appI18n.T(ctx, "PaletteLegend"))
}

func paletteGlyph(p model.PaletteStatus) string {
	switch p {
	case model.PaletteCurrent:
		return "*"
	case model.PaletteMarkedAnswered:
		return "B"
	case model.PaletteMarked:
		return "M"
	case model.PaletteAnswered:
		return "A"
	default:
		return "."
	}
}

// FormatClock renders seconds as H:MM:SS, or MM:SS under an hour.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
