package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/scoring"
)

// Option configures a Controller.
type Option func(*Controller)

// WithManualTicks disables the countdown goroutine; the caller drives the
// timer with Tick.
func WithManualTicks() Option {
	return func(c *Controller) { c.manual = true }
}

// WithTickInterval sets the wall-clock length of one countdown step.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock overrides the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	ID        string
	Mode      model.TestMode
	Status    model.SessionStatus
	Position  int
	Total     int
	Remaining int
	Budget    int
	Answered  int
	Marked    int
	Question  model.Question
	Selected  *int
	IsMarked  bool
	Palette   []model.PaletteStatus
}

// Controller owns one test session and is its only writer. Operations
// that are not valid in the current state are ignored and report false.
type Controller struct {
	mu sync.Mutex

	id        uuid.UUID
	mode      model.TestMode
	questions []model.Question
	budget    int

	answers   map[int]int
	marked    map[int]bool
	current   int
	remaining int
	status    model.SessionStatus
	disposed  bool

	fired  bool
	result *model.ScoredResult

	manual   bool
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	stopped  chan struct{}
	hooks    []func(*model.ScoredResult)
	now      func() time.Time
}

// NewController creates a session in the Initializing state.
func NewController(plan Plan, opts ...Option) *Controller {
	c := &Controller{
		id:        uuid.New(),
		mode:      plan.Mode,
		questions: append([]model.Question(nil), plan.Questions...),
		budget:    plan.TimeBudget,
		answers:   make(map[int]int),
		marked:    make(map[int]bool),
		remaining: plan.TimeBudget,
		status:    model.StatusInitializing,
		interval:  time.Second,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session identity.
func (c *Controller) ID() string {
	return c.id.String()
}

// Done is closed when the session reaches Completed. Dispose does not
// close it; wait on Stopped as well when the session can be abandoned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Stopped is closed by the first Dispose.
func (c *Controller) Stopped() <-chan struct{} {
	return c.stopped
}

// OnComplete registers fn to run once, after the session completes.
// Hooks run outside the controller lock, in registration order.
func (c *Controller) OnComplete(fn func(*model.ScoredResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Start moves Initializing to Active and begins the countdown.
func (c *Controller) Start(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.status != model.StatusInitializing {
		return false
	}
	c.status = model.StatusActive
	if !c.manual {
		tctx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		go c.run(tctx)
	}
	slog.Info("session started", "session", c.id, "mode", c.mode, "questions", len(c.questions), "budget", c.budget)
	return true
}

func (c *Controller) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick performs one countdown step. While Active it removes one second
// and submits when the time runs out; in any other state it does nothing.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	if c.disposed || c.status != model.StatusActive {
		c.mu.Unlock()
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		c.mu.Unlock()
		return true
	}
	slog.Info("time is up, submitting", "session", c.id)
	res, fresh := c.submitLocked()
	hooks := c.hooks
	c.mu.Unlock()
	if fresh {
		runHooks(hooks, res)
	}
	return true
}

// Pause suspends the countdown and locks the question paper.
func (c *Controller) Pause() bool {
	return c.transition(model.StatusActive, model.StatusPaused)
}

// Resume restarts the countdown after Pause.
func (c *Controller) Resume() bool {
	return c.transition(model.StatusPaused, model.StatusActive)
}

func (c *Controller) transition(from, to model.SessionStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.status != from {
		return false
	}
	c.status = to
	slog.Debug("session state changed", "session", c.id, "from", from, "to", to, "remaining", c.remaining)
	return true
}

// Answer selects an option for the current question, replacing any
// previous selection.
func (c *Controller) Answer(option int) bool {
	return c.mutate(func() bool {
		if option < 0 || option >= len(c.questions[c.current].Options) {
			return false
		}
		c.answers[c.current] = option
		return true
	})
}

// ClearAnswer removes the selection for the current question.
func (c *Controller) ClearAnswer() bool {
	return c.mutate(func() bool {
		delete(c.answers, c.current)
		return true
	})
}

// ToggleMark flips the review mark on the current question.
func (c *Controller) ToggleMark() bool {
	return c.mutate(func() bool {
		if c.marked[c.current] {
			delete(c.marked, c.current)
		} else {
			c.marked[c.current] = true
		}
		return true
	})
}

// GoTo jumps to a zero-based position.
func (c *Controller) GoTo(position int) bool {
	return c.mutate(func() bool {
		if position < 0 || position >= len(c.questions) {
			return false
		}
		c.current = position
		return true
	})
}

// Next moves forward one question, stopping at the last one.
func (c *Controller) Next() bool {
	return c.mutate(func() bool {
		if c.current >= len(c.questions)-1 {
			return false
		}
		c.current++
		return true
	})
}

// Prev moves back one question, stopping at the first one.
func (c *Controller) Prev() bool {
	return c.mutate(func() bool {
		if c.current == 0 {
			return false
		}
		c.current--
		return true
	})
}

func (c *Controller) mutate(fn func() bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.status != model.StatusActive || len(c.questions) == 0 {
		return false
	}
	return fn()
}

// Submit scores the session. It is valid from Active or Paused; once the
// session is Completed it returns the cached result without rescoring.
// It returns nil if the session was never started or was disposed.
func (c *Controller) Submit() *model.ScoredResult {
	c.mu.Lock()
	switch {
	case c.status == model.StatusCompleted || c.fired:
		res := c.result
		c.mu.Unlock()
		return res
	case c.disposed || (c.status != model.StatusActive && c.status != model.StatusPaused):
		c.mu.Unlock()
		return nil
	}
	res, fresh := c.submitLocked()
	hooks := c.hooks
	c.mu.Unlock()
	if fresh {
		runHooks(hooks, res)
	}
	return res
}

// submitLocked scores at most once per session. Callers hold c.mu.
func (c *Controller) submitLocked() (*model.ScoredResult, bool) {
	if c.fired {
		return c.result, false
	}
	c.fired = true
	c.status = model.StatusSubmitting
	if c.cancel != nil {
		c.cancel()
	}

	answers := make(map[int]int, len(c.answers))
	for k, v := range c.answers {
		answers[k] = v
	}
	res := scoring.Score(c.questions, answers)
	res.SessionID = c.id.String()
	res.Mode = c.mode
	res.Budget = c.budget
	res.Summary.TimeSpent = c.budget - c.remaining
	res.Summary.Marked = len(c.marked)
	res.FinishedAt = c.now()

	c.result = &res
	c.status = model.StatusCompleted
	close(c.done)
	slog.Info("session completed", "session", c.id,
		"score", res.Summary.Score, "max_score", res.Summary.MaxScore, "time_spent", res.Summary.TimeSpent)
	return c.result, true
}

func runHooks(hooks []func(*model.ScoredResult), res *model.ScoredResult) {
	for _, fn := range hooks {
		fn(res)
	}
}

// Dispose stops the countdown and ignores every later operation. A
// completed result stays available through Result.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.disposed = true
	close(c.stopped)
}

// Result returns the scored result, or nil before completion.
func (c *Controller) Result() *model.ScoredResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Status returns the lifecycle state.
func (c *Controller) Status() model.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Remaining returns the seconds left on the countdown.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// State returns a snapshot for rendering the current question and the
// question palette.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		ID:        c.id.String(),
		Mode:      c.mode,
		Status:    c.status,
		Position:  c.current,
		Total:     len(c.questions),
		Remaining: c.remaining,
		Budget:    c.budget,
		Answered:  len(c.answers),
		Marked:    len(c.marked),
		IsMarked:  c.marked[c.current],
		Palette:   make([]model.PaletteStatus, len(c.questions)),
	}
	if len(c.questions) > 0 {
		s.Question = c.questions[c.current]
	}
	if sel, ok := c.answers[c.current]; ok {
		s.Selected = &sel
	}
	for i := range c.questions {
		s.Palette[i] = c.paletteLocked(i)
	}
	return s
}

func (c *Controller) paletteLocked(i int) model.PaletteStatus {
	_, answered := c.answers[i]
	marked := c.marked[i]
	switch {
	case i == c.current:
		return model.PaletteCurrent
	case marked && answered:
		return model.PaletteMarkedAnswered
	case marked:
		return model.PaletteMarked
	case answered:
		return model.PaletteAnswered
	default:
		return model.PaletteNotVisited
	}
}
