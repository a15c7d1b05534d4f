package session

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/neetmock/internal/model"
)

func testPlan(n, budget int) Plan {
	qs := make([]model.Question, n)
	for i := range qs {
		subject := "Physics"
		if i%2 == 1 {
			subject = "Biology"
		}
		qs[i] = model.Question{
			ID:      string(rune('a' + i)),
			Number:  i + 1,
			Subject: subject,
			Options: []string{"w", "x", "y", "z"},
			Correct: 0,
		}
	}
	return Plan{Mode: model.ModeCustom, Questions: qs, TimeBudget: budget}
}

func newManual(t *testing.T, n, budget int) *Controller {
	t.Helper()
	c := NewController(testPlan(n, budget), WithManualTicks())
	if !c.Start(context.Background()) {
		t.Fatal("Start returned false")
	}
	return c
}

func TestControllerStartsInitializing(t *testing.T) {
	c := NewController(testPlan(3, 60), WithManualTicks())
	if c.Status() != model.StatusInitializing {
		t.Fatalf("expected initializing, got %s", c.Status())
	}
	if c.Answer(0) || c.Tick() {
		t.Error("operations before Start should be ignored")
	}
	if res := c.Submit(); res != nil {
		t.Error("Submit before Start should return nil")
	}
	if !c.Start(context.Background()) {
		t.Fatal("Start failed")
	}
	if c.Start(context.Background()) {
		t.Error("second Start should be ignored")
	}
}

func TestControllerPauseFreezesTimerAndPaper(t *testing.T) {
	c := newManual(t, 3, 100)

	for range 10 {
		c.Tick()
	}
	if c.Remaining() != 90 {
		t.Fatalf("expected 90 remaining, got %d", c.Remaining())
	}

	if !c.Pause() {
		t.Fatal("Pause failed")
	}
	for range 30 {
		if c.Tick() {
			t.Fatal("tick applied while paused")
		}
	}
	if c.Remaining() != 90 {
		t.Errorf("timer moved while paused: %d", c.Remaining())
	}

	if c.Answer(1) || c.Next() || c.ToggleMark() || c.GoTo(2) || c.ClearAnswer() || c.Prev() {
		t.Error("paper operations should be ignored while paused")
	}
	if c.Pause() {
		t.Error("Pause while paused should be ignored")
	}

	if !c.Resume() {
		t.Fatal("Resume failed")
	}
	c.Tick()
	if c.Remaining() != 89 {
		t.Errorf("expected 89 remaining after resume, got %d", c.Remaining())
	}
	if c.Resume() {
		t.Error("Resume while active should be ignored")
	}
}

func TestControllerAnswerAndNavigate(t *testing.T) {
	c := newManual(t, 3, 100)

	if c.Prev() {
		t.Error("Prev at first question should be ignored")
	}
	if !c.Answer(2) || !c.Answer(0) {
		t.Fatal("Answer failed")
	}
	if c.Answer(4) || c.Answer(-1) {
		t.Error("out of range option should be ignored")
	}
	if s := c.State(); s.Selected == nil || *s.Selected != 0 {
		t.Errorf("expected selection 0, got %v", s.Selected)
	}

	if !c.Next() || !c.Next() {
		t.Fatal("Next failed")
	}
	if c.Next() {
		t.Error("Next at last question should be ignored")
	}
	if c.GoTo(3) || c.GoTo(-1) {
		t.Error("GoTo out of range should be ignored")
	}
	if !c.GoTo(1) {
		t.Fatal("GoTo failed")
	}
	if !c.ToggleMark() {
		t.Fatal("ToggleMark failed")
	}

	c.Answer(3)
	c.ClearAnswer()
	s := c.State()
	if s.Position != 1 || s.Selected != nil || !s.IsMarked {
		t.Errorf("unexpected state %+v", s)
	}
	want := []model.PaletteStatus{model.PaletteAnswered, model.PaletteCurrent, model.PaletteNotVisited}
	for i, p := range want {
		if s.Palette[i] != p {
			t.Errorf("palette[%d]: expected %s, got %s", i, p, s.Palette[i])
		}
	}

	c.Answer(1)
	c.GoTo(2)
	if p := c.State().Palette[1]; p != model.PaletteMarkedAnswered {
		t.Errorf("expected marked-answered, got %s", p)
	}
	c.GoTo(1)
	c.ClearAnswer()
	c.GoTo(0)
	if p := c.State().Palette[1]; p != model.PaletteMarked {
		t.Errorf("expected marked, got %s", p)
	}
}

func TestControllerAutoSubmitOnce(t *testing.T) {
	c := newManual(t, 2, 5)

	var mu sync.Mutex
	calls := 0
	c.OnComplete(func(*model.ScoredResult) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	c.Answer(0)
	for range 5 {
		c.Tick()
	}
	if c.Status() != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", c.Status())
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}

	first := c.Result()
	second := c.Submit()
	if first != second {
		t.Error("Submit after completion should return the cached result")
	}
	if c.Tick() {
		t.Error("tick applied after completion")
	}
	if calls != 1 {
		t.Errorf("expected completion hook once, got %d", calls)
	}
	if first.Summary.TimeSpent != 5 {
		t.Errorf("expected time spent 5, got %d", first.Summary.TimeSpent)
	}
	if first.Summary.Score != 4 || first.Summary.Unattempted != 1 {
		t.Errorf("unexpected summary %+v", first.Summary)
	}
}

func TestControllerConcurrentSubmit(t *testing.T) {
	c := newManual(t, 4, 50)
	c.Answer(0)

	calls := 0
	var mu sync.Mutex
	c.OnComplete(func(*model.ScoredResult) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	results := make([]*model.ScoredResult, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				results[i] = c.Submit()
			} else {
				c.Tick()
			}
		}()
	}
	wg.Wait()

	for i := 0; i < len(results); i += 2 {
		if results[i] == nil || results[i] != c.Result() {
			t.Fatalf("submit %d returned a different result", i)
		}
	}
	if calls != 1 {
		t.Errorf("expected one completion, got %d", calls)
	}
}

func TestControllerSubmitFromPaused(t *testing.T) {
	c := newManual(t, 2, 100)
	c.Answer(1)
	c.Tick()
	c.Pause()

	res := c.Submit()
	if res == nil {
		t.Fatal("Submit from paused returned nil")
	}
	if res.Summary.Incorrect != 1 || res.Summary.Score != -1 {
		t.Errorf("unexpected summary %+v", res.Summary)
	}
	if res.Summary.TimeSpent != 1 {
		t.Errorf("expected time spent 1, got %d", res.Summary.TimeSpent)
	}
	if res.SessionID != c.ID() || res.Budget != 100 {
		t.Errorf("result not stamped: %+v", res)
	}
}

func TestControllerMarkedCounted(t *testing.T) {
	c := newManual(t, 3, 100)
	c.ToggleMark()
	c.Next()
	c.ToggleMark()
	c.ToggleMark()
	c.Next()
	c.ToggleMark()

	res := c.Submit()
	if res.Summary.Marked != 2 {
		t.Errorf("expected 2 marked, got %d", res.Summary.Marked)
	}
}

func TestControllerDispose(t *testing.T) {
	c := newManual(t, 2, 100)
	c.Dispose()
	if c.Tick() || c.Answer(0) || c.Pause() {
		t.Error("operations after Dispose should be ignored")
	}
	if c.Submit() != nil {
		t.Error("Submit after Dispose should return nil")
	}

	select {
	case <-c.Stopped():
	default:
		t.Error("Stopped should be closed after Dispose")
	}
	select {
	case <-c.Done():
		t.Error("Done should stay open when the session never completed")
	default:
	}
	c.Dispose()
}

func TestControllerRepeatedAnswerKeepsState(t *testing.T) {
	c := newManual(t, 3, 100)
	c.Next()
	if !c.Answer(2) {
		t.Fatal("Answer failed")
	}
	c.ToggleMark()
	before := c.State()

	if !c.Answer(2) {
		t.Fatal("repeated Answer failed")
	}
	if after := c.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("state changed after repeating Answer:\nbefore %+v\nafter  %+v", before, after)
	}

	c.ClearAnswer()
	before = c.State()
	c.ClearAnswer()
	if after := c.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("state changed after repeating ClearAnswer:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestControllerTickerGoroutine(t *testing.T) {
	c := NewController(testPlan(1, 3), WithTickInterval(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not auto-submit")
	}
	res := c.Result()
	if res == nil || res.Summary.TimeSpent != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if c.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", c.Remaining())
	}
}
