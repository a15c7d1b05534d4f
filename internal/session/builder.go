package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pavelanni/neetmock/internal/corpus"
	"github.com/pavelanni/neetmock/internal/model"
)

// Time budgets, in seconds.
const (
	CustomSecondsPerQuestion = 90
	FullSecondsPerQuestion   = 180
	MinimumBudget            = 1800
	NEETBudget               = 180 * 60

	// FullCap is the question limit for full and neet modes.
	FullCap = 180
)

// Quota is a per-subject target for stratified sampling.
type Quota struct {
	SubjectKey string
	Target     int
}

// NEETQuotas is the NEET paper pattern, in presentation order.
var NEETQuotas = []Quota{
	{SubjectKey: "physics", Target: 45},
	{SubjectKey: "chemistry", Target: 45},
	{SubjectKey: "biology", Target: 90},
}

// ErrNoChapters is returned for a custom test without selected chapters.
var ErrNoChapters = errors.New("no chapters selected")

// ConfigError reports a test configuration that cannot produce a session.
type ConfigError struct {
	Mode model.TestMode
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s test config: %v", e.Mode, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Plan is the output of Build: a fixed question sequence and its time budget.
type Plan struct {
	Mode       model.TestMode
	Questions  []model.Question
	TimeBudget int
	// Shortfalls maps subject keys to the number of questions missing
	// from their stratified target.
	Shortfalls map[string]int
}

// Builder assembles question sequences from a corpus.
type Builder struct {
	corpus *corpus.Corpus
	rng    *rand.Rand
	quotas []Quota
}

// NewBuilder creates a builder. A nil source gets a time-seeded PCG.
func NewBuilder(c *corpus.Corpus, src rand.Source) *Builder {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Builder{corpus: c, rng: rand.New(src), quotas: NEETQuotas}
}

// Build produces the question sequence and time budget for a config.
func (b *Builder) Build(cfg model.TestConfig) (Plan, error) {
	var plan Plan
	var err error
	switch cfg.Mode {
	case model.ModeCustom:
		plan, err = b.buildCustom(cfg.Chapters)
	case model.ModeFull:
		plan, err = b.buildFull()
	case model.ModeNEET:
		plan, err = b.buildNEET()
	default:
		return Plan{}, &ConfigError{Mode: cfg.Mode, Err: fmt.Errorf("unknown mode %q", cfg.Mode)}
	}
	if err != nil {
		return Plan{}, err
	}
	plan.Mode = cfg.Mode
	slog.Debug("built session plan", "mode", cfg.Mode, "questions", len(plan.Questions), "budget", plan.TimeBudget)
	return plan, nil
}

func (b *Builder) buildCustom(chapters []string) (Plan, error) {
	if len(chapters) == 0 {
		return Plan{}, &ConfigError{Mode: model.ModeCustom, Err: ErrNoChapters}
	}
	qs := b.corpus.QuestionsForChapters(chapters)
	if len(qs) == 0 {
		return Plan{}, &ConfigError{Mode: model.ModeCustom, Err: errors.New("selected chapters contain no questions")}
	}
	b.shuffle(qs)
	return Plan{Questions: number(qs), TimeBudget: max(len(qs)*CustomSecondsPerQuestion, MinimumBudget)}, nil
}

func (b *Builder) buildFull() (Plan, error) {
	qs := b.corpus.All()
	if len(qs) == 0 {
		return Plan{}, &ConfigError{Mode: model.ModeFull, Err: errors.New("corpus is empty")}
	}
	b.shuffle(qs)
	if len(qs) > FullCap {
		qs = qs[:FullCap]
	}
	return Plan{Questions: number(qs), TimeBudget: max(len(qs)*FullSecondsPerQuestion, MinimumBudget)}, nil
}

func (b *Builder) buildNEET() (Plan, error) {
	var qs []model.Question
	shortfalls := make(map[string]int)
	for _, quota := range b.quotas {
		pool := b.corpus.SubjectPool(quota.SubjectKey)
		b.shuffle(pool)
		if len(pool) < quota.Target {
			shortfalls[quota.SubjectKey] = quota.Target - len(pool)
			slog.Warn("subject pool below target, taking all available",
				"subject", quota.SubjectKey, "available", len(pool), "target", quota.Target)
		} else {
			pool = pool[:quota.Target]
		}
		qs = append(qs, pool...)
	}
	if len(qs) == 0 {
		return Plan{}, &ConfigError{Mode: model.ModeNEET, Err: errors.New("corpus has no questions for any subject")}
	}
	return Plan{Questions: number(qs), TimeBudget: NEETBudget, Shortfalls: shortfalls}, nil
}

// shuffle is a uniform Fisher-Yates permutation driven by the builder's source.
func (b *Builder) shuffle(qs []model.Question) {
	b.rng.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}

func number(qs []model.Question) []model.Question {
	for i := range qs {
		qs[i].Number = i + 1
	}
	return qs
}
