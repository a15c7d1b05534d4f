package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/neetmock/internal/corpus"
	appI18n "github.com/pavelanni/neetmock/internal/i18n"
	"github.com/pavelanni/neetmock/internal/llm"
	"github.com/pavelanni/neetmock/internal/llm/prompts"
	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/remote"
	"github.com/pavelanni/neetmock/internal/runner"
	"github.com/pavelanni/neetmock/internal/session"
)

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take a timed mock test in the terminal",
		Long: "Take a timed mock test in the terminal.\n\n" +
			"Modes: custom (selected chapters, see `neetmock corpus`), full (whole syllabus, up to 180 questions), " +
			"neet (45 physics, 45 chemistry, 90 biology in 3 hours).",
		RunE: runTake,
	}
	f := cmd.Flags()
	f.StringSliceP("questions", "q", []string{"questions"}, "Corpus files or directories (repeatable)")
	f.StringP("mode", "m", string(model.ModeNEET), "Test mode (custom, full, neet)")
	f.StringSliceP("chapters", "c", nil, "Chapter IDs for custom mode, e.g. physics_kinematics")
	f.Uint64("seed", 0, "Shuffle seed (0 = random)")
	f.Bool("review", true, "Browse the answers after the test")
	f.Bool("sync", true, "Save the result to the persistence service when logged in")
	f.Duration("sync-timeout", remote.DefaultSyncTimeout, "Time limit for saving the result")
	f.Bool("explain", false, "Generate missing explanations with an LLM during review")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("explain-style", string(prompts.StyleBrief), "Explanation style (brief, detailed, hint)")
	addClientFlags(cmd)
	return cmd
}

func runTake(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	c, err := corpus.Load(v.GetStringSlice("questions"))
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	var src rand.Source
	if seed := v.GetUint64("seed"); seed != 0 {
		src = rand.NewPCG(seed, seed)
	}
	cfg := model.TestConfig{
		Mode:     model.TestMode(strings.ToLower(v.GetString("mode"))),
		Chapters: v.GetStringSlice("chapters"),
	}
	plan, err := session.NewBuilder(c, src).Build(cfg)
	if err != nil {
		if errors.Is(err, session.ErrNoChapters) {
			return fmt.Errorf("%w: pass --chapters (list them with `neetmock corpus`)", err)
		}
		return fmt.Errorf("build test: %w", err)
	}

	ctx, stop := signal.NotifyContext(appI18n.WithLanguage(context.Background(), lang), os.Interrupt)
	defer stop()

	ctrl := session.NewController(plan)
	defer ctrl.Dispose()

	var syncer *remote.Syncer
	if v.GetBool("sync") {
		syncer, err = newSyncer(v)
		if err != nil {
			return err
		}
		syncer.Track(ctrl.ID())
		ctrl.OnComplete(func(res *model.ScoredResult) {
			syncer.Dispatch(res, res.Summary.TimeSpent)
		})
	}

	var opts []runner.Option
	if v.GetBool("explain") {
		explainer, err := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"), v.GetString("explain-style"))
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
		if err := explainer.Ping(ctx); err != nil {
			slog.Warn("LLM endpoint unavailable, explanations disabled", "url", v.GetString("llm-url"), "error", err)
		} else {
			opts = append(opts, runner.WithExplainer(explainer))
		}
	}

	r := runner.New(os.Stdin, os.Stdout, opts...)
	res, err := r.Take(ctx, plan, ctrl)
	if err != nil {
		return fmt.Errorf("test interrupted: %w", err)
	}
	r.Summary(ctx, res)

	if syncer != nil {
		waitCtx, cancel := context.WithTimeout(ctx, v.GetDuration("sync-timeout")+time.Second)
		syncer.Wait(waitCtx)
		cancel()
		printSyncStatus(ctx, syncer.LastStatus())
	}

	if !v.GetBool("review") {
		return nil
	}
	if err := r.Review(ctx, res); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newSyncer(v *viper.Viper) (*remote.Syncer, error) {
	client, _, err := newRemoteClient(v)
	if err != nil {
		return nil, err
	}
	return remote.NewSyncer(client, v.GetDuration("sync-timeout")), nil
}

func printSyncStatus(ctx context.Context, status remote.SyncStatus) {
	switch status {
	case remote.SyncSaved:
		fmt.Println(appI18n.T(ctx, "SyncSaved"))
	case remote.SyncSkipped:
		fmt.Println(appI18n.T(ctx, "SyncSkipped"))
	case remote.SyncFailed, remote.SyncPending:
		fmt.Println(appI18n.T(ctx, "SyncFailed"))
	}
}
