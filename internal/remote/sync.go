package remote

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/neetmock/internal/model"
)

// DefaultSyncTimeout bounds one background submission.
const DefaultSyncTimeout = 20 * time.Second

// SyncStatus is the outcome of the most recent submission for the tracked session.
type SyncStatus string

const (
	SyncIdle    SyncStatus = ""
	SyncPending SyncStatus = "pending"
	SyncSaved   SyncStatus = "saved"
	SyncFailed  SyncStatus = "failed"
	SyncSkipped SyncStatus = "skipped"
)

// Submitter is the part of Client the syncer uses.
type Submitter interface {
	LoggedIn() bool
	SubmitTest(ctx context.Context, sub model.Submission) (*model.TestRecord, error)
}

// Syncer sends completed sessions without blocking the caller. Failures
// are logged and dropped.
type Syncer struct {
	client  Submitter
	timeout time.Duration

	mu      sync.Mutex
	tracked string
	status  SyncStatus
	wg      sync.WaitGroup
}

// NewSyncer creates a syncer. A zero timeout uses DefaultSyncTimeout.
func NewSyncer(client Submitter, timeout time.Duration) *Syncer {
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &Syncer{client: client, timeout: timeout}
}

// Track makes sessionID the session whose outcome LastStatus reports.
func (s *Syncer) Track(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = sessionID
	s.status = SyncIdle
}

// LastStatus returns the sync outcome for the tracked session.
func (s *Syncer) LastStatus() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Dispatch starts a background submission of res and returns at once.
// timeTaken is in seconds.
func (s *Syncer) Dispatch(res *model.ScoredResult, timeTaken int) {
	if res == nil {
		return
	}
	if !s.client.LoggedIn() {
		slog.Info("not logged in, result not synced", "session", res.SessionID)
		s.setStatus(res.SessionID, SyncSkipped)
		return
	}

	sub := BuildSubmission(res, timeTaken)
	s.setStatus(res.SessionID, SyncPending)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		rec, err := s.client.SubmitTest(ctx, sub)
		if err != nil {
			slog.Warn("failed to sync result", "session", res.SessionID, "error", err)
			s.setStatus(res.SessionID, SyncFailed)
			return
		}
		slog.Info("result synced", "session", res.SessionID, "id", rec.ID, "score", rec.Score)
		s.setStatus(res.SessionID, SyncSaved)
	}()
}

// Wait blocks until in-flight submissions finish or ctx ends.
func (s *Syncer) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// setStatus records status only while sessionID is still tracked, so a
// late response cannot overwrite a newer session's state.
func (s *Syncer) setStatus(sessionID string, status SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID != s.tracked {
		slog.Debug("ignoring sync status for stale session", "session", sessionID, "status", status)
		return
	}
	s.status = status
}

// BuildSubmission converts a result into the redacted form the service stores.
func BuildSubmission(res *model.ScoredResult, timeTaken int) model.Submission {
	qs := make([]model.SubmittedQuestion, 0, len(res.Questions))
	for _, o := range res.Questions {
		sq := model.SubmittedQuestion{
			Subject:      o.Question.Subject,
			Chapter:      o.Question.Chapter,
			CorrectIndex: o.Question.Correct,
			IsAttempted:  o.Attempted,
			IsCorrect:    o.Correct != nil && *o.Correct,
		}
		if o.Selected != nil {
			sel := *o.Selected
			sq.UserAnswer = &sel
		}
		qs = append(qs, sq)
	}
	return model.Submission{
		TestType:  res.Mode.TestType(),
		TimeTaken: timeTaken,
		Questions: qs,
	}
}
