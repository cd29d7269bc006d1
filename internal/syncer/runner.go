// internal/syncer/runner.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	custom_errors "github-commit-sync/internal/errors"
)

// Job is one synchronization pass returning the number of inserted commits.
type Job interface {
	Run(ctx context.Context) (int, error)
}

// Result describes a finished run.
type Result struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Inserted   int       `json:"inserted"`
	Error      string    `json:"error,omitempty"`
}

// Runner makes sure only one run of a Job is in flight at a time within the
// process and remembers the outcome of the last one.
type Runner struct {
	job      Job
	logger   *slog.Logger
	interval time.Duration

	running sync.Mutex
	wg      sync.WaitGroup

	mu   sync.RWMutex
	last *Result
}

// NewRunner creates a new Runner instance.
func NewRunner(job Job, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{job: job, interval: interval, logger: logger}
}

// RunOnce runs the job and blocks until it finishes.
func (r *Runner) RunOnce(ctx context.Context) (Result, error) {
	if !r.running.TryLock() {
		return Result{}, custom_errors.ErrRunInProgress
	}
	defer r.running.Unlock()

	return r.run(ctx, uuid.NewString())
}

// Trigger starts a run in the background and returns its id.
func (r *Runner) Trigger(ctx context.Context) (string, error) {
	if !r.running.TryLock() {
		return "", custom_errors.ErrRunInProgress
	}

	runID := uuid.NewString()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Unlock()
		_, _ = r.run(ctx, runID)
	}()
	return runID, nil
}

// Wait blocks until every triggered run has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Start begins the periodic synchronization process.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Starting scheduler", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.scheduledRun(ctx) // Initial sync

	for {
		select {
		case <-ticker.C:
			r.scheduledRun(ctx)
		case <-ctx.Done():
			r.logger.Info("Scheduler shutting down", "reason", ctx.Err())
			return
		}
	}
}

func (r *Runner) scheduledRun(ctx context.Context) {
	_, err := r.RunOnce(ctx)
	if errors.Is(err, custom_errors.ErrRunInProgress) {
		r.logger.Warn("Skipping scheduled run, previous run still in progress")
	}
}

// LastResult returns the outcome of the most recent finished run.
func (r *Runner) LastResult() (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Result{}, false
	}
	return *r.last, true
}

func (r *Runner) run(ctx context.Context, runID string) (Result, error) {
	logger := r.logger.With("run_id", runID)
	logger.Info("Starting commits fetching and insertion job")

	res := Result{RunID: runID, StartedAt: time.Now().UTC()}
	inserted, err := r.job.Run(ctx)
	res.FinishedAt = time.Now().UTC()
	if err != nil {
		res.Error = err.Error()
		logger.Error("Failed to fetch and insert commits", "inserted", 0, "error", err)
	} else {
		res.Inserted = inserted
		logger.Info("Fetching and insertion succeeded", "inserted", inserted, "duration", res.FinishedAt.Sub(res.StartedAt).String())
	}

	r.mu.Lock()
	r.last = &res
	r.mu.Unlock()

	return res, err
}
