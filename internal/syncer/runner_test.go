// internal/syncer/runner_test.go
package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-commit-sync/internal/errors"
)

type jobFunc func(ctx context.Context) (int, error)

func (f jobFunc) Run(ctx context.Context) (int, error) { return f(ctx) }

func TestRunner_RunOnce(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("records the inserted count", func(t *testing.T) {
		r := NewRunner(jobFunc(func(context.Context) (int, error) { return 7, nil }), time.Hour, logger)

		_, ok := r.LastResult()
		assert.False(t, ok)

		res, err := r.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 7, res.Inserted)
		assert.NotEmpty(t, res.RunID)
		assert.Empty(t, res.Error)

		last, ok := r.LastResult()
		require.True(t, ok)
		assert.Equal(t, res, last)
	})

	t.Run("a failed run reports zero and the error", func(t *testing.T) {
		jobErr := errors.New("boom")
		r := NewRunner(jobFunc(func(context.Context) (int, error) { return 0, jobErr }), time.Hour, logger)

		res, err := r.RunOnce(context.Background())

		assert.ErrorIs(t, err, jobErr)
		assert.Equal(t, 0, res.Inserted)
		assert.Equal(t, "boom", res.Error)
	})
}

func TestRunner_Trigger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	release := make(chan struct{})
	started := make(chan struct{})

	r := NewRunner(jobFunc(func(context.Context) (int, error) {
		close(started)
		<-release
		return 3, nil
	}), time.Hour, logger)

	runID, err := r.Trigger(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	<-started

	_, err = r.Trigger(context.Background())
	assert.ErrorIs(t, err, custom_errors.ErrRunInProgress)
	_, err = r.RunOnce(context.Background())
	assert.ErrorIs(t, err, custom_errors.ErrRunInProgress)

	close(release)
	r.Wait()

	last, ok := r.LastResult()
	require.True(t, ok)
	assert.Equal(t, runID, last.RunID)
	assert.Equal(t, 3, last.Inserted)
}

func TestRunner_StartRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 1)

	r := NewRunner(jobFunc(func(context.Context) (int, error) {
		runs <- struct{}{}
		return 1, nil
	}), time.Hour, logger)

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	_, ok := r.LastResult()
	assert.True(t, ok)
}
