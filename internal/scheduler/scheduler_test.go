package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	s := New(time.Second, discardLogger())
	err := s.Register("bad", "not-a-spec", func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-spec")
}

// Cron rounds "@every" delays below one second up to a second, so the
// trigger tests run at second granularity with deadlines well past the
// expected ticks. The wrapper's behavior is covered separately below
// without waiting on real triggers.
func TestScheduler_RunsRegisteredJob(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32

	s := New(time.Second, discardLogger())
	require.NoError(t, s.Register("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWrap_JobErrorDoesNotStopSchedule(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32

	s := New(time.Second, discardLogger())
	run := s.wrap("flaky", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient failure")
	})

	run()
	run()
	assert.Equal(t, int32(2), runs.Load())
}

func TestWrap_SkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	s := New(time.Minute, discardLogger())
	run := s.wrap("slow", func(ctx context.Context) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		run()
	}()

	// Trigger again while the first run is provably still inside the job.
	<-started
	run()
	assert.Equal(t, int32(1), runs.Load(), "overlapping trigger must be skipped")

	close(release)
	wg.Wait()

	// With the first run finished the job is schedulable again.
	run()
	assert.Equal(t, int32(2), runs.Load())
}

func TestWrap_RunTimeoutCancelsContext(t *testing.T) {
	t.Parallel()

	var got error

	s := New(20*time.Millisecond, discardLogger())
	run := s.wrap("hung", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			got = ctx.Err()
		case <-time.After(5 * time.Second):
		}
		return nil
	})

	run()
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}
