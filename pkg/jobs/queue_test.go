package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 3)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.Len(t, seen, 3)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
}

func TestQueueReportsFullBuffer(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("busy", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Enqueue(Job{ID: "running"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "buffered"}))
	assert.Equal(t, 1, q.Pending())

	err := q.Enqueue(Job{ID: "overflow"})
	assert.True(t, errors.Is(err, ErrQueueFull))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	finished := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("transient")
		}
		close(finished)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueueStopCancelsHandlers(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	q := NewQueue("stop", func(ctx context.Context, job Job) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "long"}))
	<-started
	q.Stop()

	select {
	case <-cancelled:
	default:
		t.Fatal("handler context was not cancelled")
	}
}
