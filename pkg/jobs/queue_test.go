package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func blockingHandler(started chan<- struct{}, release <-chan struct{}, calls *int32) Handler {
	return func(ctx context.Context, job Job) error {
		if atomic.AddInt32(calls, 1) == 1 {
			close(started)
		}
		<-release
		return nil
	}
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "1", Type: "noop"})
	assert.Error(t, err)
}

func TestQueueCoalescesWaitingJobs(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	q := NewQueue("stats", blockingHandler(started, release, &calls), QueueConfig{Workers: 1, BufferSize: 4, Coalesce: true, Logger: zap.NewNop()})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "refresh"}))
	<-started

	require.NoError(t, q.Enqueue(Job{ID: "2", Type: "refresh"}))
	require.NoError(t, q.Enqueue(Job{ID: "3", Type: "refresh"}))
	assert.Equal(t, 1, q.Pending("refresh"))

	close(release)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, q.Pending("refresh"))
}

func TestQueueFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	q := NewQueue("full", blockingHandler(started, release, &calls), QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "a"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "2", Type: "a"}))

	err := q.Enqueue(Job{ID: "3", Type: "a"})
	assert.True(t, errors.Is(err, ErrQueueFull))
}

func TestQueueRetriesFailures(t *testing.T) {
	var calls int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "a"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
}

func TestQueueRecoversFromPanics(t *testing.T) {
	var calls int32
	q := NewQueue("panic", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		if job.ID == "boom" {
			panic("handler exploded")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: -1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "boom", Type: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "ok", Type: "b"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
}

func TestQueueStopRejectsNewJobs(t *testing.T) {
	q := NewQueue("stop", func(context.Context, Job) error { return nil }, QueueConfig{})
	q.Start(context.Background())
	q.Stop()

	assert.Error(t, q.Enqueue(Job{ID: "1", Type: "a"}))
	q.Stop()
}
