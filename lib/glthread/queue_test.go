package glthread

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startQueue(t *testing.T) (*Queue, context.CancelFunc, chan error) {
	q := New()
	q.PollInterval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx, nil) }()
	t.Cleanup(cancel)
	return q, cancel, done
}

func TestPostRunsInOrder(t *testing.T) {
	q, _, _ := startQueue(t)

	var mu sync.Mutex
	var got []int
	for i := range 10 {
		q.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	require.NoError(t, q.Send(func() {}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestSendIsReentrant(t *testing.T) {
	if currentThreadID() < 0 {
		t.Skip("no thread ids on this platform")
	}
	q, _, _ := startQueue(t)

	inner := false
	err := q.Send(func() {
		assert.True(t, q.OnThread())
		assert.NoError(t, q.Send(func() { inner = true }))
	})
	require.NoError(t, err)
	assert.True(t, inner)
	assert.False(t, q.OnThread())
}

func TestPostFromQueueThread(t *testing.T) {
	q, _, _ := startQueue(t)

	ran := make(chan struct{})
	q.Post(func() {
		q.Post(func() { close(ran) })
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("nested post never ran")
	}
}

func TestSendAfterStop(t *testing.T) {
	q, cancel, done := startQueue(t)
	require.NoError(t, q.Send(func() {}))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.ErrorIs(t, q.Send(func() {}), ErrStopped)

	// posting to a stopped queue is a no-op
	q.Post(func() { t.Error("ran after stop") })
}

func TestPollIsCalled(t *testing.T) {
	q := New()
	q.PollInterval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	polled := make(chan struct{}, 1)
	go q.Run(ctx, func() {
		select {
		case polled <- struct{}{}:
		default:
		}
	})

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("poll never called")
	}
}
