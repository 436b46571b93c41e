package daemon

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/leechbot/internal/logger"
)

func newTestDispatcher(t *testing.T) *dispatcher {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Console: true})
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return newDispatcher(log.GetZerolog())
}

func TestDispatcher_SerializesPerUser(t *testing.T) {
	p := newTestDispatcher(t)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		p.Submit(1, func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	p.Close()

	require.Len(t, order, 10)
	for i, got := range order {
		assert.Equal(t, i, got)
	}
}

func TestDispatcher_UsersRunConcurrently(t *testing.T) {
	p := newTestDispatcher(t)

	block := make(chan struct{})
	p.Submit(1, func() { <-block })

	done := make(chan struct{})
	p.Submit(2, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("user 2 was blocked behind user 1")
	}

	close(block)
	p.Close()
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	p := newTestDispatcher(t)

	var ran atomic.Bool
	p.Submit(1, func() { panic("boom") })
	p.Submit(1, func() { ran.Store(true) })
	p.Close()

	assert.True(t, ran.Load(), "worker should survive a panicking job")
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	p := newTestDispatcher(t)

	block := make(chan struct{})
	var executed atomic.Int64

	p.Submit(1, func() {
		executed.Add(1)
		<-block
	})
	// Wait for the worker to pick up the blocking job so the queue is empty.
	require.Eventually(t, func() bool { return executed.Load() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < queueDepth+5; i++ {
		p.Submit(1, func() { executed.Add(1) })
	}

	close(block)
	p.Close()

	// The blocking job plus a full queue; the overflow was dropped.
	assert.Equal(t, int64(1+queueDepth), executed.Load())
}

func TestDispatcher_SubmitAfterCloseIsIgnored(t *testing.T) {
	p := newTestDispatcher(t)
	p.Close()

	assert.NotPanics(t, func() {
		p.Submit(1, func() { t.Error("job ran after close") })
	})
}
