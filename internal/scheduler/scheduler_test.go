package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPeriodicTask_RunsImmediatelyAndOnInterval(t *testing.T) {
	mock := clock.NewMock()
	var runs int32
	task := New("test", time.Minute, mock, zap.NewNop(), func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	task.Start()
	defer task.Stop()

	// The first run happens on Start, before any tick.
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, 5*time.Millisecond)

	// Let the loop register its ticker before advancing the clock.
	time.Sleep(10 * time.Millisecond)
	mock.Add(time.Minute)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 2
	}, time.Second, 5*time.Millisecond)

	mock.Add(2 * time.Minute)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestPeriodicTask_StopCancelsContext(t *testing.T) {
	mock := clock.NewMock()
	cancelled := make(chan struct{})
	task := New("test", time.Minute, mock, zap.NewNop(), func(ctx context.Context) {
		go func() {
			<-ctx.Done()
			close(cancelled)
		}()
	})

	task.Start()
	assert.Eventually(t, func() bool { return task.IsRunning() }, time.Second, 5*time.Millisecond)

	task.Stop()
	assert.False(t, task.IsRunning())

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled on Stop")
	}
}

func TestPeriodicTask_StartIsIdempotent(t *testing.T) {
	mock := clock.NewMock()
	var runs int32
	task := New("test", time.Minute, mock, zap.NewNop(), func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	task.Start()
	task.Start()
	defer task.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, 5*time.Millisecond)

	// A second Start must not spawn a second loop.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestPeriodicTask_StopWithoutStart(t *testing.T) {
	task := New("test", time.Minute, clock.NewMock(), zap.NewNop(), func(ctx context.Context) {})

	// Must not panic or block.
	task.Stop()
	assert.False(t, task.IsRunning())
}
