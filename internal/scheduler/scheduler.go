// Package scheduler runs named background jobs at fixed intervals. The cache
// uses it to refresh the leaderboard ahead of expiry and to sweep dead
// entries out of the in-process tier.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// PeriodicTask runs one job at a regular interval until stopped.
type PeriodicTask struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context)
	clock    clock.Clock
	logger   *zap.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a periodic task. The job receives a context that is cancelled
// when the task is stopped.
func New(name string, interval time.Duration, clk clock.Clock, logger *zap.Logger, task func(ctx context.Context)) *PeriodicTask {
	return &PeriodicTask{
		name:     name,
		interval: interval,
		task:     task,
		clock:    clk,
		logger:   logger,
	}
}

// Start begins executing the job at the configured interval. The first run
// happens immediately so a cold process does not wait a full interval before
// warming the cache.
func (pt *PeriodicTask) Start() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	pt.cancel = cancel
	pt.running = true

	pt.logger.Info("Starting periodic task",
		zap.String("task", pt.name),
		zap.Duration("interval", pt.interval))

	pt.wg.Add(1)
	go func() {
		defer pt.wg.Done()

		pt.task(ctx)

		ticker := pt.clock.Ticker(pt.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pt.task(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the task and waits for an in-flight run to finish.
func (pt *PeriodicTask) Stop() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if !pt.running {
		return
	}

	pt.logger.Info("Stopping periodic task", zap.String("task", pt.name))
	pt.cancel()
	pt.wg.Wait()
	pt.running = false
}

// IsRunning reports whether the task loop is active.
func (pt *PeriodicTask) IsRunning() bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.running
}
