// Package refresh executes expensive cache recomputations with single-flight
// deduplication per key. Concurrent stale readers of the same key share one
// in-flight computation; failures never evict last-known-good data.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-holder-cache/internal/cache"
	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/metrics"
	"go-holder-cache/internal/models"
)

// LoaderFunc recomputes a cache value. The context carries the per-resource
// attempt deadline. Retry and backoff against the upstream are the loader's
// own business; the coordinator only deduplicates and applies results.
type LoaderFunc func(ctx context.Context) ([]byte, error)

// TaskState is the lifecycle state of a refresh task.
type TaskState string

// Tasks go straight to running: the singleflight group starts the compute
// function as soon as the task is registered, so no scheduled-but-not-started
// state exists.
const (
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// Task records one refresh attempt for a key. Terminal tasks stay visible
// until the next attempt for the same key replaces them.
type Task struct {
	Key        string
	State      TaskState
	StartedAt  time.Time
	FinishedAt time.Time
}

// Spec describes one refresh: what to compute, where to store it, and which
// notifier scope to bump on success.
type Spec struct {
	Key         string
	Scope       string // "" => no notification
	TTL         models.TTL
	NegativeTTL time.Duration
	Timeout     time.Duration
	Loader      LoaderFunc
}

// Coordinator runs refreshes with at most one in-flight computation per key.
type Coordinator struct {
	store    interfaces.Store
	notifier interfaces.Notifier
	clock    clock.Clock
	logger   *zap.Logger

	group singleflight.Group

	mu    sync.Mutex
	tasks map[string]*Task
}

// NewCoordinator creates a refresh coordinator writing into store and
// notifying change scopes through notifier.
func NewCoordinator(store interfaces.Store, notifier interfaces.Notifier, clk clock.Clock, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
		tasks:    make(map[string]*Task),
	}
}

// Refresh recomputes the value for spec.Key, joining any computation already
// in flight for that key. The caller stops waiting when ctx expires, but an
// in-flight computation keeps running detached and its result is still
// applied to the store, so a late upstream answer is not wasted.
func (c *Coordinator) Refresh(ctx context.Context, spec Spec) ([]byte, error) {
	ns := cache.Namespace(spec.Key)
	ch := c.group.DoChan(spec.Key, func() (interface{}, error) {
		return c.execute(spec)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.RecordRefresh(ns, "shared")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Schedule starts a background refresh and returns immediately. Duplicate
// schedules for a key while one is running collapse into the running one.
func (c *Coordinator) Schedule(spec Spec) {
	go func() {
		if _, err := c.Refresh(context.Background(), spec); err != nil && !errors.Is(err, models.ErrNotFound) {
			c.logger.Debug("background refresh did not produce a new value",
				zap.String("key", spec.Key), zap.Error(err))
		}
	}()
}

// TaskFor returns a copy of the most recent task for key.
func (c *Coordinator) TaskFor(key string) (Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[key]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// execute runs exactly once per in-flight key, guarded by the singleflight
// group. The attempt deadline is detached from any caller context.
func (c *Coordinator) execute(spec Spec) ([]byte, error) {
	ns := cache.Namespace(spec.Key)
	task := c.beginTask(spec.Key)
	stop := metrics.TimeRefresh(ns)
	defer stop()

	attemptCtx, cancel := context.WithTimeout(context.Background(), spec.Timeout)
	defer cancel()

	data, err := spec.Loader(attemptCtx)
	now := c.clock.Now()

	switch {
	case errors.Is(err, models.ErrNotFound):
		// Valid negative result: cache it briefly so known-missing keys do
		// not hammer the upstream.
		c.store.Set(spec.Key, models.NewNegativeEntry(now, spec.NegativeTTL))
		c.finishTask(task, TaskSucceeded)
		metrics.RecordRefresh(ns, "not_found")
		return nil, models.ErrNotFound

	case err != nil:
		// Transient failure or timeout: the previously cached value, if any,
		// stays servable.
		c.finishTask(task, TaskFailed)
		metrics.RecordRefresh(ns, "failed")
		c.logger.Warn("Refresh failed, keeping last-known-good value",
			zap.String("key", spec.Key), zap.Error(err))
		return nil, err
	}

	c.store.Set(spec.Key, models.NewEntry(data, now, spec.TTL))
	if spec.Scope != "" {
		c.notifier.MarkUpdated(context.Background(), spec.Scope)
	}
	c.finishTask(task, TaskSucceeded)
	metrics.RecordRefresh(ns, "succeeded")
	return data, nil
}

func (c *Coordinator) beginTask(key string) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &Task{Key: key, State: TaskRunning, StartedAt: c.clock.Now()}
	c.tasks[key] = t
	return t
}

func (c *Coordinator) finishTask(t *Task, state TaskState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t.State = state
	t.FinishedAt = c.clock.Now()
}
