// Package lifecycle coordinates startup and shutdown of long-lived
// subsystems such as the database pool, blob storage and the HTTP listener.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrShutdownTimeout is returned when shutdown hooks outlive the deadline.
var ErrShutdownTimeout = errors.New("shutdown timeout")

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// Hook is a named unit of startup or shutdown work.
type Hook func(ctx context.Context) error

type named struct {
	name string
	fn   Hook
}

// Coordinator runs startup hooks as soon as they are registered and runs
// shutdown hooks, concurrently, once Shutdown is called.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	startup  sync.WaitGroup
	mu       sync.Mutex
	failures []error
	shutdown []named
	ready    atomic.Bool
	stopped  atomic.Bool
}

// New creates a Coordinator with a cancellable root context.
func New(logger *slog.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("system", "lifecycle"),
	}
}

// Context returns the root context, cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup starts fn in its own goroutine. A returned error is recorded
// under name and reported by WaitForStartup.
func (c *Coordinator) OnStartup(name string, fn Hook) {
	c.startup.Go(func() {
		start := time.Now()
		if err := fn(c.ctx); err != nil {
			c.logger.Error("startup hook failed", "hook", name, "error", err)
			c.mu.Lock()
			c.failures = append(c.failures, fmt.Errorf("%s: %w", name, err))
			c.mu.Unlock()
			return
		}
		c.logger.Debug("startup hook complete", "hook", name, "elapsed", time.Since(start))
	})
}

// OnShutdown registers fn to run during Shutdown. fn receives a context
// bounded by the shutdown timeout.
func (c *Coordinator) OnShutdown(name string, fn Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = append(c.shutdown, named{name: name, fn: fn})
}

// Ready reports whether WaitForStartup has returned.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForStartup blocks until every startup hook has returned, marks the
// coordinator ready and returns the joined hook failures.
func (c *Coordinator) WaitForStartup() error {
	c.startup.Wait()
	c.ready.Store(true)

	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.failures...)
}

// Shutdown cancels the root context and runs the shutdown hooks
// concurrently. It returns ErrShutdownTimeout if they have not finished
// within timeout, otherwise the joined hook errors. Later calls are no-ops.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	if !c.stopped.CompareAndSwap(false, true) {
		return nil
	}

	c.cancel()
	c.ready.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c.mu.Lock()
	hooks := c.shutdown
	c.mu.Unlock()

	errs := make([]error, len(hooks))
	var wg sync.WaitGroup
	for i, h := range hooks {
		wg.Go(func() {
			if err := h.fn(ctx); err != nil {
				c.logger.Error("shutdown hook failed", "hook", h.name, "error", err)
				errs[i] = fmt.Errorf("%s: %w", h.name, err)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return errors.Join(errs...)
	case <-ctx.Done():
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
