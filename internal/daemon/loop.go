package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventLoop runs posted tasks one at a time on a single goroutine.
// It stands in for the GTK main loop in headless mode and implements
// canvas.Scheduler.
type EventLoop struct {
	logger *slog.Logger
	tasks  chan func()

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewEventLoop creates an idle event loop.
func NewEventLoop(logger *slog.Logger) *EventLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLoop{
		logger: logger,
		tasks:  make(chan func(), 256),
		done:   make(chan struct{}),
	}
}

// Post queues fn to run on the loop goroutine. It reports false once the loop
// has stopped.
func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Dispatch queues fn without reporting the outcome.
func (l *EventLoop) Dispatch(fn func()) {
	if !l.Post(fn) {
		l.logger.Debug("event loop stopped, task dropped")
	}
}

// Schedule posts fn after d.
func (l *EventLoop) Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		l.Dispatch(fn)
	})
}

// Run executes tasks until ctx is cancelled.
func (l *EventLoop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.mu.Unlock()

	l.logger.Debug("event loop started")
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped")
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}
