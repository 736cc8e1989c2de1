package service

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultCycleInterval is the polling period of the controller loop.
const DefaultCycleInterval = 50 * time.Millisecond

// Cycler is the per-cycle entry point driven by Loop.
type Cycler interface {
	Cycle(now time.Time)
}

// Loop calls Cycle on a fixed ticker from a single goroutine. Everything
// the cycler owns is only touched from that goroutine.
type Loop struct {
	cycler   Cycler
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	cancel  context.CancelFunc
	done    chan struct{}
	stopped sync.Once

	mu      sync.Mutex
	running bool
	onState func(running bool)
}

func NewLoop(c Cycler, interval time.Duration, logger *slog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultCycleInterval
	}
	return &Loop{
		cycler:   c,
		interval: interval,
		logger:   logger.With("component", "loop"),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// OnStateChange registers fn, called when the loop starts and when it exits.
// Must be set before Start.
func (l *Loop) OnStateChange(fn func(running bool)) { l.onState = fn }

// Start runs the first cycle immediately, then one per interval until ctx
// is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.setRunning(true)
	go l.run(ctx)
	l.logger.Info("controller loop started", "interval", l.interval)
}

// Stop ends the loop and waits for the cycle in progress to finish.
func (l *Loop) Stop() {
	l.stopped.Do(func() {
		if l.cancel == nil {
			close(l.done)
			return
		}
		l.cancel()
	})
	<-l.done
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context) {
	defer func() {
		l.setRunning(false)
		l.logger.Info("controller loop stopped")
		close(l.done)
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.step()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.step()
		}
	}
}

func (l *Loop) step() {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("cycle panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	l.cycler.Cycle(l.now())
}

func (l *Loop) setRunning(v bool) {
	l.mu.Lock()
	l.running = v
	fn := l.onState
	l.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}
