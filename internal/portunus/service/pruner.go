package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
)

const defaultPruneInterval = 6 * time.Hour

type PrunerConfig struct {
	// RetentionDays of telemetry to keep. 0 keeps everything.
	RetentionDays int
	// IntervalHours between passes. Defaults to 6.
	IntervalHours int
}

// RetentionStats describes what the pruner has done so far.
type RetentionStats struct {
	Enabled       bool
	RetentionDays int
	Passes        uint64
	Deleted       int64
	LastPass      time.Time
	LastDeleted   int64
	LastError     string
}

// TelemetryPruner drops telemetry samples that fell out of the retention
// window: once when started, then every interval.
type TelemetryPruner struct {
	store     store.TelemetryStore
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	stats RetentionStats

	cancel context.CancelFunc
	done   chan struct{}
}

func NewTelemetryPruner(s store.TelemetryStore, cfg PrunerConfig, logger *slog.Logger) *TelemetryPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = defaultPruneInterval
	}
	days := max(cfg.RetentionDays, 0)

	return &TelemetryPruner{
		store:     s,
		retention: time.Duration(days) * 24 * time.Hour,
		interval:  interval,
		logger:    logger.With("component", "pruner"),
		now:       time.Now,
		stats:     RetentionStats{Enabled: days > 0 && s != nil, RetentionDays: days},
		done:      make(chan struct{}),
	}
}

func (p *TelemetryPruner) Start(ctx context.Context) {
	if !p.stats.Enabled {
		p.logger.Info("telemetry retention off, samples are kept")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	go func() {
		defer close(p.done)

		timer := time.NewTimer(0)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				p.PruneNow(ctx)
				timer.Reset(p.interval)
			}
		}
	}()

	p.logger.Info("telemetry retention on", "days", p.stats.RetentionDays, "every", p.interval)
}

// Stop waits for a running pass to finish. Safe to call more than once.
func (p *TelemetryPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

// PruneNow runs one pass and returns how many samples it removed.
func (p *TelemetryPruner) PruneNow(ctx context.Context) int64 {
	at := p.now().UTC()
	cutoff := at.Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)

	p.mu.Lock()
	p.stats.Passes++
	p.stats.LastPass = at
	p.stats.LastDeleted = deleted
	p.stats.Deleted += deleted
	p.stats.LastError = ""
	if err != nil {
		p.stats.LastError = err.Error()
	}
	p.mu.Unlock()

	switch {
	case err != nil:
		p.logger.Error("telemetry prune failed", "err", err)
		return 0
	case deleted > 0:
		p.logger.Info("telemetry pruned", "deleted", deleted, "before", cutoff.Format(time.RFC3339))
	}
	return deleted
}

// Stats is safe to call from any goroutine.
func (p *TelemetryPruner) Stats() RetentionStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
