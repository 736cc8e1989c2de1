package service

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

const defaultRecorderQueue = 256

// Recorder persists access decisions and telemetry published on the bus.
// Writes happen on the recorder's own goroutine; when the queue is full the
// event is dropped so the polling loop never waits on storage.
type Recorder struct {
	events    store.AccessEventStore
	telemetry store.TelemetryStore
	logger    *slog.Logger

	queue   chan Event
	unsub   []func()
	cancel  context.CancelFunc
	done    chan struct{}
	stopped sync.Once

	mu      sync.Mutex
	dropped uint64
}

// NewRecorder subscribes to bus. Either store may be nil to skip that
// kind of record.
func NewRecorder(bus *EventBus, es store.AccessEventStore, ts store.TelemetryStore, queueSize int, logger *slog.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = defaultRecorderQueue
	}
	r := &Recorder{
		events:    es,
		telemetry: ts,
		logger:    logger.With("component", "recorder"),
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
	}
	if es != nil {
		r.unsub = append(r.unsub, bus.On(EventAccessDecision, r.enqueue))
	}
	if ts != nil {
		r.unsub = append(r.unsub, bus.On(EventTelemetry, r.enqueue))
	}
	return r
}

func (r *Recorder) enqueue(ev Event) {
	select {
	case r.queue <- ev:
	default:
		r.mu.Lock()
		r.dropped++
		n := r.dropped
		r.mu.Unlock()
		r.logger.Warn("recorder queue full, event dropped", "type", ev.Type, "dropped_total", n)
	}
}

// Start launches the writer goroutine.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.run(ctx)
}

// Stop unsubscribes, writes whatever is still queued and waits for the
// writer to exit.
func (r *Recorder) Stop() {
	r.stopped.Do(func() {
		for _, fn := range r.unsub {
			fn()
		}
		if r.cancel != nil {
			r.cancel()
			<-r.done
		}
	})
}

// Dropped reports how many events were lost to a full queue.
func (r *Recorder) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case ev := <-r.queue:
			r.write(ctx, ev)
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	// The run context is already cancelled; give the remaining writes a
	// short deadline of their own.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-r.queue:
			r.write(ctx, ev)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, ev Event) {
	switch data := ev.Data.(type) {
	case types.AccessDecision:
		if err := r.events.RecordEvent(ctx, AccessEventRecord(data)); err != nil {
			// A failed audit write never changes the decision already made.
			r.logger.Error("record access event", "decision", data.ID, "err", err)
		}
	case types.Telemetry:
		rec := store.TelemetryRecord{ReceivedAt: ev.At.UTC(), Sample: data}
		if err := r.telemetry.AppendTelemetry(ctx, rec); err != nil {
			r.logger.Error("record telemetry", "err", err)
		}
	}
}

// AccessEventRecord converts a decision into its audit form. The raw
// credential is replaced by its SHA-256.
func AccessEventRecord(d types.AccessDecision) store.AccessEventRecord {
	malformed := d.Reason == types.ReasonMalformedCard
	var sum [sha256.Size]byte
	if malformed {
		sum = sha256.Sum256(d.Raw)
	} else {
		sum = sha256.Sum256(d.Credential.Bytes())
	}
	return store.AccessEventRecord{
		DecisionID: d.ID,
		ModuleID:   d.ModuleID,
		CardIDHash: sum[:],
		Malformed:  malformed,
		Granted:    d.Granted,
		Reason:     d.Reason,
		DecidedAt:  d.Timestamp.UTC(),
	}
}
