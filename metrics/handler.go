package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	queueSize   = 64
	idleTimeout = time.Second
)

// Sink persists closed slots.
type Sink interface {
	SaveSlots(ctx context.Context, slots []Slot) error
}

// Handler receives events on a buffered channel and aggregates them in its
// own goroutine. Closed slots go to the Sink when a slot ends or after a
// second without events.
type Handler struct {
	events chan Event
	agg    *Aggregator
	sink   Sink
	now    func() time.Time
	idle   time.Duration

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithClock replaces time.Now for event timestamps and flushes.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

// WithIdleFlush sets how long the handler waits for events before flushing.
func WithIdleFlush(d time.Duration) HandlerOption {
	return func(h *Handler) { h.idle = d }
}

// NewHandler starts a Handler writing slots of the given size to sink.
func NewHandler(sink Sink, slot time.Duration, opts ...HandlerOption) *Handler {
	h := &Handler{
		events: make(chan Event, queueSize),
		agg:    NewAggregator(slot),
		sink:   sink,
		now:    time.Now,
		idle:   idleTimeout,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	slog.Info("Starting metrics receiver", "slot", slot)
	go h.run()
	return h
}

// Sender returns the Emitter that feeds this handler.
func (h *Handler) Sender() Emitter { return h }

// Emit queues ev. When the queue is full the event is dropped.
func (h *Handler) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.events <- ev:
	default:
		h.dropped.Add(1)
		slog.Debug("Metrics queue full, dropping event", "api", ev.API, "name", ev.Name)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (h *Handler) Dropped() uint64 { return h.dropped.Load() }

// Close stops accepting events, flushes every open slot and waits for the
// last write.
func (h *Handler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		<-h.done
		return nil
	}
	h.closed = true
	close(h.events)
	h.mu.Unlock()
	<-h.done
	return nil
}

func (h *Handler) run() {
	defer close(h.done)
	timer := time.NewTimer(h.idle)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-h.events:
			if !ok {
				h.agg.FlushAll()
				h.store()
				slog.Info("Metrics receiver stopped")
				return
			}
			h.agg.Add(ev)
			h.store()
			timer.Reset(h.idle)
		case <-timer.C:
			h.agg.Flush(h.now())
			h.store()
			timer.Reset(h.idle)
		}
	}
}

func (h *Handler) store() {
	slots := h.agg.Take()
	if len(slots) == 0 || h.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.sink.SaveSlots(ctx, slots); err != nil {
		slog.Error("Error writing access metrics", "slots", len(slots), "error", err)
	}
}

// Multi fans an event out to every emitter.
func Multi(emitters ...Emitter) Emitter {
	return multi(emitters)
}

type multi []Emitter

func (m multi) Emit(ev Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(ev)
		}
	}
}
