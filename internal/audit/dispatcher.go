package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events when the queue is full instead of waiting.
	DropIfFull bool
}

// Dispatcher queues events for a single relay goroutine. A nil Dispatcher
// discards everything.
type Dispatcher struct {
	sink  Sink
	block bool
	clock func() time.Time

	// mu orders sends against Close, which closes queue.
	mu     sync.RWMutex
	closed bool
	queue  chan Event
	idle   chan struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = Discard{}
	}
	d := &Dispatcher{
		sink:  sink,
		block: !cfg.DropIfFull,
		clock: time.Now,
		queue: make(chan Event, max(cfg.BufferSize, 1)),
		idle:  make(chan struct{}),
	}
	go d.relay()
	return d
}

func (d *Dispatcher) relay() {
	defer close(d.idle)
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
		d.delivered.Add(1)
	}
}

// Emit fills in a missing ID and timestamp and queues the event. A full
// queue drops the event, or waits for ctx when the dispatcher blocks.
// Events are ignored after Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.clock().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if !d.block {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close delivers what is queued and stops the relay. Safe to call twice.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.idle
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
