package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is one session lifecycle record. Tokens and passwords never appear
// in an Event.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    uint64            `json:"user_id,omitempty"`
	Username  string            `json:"username,omitempty"`
	Role      string            `json:"role,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink consumes events. Emit is called from the dispatcher goroutine only.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}

// ChannelSink hands events to a reader through a buffered channel. Emit
// blocks while the buffer is full unless ctx ends first.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONLines writes each event as one JSON object followed by a newline.
type JSONLines struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w}
}

func (s *JSONLines) Emit(_ context.Context, event Event) {
	if s == nil || s.w == nil {
		return
	}
	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	_, _ = s.w.Write(line)
	s.mu.Unlock()
}

// Tee forwards every event to each sink in order.
type Tee []Sink

func (t Tee) Emit(ctx context.Context, event Event) {
	for _, s := range t {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}
