package transport

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Severity of a notification.
type Severity uint8

const (
	// SeverityError is used for envelope failures.
	SeverityError Severity = iota
	// SeverityConnectivity is used for transport failures.
	SeverityConnectivity
)

func (s Severity) String() string {
	if s == SeverityConnectivity {
		return "connectivity"
	}
	return "error"
}

// Notifier surfaces transient, user-facing messages.
type Notifier interface {
	Notify(severity Severity, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(severity Severity, message string)

func (f NotifierFunc) Notify(severity Severity, message string) {
	f(severity, message)
}

// NoOpNotifier discards every message.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(Severity, string) {}

// ZapNotifier writes notifications to a zap logger at warn level.
type ZapNotifier struct {
	logger *zap.Logger
}

// NewZapNotifier returns a notifier logging through logger. A nil logger
// yields a no-op logger.
func NewZapNotifier(logger *zap.Logger) *ZapNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapNotifier{logger: logger.Named("notify")}
}

func (n *ZapNotifier) Notify(severity Severity, message string) {
	n.logger.Warn(message, zap.Stringer("severity", severity))
}

// WriterNotifier prints one line per notification. Used by the CLI.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(severity Severity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "[%s] %s\n", severity, message)
}

// RecordingNotifier keeps every notification in memory.
type RecordingNotifier struct {
	mu      sync.Mutex
	entries []Notification
}

// Notification is one recorded message.
type Notification struct {
	Severity Severity
	Message  string
}

func (n *RecordingNotifier) Notify(severity Severity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, Notification{Severity: severity, Message: message})
}

// Entries returns a copy of the recorded notifications.
func (n *RecordingNotifier) Entries() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.entries))
	copy(out, n.entries)
	return out
}
