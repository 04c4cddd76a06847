package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LogSink writes events to a zap logger at info level, or warn for failed
// operations.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("audit")}
}

func (s *LogSink) Emit(_ context.Context, event Event) {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Time("at", event.Timestamp),
		zap.Bool("success", event.Success),
	}
	if event.Username != "" {
		fields = append(fields, zap.String("username", event.Username), zap.String("role", event.Role))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if event.Success {
		s.logger.Info(event.EventType, fields...)
		return
	}
	s.logger.Warn(event.EventType, fields...)
}

// StreamSink appends events to a Redis stream, trimmed to roughly MaxLen
// entries.
type StreamSink struct {
	client  redis.UniversalClient
	stream  string
	maxLen  int64
	timeout time.Duration
	failed  atomic.Uint64
}

// DefaultStreamMaxLen bounds the stream when no length is given.
const DefaultStreamMaxLen = 10000

func NewStreamSink(client redis.UniversalClient, stream string, maxLen int64) *StreamSink {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &StreamSink{
		client:  client,
		stream:  stream,
		maxLen:  maxLen,
		timeout: 2 * time.Second,
	}
}

func (s *StreamSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.client == nil {
		return
	}
	values := map[string]any{
		"id":         event.ID,
		"ts":         event.Timestamp.UTC().Format(time.RFC3339Nano),
		"event_type": event.EventType,
		"success":    strconv.FormatBool(event.Success),
	}
	if event.UserID != 0 {
		values["user_id"] = strconv.FormatUint(event.UserID, 10)
	}
	if event.Username != "" {
		values["username"] = event.Username
		values["role"] = event.Role
	}
	if event.Error != "" {
		values["error"] = event.Error
	}
	if len(event.Metadata) > 0 {
		if meta, err := json.Marshal(event.Metadata); err == nil {
			values["metadata"] = string(meta)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		s.failed.Add(1)
	}
}

// Failed counts events the stream rejected.
func (s *StreamSink) Failed() uint64 {
	if s == nil {
		return 0
	}
	return s.failed.Load()
}
