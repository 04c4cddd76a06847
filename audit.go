package goAdmin

import (
	"context"

	"github.com/MrEthical07/goAdmin/credential"
	"github.com/MrEthical07/goAdmin/internal/audit"
)

// AuditEvent is one session lifecycle record.
type AuditEvent = audit.Event

// AuditSink consumes audit events. Emit runs on the dispatcher goroutine.
type AuditSink = audit.Sink

type (
	NoOpSink        = audit.Discard
	ChannelSink     = audit.ChannelSink
	JSONWriterSink  = audit.JSONLines
	ZapSink         = audit.LogSink
	RedisStreamSink = audit.StreamSink
	TeeSink         = audit.Tee
)

var (
	NewChannelSink     = audit.NewChannelSink
	NewJSONWriterSink  = audit.NewJSONLines
	NewZapSink         = audit.NewLogSink
	NewRedisStreamSink = audit.NewStreamSink
)

// Audit event types.
const (
	AuditLoginSuccess          = "login_success"
	AuditLoginFailure          = "login_failure"
	AuditLogout                = "logout"
	AuditRefreshSuccess        = "refresh_success"
	AuditRefreshFailure        = "refresh_failure"
	AuditProfileFetched        = "profile_fetched"
	AuditSessionExpired        = "session_expired"
	AuditPasswordChangeSuccess = "password_change_success"
	AuditPasswordChangeFailure = "password_change_failure"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, user *credential.User, success bool, err error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	ev := AuditEvent{
		EventType: eventType,
		Success:   success,
		Metadata:  metadata,
	}
	if user != nil {
		ev.UserID = user.ID
		ev.Username = user.Username
		ev.Role = string(user.Role)
	}
	if err != nil {
		ev.Error = err.Error()
	}
	e.audit.Emit(ctx, ev)
}
