package goAdmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/goAdmin/credential"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func TestAuditDisabledByDefault(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodPost, "/auth/api/v1/login", loginOK("t1", "r1", adminUser))

	cfg := DefaultConfig()
	cfg.API.BaseURL = b.srv.URL
	sink := &countingSink{}
	engine, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if res := engine.Login(context.Background(), "alice", "pw"); !res.Success {
		t.Fatalf("login: %+v", res)
	}
	engine.Close()
	if n := sink.count.Load(); n != 0 {
		t.Fatalf("expected no audit events, got %d", n)
	}
}

func TestAuditJSONLinesForLifecycle(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodPost, "/auth/api/v1/login", loginOK("t1", "r1", adminUser))
	b.handle(http.MethodPost, "/auth/api/v1/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, 200, "success", nil)
	})

	cfg := DefaultConfig()
	cfg.API.BaseURL = b.srv.URL
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	var buf bytes.Buffer
	engine, err := New().
		WithConfig(cfg).
		WithStore(credential.NewMemoryStore()).
		WithAuditSink(NewJSONWriterSink(&buf)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := context.Background()
	engine.Login(ctx, "alice", "pw")
	engine.Logout(ctx)
	engine.Close()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d: %s", len(lines), buf.String())
	}
	want := []string{AuditLoginSuccess, AuditLogout}
	for i, line := range lines {
		var ev AuditEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if ev.EventType != want[i] {
			t.Fatalf("line %d type = %q, want %q", i, ev.EventType, want[i])
		}
		if ev.ID == "" || ev.Timestamp.IsZero() {
			t.Fatalf("line %d missing id or timestamp: %s", i, line)
		}
		if ev.UserID != 1 || ev.Role != "admin" {
			t.Fatalf("line %d user = %d role = %q", i, ev.UserID, ev.Role)
		}
	}
}

func TestAuditRedisSinkFromConfig(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodPost, "/auth/api/v1/login", loginOK("t1", "r1", adminUser))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := DefaultConfig()
	cfg.API.BaseURL = b.srv.URL
	cfg.Store.Backend = StoreRedis
	cfg.Store.RedisAddr = mr.Addr()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	cfg.Audit.Sink = AuditSinkRedis
	engine, err := New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if res := engine.Login(t.Context(), "alice", "pw"); !res.Success {
		t.Fatalf("login: %+v", res)
	}
	engine.Close()

	msgs, err := client.XRange(t.Context(), cfg.Audit.Stream, "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Values["event_type"] != AuditLoginSuccess {
		t.Fatalf("unexpected stream entries %+v", msgs)
	}
	if !mr.Exists("goadmin:token") {
		t.Fatal("expected the session to be stored in redis")
	}
	if err := client.Ping(t.Context()).Err(); err != nil {
		t.Fatalf("engine closed a client it did not create: %v", err)
	}
}

func TestAuditRedisSinkRequiresAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.Sink = AuditSinkRedis
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	cfg.Audit.Sink = "kafka"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown sink, got %v", err)
	}
}
