package goAdmin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAdmin/credential"
	"github.com/MrEthical07/goAdmin/transport"
	gojwt "github.com/golang-jwt/jwt/v5"
)

// fakeBackend serves /auth/api/v1 and /admin/api/v1 from per-route handlers
// and counts every hit.
type fakeBackend struct {
	srv *httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
	bodies map[string][]string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		routes: map[string]http.HandlerFunc{},
		hits:   map[string]int{},
		bodies: map[string][]string{},
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.hits[key]++
	b.bodies[key] = append(b.bodies[key], string(body))
	h := b.routes[key]
	b.mu.Unlock()

	if h == nil {
		writeEnvelope(w, http.StatusNotFound, 404, "not found", nil)
		return
	}
	h(w, r)
}

func (b *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

func (b *fakeBackend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

func (b *fakeBackend) lastBody(method, path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	bodies := b.bodies[method+" "+path]
	if len(bodies) == 0 {
		return ""
	}
	return bodies[len(bodies)-1]
}

func writeEnvelope(w http.ResponseWriter, status, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func credentials(token, refresh string, user *credential.User) map[string]any {
	out := map[string]any{"token": token, "refresh_token": refresh}
	if user != nil {
		out["user"] = user
	}
	return out
}

func loginOK(token, refresh string, user *credential.User) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, 200, "success", credentials(token, refresh, user))
	}
}

func unauthorized(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, 401, message, nil)
	}
}

var (
	adminUser      = &credential.User{ID: 1, Username: "alice", Role: "admin"}
	superAdminUser = &credential.User{ID: 2, Username: "root", Role: "superadmin"}
	viewerUser     = &credential.User{ID: 3, Username: "bob", Role: "viewer"}
)

type testEngine struct {
	*Engine
	store    *credential.MemoryStore
	notices  *transport.RecordingNotifier
	auditLog *ChannelSink
}

func newTestEngine(t *testing.T, b *fakeBackend, seed credential.Record, mutate ...func(*Config)) *testEngine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.API.BaseURL = b.srv.URL
	cfg.API.Timeout = 2 * time.Second
	cfg.Audit.Enabled = true
	for _, m := range mutate {
		m(&cfg)
	}

	store := credential.NewMemoryStore()
	if !seed.Empty() {
		if err := store.Save(t.Context(), seed); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	notices := &transport.RecordingNotifier{}
	sink := NewChannelSink(64)

	engine, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(notices).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return &testEngine{Engine: engine, store: store, notices: notices, auditLog: sink}
}

func (te *testEngine) assertAnonymous(t *testing.T) {
	t.Helper()
	if te.State() != StateAnonymous {
		t.Fatalf("expected anonymous session, got %s", te.State())
	}
	for _, k := range credential.Keys {
		if v, ok := te.store.Raw(k); ok {
			t.Fatalf("expected store key %q removed, found %q", k, v)
		}
	}
}

func (te *testEngine) nextAudit(t *testing.T) AuditEvent {
	t.Helper()
	select {
	case ev := <-te.auditLog.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

// signedToken mints an HS256 access token. The engine decodes it without
// verification.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := gojwt.MapClaims{
		"user_id":  1,
		"username": "alice",
		"role":     "admin",
		"type":     "access",
		"exp":      exp.Unix(),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}
