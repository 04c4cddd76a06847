package goAdmin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goAdmin/credential"
)

func TestRefreshWithoutTokenClearsWithoutNetwork(t *testing.T) {
	b := newFakeBackend(t)
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", User: adminUser})

	err := te.RefreshAccessToken(context.Background())
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}
	te.assertAnonymous(t)
	if n := b.count(http.MethodPost, "/auth/api/v1/refresh"); n != 0 {
		t.Fatalf("expected no refresh request, got %d", n)
	}
}

func TestRefreshSuccessRotatesTokens(t *testing.T) {
	b := newFakeBackend(t)
	renamed := &credential.User{ID: 1, Username: "alice", Email: "a@example.com", Role: "superadmin"}
	b.handle(http.MethodPost, "/auth/api/v1/refresh", loginOK("t2", "r2", renamed))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	if err := te.RefreshAccessToken(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := b.lastBody(http.MethodPost, "/auth/api/v1/refresh"); !strings.Contains(got, `"refresh_token":"r1"`) {
		t.Fatalf("refresh body = %s", got)
	}
	if v, _ := te.store.Raw(credential.KeyToken); v != "t2" {
		t.Fatalf("stored token = %q", v)
	}
	if v, _ := te.store.Raw(credential.KeyRefreshToken); v != "r2" {
		t.Fatalf("stored refresh token = %q", v)
	}
	if u := te.User(); u == nil || u.Role != "superadmin" {
		t.Fatalf("user = %+v", u)
	}
	if !te.HasPermission("superadmin") {
		t.Fatal("refreshed role must take effect")
	}
}

func TestRefreshKeepsUserWhenOmitted(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodPost, "/auth/api/v1/refresh", loginOK("t2", "r2", nil))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	if err := te.RefreshAccessToken(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if u := te.User(); u == nil || u.Username != "alice" {
		t.Fatalf("user = %+v", u)
	}
	if te.State() != StateAuthenticated {
		t.Fatal("expected authenticated session")
	}
}

func TestRefreshFailureClearsSession(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"rejected": unauthorized("refresh token expired"),
		"missing token": func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusOK, 200, "success", map[string]any{"refresh_token": "r2"})
		},
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			b := newFakeBackend(t)
			b.handle(http.MethodPost, "/auth/api/v1/refresh", h)
			te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

			err := te.RefreshAccessToken(context.Background())
			if !errors.Is(err, ErrRefreshFailed) {
				t.Fatalf("expected ErrRefreshFailed, got %v", err)
			}
			te.assertAnonymous(t)
			if te.Metrics().Value(MetricRefreshFailure) != 1 {
				t.Fatal("expected refresh failure counter")
			}
		})
	}
}

func TestConcurrentRefreshIsCoalesced(t *testing.T) {
	b := newFakeBackend(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	b.handle(http.MethodPost, "/auth/api/v1/refresh", func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		loginOK("t2", "r2", adminUser)(w, r)
	})
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	start := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- te.RefreshAccessToken(context.Background())
		}()
	}

	start()
	<-entered
	for i := 1; i < n; i++ {
		start()
	}
	// Followers join the in-flight refresh before it is released.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	if got := b.count(http.MethodPost, "/auth/api/v1/refresh"); got != 1 {
		t.Fatalf("expected one refresh request, got %d", got)
	}
	if v, _ := te.store.Raw(credential.KeyToken); v != "t2" {
		t.Fatalf("stored token = %q", v)
	}
	if te.Metrics().Value(MetricRefreshCoalesced) == 0 {
		t.Fatal("expected coalesced refresh counter")
	}
}

func TestUncoalescedRefreshKeepsSiblingSuccess(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodGet, "/admin/api/v1/profile", profileFor("t2", adminUser))

	var calls atomic.Int32
	arrived := make(chan struct{})
	b.handle(http.MethodPost, "/auth/api/v1/refresh", func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			<-arrived
			// The rejection below is handled before this rotation lands.
			time.Sleep(100 * time.Millisecond)
			loginOK("t2", "r2", adminUser)(w, r)
		default:
			close(arrived)
			unauthorized("refresh token revoked")(w, r)
		}
	})
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser}, func(c *Config) {
		c.Session.CoalesceRefresh = false
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := te.FetchProfile(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("refresh calls = %d, want 2", got)
	}
	if te.State() != StateAuthenticated {
		t.Fatalf("expected authenticated session, got %s", te.State())
	}
	if v, _ := te.store.Raw(credential.KeyToken); v != "t2" {
		t.Fatalf("stored token = %q", v)
	}
	if v, _ := te.store.Raw(credential.KeyRefreshToken); v != "r2" {
		t.Fatalf("stored refresh token = %q", v)
	}
}

func TestUncoalescedRefreshFailuresClearOnce(t *testing.T) {
	b := newFakeBackend(t)
	var calls atomic.Int32
	arrived := make(chan struct{})
	b.handle(http.MethodPost, "/auth/api/v1/refresh", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			close(arrived)
		}
		<-arrived
		unauthorized("refresh token revoked")(w, r)
	})
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser}, func(c *Config) {
		c.Session.CoalesceRefresh = false
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- te.RefreshAccessToken(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, ErrRefreshFailed) {
			t.Fatalf("expected ErrRefreshFailed, got %v", err)
		}
	}
	te.assertAnonymous(t)
}

func TestRefreshWaiterHonoursContext(t *testing.T) {
	b := newFakeBackend(t)
	release := make(chan struct{})
	b.handle(http.MethodPost, "/auth/api/v1/refresh", func(w http.ResponseWriter, r *http.Request) {
		<-release
		loginOK("t2", "r2", adminUser)(w, r)
	})
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := te.RefreshAccessToken(ctx)
	close(release)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestProactiveRefreshBeforeAdminCall(t *testing.T) {
	b := newFakeBackend(t)
	var order []string
	var mu sync.Mutex
	note := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}
	fresh := signedToken(t, time.Now().Add(time.Hour))
	b.handle(http.MethodPost, "/auth/api/v1/refresh", func(w http.ResponseWriter, r *http.Request) {
		note("refresh")
		loginOK(fresh, "r2", adminUser)(w, r)
	})
	var auth string
	b.handle(http.MethodGet, "/admin/api/v1/channels", func(w http.ResponseWriter, r *http.Request) {
		note("channels")
		auth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, 200, "success", []any{})
	})

	expiring := signedToken(t, time.Now().Add(30*time.Second))
	te := newTestEngine(t, b, credential.Record{AccessToken: expiring, RefreshToken: "r1", User: adminUser}, func(c *Config) {
		c.Session.RefreshWindow = time.Minute
	})

	if _, err := te.Admin().Channels(context.Background()); err != nil {
		t.Fatalf("channels: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, ",") != "refresh,channels" {
		t.Fatalf("call order = %v", order)
	}
	if auth != "Bearer "+fresh {
		t.Fatal("admin call must carry the refreshed token")
	}
	if te.Metrics().Value(MetricRefreshProactive) != 1 {
		t.Fatal("expected proactive refresh counter")
	}
}

func TestProactiveRefreshSkipsFreshAndOpaqueTokens(t *testing.T) {
	for name, token := range map[string]string{
		"fresh":  signedToken(t, time.Now().Add(time.Hour)),
		"opaque": "opaque-token",
	} {
		t.Run(name, func(t *testing.T) {
			b := newFakeBackend(t)
			b.handle(http.MethodGet, "/admin/api/v1/channels", func(w http.ResponseWriter, _ *http.Request) {
				writeEnvelope(w, http.StatusOK, 200, "success", []any{})
			})
			te := newTestEngine(t, b, credential.Record{AccessToken: token, RefreshToken: "r1", User: adminUser}, func(c *Config) {
				c.Session.RefreshWindow = time.Minute
			})

			if _, err := te.Admin().Channels(context.Background()); err != nil {
				t.Fatalf("channels: %v", err)
			}
			if n := b.count(http.MethodPost, "/auth/api/v1/refresh"); n != 0 {
				t.Fatalf("expected no refresh, got %d", n)
			}
		})
	}
}

func TestProactiveRefreshAppliesLeeway(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodGet, "/admin/api/v1/channels", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, 200, "success", []any{})
	})
	// Inside the window on its own, outside it once leeway is added.
	token := signedToken(t, time.Now().Add(50*time.Second))
	te := newTestEngine(t, b, credential.Record{AccessToken: token, RefreshToken: "r1", User: adminUser}, func(c *Config) {
		c.Session.RefreshWindow = time.Minute
		c.JWT.Leeway = 30 * time.Second
	})

	if te.AccessExpiresWithin(time.Minute) {
		t.Fatal("leeway must push expiry past the window")
	}
	if _, err := te.Admin().Channels(context.Background()); err != nil {
		t.Fatalf("channels: %v", err)
	}
	if n := b.count(http.MethodPost, "/auth/api/v1/refresh"); n != 0 {
		t.Fatalf("expected no refresh, got %d", n)
	}
}

func TestSnapshotDecodesExpiry(t *testing.T) {
	b := newFakeBackend(t)
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	te := newTestEngine(t, b, credential.Record{AccessToken: signedToken(t, exp), RefreshToken: "r1", User: adminUser})

	snap := te.Snapshot()
	if !snap.Authenticated() || !snap.HasRefreshToken {
		t.Fatalf("snapshot = %+v", snap)
	}
	if !snap.AccessExpiresAt.Equal(exp) {
		t.Fatalf("expiry = %v, want %v", snap.AccessExpiresAt, exp)
	}
	if !te.AccessExpiresWithin(time.Hour) || te.AccessExpiresWithin(time.Minute) {
		t.Fatal("unexpected expiry window result")
	}
}
