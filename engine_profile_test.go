package goAdmin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/MrEthical07/goAdmin/credential"
)

func profileFor(validToken string, user *credential.User) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			unauthorized("token expired")(w, r)
			return
		}
		writeEnvelope(w, http.StatusOK, 200, "success", user)
	}
}

func TestFetchProfileStoresUser(t *testing.T) {
	b := newFakeBackend(t)
	updated := &credential.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: "admin"}
	b.handle(http.MethodGet, "/admin/api/v1/profile", profileFor("t1", updated))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	user, err := te.FetchProfile(context.Background())
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if user.Email != "alice@example.com" || te.User().Email != "alice@example.com" {
		t.Fatalf("user = %+v", user)
	}
	raw, _ := te.store.Raw(credential.KeyUser)
	if raw == "" {
		t.Fatal("profile must be persisted")
	}
}

func TestFetchProfileRefreshesOnceAndRetries(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodGet, "/admin/api/v1/profile", profileFor("t2", adminUser))
	b.handle(http.MethodPost, "/auth/api/v1/refresh", loginOK("t2", "r2", adminUser))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	user, err := te.FetchProfile(context.Background())
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("user = %+v", user)
	}
	if n := b.count(http.MethodPost, "/auth/api/v1/refresh"); n != 1 {
		t.Fatalf("refresh calls = %d, want 1", n)
	}
	if n := b.count(http.MethodGet, "/admin/api/v1/profile"); n != 2 {
		t.Fatalf("profile calls = %d, want 2", n)
	}
	if te.State() != StateAuthenticated {
		t.Fatal("expected authenticated session")
	}
	if te.Metrics().Value(MetricProfileRetry) != 1 {
		t.Fatal("expected profile retry counter")
	}
}

func TestFetchProfileRefreshFailureExpires(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodGet, "/admin/api/v1/profile", unauthorized("token expired"))
	b.handle(http.MethodPost, "/auth/api/v1/refresh", unauthorized("refresh token expired"))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	_, err := te.FetchProfile(context.Background())
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if n := b.count(http.MethodGet, "/admin/api/v1/profile"); n != 1 {
		t.Fatalf("profile calls = %d, want 1", n)
	}
	te.assertAnonymous(t)
}

func TestFetchProfileWithoutRefreshTokenExpires(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodGet, "/admin/api/v1/profile", unauthorized("token expired"))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", User: adminUser})

	_, err := te.FetchProfile(context.Background())
	if !errors.Is(err, ErrAuthExpired) || !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrAuthExpired wrapping ErrNoRefreshToken, got %v", err)
	}
	if n := b.count(http.MethodPost, "/auth/api/v1/refresh"); n != 0 {
		t.Fatalf("refresh calls = %d, want 0", n)
	}
	te.assertAnonymous(t)
}

func TestFetchProfileSecondRejectionExpires(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodGet, "/admin/api/v1/profile", unauthorized("token expired"))
	b.handle(http.MethodPost, "/auth/api/v1/refresh", loginOK("t2", "r2", adminUser))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	_, err := te.FetchProfile(context.Background())
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if n := b.count(http.MethodPost, "/auth/api/v1/refresh"); n != 1 {
		t.Fatalf("refresh calls = %d, want 1", n)
	}
	if n := b.count(http.MethodGet, "/admin/api/v1/profile"); n != 2 {
		t.Fatalf("profile calls = %d, want 2", n)
	}
	te.assertAnonymous(t)
	if te.Metrics().Value(MetricAuthExpired) != 1 {
		t.Fatal("expected auth expired counter")
	}
}

func TestFetchProfileOtherErrorsLeaveSession(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusInternalServerError, 500, "database down", nil)
		},
		"empty payload": func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusOK, 200, "success", nil)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			b := newFakeBackend(t)
			b.handle(http.MethodGet, "/admin/api/v1/profile", h)
			te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

			_, err := te.FetchProfile(context.Background())
			if err == nil || errors.Is(err, ErrAuthExpired) {
				t.Fatalf("expected a non-expiry error, got %v", err)
			}
			if te.State() != StateAuthenticated {
				t.Fatal("session must survive non-auth failures")
			}
			if n := b.count(http.MethodPost, "/auth/api/v1/refresh"); n != 0 {
				t.Fatalf("refresh calls = %d, want 0", n)
			}
		})
	}
}

func TestFetchProfileEmitsExpiryAudit(t *testing.T) {
	b := newFakeBackend(t)
	b.handle(http.MethodGet, "/admin/api/v1/profile", unauthorized("token expired"))
	b.handle(http.MethodPost, "/auth/api/v1/refresh", unauthorized("refresh token expired"))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	if _, err := te.FetchProfile(context.Background()); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if ev := te.nextAudit(t); ev.EventType != AuditRefreshFailure || ev.Username != "alice" {
		t.Fatalf("first audit event = %+v", ev)
	}
	if ev := te.nextAudit(t); ev.EventType != AuditSessionExpired || ev.Success {
		t.Fatalf("second audit event = %+v", ev)
	}
}

func TestFetchProfileDiscardedAfterSessionChange(t *testing.T) {
	b := newFakeBackend(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	b.handle(http.MethodGet, "/admin/api/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		writeEnvelope(w, http.StatusOK, 200, "success", adminUser)
	})
	b.handle(http.MethodPost, "/auth/api/v1/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, 200, "success", nil)
	})
	b.handle(http.MethodPost, "/auth/api/v1/login", loginOK("t9", "r9", viewerUser))
	te := newTestEngine(t, b, credential.Record{AccessToken: "t1", RefreshToken: "r1", User: adminUser})

	done := make(chan error, 1)
	go func() {
		_, err := te.FetchProfile(context.Background())
		done <- err
	}()

	<-entered
	te.Logout(context.Background())
	if res := te.Login(context.Background(), "bob", "pw"); !res.Success {
		t.Fatalf("login: %+v", res)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("profile: %v", err)
	}

	if u := te.User(); u == nil || u.Username != "bob" {
		t.Fatalf("user = %+v, want bob", u)
	}
	if v, _ := te.store.Raw(credential.KeyToken); v != "t9" {
		t.Fatalf("stored token = %q", v)
	}
}
