package goAdmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAdmin/credential"
	"go.uber.org/zap"
)

const refreshFlightKey = "refresh"

// errSessionReplaced is returned when the session changed while a refresh
// was in flight and no usable token is held any more.
var errSessionReplaced = errors.New("session replaced during refresh")

// RefreshAccessToken exchanges the refresh token for a new token pair and
// profile. Without a refresh token it clears the session and returns
// ErrNoRefreshToken without contacting the backend. Any other failure clears
// the session and returns an error wrapping ErrRefreshFailed.
//
// With Session.CoalesceRefresh set, concurrent callers share one request and
// one outcome. A caller whose ctx ends first stops waiting; the shared
// refresh still completes.
func (e *Engine) RefreshAccessToken(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if !e.config.Session.CoalesceRefresh {
		return e.refreshOnce(ctx)
	}

	ch := e.refresh.DoChan(refreshFlightKey, func() (any, error) {
		return nil, e.refreshOnce(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Shared {
			e.metricInc(MetricRefreshCoalesced)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refreshAttempt counts the uncoalesced refreshes sent with one refresh
// token. done closes when the last of them has settled.
type refreshAttempt struct {
	n    int
	done chan struct{}
}

// beginAttemptLocked registers a refresh sent with token. e.mu must be held.
func (e *Engine) beginAttemptLocked(token string) {
	if e.attempts == nil {
		e.attempts = make(map[string]*refreshAttempt)
	}
	a := e.attempts[token]
	if a == nil {
		a = &refreshAttempt{done: make(chan struct{})}
		e.attempts[token] = a
	}
	a.n++
}

// endAttemptLocked settles one refresh sent with token and returns the
// channel of siblings still outstanding, or nil when it was the last.
// e.mu must be held.
func (e *Engine) endAttemptLocked(token string) <-chan struct{} {
	a := e.attempts[token]
	if a == nil {
		return nil
	}
	a.n--
	if a.n > 0 {
		return a.done
	}
	close(a.done)
	delete(e.attempts, token)
	return nil
}

func (e *Engine) refreshOnce(ctx context.Context) error {
	e.mu.Lock()
	held := e.session.Clone()
	if held.RefreshToken != "" {
		e.beginAttemptLocked(held.RefreshToken)
	}
	e.mu.Unlock()

	if held.RefreshToken == "" {
		e.clearSession(ctx, "no refresh token")
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefreshFailure, held.User, false, ErrNoRefreshToken, nil)
		return ErrNoRefreshToken
	}

	var payload credentialPayload
	err := e.authAPI.Post(ctx, "/refresh", refreshRequest{RefreshToken: held.RefreshToken}, &payload)
	if err == nil && payload.Token == "" {
		err = ErrMalformedCredentials
	}
	if err != nil {
		return e.failRefresh(ctx, held, err)
	}

	rec := payload.record()
	if rec.User == nil {
		rec.User = held.User
	}

	e.mu.Lock()
	e.endAttemptLocked(held.RefreshToken)
	if e.session.RefreshToken != held.RefreshToken {
		// Logout, login or another refresh won the race; keep its result.
		current := e.session
		e.mu.Unlock()
		if current.AccessToken != "" {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrRefreshFailed, errSessionReplaced)
	}
	err = e.persistLocked(ctx, rec)
	if err != nil {
		e.clearLocked(ctx, "refresh persist failed")
	}
	e.mu.Unlock()

	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefreshFailure, held.User, false, err, nil)
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditRefreshSuccess, rec.User, true, nil, nil)
	e.logger.Debug("access token refreshed")
	return nil
}

// failRefresh clears the session unless it was replaced while the request
// was in flight. When sibling refreshes sent with the same refresh token are
// still outstanding, it waits for them: a sibling that succeeded wins and
// the failure is dropped.
func (e *Engine) failRefresh(ctx context.Context, held credential.Record, cause error) error {
	e.mu.Lock()
	siblings := e.endAttemptLocked(held.RefreshToken)
	e.mu.Unlock()

	if siblings != nil {
		select {
		case <-siblings:
		case <-ctx.Done():
			e.metricInc(MetricRefreshFailure)
			return fmt.Errorf("%w: %w", ErrRefreshFailed, cause)
		}
	}

	e.mu.Lock()
	switch {
	case e.session.RefreshToken == held.RefreshToken:
		e.clearLocked(ctx, "refresh failed")
	case siblings != nil && e.session.AccessToken != "":
		e.mu.Unlock()
		e.logger.Debug("refresh failed but a concurrent refresh succeeded", zap.Error(cause))
		return nil
	}
	e.mu.Unlock()

	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, AuditRefreshFailure, held.User, false, cause, nil)
	e.logger.Info("refresh failed; session cleared", zap.Error(cause))
	return fmt.Errorf("%w: %w", ErrRefreshFailed, cause)
}

// refreshIfExpiring renews the access token ahead of an admin call when
// Session.RefreshWindow is set and the token's exp claim falls inside it.
// Tokens whose expiry cannot be read are left alone.
func (e *Engine) refreshIfExpiring(ctx context.Context) {
	window := e.config.Session.RefreshWindow
	if window <= 0 {
		return
	}
	e.mu.RLock()
	access, refresh := e.session.AccessToken, e.session.RefreshToken
	e.mu.RUnlock()
	if access == "" || refresh == "" {
		return
	}

	if !e.expiresWithin(access, window) {
		return
	}

	e.metricInc(MetricRefreshProactive)
	if err := e.RefreshAccessToken(ctx); err != nil {
		e.logger.Info("proactive refresh failed", zap.Error(err))
	}
}
