package goAdmin

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goAdmin/credential"
	"github.com/MrEthical07/goAdmin/transport"
	"go.uber.org/zap"
)

type profileStep uint8

const (
	profileFetching profileStep = iota
	profileRefreshingThenRetry
	profileFailed
)

// FetchProfile loads the current administrator and stores it in the session.
//
// A 401 triggers exactly one RefreshAccessToken followed by one retry. If the
// refresh fails, or the retry is rejected with 401 again, the session is
// cleared and the error wraps ErrAuthExpired. Other errors are returned as is
// and leave the session untouched.
func (e *Engine) FetchProfile(ctx context.Context) (*credential.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var cause error
	var rejected string
	step := profileFetching
	refreshed := false
	for {
		switch step {
		case profileFetching:
			user, sent, err := e.fetchProfileOnce(ctx)
			if err == nil {
				e.metricInc(MetricProfileFetchSuccess)
				return user, nil
			}
			if !transport.IsUnauthorized(err) {
				e.metricInc(MetricProfileFetchFailure)
				return nil, err
			}
			rejected = sent
			if refreshed {
				cause, step = err, profileFailed
				continue
			}
			step = profileRefreshingThenRetry

		case profileRefreshingThenRetry:
			if err := e.RefreshAccessToken(ctx); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				cause, step = err, profileFailed
				continue
			}
			refreshed = true
			e.metricInc(MetricProfileRetry)
			step = profileFetching

		case profileFailed:
			e.clearIfHeld(ctx, rejected, "profile fetch expired")
			return nil, e.expire(ctx, cause)
		}
	}
}

func (e *Engine) expire(ctx context.Context, cause error) error {
	e.metricInc(MetricProfileFetchFailure)
	e.metricInc(MetricAuthExpired)
	e.emitAudit(ctx, AuditSessionExpired, nil, false, cause, nil)
	e.logger.Info("authentication expired", zap.Error(cause))
	return fmt.Errorf("%w: %w", ErrAuthExpired, cause)
}

// clearIfHeld clears the session only while it still holds the access token
// the backend rejected. A session renewed or replaced meanwhile is kept.
func (e *Engine) clearIfHeld(ctx context.Context, token, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.AccessToken == token {
		e.clearLocked(ctx, reason)
	}
}

// fetchProfileOnce returns the profile and the access token it was requested
// with. The profile is stored only if the session still holds that token.
func (e *Engine) fetchProfileOnce(ctx context.Context) (*credential.User, string, error) {
	e.refreshIfExpiring(ctx)
	e.mu.RLock()
	sent := e.session.AccessToken
	e.mu.RUnlock()

	resp, err := e.adminAPI.Do(ctx, &transport.Request{Method: http.MethodGet, Path: "/profile"})
	if err != nil {
		return nil, sent, err
	}
	if payload := bytes.TrimSpace(resp.Data); len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, sent, ErrMalformedCredentials
	}
	var user credential.User
	if err := resp.Decode(&user); err != nil {
		return nil, sent, err
	}

	e.mu.Lock()
	switch {
	case sent == "" || e.session.AccessToken != sent:
		e.logger.Debug("session changed during profile fetch; profile not stored")
	default:
		rec := e.session.Clone()
		rec.User = &user
		if err := e.persistLocked(ctx, rec); err != nil {
			e.logger.Warn("profile not persisted", zap.Error(err))
		}
	}
	e.mu.Unlock()

	e.emitAudit(ctx, AuditProfileFetched, &user, true, nil, nil)
	return user.Clone(), sent, nil
}
