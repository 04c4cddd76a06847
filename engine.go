package goAdmin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAdmin/api"
	"github.com/MrEthical07/goAdmin/credential"
	"github.com/MrEthical07/goAdmin/internal/audit"
	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/permission"
	"github.com/MrEthical07/goAdmin/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	loginFailedMessage          = "Login failed"
	passwordChangeFailedMessage = "Password change failed"
)

// Engine owns the session of one administrator. It is the only writer of the
// credential store; the two pipelines read the access token through a
// read-only view.
//
// Engine methods are safe for concurrent use. Each mutation updates the store
// and the in-memory session under one lock, so readers never observe a mix of
// old and new fields.
type Engine struct {
	config    Config
	store     credential.Store
	authAPI   *transport.Pipeline
	adminAPI  *transport.Pipeline
	admin     *api.Client
	inspector *jwt.Inspector
	policy    *permission.Policy
	logger    *zap.Logger
	metrics   *Metrics
	audit     *audit.Dispatcher
	refresh   singleflight.Group
	closers   []func() error
	now       func() time.Time

	mu       sync.RWMutex
	session  credential.Record
	attempts map[string]*refreshAttempt
	closed   atomic.Bool
}

type credentialPayload struct {
	Token        string           `json:"token"`
	RefreshToken string           `json:"refresh_token"`
	User         *credential.User `json:"user"`
}

func (p credentialPayload) record() credential.Record {
	return credential.Record{AccessToken: p.Token, RefreshToken: p.RefreshToken, User: p.User}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Close stops the audit dispatcher and releases clients the engine created.
// The session is left as is.
func (e *Engine) Close() {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	e.runClosers()
}

func (e *Engine) runClosers() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			e.logger.Warn("close failed", zap.Error(err))
		}
	}
	e.closers = nil
}

func (e *Engine) ready() bool {
	return e != nil && !e.closed.Load()
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger {
	if e == nil || e.logger == nil {
		return zap.NewNop()
	}
	return e.logger
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// Metrics returns the engine's counters. Components outside the engine, such
// as the route guard, record into the same set.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns how many audit events were dropped.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeRequest(ev transport.Event) {
	switch ev.Kind {
	case transport.KindEnvelopeSuccess:
		e.metricInc(MetricRequestEnvelopeSuccess)
	case transport.KindRawSuccess:
		e.metricInc(MetricRequestRawSuccess)
	case transport.KindEnvelopeFailure:
		e.metricInc(MetricRequestApplicationError)
	case transport.KindTransportFailure:
		e.metricInc(MetricRequestTransportError)
	}
	e.metrics.Observe(MetricRequestLatency, ev.Latency)
}

// Admin returns the client for admin resources. Its calls go through the
// admin pipeline and, when configured, renew the access token first.
func (e *Engine) Admin() *api.Client {
	return e.admin
}

// Do sends req on the admin pipeline. It satisfies api.Doer.
func (e *Engine) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	e.refreshIfExpiring(ctx)
	return e.adminAPI.Do(ctx, req)
}

/*
====================================
SESSION STATE
====================================
*/

func (e *Engine) restore(ctx context.Context) {
	rec, err := e.store.Load(ctx)
	if err != nil {
		e.metricInc(MetricStoreFailure)
		e.logger.Warn("credential store unreadable; starting anonymous", zap.Error(err))
		return
	}
	e.mu.Lock()
	e.session = rec
	e.mu.Unlock()
}

func authenticated(rec credential.Record) bool {
	return rec.AccessToken != "" && rec.User != nil
}

func stateOf(rec credential.Record) State {
	if authenticated(rec) {
		return StateAuthenticated
	}
	return StateAnonymous
}

// InitAuth recomputes the session state from memory. It has no side effects
// and may be called before every navigation.
func (e *Engine) InitAuth() State {
	return e.State()
}

// State reports whether the session holds both an access token and a user.
func (e *Engine) State() State {
	if e == nil {
		return StateAnonymous
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return stateOf(e.session)
}

// User returns a copy of the current profile, or nil.
func (e *Engine) User() *credential.User {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.User.Clone()
}

// HasPermission reports whether the current role satisfies tag. Tags the
// policy does not gate are satisfied by every session, anonymous included;
// gated tags are never satisfied without an authenticated user.
func (e *Engine) HasPermission(tag string) bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	rec := e.session
	e.mu.RUnlock()

	if !authenticated(rec) {
		return !e.policy.Gated(tag)
	}
	return e.policy.Allows(rec.User.Role, tag)
}

// Snapshot returns a copy of the session with the decoded access-token expiry.
func (e *Engine) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	e.mu.RLock()
	rec := e.session.Clone()
	e.mu.RUnlock()

	snap := Snapshot{
		State:           stateOf(rec),
		User:            rec.User,
		HasAccessToken:  rec.AccessToken != "",
		HasRefreshToken: rec.RefreshToken != "",
	}
	if rec.AccessToken != "" {
		if claims, err := e.inspector.Inspect(rec.AccessToken); err == nil {
			snap.AccessExpiresAt = claims.Expiry()
		}
	}
	return snap
}

// AccessExpiresWithin reports whether the held access token expires within
// window. False when there is no token or its expiry cannot be read.
func (e *Engine) AccessExpiresWithin(window time.Duration) bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	token := e.session.AccessToken
	e.mu.RUnlock()
	return e.expiresWithin(token, window)
}

// expiresWithin applies the inspector's leeway. Opaque tokens never expire
// from the engine's point of view.
func (e *Engine) expiresWithin(token string, window time.Duration) bool {
	if token == "" {
		return false
	}
	if _, err := e.inspector.Inspect(token); err != nil {
		return false
	}
	return e.inspector.ExpiresWithin(token, window, e.now())
}

// persist writes rec to the store and, only when that succeeds, to memory.
func (e *Engine) persist(ctx context.Context, rec credential.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persistLocked(ctx, rec)
}

func (e *Engine) persistLocked(ctx context.Context, rec credential.Record) error {
	rec = rec.Clone()
	if err := e.store.Save(ctx, rec); err != nil {
		e.metricInc(MetricStoreFailure)
		return wrapStoreError(err)
	}
	e.session = rec
	return nil
}

// clearSession empties memory unconditionally. A store failure is logged: the
// in-memory session must never outlive a logout.
func (e *Engine) clearSession(ctx context.Context, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked(ctx, reason)
}

func (e *Engine) clearLocked(ctx context.Context, reason string) {
	e.session = credential.Record{}
	if err := e.store.Clear(context.WithoutCancel(ctx)); err != nil {
		e.metricInc(MetricStoreFailure)
		e.logger.Warn("credential store clear failed", zap.String("reason", reason), zap.Error(err))
	}
}

func wrapStoreError(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

/*
====================================
LOGIN / LOGOUT / PASSWORD
====================================
*/

// Login exchanges credentials for a session. It never returns an error:
// failures come back as Result{Success: false} with a message fit for display.
// A failed login leaves the current session untouched.
func (e *Engine) Login(ctx context.Context, username, password string) Result {
	if !e.ready() {
		return Result{Message: loginFailedMessage, Err: ErrEngineNotReady}
	}

	var payload credentialPayload
	err := e.authAPI.Post(ctx, "/login", loginRequest{Username: username, Password: password}, &payload)
	if err == nil && (payload.Token == "" || payload.User == nil) {
		err = ErrMalformedCredentials
	}
	if err == nil {
		err = e.persist(ctx, payload.record())
	}
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, &credential.User{Username: username}, false, err, nil)
		e.logger.Info("login failed", zap.String("username", username), zap.Error(err))
		return Result{Message: failureMessage(err, loginFailedMessage), Err: err}
	}

	user := payload.User.Clone()
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLoginSuccess, user, true, nil, nil)
	e.logger.Info("login succeeded", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return Result{Success: true, User: user}
}

// Logout asks the backend to revoke the refresh token, then clears the
// session whatever the outcome. The revoke call is skipped when no refresh
// token is held; its failure is logged and otherwise ignored.
func (e *Engine) Logout(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.RLock()
	rec := e.session.Clone()
	e.mu.RUnlock()

	if rec.RefreshToken != "" && e.ready() {
		if err := e.authAPI.Post(ctx, "/logout", refreshRequest{RefreshToken: rec.RefreshToken}, nil); err != nil {
			e.metricInc(MetricLogoutRemoteFailure)
			e.logger.Warn("logout request failed; clearing local session", zap.Error(err))
		}
	}

	e.clearSession(ctx, "logout")
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, rec.User, true, nil, nil)
}

// ChangePassword updates the current administrator's password. A blank
// current password is sent as "" for accounts flagged for first login.
func (e *Engine) ChangePassword(ctx context.Context, currentPassword, newPassword string) Result {
	if !e.ready() {
		return Result{Message: passwordChangeFailedMessage, Err: ErrEngineNotReady}
	}
	if strings.TrimSpace(currentPassword) == "" {
		currentPassword = ""
	}

	user := e.User()
	resp, err := e.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/change-password",
		Body:   changePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword},
	})
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, AuditPasswordChangeFailure, user, false, err, nil)
		return Result{Message: failureMessage(err, passwordChangeFailedMessage), Err: err}
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, AuditPasswordChangeSuccess, user, true, nil, nil)
	return Result{Success: true, Message: resp.Message, User: user}
}

func failureMessage(err error, fallback string) string {
	if transport.IsApplication(err) || transport.IsTransport(err) {
		if msg := transport.Message(err); msg != "" {
			return msg
		}
	}
	return fallback
}
