package goAdmin

import "errors"

var (
	// ErrAuthExpired is returned by FetchProfile when the backend rejected the
	// credential and a single refresh could not heal it. The session has been
	// cleared when this error is returned.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrNoRefreshToken is returned by RefreshAccessToken when the session holds
	// no refresh token. No request is sent.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrRefreshFailed wraps every other refresh failure.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrMalformedCredentials is returned when a login, refresh or profile
	// payload lacks the token or the user.
	ErrMalformedCredentials = errors.New("malformed credential payload")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or
	// closed engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrStoreUnavailable is returned when the credential store rejected a write.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)
