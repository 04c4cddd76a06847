package goAdmin

import (
	"time"

	"github.com/MrEthical07/goAdmin/credential"
)

// State is the externally observable session state. Refreshing is internal
// and never reported.
type State uint8

const (
	StateAnonymous State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Result is returned by operations that report failures as values rather than
// errors: Login, ChangePassword.
type Result struct {
	Success bool
	Message string
	User    *credential.User
	// Err is the underlying cause for logging. Callers showing a message to a
	// person use Message.
	Err error
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	State           State
	User            *credential.User
	HasAccessToken  bool
	HasRefreshToken bool
	// AccessExpiresAt is decoded from the access token; zero when unknown.
	AccessExpiresAt time.Time
}

// Authenticated reports whether the snapshot was taken in StateAuthenticated.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}
