package credential

import "github.com/MrEthical07/goAdmin/permission"

// Storage keys shared by every backend.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// Keys lists the storage keys in a stable order.
var Keys = []string{KeyToken, KeyRefreshToken, KeyUser}

// User is the administrator profile returned by login, refresh and profile
// calls.
type User struct {
	ID         uint64          `json:"id"`
	Username   string          `json:"username"`
	Email      string          `json:"email,omitempty"`
	Role       permission.Role `json:"role"`
	FirstLogin bool            `json:"first_login,omitempty"`
}

// Clone returns a copy of u, or nil when u is nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

// Record is the persisted mirror of the session.
type Record struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// Empty reports whether the record carries no credential at all.
func (r Record) Empty() bool {
	return r.AccessToken == "" && r.RefreshToken == "" && r.User == nil
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.User = r.User.Clone()
	return r
}
