package permission

import (
	"errors"
	"strings"
	"sync"
)

// Role is the administrator role carried on the user profile.
type Role string

const (
	// RoleAdmin is the regular administrator tier.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin is the top tier; it satisfies every gated tag.
	RoleSuperAdmin Role = "superadmin"
)

const (
	// TagAdmin gates routes reserved to administrators.
	TagAdmin = "admin"
	// TagSuperAdmin gates routes reserved to super administrators.
	TagSuperAdmin = "superadmin"
)

// Policy maps permission tags to the roles allowed to use them.
//
// A Policy is populated during initialization and frozen before use. After
// Freeze, Allows is safe for concurrent callers.
type Policy struct {
	mu     sync.RWMutex
	gates  map[string]map[Role]struct{}
	frozen bool
}

// NewPolicy returns an empty, unfrozen policy. Every tag is open until gated.
func NewPolicy() *Policy {
	return &Policy{
		gates: make(map[string]map[Role]struct{}),
	}
}

// DefaultPolicy returns the frozen two-tier policy used by the admin console.
func DefaultPolicy() *Policy {
	p := NewPolicy()
	_ = p.Gate(TagAdmin, RoleAdmin, RoleSuperAdmin)
	_ = p.Gate(TagSuperAdmin, RoleSuperAdmin)
	p.Freeze()
	return p
}

// Gate restricts tag to the given roles. Gating a tag twice is an error.
func (p *Policy) Gate(tag string, roles ...Role) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return errors.New("permission policy frozen")
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return errors.New("permission tag empty")
	}
	if _, exists := p.gates[tag]; exists {
		return errors.New("permission tag already gated: " + tag)
	}
	if len(roles) == 0 {
		return errors.New("permission gate needs at least one role")
	}

	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	p.gates[tag] = allowed
	return nil
}

// Freeze stops further Gate calls.
func (p *Policy) Freeze() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frozen = true
}

// Gated reports whether tag has a role gate.
func (p *Policy) Gated(tag string) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.gates[tag]
	return ok
}

// Allows reports whether role satisfies tag. Ungated tags are always allowed.
func (p *Policy) Allows(role Role, tag string) bool {
	if p == nil {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	allowed, ok := p.gates[tag]
	if !ok {
		return true
	}
	_, ok = allowed[role]
	return ok
}

// IsAdmin reports whether role belongs to either administrator tier.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsSuperAdmin reports whether role is the super administrator tier.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}
