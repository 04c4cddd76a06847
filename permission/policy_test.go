package permission

import "testing"

func TestDefaultPolicyTiers(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		role Role
		tag  string
		want bool
	}{
		{RoleAdmin, TagAdmin, true},
		{RoleSuperAdmin, TagAdmin, true},
		{Role("viewer"), TagAdmin, false},
		{RoleAdmin, TagSuperAdmin, false},
		{RoleSuperAdmin, TagSuperAdmin, true},
		{Role(""), TagSuperAdmin, false},
		{RoleAdmin, "anything-else", true},
		{Role("viewer"), "anything-else", true},
	}

	for _, tc := range cases {
		if got := p.Allows(tc.role, tc.tag); got != tc.want {
			t.Fatalf("Allows(%q, %q) = %v, want %v", tc.role, tc.tag, got, tc.want)
		}
	}
}

func TestPolicyFrozenRejectsGate(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Gate("reports", RoleAdmin); err == nil {
		t.Fatal("expected gate on frozen policy to fail")
	}
}

func TestPolicyRejectsDuplicateAndEmptyGates(t *testing.T) {
	p := NewPolicy()
	if err := p.Gate("", RoleAdmin); err == nil {
		t.Fatal("expected empty tag to be rejected")
	}
	if err := p.Gate("reports"); err == nil {
		t.Fatal("expected gate without roles to be rejected")
	}
	if err := p.Gate("reports", RoleAdmin); err != nil {
		t.Fatalf("gate reports: %v", err)
	}
	if err := p.Gate("reports", RoleSuperAdmin); err == nil {
		t.Fatal("expected duplicate gate to be rejected")
	}
	if !p.Gated("reports") || p.Gated("other") {
		t.Fatal("unexpected Gated result")
	}
}

func TestNilPolicyIsOpen(t *testing.T) {
	var p *Policy
	if !p.Allows(Role(""), TagSuperAdmin) {
		t.Fatal("nil policy should allow every tag")
	}
}
