package model

import "testing"

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"PENDING", StatusPending, true},
		{"pending", StatusPending, true},
		{"  Approved ", StatusApproved, true},
		{"rejected", StatusRejected, true},
		{"Bogus", "", false},
		{"", "", false},
		{"APPROVED ", StatusApproved, true},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleUser, RoleAdmin, RoleSuperAdmin} {
		if !ValidRole(role) {
			t.Fatalf("ValidRole(%q) = false", role)
		}
	}
	for _, role := range []string{"", "root", "Admin"} {
		if ValidRole(role) {
			t.Fatalf("ValidRole(%q) = true", role)
		}
	}
}
