package user

import "testing"

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{" rider ": RoleRider, "DRIVER": RoleDriver, "admin": RoleAdmin} {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseRole("passenger"); err != ErrInvalidRole {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}
