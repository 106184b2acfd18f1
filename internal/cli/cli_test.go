package cli

import (
	"slices"
	"testing"
	"time"

	"ride-share/internal/domain/user"
	"ride-share/internal/general/jwt"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		args     []string
		wantMode string
		wantRest []string
		wantErr  bool
	}{
		{[]string{"--mode=trip-service", "--max-concurrent=5"}, ModeTrip, []string{"--max-concurrent=5"}, false},
		{[]string{"booking", "--config=x.yaml"}, ModeBooking, []string{"--config=x.yaml"}, false},
		{[]string{"--mode=n"}, ModeNotification, nil, false},
		{[]string{"migrate"}, ModeMigrate, nil, false},
		{[]string{"a", "--max-concurrent=10"}, ModeAdmin, []string{"--max-concurrent=10"}, false},
		{[]string{"--prefetch=3"}, "", []string{"--prefetch=3"}, true},
		{[]string{"--mode=ride-service"}, "", nil, true},
	}
	for _, tc := range cases {
		mode, rest, err := ParseMode(tc.args)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseMode(%v) err = %v", tc.args, err)
		}
		if mode != tc.wantMode || !slices.Equal(rest, tc.wantRest) {
			t.Fatalf("ParseMode(%v) = %q %v", tc.args, mode, rest)
		}
	}
}

func TestGenerateUserToken(t *testing.T) {
	const id = "550e8400-e29b-41d4-a716-446655440001"
	tok, claims, err := GenerateUserToken("secret", id, "DRIVER", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != id || claims.Role != user.RoleDriver {
		t.Fatalf("claims = %+v", claims)
	}
	_, parsed, err := jwt.NewManager("secret", time.Hour).ParseAndValidate(tok)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if parsed.Subject != id {
		t.Fatalf("subject = %s", parsed.Subject)
	}

	if _, _, err := GenerateUserToken("secret", id, "PASSENGER", time.Hour); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}
