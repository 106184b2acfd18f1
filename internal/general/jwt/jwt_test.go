package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ride-share/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestIssueAndParse(t *testing.T) {
	mgr := NewManager("secret", time.Hour)
	id := uuid.NewString()

	raw, _, err := mgr.IssueUserToken(id, user.RoleRider)
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	_, claims, err := mgr.ParseAndValidate(raw)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if got := claims.Identity(); got.UserID != id || got.Role != user.RoleRider {
		t.Fatalf("identity = %+v", got)
	}

	if _, _, err := NewManager("other", time.Hour).ParseAndValidate(raw); err == nil {
		t.Fatalf("token signed with another secret must not validate")
	}
	if _, _, err := mgr.IssueUserToken("not-a-uuid", user.RoleRider); err != ErrBadSubject {
		t.Fatalf("err = %v, want ErrBadSubject", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	mgr := NewManager("secret", time.Hour)
	claims := NewUserClaims(uuid.NewString(), user.RoleDriver, -time.Minute)
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := mgr.ParseAndValidate(raw); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestMiddleware(t *testing.T) {
	mgr := NewManager("secret", time.Hour)
	driverToken, _, _ := mgr.IssueUserToken(uuid.NewString(), user.RoleDriver)
	riderToken, _, _ := mgr.IssueUserToken(uuid.NewString(), user.RoleRider)

	var seen *Claims
	h := AuthMiddlewareFunc(mgr, user.RoleDriver)(func(w http.ResponseWriter, r *http.Request) {
		seen = RequireClaims(r)
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bad scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + riderToken, http.StatusForbidden},
		{"allowed", "Bearer " + driverToken, http.StatusNoContent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/trips", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)
			if rec.Code != c.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, c.want, rec.Body.String())
			}
		})
	}
	if seen == nil || seen.Role != user.RoleDriver {
		t.Fatalf("claims not injected: %+v", seen)
	}
}
