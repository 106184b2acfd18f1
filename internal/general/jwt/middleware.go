package jwt

import (
	"encoding/json"
	"net/http"

	"ride-share/internal/domain/user"
)

// AuthMiddlewareFunc validates tokens and injects claims into the request context.
// Without allowedRoles any authenticated caller passes.
func AuthMiddlewareFunc(mgr *Manager, allowedRoles ...user.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := FromAuthorization(r)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
				return
			}

			_, claims, err := mgr.ParseAndValidate(raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid token")
				return
			}

			if err := RoleAllowed(claims, allowedRoles...); err != nil {
				writeAuthError(w, http.StatusForbidden, "UNAUTHORIZED", "role "+claims.Role.String()+" may not call this endpoint")
				return
			}

			next(w, r.WithContext(InjectClaims(r.Context(), claims)))
		}
	}
}

// RequireClaims extracts JWT claims from the request context.
func RequireClaims(r *http.Request) *Claims {
	c, _ := FromContext(r.Context())
	return c
}

func writeAuthError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="ride-share"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": kind, "message": msg},
	})
}
