package cli

import (
	"fmt"
	"time"

	"ride-share/internal/domain/user"
	"ride-share/internal/general/jwt"
)

// GenerateUserToken mints a JWT for a seeded user. Dev tooling only.
//
//	token, claims, err := cli.GenerateUserToken(secret, "550e8400-e29b-41d4-a716-446655440001", "RIDER", 2*time.Hour)
func GenerateUserToken(secret, userID, roleStr string, ttl time.Duration) (string, jwt.Claims, error) {
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: %w", roleStr, err)
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	token, claims, err := jwt.NewManager(secret, ttl).IssueUserToken(userID, role)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}
	return token, *claims, nil
}
