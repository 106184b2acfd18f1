package user

import (
	"strings"

	"ride-share/internal/apperr"
)

// Role is the caller role carried in the identity context.
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

var ErrInvalidRole = apperr.Validation("invalid role")

// ParseRole normalizes (uppercases+trims) and validates a role string.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if role.Valid() {
		return role, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether role is one of the allowed role constants.
func (role Role) Valid() bool {
	switch role {
	case RoleRider, RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}

func (role Role) String() string {
	return string(role)
}

func (role Role) IsRider() bool  { return role == RoleRider }
func (role Role) IsDriver() bool { return role == RoleDriver }
func (role Role) IsAdmin() bool  { return role == RoleAdmin }
