package domain

import (
	"fmt"
	"strings"
)

// Role is the part a character plays in the mystery.
type Role string

const (
	RoleDetective  Role = "detective"
	RoleKiller     Role = "killer"
	RoleSuspect    Role = "suspect"
	RoleWitness    Role = "witness"
	RoleVictim     Role = "victim"
	RoleRedHerring Role = "red_herring"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDetective, RoleKiller, RoleSuspect, RoleWitness, RoleVictim, RoleRedHerring:
		return true
	default:
		return false
	}
}

// PlayerEligible reports whether a player may start a game with this role.
func (r Role) PlayerEligible() bool {
	switch r {
	case RoleDetective, RoleKiller:
		return true
	case RoleSuspect, RoleWitness, RoleVictim, RoleRedHerring:
		return false
	default:
		return false
	}
}

// ParseRole converts a case-insensitive name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
