package domain

import (
	"fmt"
	"strings"
)

// Profile is the murder-mystery extension attached to a character card at load time.
type Profile struct {
	PossibleRoles     []Role   `json:"possible_roles,omitempty" yaml:"possible_roles,omitempty" mapstructure:"possible_roles"`
	DefaultLocation   string   `json:"default_location,omitempty" yaml:"default_location,omitempty" mapstructure:"default_location"`
	SocialConnections []string `json:"social_connections,omitempty" yaml:"social_connections,omitempty" mapstructure:"social_connections"`
	Secrets           []string `json:"secrets,omitempty" yaml:"secrets,omitempty" mapstructure:"secrets"`
}

// Character is a participant of a session. Name is the unique key.
type Character struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Personality string `json:"personality,omitempty" yaml:"personality,omitempty"`
	Role        Role   `json:"role,omitempty" yaml:"role,omitempty"`
	IsPlayer    bool   `json:"is_player,omitempty" yaml:"is_player,omitempty"`

	Profile *Profile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// Persona is the prompt-ready description of the character.
func (c Character) Persona() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", c.Description)
	}
	if c.Personality != "" {
		fmt.Fprintf(&sb, "Personality: %s\n", c.Personality)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// DefaultLocation returns the profile's preferred starting location, if any.
func (c Character) DefaultLocation() string {
	if c.Profile == nil {
		return ""
	}
	return c.Profile.DefaultLocation
}
