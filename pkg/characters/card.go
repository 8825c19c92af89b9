package characters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/whodunit/pkg/domain"
)

// ExtensionKey is the card extension holding the murder-mystery profile.
const ExtensionKey = "murder_mystery"

// card is the subset of a V2 card we read.
type card struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Personality  string         `json:"personality"`
	Scenario     string         `json:"scenario"`
	Tags         []string       `json:"tags"`
	CreatorNotes string         `json:"creator_notes"`
	Extensions   map[string]any `json:"extensions"`
}

type envelope struct {
	Spec string          `json:"spec"`
	Data json.RawMessage `json:"data"`
}

// defaultRoles applies when a card declares no possible roles.
var defaultRoles = []domain.Role{domain.RoleSuspect, domain.RoleWitness}

// ParseCard decodes a card. fallbackName is used when the card has no name.
func ParseCard(data []byte, fallbackName string) (domain.Character, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Character{}, fmt.Errorf("parse card: %w", err)
	}
	body := data
	if len(env.Data) > 0 && string(env.Data) != "null" {
		body = env.Data
	}

	var c card
	if err := json.Unmarshal(body, &c); err != nil {
		return domain.Character{}, fmt.Errorf("parse card: %w", err)
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		return domain.Character{}, fmt.Errorf("card has no name")
	}

	profile, err := decodeProfile(c.Extensions[ExtensionKey])
	if err != nil {
		return domain.Character{}, fmt.Errorf("card %s: %w", name, err)
	}
	return domain.Character{
		Name:        name,
		Description: c.Description,
		Personality: c.Personality,
		Profile:     profile,
	}, nil
}

func decodeProfile(raw any) (*domain.Profile, error) {
	p := &domain.Profile{}
	if raw != nil {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           p,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("decode %s extension: %w", ExtensionKey, err)
		}
	}

	roles := p.PossibleRoles[:0]
	for _, r := range p.PossibleRoles {
		parsed, err := domain.ParseRole(string(r))
		if err != nil {
			return nil, err
		}
		roles = append(roles, parsed)
	}
	p.PossibleRoles = roles
	if len(p.PossibleRoles) == 0 {
		p.PossibleRoles = append([]domain.Role(nil), defaultRoles...)
	}
	return p, nil
}

// LoadCard reads a card file. A nameless card is named after its file,
// so "lady_grey.json" becomes "Lady Grey".
func LoadCard(path string) (domain.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Character{}, err
	}
	return ParseCard(data, nameFromFile(path))
}

func nameFromFile(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.Fields(strings.ReplaceAll(stem, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CanBe reports whether the character's profile allows role.
func CanBe(c domain.Character, role domain.Role) bool {
	if c.Profile == nil {
		return false
	}
	for _, r := range c.Profile.PossibleRoles {
		if r == role {
			return true
		}
	}
	return false
}
