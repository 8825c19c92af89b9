package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
)

// recentLimit bounds the witnessed events and information included in a context block.
const recentLimit = 5

// recallLimit bounds the memories pulled from the recall collaborator.
const recallLimit = 3

// KillerMission is shown to a player who plays the killer.
const KillerMission = "Avoid detection. Deflect suspicion onto others."

// Conversation is a summary of one talk with another character.
type Conversation struct {
	With    string `json:"with"`
	Summary string `json:"summary"`
}

// State is the private knowledge of one NPC.
type State struct {
	Name            string         `json:"name"`
	Alibi           string         `json:"alibi"`
	TrueWhereabouts string         `json:"true_whereabouts"`
	KnownClues      []string       `json:"known_clues,omitempty"`
	Secrets         []string       `json:"secrets,omitempty"`
	Attitude        string         `json:"attitude,omitempty"`
	Suspicions      string         `json:"suspicions,omitempty"`
	Witnessed       []string       `json:"witnessed,omitempty"`
	Information     []string       `json:"information,omitempty"`
	Conversations   []Conversation `json:"conversations,omitempty"`
}

func (s *State) clone() State {
	c := *s
	c.KnownClues = slices.Clone(s.KnownClues)
	c.Secrets = slices.Clone(s.Secrets)
	c.Witnessed = slices.Clone(s.Witnessed)
	c.Information = slices.Clone(s.Information)
	c.Conversations = slices.Clone(s.Conversations)
	return c
}

// PlayerView is what the player is entitled to know.
type PlayerView struct {
	Role        domain.Role       `json:"role"`
	KnownAlibis map[string]string `json:"known_alibis"`
	IsKiller    bool              `json:"you_are_the_killer,omitempty"`
	Mission     string            `json:"your_mission,omitempty"`
}

// Option configures a Partition.
type Option func(*Partition)

// WithRecall attaches an optional long-term memory store.
func WithRecall(r ports.Recall) Option {
	return func(p *Partition) {
		p.recall = r
	}
}

// WithLogger sets the logger used for recall failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Partition) {
		p.logger = l
	}
}

// Partition holds every NPC's State and the session's killer identity.
// Safe for concurrent use.
type Partition struct {
	mu     sync.RWMutex
	states map[string]*State
	order  []string
	killer string
	recall ports.Recall
	logger *slog.Logger
}

// New creates a partition. States are copied; duplicates by name are ignored.
func New(killer string, states []State, opts ...Option) *Partition {
	p := &Partition{
		states: make(map[string]*State, len(states)),
		killer: killer,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, s := range states {
		if _, dup := p.states[s.Name]; dup {
			continue
		}
		c := s.clone()
		p.states[s.Name] = &c
		p.order = append(p.order, s.Name)
	}
	return p
}

// Killer returns the name of the session's killer.
func (p *Partition) Killer() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.killer
}

// IsKiller reports whether name is the session's killer.
func (p *Partition) IsKiller(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return name != "" && name == p.killer
}

// Has reports whether name owns a knowledge state.
func (p *Partition) Has(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.states[name]
	return ok
}

// State returns a copy of name's knowledge.
func (p *Partition) State(name string) (State, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.states[name]
	if !ok {
		return State{}, false
	}
	return s.clone(), true
}

// Context assembles the prompt-ready knowledge block of name.
// Returns an empty string for characters without a state, such as the player.
func (p *Partition) Context(name string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.states[name]
	if !ok {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s.\n", s.Name)
	fmt.Fprintf(&sb, "Your alibi: %s\n", s.Alibi)

	if name == p.killer {
		fmt.Fprintf(&sb, "SECRET: You are the KILLER. Your true whereabouts: %s\n", s.TrueWhereabouts)
		sb.WriteString("You must deflect suspicion and never confess unless confronted with overwhelming evidence.\n")
	} else if s.TrueWhereabouts != "" && s.TrueWhereabouts != s.Alibi {
		fmt.Fprintf(&sb, "(Privately, you were actually: %s)\n", s.TrueWhereabouts)
	}

	if len(s.Secrets) > 0 {
		fmt.Fprintf(&sb, "Your secrets: %s\n", strings.Join(s.Secrets, "; "))
	}
	if s.Attitude != "" {
		fmt.Fprintf(&sb, "Your attitude: %s\n", s.Attitude)
	}
	if s.Suspicions != "" {
		fmt.Fprintf(&sb, "Your suspicions: %s\n", s.Suspicions)
	}
	if len(s.Witnessed) > 0 {
		fmt.Fprintf(&sb, "Things you've witnessed: %s\n", strings.Join(last(s.Witnessed, recentLimit), "; "))
	}
	if len(s.Information) > 0 {
		fmt.Fprintf(&sb, "Things you've been told: %s\n", strings.Join(last(s.Information, recentLimit), "; "))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// Recollect queries the recall collaborator for memories of name relevant to situation.
// Failures are logged and yield nothing.
func (p *Partition) Recollect(ctx context.Context, name, situation string) []string {
	if p.recall == nil || !p.Has(name) {
		return nil
	}
	memories, err := p.recall.Recall(ctx, name, situation, recallLimit)
	if err != nil {
		p.logger.Warn("recall failed", "character", name, "err", err)
		return nil
	}
	return last(memories, recallLimit)
}

// RecordWitnessedEvent appends an event name saw. No-op for unknown characters.
func (p *Partition) RecordWitnessedEvent(name, event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.states[name]; ok {
		s.Witnessed = append(s.Witnessed, event)
	}
}

// RecordInformation appends something name was told. No-op for unknown characters.
func (p *Partition) RecordInformation(name, info string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.states[name]; ok {
		s.Information = append(s.Information, info)
	}
}

// RecordConversation appends a talk name had with another character. No-op for unknown characters.
func (p *Partition) RecordConversation(name, with, summary string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.states[name]; ok {
		s.Conversations = append(s.Conversations, Conversation{With: with, Summary: summary})
	}
}

// ConversationCount returns how many conversations name has had.
func (p *Partition) ConversationCount(name string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.states[name]; ok {
		return len(s.Conversations)
	}
	return 0
}

// KnowsAbout reports whether any of name's knowledge mentions topic, case-insensitively.
func (p *Partition) KnowsAbout(name, topic string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.states[name]
	topic = strings.ToLower(strings.TrimSpace(topic))
	if !ok || topic == "" {
		return false
	}

	fields := []string{s.Alibi, s.TrueWhereabouts}
	fields = append(fields, s.Secrets...)
	fields = append(fields, s.KnownClues...)
	fields = append(fields, s.Witnessed...)
	fields = append(fields, s.Information...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), topic) {
			return true
		}
	}
	return false
}

// PlayerVisibleInfo returns only the alibis the player has been told, that is,
// those of NPCs with at least one recorded conversation.
func (p *Partition) PlayerVisibleInfo(role domain.Role) PlayerView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	view := PlayerView{Role: role, KnownAlibis: make(map[string]string)}
	for _, name := range p.order {
		s := p.states[name]
		if len(s.Conversations) > 0 {
			view.KnownAlibis[name] = s.Alibi
		}
	}
	if role == domain.RoleKiller {
		view.IsKiller = true
		view.Mission = KillerMission
	}
	return view
}

func last(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
