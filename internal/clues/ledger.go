package clues

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/domain"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used to report integrity violations.
func WithLogger(l *slog.Logger) Option {
	return func(lg *Ledger) {
		lg.logger = l
	}
}

// WithStrictIntegrity makes a repeated discovery panic instead of being ignored.
// Meant for debug builds and tests.
func WithStrictIntegrity(strict bool) Option {
	return func(lg *Ledger) {
		lg.strict = strict
	}
}

// Ledger holds every clue of a session and its discovery state.
// Safe for concurrent use.
type Ledger struct {
	mu         sync.RWMutex
	clues      map[string]*domain.Clue
	order      []string
	discovered int
	strict     bool
	logger     *slog.Logger
}

// New creates a ledger and initializes it with clues.
func New(clues []domain.Clue, opts ...Option) *Ledger {
	l := &Ledger{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	l.Initialize(clues)
	return l
}

// Initialize replaces the ledger contents with clues, all undiscovered.
func (l *Ledger) Initialize(clues []domain.Clue) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clues = make(map[string]*domain.Clue, len(clues))
	l.order = l.order[:0]
	l.discovered = 0
	for _, c := range clues {
		if _, dup := l.clues[c.ID]; dup {
			continue
		}
		c.Discovered = false
		c.DiscoveredBy = ""
		c.DiscoveredTurn = 0
		l.clues[c.ID] = &c
		l.order = append(l.order, c.ID)
	}
}

// Discover marks the clue as discovered by by at turn. It reports false and
// leaves state untouched when the id is unknown or the clue was already found.
func (l *Ledger) Discover(id, by string, turn int) (domain.Clue, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clues[id]
	if !ok {
		return domain.Clue{}, false
	}
	if c.Discovered {
		err := fmt.Errorf("%w: clue %q already discovered by %s on turn %d", domain.ErrIntegrityViolation, id, c.DiscoveredBy, c.DiscoveredTurn)
		if l.strict {
			panic(err)
		}
		l.logger.Debug("repeated discovery ignored", "clue", id, "err", err)
		return domain.Clue{}, false
	}

	c.Discovered = true
	c.DiscoveredBy = by
	c.DiscoveredTurn = turn
	l.discovered++
	return *c, true
}

// Get returns the clue with the given id.
func (l *Ledger) Get(id string) (domain.Clue, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.clues[id]
	if !ok {
		return domain.Clue{}, false
	}
	return *c, true
}

// Discovered returns the found clues in definition order.
func (l *Ledger) Discovered() []domain.Clue {
	return l.filter(func(c *domain.Clue) bool { return c.Discovered })
}

// Undiscovered returns the clues not yet found.
func (l *Ledger) Undiscovered() []domain.Clue {
	return l.filter(func(c *domain.Clue) bool { return !c.Discovered })
}

// AtLocation returns the undiscovered clues bound to a location.
// Clues without a binding kind belong to neither partition.
func (l *Ledger) AtLocation(location string) []domain.Clue {
	return l.filter(func(c *domain.Clue) bool {
		return !c.Discovered && c.BoundTo == domain.BoundToLocation && c.FoundAt == location
	})
}

// FromNPC returns the undiscovered clues an NPC can give away.
func (l *Ledger) FromNPC(name string) []domain.Clue {
	return l.filter(func(c *domain.Clue) bool { return !c.Discovered && c.BoundTo == domain.BoundToNPC && c.FoundAt == name })
}

// DiscoveredCount returns how many clues have been found.
func (l *Ledger) DiscoveredCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.discovered
}

// TotalCount returns how many clues exist.
func (l *Ledger) TotalCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Progress renders the discovery progress, e.g. "Clues: 2/5 discovered | easy: 1 | medium: 1".
func (l *Ledger) Progress() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	msg := fmt.Sprintf("Clues: %d/%d discovered", l.discovered, len(l.order))
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		n := 0
		for _, id := range l.order {
			if c := l.clues[id]; c.Discovered && c.Difficulty == d {
				n++
			}
		}
		if n > 0 {
			msg += fmt.Sprintf(" | %s: %d", d, n)
		}
	}
	return msg
}

func (l *Ledger) filter(keep func(*domain.Clue) bool) []domain.Clue {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Clue
	for _, id := range l.order {
		if c := l.clues[id]; keep(c) {
			out = append(out, *c)
		}
	}
	return out
}
