package characters

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/scenario"
)

//go:embed cards/*.json
var builtin embed.FS

// Option configures pool loading.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger reports skipped cards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// LoadDir loads every *.json card in dir, in file name order. Cards that
// fail to parse are skipped and logged.
func LoadDir(dir string, opts ...Option) ([]domain.Character, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("characters directory: %w", err)
	}
	return loadFS(os.DirFS(dir), ".", opts...)
}

// Default returns the built-in pool.
func Default() []domain.Character {
	pool, err := loadFS(builtin, "cards")
	if err != nil {
		panic(fmt.Sprintf("builtin character cards: %v", err))
	}
	return pool
}

func loadFS(fsys fs.FS, dir string, opts ...Option) ([]domain.Character, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var pool []domain.Character
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err == nil {
			var c domain.Character
			c, err = ParseCard(data, nameFromFile(f))
			if err == nil {
				pool = append(pool, c)
				continue
			}
		}
		o.logger.Warn("skipping character card", "file", filepath.Base(f), "err", err)
	}
	o.logger.Info("characters loaded", "count", len(pool))
	return pool, nil
}

// SelectCast picks n NPCs and a victim from pool. The victim is a selected
// card that may play the victim, or the last one drawn.
func SelectCast(pool []domain.Character, n int, rng *rand.Rand) ([]domain.Character, domain.Character, error) {
	if n < 1 {
		return nil, domain.Character{}, fmt.Errorf("at least one npc is required")
	}
	if len(pool) < n+1 {
		return nil, domain.Character{}, fmt.Errorf("not enough characters in pool (%d) for %d npcs and a victim", len(pool), n)
	}

	perm := rng.Perm(len(pool))[:n+1]
	selected := make([]domain.Character, 0, n+1)
	for _, i := range perm {
		selected = append(selected, pool[i])
	}

	v := len(selected) - 1
	var candidates []int
	for i, c := range selected {
		if CanBe(c, domain.RoleVictim) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) > 0 {
		v = candidates[rng.IntN(len(candidates))]
	}

	victim := selected[v]
	victim.Role = domain.RoleVictim
	npcs := slices.Delete(selected, v, v+1)
	return npcs, victim, nil
}

// CastFunc picks the NPCs and victim of a new session.
type CastFunc func(ctx context.Context) ([]domain.Character, domain.Character, error)

// RandomCast draws n NPCs and a victim from pool on every call. A nil rng
// is seeded randomly. The returned func is safe for concurrent use.
func RandomCast(pool []domain.Character, n int, rng *rand.Rand) CastFunc {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	var mu sync.Mutex
	return func(context.Context) ([]domain.Character, domain.Character, error) {
		mu.Lock()
		defer mu.Unlock()
		return SelectCast(pool, n, rng)
	}
}

// CastFor picks the cast a pre-authored scenario was written for: its victim
// and every character with knowledge in it. Names missing from the pool are
// added as bare characters.
func CastFor(sc *scenario.Scenario, pool []domain.Character) ([]domain.Character, domain.Character, error) {
	if sc.Murder.Victim == "" {
		return nil, domain.Character{}, fmt.Errorf("scenario has no victim")
	}
	byName := make(map[string]domain.Character, len(pool))
	for _, c := range pool {
		byName[c.Name] = c
	}

	victim, ok := byName[sc.Murder.Victim]
	if !ok {
		victim = domain.Character{Name: sc.Murder.Victim}
	}
	victim.Role = domain.RoleVictim

	var npcs []domain.Character
	seen := map[string]bool{victim.Name: true}
	for _, c := range pool {
		if _, ok := sc.NPCKnowledge[c.Name]; ok && !seen[c.Name] {
			npcs = append(npcs, c)
			seen[c.Name] = true
		}
	}
	var missing []string
	for name := range sc.NPCKnowledge {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if k := sc.Murder.Killer; k != "" && !seen[k] && !slices.Contains(missing, k) {
		missing = append(missing, k)
	}
	sort.Strings(missing)
	for _, name := range missing {
		npcs = append(npcs, domain.Character{Name: name})
	}
	return npcs, victim, nil
}

// NewPlayer builds the player character.
func NewPlayer(name string, role domain.Role) domain.Character {
	if name == "" {
		name = "The Player"
	}
	return domain.Character{
		Name:        name,
		Description: fmt.Sprintf("A %s investigating the mystery.", role),
		Personality: "Determined, observant",
		Role:        role,
		IsPlayer:    true,
	}
}

// Summary is the public face of a pool character. Secrets and default
// locations stay hidden.
type Summary struct {
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Personality   string        `json:"personality,omitempty"`
	PossibleRoles []domain.Role `json:"possible_roles,omitempty"`
}

const summaryDescriptionLimit = 100

// Summarize lists the pool for browsing, shortening long descriptions.
func Summarize(pool []domain.Character) []Summary {
	out := make([]Summary, 0, len(pool))
	for _, c := range pool {
		s := Summary{Name: c.Name, Description: c.Description, Personality: c.Personality}
		if r := []rune(s.Description); len(r) > summaryDescriptionLimit {
			s.Description = string(r[:summaryDescriptionLimit]) + "..."
		}
		if c.Profile != nil {
			s.PossibleRoles = slices.Clone(c.Profile.PossibleRoles)
		}
		out = append(out, s)
	}
	return out
}
