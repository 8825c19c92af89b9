package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/whodunit/pkg/domain"
)

// Journal implements ports.Recall with word overlap over what each
// character has lived through.
type Journal struct {
	mu       sync.RWMutex
	memories map[string][]string
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{memories: make(map[string][]string)}
}

// Remember stores a memory for character.
func (j *Journal) Remember(character, memory string) {
	memory = strings.TrimSpace(memory)
	if memory == "" {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.memories[character] = append(j.memories[character], memory)
}

// Hooks records every event of a finished turn into the journals of the
// characters involved.
func (j *Journal) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnEnd: func(_ context.Context, ev *domain.TurnEndEvent) {
			if ev.Result == nil {
				return
			}
			for _, e := range ev.Result.Events {
				for _, name := range e.Involved {
					j.Remember(name, e.Description)
				}
			}
		},
	}
}

// Recall returns up to limit memories sharing the most words with situation.
// Ties keep the most recent memory first.
func (j *Journal) Recall(ctx context.Context, character, situation string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.RLock()
	memories := slices.Clone(j.memories[character])
	j.mu.RUnlock()

	query := words(situation)
	type scored struct {
		text  string
		score int
		index int
	}
	var hits []scored
	for i, m := range memories {
		score := 0
		for w := range words(m) {
			if query[w] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{text: m, score: score, index: i})
		}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return hits[a].index > hits[b].index
	})

	out := make([]string, 0, min(limit, len(hits)))
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, h.text)
	}
	return out, nil
}

func words(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(w) > 3 {
			set[w] = true
		}
	}
	return set
}
