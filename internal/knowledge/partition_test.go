package knowledge_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/internal/knowledge"
	"github.com/aretw0/whodunit/pkg/domain"
)

func newPartition(opts ...knowledge.Option) *knowledge.Partition {
	return knowledge.New("Dr. Hart", []knowledge.State{
		{
			Name:            "Dr. Hart",
			Alibi:           "Reading in the library.",
			TrueWhereabouts: "In the study, pouring brandy.",
			Secrets:         []string{"Owes a large debt."},
			Attitude:        "calm",
			Suspicions:      "Blames the butler.",
		},
		{
			Name:            "Miss Finch",
			Alibi:           "Playing cards in the hall.",
			TrueWhereabouts: "Listening at the study door.",
			KnownClues:      []string{"argument"},
		},
		{
			Name:            "Graves",
			Alibi:           "Polishing silver.",
			TrueWhereabouts: "Polishing silver.",
		},
	}, opts...)
}

func TestContext_Killer(t *testing.T) {
	p := newPartition()

	ctx := p.Context("Dr. Hart")
	assert.Contains(t, ctx, "You are Dr. Hart.")
	assert.Contains(t, ctx, "Your alibi: Reading in the library.")
	assert.Contains(t, ctx, "SECRET: You are the KILLER. Your true whereabouts: In the study, pouring brandy.")
	assert.Contains(t, ctx, "deflect suspicion")
	assert.Contains(t, ctx, "Your secrets: Owes a large debt.")
	assert.Contains(t, ctx, "Your suspicions: Blames the butler.")
}

func TestContext_Innocent(t *testing.T) {
	p := newPartition()

	ctx := p.Context("Miss Finch")
	assert.NotContains(t, ctx, "KILLER")
	assert.Contains(t, ctx, "(Privately, you were actually: Listening at the study door.)")

	ctx = p.Context("Graves")
	assert.NotContains(t, ctx, "Privately", "matching alibi and whereabouts need no aside")
}

func TestContext_IsolatedPerCharacter(t *testing.T) {
	p := newPartition()
	p.RecordWitnessedEvent("Miss Finch", "Graves dropped a tray.")
	p.RecordInformation("Graves", "Dr. Hart told you: the brandy was fine.")

	assert.NotContains(t, p.Context("Miss Finch"), "brandy was fine")
	assert.NotContains(t, p.Context("Graves"), "dropped a tray")
	assert.NotContains(t, p.Context("Graves"), "Owes a large debt")
	assert.Empty(t, p.Context("Player"))
}

func TestContext_RecentWindow(t *testing.T) {
	p := newPartition()
	for i := 1; i <= 7; i++ {
		p.RecordWitnessedEvent("Graves", fmt.Sprintf("event-%d", i))
		p.RecordInformation("Graves", fmt.Sprintf("info-%d", i))
	}

	ctx := p.Context("Graves")
	assert.NotContains(t, ctx, "event-2")
	assert.Contains(t, ctx, "event-3; event-4; event-5; event-6; event-7")
	assert.NotContains(t, ctx, "info-2")
	assert.Contains(t, ctx, "info-7")

	s, ok := p.State("Graves")
	require.True(t, ok)
	assert.Len(t, s.Witnessed, 7, "history is append-only, only the context is windowed")
}

func TestMutators_NoOpForUnknown(t *testing.T) {
	p := newPartition()
	p.RecordWitnessedEvent("Player", "x")
	p.RecordInformation("Player", "x")
	p.RecordConversation("Player", "Graves", "x")

	_, ok := p.State("Player")
	assert.False(t, ok)
	assert.Zero(t, p.ConversationCount("Player"))
}

func TestIsKiller(t *testing.T) {
	p := newPartition()
	assert.True(t, p.IsKiller("Dr. Hart"))
	assert.False(t, p.IsKiller("Graves"))
	assert.False(t, p.IsKiller(""))
	assert.Equal(t, "Dr. Hart", p.Killer())
}

func TestPlayerVisibleInfo(t *testing.T) {
	p := newPartition()

	view := p.PlayerVisibleInfo(domain.RoleDetective)
	assert.Empty(t, view.KnownAlibis, "no alibi is known before talking")
	assert.False(t, view.IsKiller)

	p.RecordConversation("Miss Finch", "Player", "Asked about the evening.")
	view = p.PlayerVisibleInfo(domain.RoleDetective)
	assert.Equal(t, map[string]string{"Miss Finch": "Playing cards in the hall."}, view.KnownAlibis)

	view = p.PlayerVisibleInfo(domain.RoleKiller)
	assert.True(t, view.IsKiller)
	assert.Equal(t, knowledge.KillerMission, view.Mission)
	assert.NotContains(t, view.KnownAlibis, "Dr. Hart")
}

func TestKnowsAbout(t *testing.T) {
	p := newPartition()
	assert.True(t, p.KnowsAbout("Dr. Hart", "BRANDY"))
	assert.True(t, p.KnowsAbout("Miss Finch", "argument"))
	assert.False(t, p.KnowsAbout("Graves", "brandy"))
	assert.False(t, p.KnowsAbout("Graves", "  "))

	p.RecordWitnessedEvent("Graves", "Saw a brandy glass.")
	assert.True(t, p.KnowsAbout("Graves", "brandy"))
}

type recallFunc func(ctx context.Context, character, situation string, limit int) ([]string, error)

func (f recallFunc) Recall(ctx context.Context, character, situation string, limit int) ([]string, error) {
	return f(ctx, character, situation, limit)
}

func TestRecollect(t *testing.T) {
	t.Run("without recall", func(t *testing.T) {
		assert.Nil(t, newPartition().Recollect(context.Background(), "Graves", "x"))
	})

	t.Run("bounded", func(t *testing.T) {
		p := newPartition(knowledge.WithRecall(recallFunc(func(_ context.Context, c, _ string, limit int) ([]string, error) {
			assert.Equal(t, "Graves", c)
			return []string{"m1", "m2", "m3", "m4"}, nil
		})))
		assert.Equal(t, []string{"m2", "m3", "m4"}, p.Recollect(context.Background(), "Graves", "the study"))
	})

	t.Run("failure yields nothing", func(t *testing.T) {
		p := newPartition(knowledge.WithRecall(recallFunc(func(context.Context, string, string, int) ([]string, error) {
			return nil, errors.New("unreachable")
		})))
		assert.Nil(t, p.Recollect(context.Background(), "Graves", "x"))
	})

	t.Run("player has no memories", func(t *testing.T) {
		p := newPartition(knowledge.WithRecall(recallFunc(func(context.Context, string, string, int) ([]string, error) {
			t.Fatal("recall must not be queried for characters without state")
			return nil, nil
		})))
		assert.Nil(t, p.Recollect(context.Background(), "Player", "x"))
	})
}
