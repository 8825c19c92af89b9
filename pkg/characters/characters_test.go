package characters_test

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/characters"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/scenario"
)

func TestParseCard(t *testing.T) {
	t.Run("nested", func(t *testing.T) {
		c, err := characters.ParseCard([]byte(`{"spec":"chara_card_v2","data":{
			"name":"Graves","description":"The butler.",
			"extensions":{"murder_mystery":{"possible_roles":["witness","killer"],"default_location":"hall"}}}}`), "")
		require.NoError(t, err)
		assert.Equal(t, "Graves", c.Name)
		assert.Equal(t, "The butler.", c.Description)
		require.NotNil(t, c.Profile)
		assert.Equal(t, []domain.Role{domain.RoleWitness, domain.RoleKiller}, c.Profile.PossibleRoles)
		assert.Equal(t, "hall", c.DefaultLocation())
	})

	t.Run("flat without extension", func(t *testing.T) {
		c, err := characters.ParseCard([]byte(`{"name":"Mrs. Pike","personality":"Warm"}`), "")
		require.NoError(t, err)
		assert.Equal(t, "Warm", c.Personality)
		assert.Equal(t, []domain.Role{domain.RoleSuspect, domain.RoleWitness}, c.Profile.PossibleRoles)
	})

	t.Run("fallback name", func(t *testing.T) {
		c, err := characters.ParseCard([]byte(`{}`), "Nobody")
		require.NoError(t, err)
		assert.Equal(t, "Nobody", c.Name)

		_, err = characters.ParseCard([]byte(`{}`), "")
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := characters.ParseCard([]byte(`{"name":"X","extensions":{"murder_mystery":{"possible_roles":["butler"]}}}`), "")
		assert.Error(t, err)
	})
}

func TestLoadCard_NamesFromFile(t *testing.T) {
	c, err := characters.LoadCard(filepath.Join("testdata", "lady_grey.json"))
	require.NoError(t, err)
	assert.Equal(t, "Lady Grey", c.Name)
	assert.Equal(t, []domain.Role{domain.RoleWitness, domain.RoleVictim}, c.Profile.PossibleRoles)
	assert.Equal(t, []string{"Writes under a pseudonym."}, c.Profile.Secrets, "a single secret is widened to a list")
}

func TestLoadDir(t *testing.T) {
	pool, err := characters.LoadDir("testdata")
	require.NoError(t, err)
	require.Len(t, pool, 1, "broken and invalid cards are skipped")
	assert.Equal(t, "Lady Grey", pool[0].Name)

	_, err = characters.LoadDir(filepath.Join("testdata", "missing"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	pool := characters.Default()
	require.Len(t, pool, 8)

	names := make([]string, len(pool))
	for i, c := range pool {
		names[i] = c.Name
		assert.NotNil(t, c.Profile, c.Name)
	}
	assert.Contains(t, names, "Dr. Evelyn Hart")
	assert.Contains(t, names, "Mrs. Pike")
	assert.Contains(t, names, "Lord Edmund Ashcombe")
}

func TestSelectCast(t *testing.T) {
	pool := characters.Default()
	rng := rand.New(rand.NewPCG(1, 2))

	npcs, victim, err := characters.SelectCast(pool, 7, rng)
	require.NoError(t, err)
	assert.Len(t, npcs, 7)
	assert.Equal(t, domain.RoleVictim, victim.Role)
	assert.True(t, characters.CanBe(victim, domain.RoleVictim))
	for _, n := range npcs {
		assert.NotEqual(t, victim.Name, n.Name)
	}

	_, _, err = characters.SelectCast(pool, 8, rng)
	assert.Error(t, err, "needs n+1 cards")
}

func TestSelectCast_FallsBackToLastDrawn(t *testing.T) {
	pool := []domain.Character{{Name: "A"}, {Name: "B"}}
	npcs, victim, err := characters.SelectCast(pool, 1, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	require.Len(t, npcs, 1)
	assert.NotEqual(t, npcs[0].Name, victim.Name)
	assert.Equal(t, domain.RoleVictim, victim.Role)
}

func TestCastFor(t *testing.T) {
	sc := &scenario.Scenario{
		Murder: scenario.Murder{Victim: "Lord Edmund Ashcombe", Killer: "Dr. Evelyn Hart"},
		NPCKnowledge: map[string]scenario.Knowledge{
			"Graves":          {},
			"Dr. Evelyn Hart": {},
			"A Stranger":      {},
		},
	}
	npcs, victim, err := characters.CastFor(sc, characters.Default())
	require.NoError(t, err)
	assert.Equal(t, "Lord Edmund Ashcombe", victim.Name)
	assert.Equal(t, domain.RoleVictim, victim.Role)

	names := make([]string, len(npcs))
	for i, n := range npcs {
		names[i] = n.Name
	}
	assert.ElementsMatch(t, []string{"Graves", "Dr. Evelyn Hart", "A Stranger"}, names)
	assert.Equal(t, "A Stranger", names[len(names)-1], "unknown names come last")
}

func TestNewPlayer(t *testing.T) {
	p := characters.NewPlayer("", domain.RoleKiller)
	assert.Equal(t, "The Player", p.Name)
	assert.True(t, p.IsPlayer)
	assert.Equal(t, domain.RoleKiller, p.Role)
}

func TestRandomCast(t *testing.T) {
	cast := characters.RandomCast(characters.Default(), 3, rand.New(rand.NewPCG(5, 6)))
	for range 4 {
		npcs, victim, err := cast(context.Background())
		require.NoError(t, err)
		assert.Len(t, npcs, 3)
		assert.Equal(t, domain.RoleVictim, victim.Role)
	}

	_, _, err := characters.RandomCast(characters.Default()[:2], 5, nil)(context.Background())
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("é", 120)
	got := characters.Summarize([]domain.Character{
		{Name: "Graves", Description: "The butler.", Profile: &domain.Profile{
			PossibleRoles: []domain.Role{domain.RoleSuspect},
			Secrets:       []string{"Reads letters."},
		}},
		{Name: "Hart", Description: long},
	})

	require.Len(t, got, 2)
	assert.Equal(t, characters.Summary{Name: "Graves", Description: "The butler.", PossibleRoles: []domain.Role{domain.RoleSuspect}}, got[0])
	assert.Equal(t, strings.Repeat("é", 100)+"...", got[1].Description)
	assert.Nil(t, got[1].PossibleRoles)
}
