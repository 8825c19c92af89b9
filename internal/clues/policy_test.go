package clues_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/whodunit/internal/clues"
	"github.com/aretw0/whodunit/pkg/domain"
)

func TestOnTalk(t *testing.T) {
	p := clues.NewPolicy(rand.New(rand.NewPCG(1, 1)))

	tests := []struct {
		name    string
		tier    domain.Difficulty
		entries int
		want    bool
	}{
		{"easy on first exchange", domain.DifficultyEasy, 2, true},
		{"medium below threshold", domain.DifficultyMedium, 2, false},
		{"medium at threshold", domain.DifficultyMedium, 4, true},
		{"medium above threshold", domain.DifficultyMedium, 6, true},
		{"hard never without rule", domain.DifficultyHard, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clue := domain.Clue{ID: "c", Difficulty: tt.tier}
			assert.Equal(t, tt.want, p.OnTalk(clue, tt.entries, nil))
		})
	}
}

func TestOnInvestigate_MediumChance(t *testing.T) {
	p := clues.NewPolicy(rand.New(rand.NewPCG(42, 7)))
	clue := domain.Clue{ID: "c", Difficulty: domain.DifficultyMedium}

	hits := 0
	const n = 5000
	for i := 0; i < n; i++ {
		if p.OnInvestigate(clue, nil) {
			hits++
		}
	}
	assert.InDelta(t, 0.6, float64(hits)/n, 0.03)
}

func TestOnInvestigate_Bounds(t *testing.T) {
	p := clues.NewPolicy(rand.New(rand.NewPCG(1, 2)))
	easy := domain.Clue{ID: "e", Difficulty: domain.DifficultyEasy}
	medium := domain.Clue{ID: "m", Difficulty: domain.DifficultyMedium}
	hard := domain.Clue{ID: "h", Difficulty: domain.DifficultyHard}

	assert.True(t, p.OnInvestigate(easy, nil))
	assert.False(t, p.OnInvestigate(hard, nil))

	p.MediumInvestigateChance = 0
	assert.False(t, p.OnInvestigate(medium, nil))
	p.MediumInvestigateChance = 1
	assert.True(t, p.OnInvestigate(medium, nil))
}

func TestHardRule(t *testing.T) {
	p := clues.NewPolicy(nil)
	p.Hard = clues.HardRuleFunc(func(c domain.Clue, trigger clues.Trigger, found []domain.Clue) bool {
		if trigger != clues.TriggerInvestigate {
			return false
		}
		for _, f := range found {
			if f.PointsTo == c.PointsTo {
				return true
			}
		}
		return false
	})

	cipher := domain.Clue{ID: "cipher", Difficulty: domain.DifficultyHard, PointsTo: "Dr. Hart"}
	assert.False(t, p.OnInvestigate(cipher, nil))
	assert.False(t, p.OnTalk(cipher, 10, []domain.Clue{{PointsTo: "Dr. Hart"}}))
	assert.True(t, p.OnInvestigate(cipher, []domain.Clue{{ID: "glass", PointsTo: "Dr. Hart"}}))
}

func TestCorroborated(t *testing.T) {
	p := clues.NewPolicy(nil)
	p.Hard = clues.Corroborated(2)
	hard := domain.Clue{ID: "bag", Difficulty: domain.DifficultyHard, PointsTo: "Dr. Hart"}

	one := []domain.Clue{{ID: "glass", PointsTo: "Dr. Hart"}, {ID: "note", PointsTo: "Colonel"}}
	assert.False(t, p.OnTalk(hard, 10, one))

	two := append(one, domain.Clue{ID: "ledger", PointsTo: "dr. hart"})
	assert.True(t, p.OnTalk(hard, 0, two))
	assert.True(t, p.OnInvestigate(hard, two))

	hard.PointsTo = ""
	assert.False(t, p.OnTalk(hard, 0, two), "a clue pointing nowhere is never corroborated")
}
