package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/repairman29/mythseeker/internal/game/combat"
)

// fixedSource always returns val for any Intn call (clamped to n-1).
type fixedSource struct{ val int }

func (f *fixedSource) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

// scriptSource returns queued values in order, clamping each to n-1.
type scriptSource struct {
	vals []int
	i    int
}

func (s *scriptSource) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	if v >= n {
		return n - 1
	}
	return v
}

func TestDeriveArmorClass(t *testing.T) {
	tests := []struct{ dex, want int }{
		{0, 10}, // absent score defaults to AC 10
		{10, 10},
		{14, 12},
		{15, 12},
		{8, 9},
		{20, 15},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, combat.DeriveArmorClass(tc.dex), "dex=%d", tc.dex)
	}
}

func TestAbilityMod(t *testing.T) {
	tests := []struct{ score, want int }{
		{10, 0},
		{12, 1},
		{8, -1},
		{9, -1}, // floor division: (9-10)/2 floors to -1
		{20, 5},
		{1, -5},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, combat.AbilityMod(tc.score), "score=%d", tc.score)
	}
}

func TestBuildRoster_PlayersThenAdversaries(t *testing.T) {
	players := []combat.PlayerCharacter{
		{AccountID: "acct-1", CharacterID: "char-1", Name: "Alice", Health: 20, MaxHealth: 20, Dexterity: 14},
		{AccountID: "acct-2", CharacterID: "char-2", Name: "Bram", Health: 15, MaxHealth: 18, Dexterity: 10},
	}
	adversaries := []combat.AdversaryDef{
		{Name: "Goblin", Health: 7, ArmorClass: 13, Initiative: 12},
		{Name: "Ogre", Health: 30, ArmorClass: 11, Initiative: 5},
	}

	src := &fixedSource{val: 9} // d20 → 10
	roster := combat.BuildRoster(players, adversaries, src)
	require.Len(t, roster, 4)

	assert.Equal(t, "acct-1", roster[0].ID)
	assert.Equal(t, "char-1", roster[0].CharacterRef)
	assert.Equal(t, combat.KindPlayer, roster[0].Kind)
	assert.Equal(t, 12, roster[0].ArmorClass) // 10 + floor((14-10)/2)
	assert.Equal(t, 12, roster[0].Initiative) // 10 + dex mod 2
	assert.True(t, roster[0].Active)

	assert.Equal(t, 10, roster[1].Initiative) // 10 + dex mod 0

	assert.Equal(t, "enemy-0", roster[2].ID)
	assert.Equal(t, combat.KindAdversary, roster[2].Kind)
	assert.Empty(t, roster[2].CharacterRef)
	assert.Equal(t, 13, roster[2].ArmorClass)
	assert.Equal(t, 12, roster[2].Initiative) // verbatim
	assert.Equal(t, "enemy-1", roster[3].ID)
}

func TestBuildRoster_AbsentDexterity(t *testing.T) {
	roster := combat.BuildRoster(
		[]combat.PlayerCharacter{{AccountID: "a", Name: "X", Health: 10, MaxHealth: 10}},
		nil,
		&fixedSource{val: 4}, // d20 → 5
	)
	require.Len(t, roster, 1)
	assert.Equal(t, 10, roster[0].ArmorClass)
	assert.Equal(t, 5, roster[0].Initiative) // modifier 0 when score absent
}

func TestTurnOrder_StableOnTies(t *testing.T) {
	roster := []*combat.Participant{
		{ID: "P", Initiative: 10},
		{ID: "Q", Initiative: 15},
		{ID: "R", Initiative: 15},
	}
	assert.Equal(t, []string{"Q", "R", "P"}, combat.TurnOrder(roster))
}

func TestTurnOrder_Property_Permutation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		roster := make([]*combat.Participant, n)
		for i := range roster {
			roster[i] = &combat.Participant{
				ID:         string(rune('a' + i)),
				Initiative: rapid.IntRange(-5, 25).Draw(rt, "init"),
			}
		}
		order := combat.TurnOrder(roster)
		require.Len(rt, order, n)

		seen := map[string]bool{}
		for _, id := range order {
			seen[id] = true
		}
		assert.Len(rt, seen, n)

		// Descending initiative throughout.
		byID := map[string]int{}
		for _, p := range roster {
			byID[p.ID] = p.Initiative
		}
		for i := 1; i < len(order); i++ {
			assert.GreaterOrEqual(rt, byID[order[i-1]], byID[order[i]])
		}
	})
}
