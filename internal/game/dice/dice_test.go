package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/repairman29/mythseeker/internal/game/dice"
)

func TestRollDie_Range(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 100; i++ {
		v := dice.RollDie(20, src)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 20)
	}
}

func TestRollDie_PanicsOnSmallSides(t *testing.T) {
	assert.Panics(t, func() { dice.RollDie(1, dice.NewCryptoSource()) })
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(20), b.Intn(20))
	}
}

func TestSeededSource_Property_InRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		n := rapid.IntRange(1, 100).Draw(rt, "n")
		src := dice.NewSeededSource(seed)
		v := src.Intn(n)
		assert.GreaterOrEqual(rt, v, 0)
		assert.Less(rt, v, n)
	})
}

func TestCryptoSource_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
}

func TestRoller_FixedDice(t *testing.T) {
	src := dice.NewSeededSource(7)
	want := []int{
		dice.RollDie(20, dice.NewSeededSource(7)),
	}
	roller := dice.NewRoller(src, zap.NewNop())
	assert.Equal(t, want[0], roller.D20())
}

func TestRoller_DieSizes(t *testing.T) {
	roller := dice.NewRoller(dice.NewCryptoSource(), zap.NewNop())
	for i := 0; i < 50; i++ {
		assert.LessOrEqual(t, roller.D6(), 6)
		assert.LessOrEqual(t, roller.D8(), 8)
		assert.LessOrEqual(t, roller.D20(), 20)
	}
}
