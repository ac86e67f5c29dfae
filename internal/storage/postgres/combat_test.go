package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repairman29/mythseeker/internal/game/combat"
	"github.com/repairman29/mythseeker/internal/storage/postgres"
	"github.com/repairman29/mythseeker/internal/testutil"
)

func makeCombatSession(t *testing.T, id string) *combat.Session {
	t.Helper()
	roster := []*combat.Participant{
		{ID: "acct-1", Name: "Alice", Kind: combat.KindPlayer, Health: 12, MaxHealth: 12, ArmorClass: 12, Initiative: 15, Active: true},
		{ID: "enemy-0", Name: "Goblin", Kind: combat.KindAdversary, Health: 7, MaxHealth: 7, ArmorClass: 13, Initiative: 9, Active: true},
	}
	sess, err := combat.NewSession(id, "sess-1", roster, combat.Environment{Terrain: "cavern"}, time.Now().UTC())
	require.NoError(t, err)
	return sess
}

func TestCombatRepository_CreateAndGet(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	id := uniqueID("combat")
	sess := makeCombatSession(t, id)

	require.NoError(t, repo.Create(ctx, sess))
	assert.Equal(t, int64(1), sess.Version)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, combat.StatusActive, got.Status)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, []string{"acct-1", "enemy-0"}, got.TurnOrder)
	assert.Equal(t, "cavern", got.Environment.Terrain)
	require.Len(t, got.Participants, 2)
	assert.Equal(t, "Goblin", got.Participants[1].Name)
}

func TestCombatRepository_Get_NotFound(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, postgres.ErrCombatNotFound)
}

func TestCombatRepository_Update(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	id := uniqueID("combat")
	sess := makeCombatSession(t, id)
	require.NoError(t, repo.Create(ctx, sess))

	sess.FindParticipant("enemy-0").ApplyDamage(3)
	sess.Advance()
	require.NoError(t, repo.Update(ctx, sess))
	assert.Equal(t, int64(2), sess.Version)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, 4, got.FindParticipant("enemy-0").Health)
	assert.Equal(t, 1, got.CurrentTurnIndex)
}

func TestCombatRepository_Update_VersionConflict(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	id := uniqueID("combat")
	sess := makeCombatSession(t, id)
	require.NoError(t, repo.Create(ctx, sess))

	// Two writers load the same snapshot.
	first, err := repo.Get(ctx, id)
	require.NoError(t, err)
	second, err := repo.Get(ctx, id)
	require.NoError(t, err)

	first.Advance()
	require.NoError(t, repo.Update(ctx, first))

	second.Advance()
	assert.ErrorIs(t, repo.Update(ctx, second), postgres.ErrVersionConflict)
}

func TestCombatRepository_Delete(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	id := uniqueID("combat")
	sess := makeCombatSession(t, id)
	require.NoError(t, repo.Create(ctx, sess))

	require.NoError(t, repo.Delete(ctx, id))
	_, err := repo.Get(ctx, id)
	assert.ErrorIs(t, err, postgres.ErrCombatNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, id), postgres.ErrCombatNotFound)
}

func TestCombatRepository_Update_NotFound(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)

	sess := makeCombatSession(t, uniqueID("combat"))
	sess.Version = 1
	assert.ErrorIs(t, repo.Update(context.Background(), sess), postgres.ErrCombatNotFound)
}
