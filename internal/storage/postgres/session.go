package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repairman29/mythseeker/internal/game/session"
)

// ErrSessionNotFound is returned when a game session lookup yields no results.
var ErrSessionNotFound = errors.New("game session not found")

// GameSessionRepository provides access to campaign game sessions. The player
// roster is stored as a JSONB array so seat order survives round trips.
type GameSessionRepository struct {
	db *pgxpool.Pool
}

// NewGameSessionRepository creates a GameSessionRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewGameSessionRepository(db *pgxpool.Pool) *GameSessionRepository {
	return &GameSessionRepository{db: db}
}

// GetByID retrieves a game session by its primary key.
//
// Postcondition: Returns the GameSession or ErrSessionNotFound.
func (r *GameSessionRepository) GetByID(ctx context.Context, id string) (*session.GameSession, error) {
	var (
		s            session.GameSession
		activeCombat *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, players, active_combat_id, created_at, updated_at
		FROM game_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.Players, &activeCombat, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying game session: %w", err)
	}
	if activeCombat != nil {
		s.ActiveCombatID = *activeCombat
	}
	return &s, nil
}

// SetActiveCombat records the combat encounter currently running for the session.
//
// Precondition: combatID must be non-empty.
// Postcondition: Returns nil on success, ErrSessionNotFound if no row updated.
func (r *GameSessionRepository) SetActiveCombat(ctx context.Context, sessionID, combatID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE game_sessions SET active_combat_id = $2, updated_at = NOW()
		WHERE id = $1`,
		sessionID, combatID,
	)
	if err != nil {
		return fmt.Errorf("setting active combat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ClearActiveCombat removes the session's active combat reference.
//
// Postcondition: Returns nil on success, ErrSessionNotFound if no row updated.
func (r *GameSessionRepository) ClearActiveCombat(ctx context.Context, sessionID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE game_sessions SET active_combat_id = NULL, updated_at = NOW()
		WHERE id = $1`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("clearing active combat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
