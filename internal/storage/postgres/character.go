package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repairman29/mythseeker/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// CharacterRepository provides read access to player characters. Characters
// are created and levelled by the campaign services; the combat server only
// reads them when building rosters and writes health back after encounters.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// GetByID retrieves a character by its primary key.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*character.Character, error) {
	var c character.Character
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_account_id, name, health, max_health,
		       strength, dexterity, constitution, intelligence, wisdom, charisma,
		       created_at, updated_at
		FROM characters WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.OwnerAccountID, &c.Name, &c.Health, &c.MaxHealth,
		&c.Stats.Strength, &c.Stats.Dexterity, &c.Stats.Constitution,
		&c.Stats.Intelligence, &c.Stats.Wisdom, &c.Stats.Charisma,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return &c, nil
}

// SaveHealth persists a character's health after an encounter resolves.
//
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row updated.
func (r *CharacterRepository) SaveHealth(ctx context.Context, id string, health int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters SET health = $2, updated_at = NOW()
		WHERE id = $1`,
		id, health,
	)
	if err != nil {
		return fmt.Errorf("saving character health: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}
