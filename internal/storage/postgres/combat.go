package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repairman29/mythseeker/internal/game/combat"
)

// ErrCombatNotFound is returned when a combat session lookup yields no results.
var ErrCombatNotFound = errors.New("combat session not found")

// ErrVersionConflict is returned when a combat update loses a write race. The
// caller should reload the session and retry.
var ErrVersionConflict = errors.New("combat session version conflict")

// CombatRepository persists combat sessions as JSONB documents guarded by a
// version column. Every update is a compare-and-swap on the version read, so
// two interleaved writers cannot both commit against the same snapshot.
type CombatRepository struct {
	db *pgxpool.Pool
}

// NewCombatRepository creates a CombatRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatRepository(db *pgxpool.Pool) *CombatRepository {
	return &CombatRepository{db: db}
}

// Create inserts a new combat session document.
//
// Precondition: sess.ID must be unique.
// Postcondition: sess.Version is 1 on success.
func (r *CombatRepository) Create(ctx context.Context, sess *combat.Session) error {
	sess.Version = 1
	_, err := r.db.Exec(ctx, `
		INSERT INTO combat_sessions (id, owner_session_id, status, doc, version)
		VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.OwnerSessionID, string(sess.Status), sess, sess.Version,
	)
	if err != nil {
		return fmt.Errorf("inserting combat session: %w", err)
	}
	return nil
}

// Get retrieves a combat session by ID. The version column is authoritative
// over whatever version the stored document carries.
//
// Postcondition: Returns the Session or ErrCombatNotFound.
func (r *CombatRepository) Get(ctx context.Context, id string) (*combat.Session, error) {
	var (
		sess    combat.Session
		version int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT doc, version FROM combat_sessions WHERE id = $1`,
		id,
	).Scan(&sess, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCombatNotFound
		}
		return nil, fmt.Errorf("querying combat session: %w", err)
	}
	sess.Version = version
	return &sess, nil
}

// ListStale returns active combat sessions not updated since the cutoff.
// Used by the idle reaper to expire abandoned encounters.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CombatRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*combat.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT doc, version FROM combat_sessions
		WHERE status = $1 AND updated_at < $2`,
		string(combat.StatusActive), cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stale combat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*combat.Session
	for rows.Next() {
		var (
			sess    combat.Session
			version int64
		)
		if err := rows.Scan(&sess, &version); err != nil {
			return nil, fmt.Errorf("scanning combat session row: %w", err)
		}
		sess.Version = version
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// Delete removes a combat session document. Used to roll back a combat whose
// activation on the owner session failed.
//
// Postcondition: Returns ErrCombatNotFound if no row was deleted.
func (r *CombatRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM combat_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting combat session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCombatNotFound
	}
	return nil
}

// Update writes the session document back, succeeding only if the stored
// version still matches the version the caller read.
//
// Precondition: sess must have been loaded via Get or Create.
// Postcondition: sess.Version is incremented on success. Returns
// ErrVersionConflict if another writer committed first, ErrCombatNotFound if
// the session no longer exists.
func (r *CombatRepository) Update(ctx context.Context, sess *combat.Session) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE combat_sessions
		SET doc = $2, status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $4`,
		sess.ID, sess, string(sess.Status), sess.Version,
	)
	if err != nil {
		return fmt.Errorf("updating combat session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM combat_sessions WHERE id = $1)`,
			sess.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("checking combat session existence: %w", err)
		}
		if !exists {
			return ErrCombatNotFound
		}
		return ErrVersionConflict
	}
	sess.Version++
	return nil
}
