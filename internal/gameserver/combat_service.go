// Package gameserver orchestrates combat encounters on top of the game
// domain packages: it owns session loading, authorization, persistence, and
// narration, while the combat package owns the rules.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/repairman29/mythseeker/internal/game/adversary"
	"github.com/repairman29/mythseeker/internal/game/character"
	"github.com/repairman29/mythseeker/internal/game/combat"
	"github.com/repairman29/mythseeker/internal/game/dice"
	"github.com/repairman29/mythseeker/internal/game/narrative"
	"github.com/repairman29/mythseeker/internal/game/session"
	"github.com/repairman29/mythseeker/internal/storage/postgres"
)

// ErrNotAuthorized is returned when the caller is not seated in the game
// session that owns the combat, or acts on another player's turn.
var ErrNotAuthorized = errors.New("caller is not authorized for this combat")

// ErrCombatAlreadyActive is returned when starting a combat for a session
// that already has one running.
var ErrCombatAlreadyActive = errors.New("game session already has an active combat")

// ErrUnknownTemplate is returned when an adversary spec names a template ID
// that is not registered.
var ErrUnknownTemplate = errors.New("unknown adversary template")

// ErrInvalidResult is returned when End is called with a result outside
// victory, defeat, or fled.
var ErrInvalidResult = errors.New("invalid combat result")

// narrateTimeout bounds how long a single Act call waits on the narrator.
const narrateTimeout = 5 * time.Second

// CharacterStore loads characters for roster building and writes health back
// when an encounter ends.
type CharacterStore interface {
	GetByID(ctx context.Context, id string) (*character.Character, error)
	SaveHealth(ctx context.Context, id string, health int) error
}

// GameSessionStore resolves the campaign session that owns a combat.
type GameSessionStore interface {
	GetByID(ctx context.Context, id string) (*session.GameSession, error)
	SetActiveCombat(ctx context.Context, sessionID, combatID string) error
	ClearActiveCombat(ctx context.Context, sessionID string) error
}

// CombatStore persists combat sessions. Update must be a compare-and-swap on
// the session version.
type CombatStore interface {
	Create(ctx context.Context, sess *combat.Session) error
	Get(ctx context.Context, id string) (*combat.Session, error)
	Update(ctx context.Context, sess *combat.Session) error
	Delete(ctx context.Context, id string) error
	ListStale(ctx context.Context, cutoff time.Time) ([]*combat.Session, error)
}

// AdversarySpec selects one adversary for an encounter: either a registered
// template by ID, or an inline custom definition. Exactly one must be set.
type AdversarySpec struct {
	TemplateID string               `json:"templateId,omitempty"`
	Custom     *combat.AdversaryDef `json:"custom,omitempty"`
}

// StartResult is the response to a successful Start.
type StartResult struct {
	CombatID       string
	Session        *combat.Session
	CurrentActorID string
}

// StateResult is the response to GetState.
type StateResult struct {
	Session        *combat.Session
	CurrentActorID string
	IsPlayerTurn   bool
}

// ActResult is the response to a successful Act.
type ActResult struct {
	Record      *combat.ActionRecord
	NextActorID string
	Status      combat.Status
	Round       int
}

// EndResult is the response to a successful End.
type EndResult struct {
	Result string
	Status combat.Status
}

// CombatService coordinates the full combat lifecycle: Start, GetState, Act,
// and End.
//
// A per-combat mutex serialises Act and End within this process; the store's
// versioned writes reject whatever slips past it (other replicas, stale
// retries). Both layers are needed: the mutex gives callers first-writer-wins
// without spurious conflicts, the version check makes lost updates impossible.
type CombatService struct {
	characters CharacterStore
	sessions   GameSessionStore
	combats    CombatStore
	templates  *adversary.Registry
	dice       *dice.Roller
	narrator   narrative.Narrator
	logger     *zap.Logger
	now        func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewCombatService creates a CombatService.
//
// Precondition: characters, sessions, combats, templates, diceRoller, and
// logger must be non-nil. narrator may be nil; narration is skipped.
func NewCombatService(
	characters CharacterStore,
	sessions GameSessionStore,
	combats CombatStore,
	templates *adversary.Registry,
	diceRoller *dice.Roller,
	narrator narrative.Narrator,
	logger *zap.Logger,
) *CombatService {
	return &CombatService{
		characters: characters,
		sessions:   sessions,
		combats:    combats,
		templates:  templates,
		dice:       diceRoller,
		narrator:   narrator,
		logger:     logger,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Start creates a combat encounter for the given game session: it resolves
// the seated players' characters into a roster, rolls initiative, persists
// the new session, and marks it active on the owner.
//
// Precondition: callerID must be seated in the owner session.
// Postcondition: On success, the owner session references the new combat and
// the returned session is active on round 1. On failure, no combat document
// is left behind.
func (s *CombatService) Start(ctx context.Context, callerID, ownerSessionID string, specs []AdversarySpec, env combat.Environment) (*StartResult, error) {
	owner, err := s.sessions.GetByID(ctx, ownerSessionID)
	if err != nil {
		return nil, err
	}
	if !owner.HasPlayer(callerID) {
		return nil, fmt.Errorf("%w: %q is not seated in session %q", ErrNotAuthorized, callerID, ownerSessionID)
	}
	if owner.ActiveCombatID != "" {
		return nil, fmt.Errorf("%w: combat %q is running", ErrCombatAlreadyActive, owner.ActiveCombatID)
	}

	players := make([]combat.PlayerCharacter, 0, len(owner.Players))
	for _, ref := range owner.Players {
		ch, err := s.characters.GetByID(ctx, ref.CharacterID)
		if err != nil {
			return nil, fmt.Errorf("resolving character %q: %w", ref.CharacterID, err)
		}
		players = append(players, combat.PlayerCharacter{
			AccountID:   ref.AccountID,
			CharacterID: ch.ID,
			Name:        ch.Name,
			Health:      ch.Health,
			MaxHealth:   ch.MaxHealth,
			Dexterity:   ch.Stats.Dexterity,
		})
	}

	defs, err := s.resolveAdversaries(specs)
	if err != nil {
		return nil, err
	}

	roster := combat.BuildRoster(players, defs, s.dice.Src())
	sess, err := combat.NewSession(uuid.NewString(), ownerSessionID, roster, env, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.combats.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("persisting combat session: %w", err)
	}
	if err := s.sessions.SetActiveCombat(ctx, ownerSessionID, sess.ID); err != nil {
		// Roll back the document so a combat nobody's session references
		// cannot be acted on.
		if delErr := s.combats.Delete(ctx, sess.ID); delErr != nil {
			s.logger.Error("failed to roll back combat after activation failure",
				zap.String("combat_id", sess.ID),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("marking combat active: %w", err)
	}

	actorID, err := sess.CurrentActorID()
	if err != nil {
		return nil, err
	}

	s.logger.Info("combat started",
		zap.String("combat_id", sess.ID),
		zap.String("session_id", ownerSessionID),
		zap.Int("participants", len(roster)),
	)

	return &StartResult{CombatID: sess.ID, Session: sess, CurrentActorID: actorID}, nil
}

// GetState returns the current combat state for any seated player.
//
// Precondition: callerID must be seated in the owning session.
func (s *CombatService) GetState(ctx context.Context, callerID, combatID string) (*StateResult, error) {
	sess, err := s.combats.Get(ctx, combatID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, sess); err != nil {
		return nil, err
	}

	actorID, err := sess.CurrentActorID()
	if err != nil {
		return nil, err
	}
	actor := sess.FindParticipant(actorID)
	isPlayerTurn := actor != nil && actor.Kind == combat.KindPlayer

	return &StateResult{Session: sess, CurrentActorID: actorID, IsPlayerTurn: isPlayerTurn}, nil
}

// Act resolves one action for the combat's current actor.
//
// The caller must be seated in the owning session. When the current actor is
// a player, only that player may act; adversary turns may be driven by any
// seated player.
//
// Precondition: combatID must reference an existing combat.
// Postcondition: On success, exactly one action was recorded, the turn
// advanced, and the persisted document reflects the new state.
func (s *CombatService) Act(ctx context.Context, callerID, combatID string, req combat.ActionRequest) (*ActResult, error) {
	result, scene, err := s.resolveAction(ctx, callerID, combatID, req)
	if err != nil {
		return nil, err
	}

	// Narration runs after the versioned write commits and outside the
	// per-combat lock, so a slow model round trip never stalls other
	// callers. The stored record keeps the mechanical description.
	if line := s.narrate(ctx, scene); line != "" {
		result.Record.Description = line
	}
	return result, nil
}

// resolveAction is the locked portion of Act: load, authorize, resolve, and
// commit the versioned write.
func (s *CombatService) resolveAction(ctx context.Context, callerID, combatID string, req combat.ActionRequest) (*ActResult, narrative.Scene, error) {
	lock := s.lockFor(combatID)
	lock.Lock()
	defer lock.Unlock()

	var scene narrative.Scene

	sess, err := s.combats.Get(ctx, combatID)
	if err != nil {
		return nil, scene, err
	}
	if sess.Terminal() {
		return nil, scene, fmt.Errorf("%w: status is %q", combat.ErrTerminalSession, sess.Status)
	}
	if err := s.authorize(ctx, callerID, sess); err != nil {
		return nil, scene, err
	}

	actorID, err := sess.CurrentActorID()
	if err != nil {
		return nil, scene, err
	}
	actor := sess.FindParticipant(actorID)
	if actor != nil && actor.Kind == combat.KindPlayer && actor.ID != callerID {
		return nil, scene, fmt.Errorf("%w: it is %s's turn", ErrNotAuthorized, actor.Name)
	}

	record, err := combat.Resolve(sess, req, s.dice.Src(), s.now())
	if err != nil {
		return nil, scene, err
	}

	if err := s.combats.Update(ctx, sess); err != nil {
		return nil, scene, err
	}

	if sess.Terminal() {
		s.finishEncounter(ctx, sess)
	}

	nextActorID := ""
	if id, err := sess.CurrentActorID(); err == nil {
		nextActorID = id
	}

	s.logger.Debug("action resolved",
		zap.String("combat_id", sess.ID),
		zap.String("actor_id", record.ActorID),
		zap.String("action", string(record.Type)),
		zap.String("status", string(sess.Status)),
	)

	scene = narrative.Scene{
		Record:  *record,
		Terrain: sess.Environment.Terrain,
	}
	if actor := sess.FindParticipant(record.ActorID); actor != nil {
		scene.ActorName = actor.Name
	}
	if record.TargetID != "" {
		if target := sess.FindParticipant(record.TargetID); target != nil {
			scene.TargetName = target.Name
		}
	}

	return &ActResult{
		Record:      record,
		NextActorID: nextActorID,
		Status:      sess.Status,
		Round:       sess.Round,
	}, scene, nil
}

// End terminates a combat with an explicit result: "victory" and "defeat"
// complete the encounter, "fled" abandons it. This is the only path that
// produces the fled status.
//
// Precondition: callerID must be seated in the owning session; the combat
// must still be active.
// Postcondition: On success, the session is terminal, player health is
// written back, and the owner session's combat reference is cleared.
func (s *CombatService) End(ctx context.Context, callerID, combatID, result string) (*EndResult, error) {
	var status combat.Status
	switch result {
	case "victory", "defeat":
		status = combat.StatusCompleted
	case "fled":
		status = combat.StatusFled
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}

	lock := s.lockFor(combatID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.combats.Get(ctx, combatID)
	if err != nil {
		return nil, err
	}
	if sess.Terminal() {
		return nil, fmt.Errorf("%w: status is %q", combat.ErrTerminalSession, sess.Status)
	}
	if err := s.authorize(ctx, callerID, sess); err != nil {
		return nil, err
	}

	sess.Status = status
	sess.Touch(s.now())

	if err := s.combats.Update(ctx, sess); err != nil {
		return nil, err
	}
	s.finishEncounter(ctx, sess)

	s.logger.Info("combat ended",
		zap.String("combat_id", sess.ID),
		zap.String("result", result),
	)

	return &EndResult{Result: result, Status: sess.Status}, nil
}

// ReapIdle expires active combats with no activity since the idle window:
// each is marked fled, health is written back, and the owner session's combat
// slot is released. Returns the number of combats expired.
//
// A combat that receives an action between the listing and the expiry write
// is left alone: the versioned update loses the race and the reaper moves on.
func (s *CombatService) ReapIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	stale, err := s.combats.ListStale(ctx, s.now().Add(-idleFor))
	if err != nil {
		return 0, fmt.Errorf("listing idle combats: %w", err)
	}

	reaped := 0
	for _, found := range stale {
		lock := s.lockFor(found.ID)
		lock.Lock()

		sess, err := s.combats.Get(ctx, found.ID)
		if err != nil || sess.Terminal() {
			lock.Unlock()
			continue
		}
		sess.Status = combat.StatusFled
		sess.Touch(s.now())
		if err := s.combats.Update(ctx, sess); err != nil {
			lock.Unlock()
			if errors.Is(err, postgres.ErrVersionConflict) {
				continue
			}
			return reaped, fmt.Errorf("expiring combat %q: %w", sess.ID, err)
		}
		s.finishEncounter(ctx, sess)
		lock.Unlock()

		s.logger.Info("idle combat expired",
			zap.String("combat_id", sess.ID),
			zap.Time("last_activity", sess.LastActivity),
		)
		reaped++
	}
	return reaped, nil
}

// authorize checks that the caller is seated in the combat's owning session.
func (s *CombatService) authorize(ctx context.Context, callerID string, sess *combat.Session) error {
	owner, err := s.sessions.GetByID(ctx, sess.OwnerSessionID)
	if err != nil {
		return fmt.Errorf("resolving owner session: %w", err)
	}
	if !owner.HasPlayer(callerID) {
		return fmt.Errorf("%w: %q is not seated in session %q", ErrNotAuthorized, callerID, sess.OwnerSessionID)
	}
	return nil
}

// resolveAdversaries expands adversary specs into encounter definitions.
// Template initiative is d20 + the template's bonus; custom definitions are
// used verbatim.
func (s *CombatService) resolveAdversaries(specs []AdversarySpec) ([]combat.AdversaryDef, error) {
	defs := make([]combat.AdversaryDef, 0, len(specs))
	for i, spec := range specs {
		switch {
		case spec.TemplateID != "" && spec.Custom != nil:
			return nil, fmt.Errorf("%w: adversary %d sets both templateId and custom", combat.ErrInvalidAction, i)
		case spec.TemplateID != "":
			tmpl, ok := s.templates.Get(spec.TemplateID)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, spec.TemplateID)
			}
			defs = append(defs, tmpl.Def(s.dice.D20()+tmpl.InitiativeBonus))
		case spec.Custom != nil:
			if spec.Custom.Name == "" || spec.Custom.Health < 1 {
				return nil, fmt.Errorf("%w: adversary %d needs a name and health >= 1", combat.ErrInvalidAction, i)
			}
			defs = append(defs, *spec.Custom)
		default:
			return nil, fmt.Errorf("%w: adversary %d sets neither templateId nor custom", combat.ErrInvalidAction, i)
		}
	}
	return defs, nil
}

// narrate returns a generated flavor line for the scene, or "" to keep the
// mechanical description. Narration is strictly best-effort: failures log and
// fall back.
func (s *CombatService) narrate(ctx context.Context, scene narrative.Scene) string {
	if s.narrator == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, narrateTimeout)
	defer cancel()

	line, err := s.narrator.Narrate(ctx, scene)
	if err != nil {
		s.logger.Warn("narration failed, keeping mechanical description",
			zap.String("actor", scene.ActorName),
			zap.Error(err),
		)
		return ""
	}
	return line
}

// finishEncounter runs the terminal-state side effects: write player health
// back to character records and release the owner session's combat slot.
// Both are best-effort; failures are logged, not returned, because the
// combat document is already committed as terminal.
func (s *CombatService) finishEncounter(ctx context.Context, sess *combat.Session) {
	for _, p := range sess.Participants {
		if p.Kind != combat.KindPlayer || p.CharacterRef == "" {
			continue
		}
		if err := s.characters.SaveHealth(ctx, p.CharacterRef, p.Health); err != nil {
			s.logger.Warn("failed to persist character health",
				zap.String("combat_id", sess.ID),
				zap.String("character_id", p.CharacterRef),
				zap.Error(err),
			)
		}
	}
	if err := s.sessions.ClearActiveCombat(ctx, sess.OwnerSessionID); err != nil {
		s.logger.Warn("failed to clear active combat reference",
			zap.String("combat_id", sess.ID),
			zap.String("session_id", sess.OwnerSessionID),
			zap.Error(err),
		)
	}
}

// lockFor returns the mutex guarding the given combat, creating it on first
// use. Locks are never removed; combat IDs are UUIDs and the per-entry cost
// is a mutex.
func (s *CombatService) lockFor(combatID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[combatID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[combatID] = lock
	}
	return lock
}
