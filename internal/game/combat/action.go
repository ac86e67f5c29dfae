package combat

import (
	"fmt"
	"time"
)

// ActionType identifies what the current actor does on their turn.
// The set is closed; the resolver switches exhaustively over it.
type ActionType string

const (
	ActionAttack ActionType = "attack"
	ActionSpell  ActionType = "spell"
	ActionMove   ActionType = "move"
	ActionItem   ActionType = "item"
	ActionDodge  ActionType = "dodge"
	ActionDash   ActionType = "dash"
)

// ParseActionType validates a wire-level action type string.
//
// Postcondition: Returns a valid ActionType, or ErrInvalidAction wrapped with
// the offending value.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionAttack, ActionSpell, ActionMove, ActionItem, ActionDodge, ActionDash:
		return ActionType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, s)
	}
}

// ActionRequest is the caller-supplied payload for one Act call. The actor is
// always the session's current actor; requests carry no actor id.
type ActionRequest struct {
	Type        ActionType `json:"actionType"`
	TargetID    string     `json:"targetId,omitempty"`
	SpellID     string     `json:"spellId,omitempty"`
	WeaponID    string     `json:"weaponId,omitempty"`
	Position    *Position  `json:"position,omitempty"`
	Description string     `json:"description,omitempty"`
}

// ActionRecord is the immutable log entry produced by each resolution.
// Records are append-only; the engine never rewrites history.
type ActionRecord struct {
	ID       string     `json:"id"`
	ActorID  string     `json:"actorId"`
	Type     ActionType `json:"actionType"`
	TargetID string     `json:"targetId,omitempty"`
	SpellID  string     `json:"spellId,omitempty"`
	WeaponID string     `json:"weaponId,omitempty"`
	// Hit and Critical are set only for attack actions.
	Hit      *bool `json:"hit,omitempty"`
	Critical *bool `json:"critical,omitempty"`
	// Damage is set when damage was dealt (attack hits and spells).
	Damage      *int      `json:"damage,omitempty"`
	DamageType  string    `json:"damageType,omitempty"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}
