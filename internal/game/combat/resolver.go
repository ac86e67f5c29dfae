package combat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/repairman29/mythseeker/internal/game/dice"
)

// Damage types dealt by the two damaging action types.
const (
	DamageSlashing = "slashing"
	DamageForce    = "force"
)

// Resolve applies one action for the session's current actor: it validates
// the request, mutates participant state, appends exactly one ActionRecord,
// advances the turn, and re-evaluates the termination condition.
//
// Validation happens before any mutation; on error the session is unchanged.
//
// Attack: d20 vs target AC, hit on roll >= AC, critical on a natural 20
// (which always hits), d8 slashing damage on hit.
// Spell: no to-hit roll — d6 force damage always applies. Intentional
// asymmetry, preserved from the original rules.
// Move: sets the actor's position. Item/dodge/dash: record only.
//
// An inactive current actor is not skipped; their turn resolves as a recorded
// no-op and play advances.
//
// Precondition: sess and src must be non-nil.
// Postcondition: On success, len(sess.Actions) grew by one, the turn advanced,
// and sess.Status reflects the termination check.
func Resolve(sess *Session, req ActionRequest, src dice.Source, now time.Time) (*ActionRecord, error) {
	if sess.Terminal() {
		return nil, fmt.Errorf("%w: status is %q", ErrTerminalSession, sess.Status)
	}

	actorID, err := sess.CurrentActorID()
	if err != nil {
		return nil, err
	}
	actor := sess.FindParticipant(actorID)
	if actor == nil {
		return nil, fmt.Errorf("%w: current actor %q not in roster", ErrNoActiveParticipant, actorID)
	}

	record := ActionRecord{
		ID:          uuid.NewString(),
		ActorID:     actor.ID,
		Type:        req.Type,
		TargetID:    req.TargetID,
		SpellID:     req.SpellID,
		WeaponID:    req.WeaponID,
		Description: req.Description,
		Timestamp:   now,
	}

	if !actor.Active {
		// Defeated combatants still occupy their turn slot.
		record.Description = fmt.Sprintf("%s is down and cannot act", actor.Name)
		return commit(sess, record, now), nil
	}

	switch req.Type {
	case ActionAttack:
		target, err := requireTarget(sess, req)
		if err != nil {
			return nil, err
		}
		roll := dice.RollDie(20, src)
		critical := roll == 20
		hit := critical || roll >= target.ArmorClass
		record.Hit = &hit
		record.Critical = &critical
		if hit {
			damage := dice.RollDie(8, src)
			target.ApplyDamage(damage)
			record.Damage = &damage
			record.DamageType = DamageSlashing
			if record.Description == "" {
				record.Description = fmt.Sprintf("%s hits %s for %d %s damage", actor.Name, target.Name, damage, DamageSlashing)
			}
		} else if record.Description == "" {
			record.Description = fmt.Sprintf("%s attacks %s and misses", actor.Name, target.Name)
		}

	case ActionSpell:
		if req.SpellID == "" {
			return nil, fmt.Errorf("%w: spell requires a spellId", ErrInvalidAction)
		}
		target, err := requireTarget(sess, req)
		if err != nil {
			return nil, err
		}
		// Spells bypass the to-hit roll entirely.
		damage := dice.RollDie(6, src)
		target.ApplyDamage(damage)
		record.Damage = &damage
		record.DamageType = DamageForce
		if record.Description == "" {
			record.Description = fmt.Sprintf("%s casts %s at %s for %d %s damage", actor.Name, req.SpellID, target.Name, damage, DamageForce)
		}

	case ActionMove:
		if req.Position == nil {
			return nil, fmt.Errorf("%w: move requires a position", ErrInvalidAction)
		}
		pos := *req.Position
		actor.Position = &pos
		if record.Description == "" {
			record.Description = fmt.Sprintf("%s moves to (%d, %d)", actor.Name, pos.X, pos.Y)
		}

	case ActionItem, ActionDodge, ActionDash:
		// No mechanical effect defined; the record is the effect.
		if record.Description == "" {
			record.Description = fmt.Sprintf("%s takes the %s action", actor.Name, req.Type)
		}

	default:
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, req.Type)
	}

	return commit(sess, record, now), nil
}

// commit appends the record, advances the turn, and runs the termination
// check — the fixed tail of every resolution.
func commit(sess *Session, record ActionRecord, now time.Time) *ActionRecord {
	sess.Actions = append(sess.Actions, record)
	sess.Advance()
	sess.EvaluateOutcome()
	sess.Touch(now)
	return &sess.Actions[len(sess.Actions)-1]
}

// requireTarget validates and resolves the target of a damaging action.
func requireTarget(sess *Session, req ActionRequest) (*Participant, error) {
	if req.TargetID == "" {
		return nil, fmt.Errorf("%w: %s requires a targetId", ErrInvalidAction, req.Type)
	}
	target := sess.FindParticipant(req.TargetID)
	if target == nil {
		return nil, fmt.Errorf("%w: unknown target %q", ErrInvalidAction, req.TargetID)
	}
	return target, nil
}
