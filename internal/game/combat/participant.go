// Package combat implements the turn-based combat resolution engine for
// MythSeeker encounters: roster assembly, initiative ordering, action
// resolution, and termination detection.
package combat

// Kind distinguishes player combatants from adversary combatants.
type Kind string

const (
	KindPlayer    Kind = "player"
	KindAdversary Kind = "adversary"
)

// Position is a 2D coordinate set by move actions. Environment geometry is
// not otherwise consumed by resolution.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Participant is one combatant in an encounter.
//
// Invariant: Active == (Health > 0) after every resolution step.
// Invariant: 0 <= Health <= MaxHealth.
type Participant struct {
	// ID is unique within the session. Player ids mirror the owning account
	// id; adversary ids are session-local ("enemy-<index>").
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// CharacterRef links a player participant to its character record.
	// Empty for adversaries.
	CharacterRef string `json:"characterRef,omitempty"`
	Health       int    `json:"health"`
	MaxHealth    int    `json:"maxHealth"`
	ArmorClass   int    `json:"armorClass"`
	// Initiative is fixed for the encounter once rolled.
	Initiative int  `json:"initiative"`
	Active     bool `json:"active"`
	// StatusEffects are recorded but not mechanically applied. Extension point.
	StatusEffects []string  `json:"statusEffects,omitempty"`
	Position      *Position `json:"position,omitempty"`
}

// IsPlayer reports whether this participant is player-controlled.
func (p *Participant) IsPlayer() bool { return p.Kind == KindPlayer }

// ApplyDamage reduces Health by amount, flooring at zero, and updates the
// Active flag to match.
//
// Precondition: amount >= 0.
// Postcondition: Health >= 0 and Active == (Health > 0).
func (p *Participant) ApplyDamage(amount int) {
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
	p.Active = p.Health > 0
}

// AbilityMod computes the standard ability modifier using floor division:
// floor((score - 10) / 2).
//
// Postcondition: Returns floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}
