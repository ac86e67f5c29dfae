package combat

import (
	"fmt"
	"sort"

	"github.com/repairman29/mythseeker/internal/game/dice"
)

// PlayerCharacter is the resolved character sheet data the roster builder
// needs for one player: identity plus the stats that drive derived values.
type PlayerCharacter struct {
	// AccountID becomes the participant id.
	AccountID string
	// CharacterID becomes the participant's CharacterRef.
	CharacterID string
	Name        string
	Health      int
	MaxHealth   int
	// Dexterity of 0 means the score is absent; AC defaults to 10 and the
	// initiative modifier to 0.
	Dexterity int
}

// AdversaryDef is a caller-supplied adversary definition. Health, ArmorClass,
// and Initiative are used verbatim.
type AdversaryDef struct {
	Name       string `json:"name"`
	Health     int    `json:"health"`
	ArmorClass int    `json:"armorClass"`
	Initiative int    `json:"initiative"`
}

// DeriveArmorClass computes a player's AC from their dexterity score:
// 10 + floor((dex-10)/2), defaulting to 10 when the score is absent.
func DeriveArmorClass(dexterity int) int {
	if dexterity == 0 {
		return 10
	}
	return 10 + AbilityMod(dexterity)
}

// BuildRoster assembles the encounter roster: players first in session-join
// order, then adversaries in input order with ids "enemy-0", "enemy-1", ...
//
// Player initiative is d20 + the dexterity modifier. Adversary initiative is
// taken verbatim from the definition.
//
// Precondition: src must be non-nil.
// Postcondition: Every returned participant is active with Health > 0
// semantics as supplied; roster order is players-then-adversaries.
func BuildRoster(players []PlayerCharacter, adversaries []AdversaryDef, src dice.Source) []*Participant {
	roster := make([]*Participant, 0, len(players)+len(adversaries))

	for _, pc := range players {
		mod := 0
		if pc.Dexterity != 0 {
			mod = AbilityMod(pc.Dexterity)
		}
		roster = append(roster, &Participant{
			ID:           pc.AccountID,
			Name:         pc.Name,
			Kind:         KindPlayer,
			CharacterRef: pc.CharacterID,
			Health:       pc.Health,
			MaxHealth:    pc.MaxHealth,
			ArmorClass:   DeriveArmorClass(pc.Dexterity),
			Initiative:   dice.RollDie(20, src) + mod,
			Active:       pc.Health > 0,
		})
	}

	for i, def := range adversaries {
		roster = append(roster, &Participant{
			ID:         fmt.Sprintf("enemy-%d", i),
			Name:       def.Name,
			Kind:       KindAdversary,
			Health:     def.Health,
			MaxHealth:  def.Health,
			ArmorClass: def.ArmorClass,
			Initiative: def.Initiative,
			Active:     def.Health > 0,
		})
	}

	return roster
}

// TurnOrder returns participant ids sorted by initiative descending.
// The sort is stable: equal initiatives resolve ties by roster order.
//
// Postcondition: Returns a permutation of the roster's ids.
func TurnOrder(roster []*Participant) []string {
	sorted := make([]*Participant, len(roster))
	copy(sorted, roster)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Initiative > sorted[j].Initiative
	})

	order := make([]string, len(sorted))
	for i, p := range sorted {
		order[i] = p.ID
	}
	return order
}
