// Package session defines the campaign game session model. A game session
// groups the players at a table; at most one combat encounter may be active
// for a session at a time.
package session

import "time"

// PlayerRef ties a seated player account to the character it controls.
type PlayerRef struct {
	AccountID   string `json:"accountId"`
	CharacterID string `json:"characterId"`
}

// GameSession is a persisted campaign session.
type GameSession struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Players        []PlayerRef `json:"players"`
	ActiveCombatID string      `json:"activeCombatId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// HasPlayer reports whether the given account is seated in the session.
func (s *GameSession) HasPlayer(accountID string) bool {
	for _, p := range s.Players {
		if p.AccountID == accountID {
			return true
		}
	}
	return false
}
