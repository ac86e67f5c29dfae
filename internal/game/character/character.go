// Package character defines the player character model used when building
// combat rosters. Character creation and progression are handled by the
// campaign services; this package only carries the fields combat reads.
package character

import "time"

// Stats holds the six ability scores. A zero score means the ability was
// never recorded for the character.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Character is a persisted player character.
type Character struct {
	ID             string    `json:"id"`
	OwnerAccountID string    `json:"ownerAccountId"`
	Name           string    `json:"name"`
	Health         int       `json:"health"`
	MaxHealth      int       `json:"maxHealth"`
	Stats          Stats     `json:"stats"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
