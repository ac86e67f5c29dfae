package combat

import (
	"fmt"
	"time"
)

// Status is the combat session lifecycle state. Completed and fled are
// terminal; once set, no further Act calls are accepted.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFled      Status = "fled"
)

// Environment is static descriptive metadata captured at encounter start.
// It is recorded on the session but never consulted by resolution logic;
// a documented extension point for future mechanical hooks.
type Environment struct {
	Terrain  string   `json:"terrain,omitempty"`
	Lighting string   `json:"lighting,omitempty"`
	Weather  string   `json:"weather,omitempty"`
	Cover    []string `json:"cover,omitempty"`
}

// Session is the combat aggregate root: one bounded encounter tied to a
// parent game session.
//
// Invariant: TurnOrder is a permutation of participant ids, fixed at
// creation, sorted by initiative descending with ties in roster order.
// Invariant: 0 <= CurrentTurnIndex < len(TurnOrder); Round >= 1.
type Session struct {
	ID             string `json:"id"`
	OwnerSessionID string `json:"ownerSessionId"`
	Status         Status `json:"status"`
	// Participants holds roster order (players first, then adversaries),
	// not turn order.
	Participants     []*Participant `json:"participants"`
	TurnOrder        []string       `json:"turnOrder"`
	CurrentTurnIndex int            `json:"currentTurnIndex"`
	Round            int            `json:"round"`
	// Actions is the append-only resolution log.
	Actions      []ActionRecord `json:"actions"`
	Environment  Environment    `json:"environment"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastActivity time.Time      `json:"lastActivity"`
	// Version is the optimistic-concurrency counter checked by the store on
	// every write.
	Version int64 `json:"version"`
}

// NewSession creates an active session from an assembled roster.
// Turn order is computed here and never changes for the encounter's duration.
//
// Precondition: id and ownerSessionID must be non-empty.
// Postcondition: Status is active, Round == 1, CurrentTurnIndex == 0, or
// ErrEmptyRoster when the roster has no participants.
func NewSession(id, ownerSessionID string, roster []*Participant, env Environment, now time.Time) (*Session, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	return &Session{
		ID:               id,
		OwnerSessionID:   ownerSessionID,
		Status:           StatusActive,
		Participants:     roster,
		TurnOrder:        TurnOrder(roster),
		CurrentTurnIndex: 0,
		Round:            1,
		Actions:          []ActionRecord{},
		Environment:      env,
		CreatedAt:        now,
		LastActivity:     now,
	}, nil
}

// Terminal reports whether the session has left the active state.
func (s *Session) Terminal() bool { return s.Status != StatusActive }

// CurrentActorID returns the participant id whose turn it is.
//
// Inactive participants are NOT skipped: a defeated combatant's slot is
// still "their turn". The resolver no-ops for them.
//
// Postcondition: Returns a turn-order id, or ErrNoActiveParticipant when the
// turn order is empty or the index is out of bounds.
func (s *Session) CurrentActorID() (string, error) {
	if len(s.TurnOrder) == 0 {
		return "", fmt.Errorf("%w: empty turn order", ErrNoActiveParticipant)
	}
	if s.CurrentTurnIndex < 0 || s.CurrentTurnIndex >= len(s.TurnOrder) {
		return "", fmt.Errorf("%w: turn index %d out of range", ErrNoActiveParticipant, s.CurrentTurnIndex)
	}
	return s.TurnOrder[s.CurrentTurnIndex], nil
}

// Advance moves to the next slot in turn order, incrementing Round when the
// index wraps to 0.
//
// Precondition: len(s.TurnOrder) > 0 (guaranteed by NewSession).
func (s *Session) Advance() {
	s.CurrentTurnIndex = (s.CurrentTurnIndex + 1) % len(s.TurnOrder)
	if s.CurrentTurnIndex == 0 {
		s.Round++
	}
}

// FindParticipant returns the participant with the given id, or nil.
func (s *Session) FindParticipant(id string) *Participant {
	for _, p := range s.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ActiveCount returns the number of active participants of the given kind.
func (s *Session) ActiveCount(kind Kind) int {
	n := 0
	for _, p := range s.Participants {
		if p.Kind == kind && p.Active {
			n++
		}
	}
	return n
}

// EvaluateOutcome flips Status to completed when either side has no active
// members. It never sets fled; that outcome only arrives via End.
//
// Status alone communicates "the encounter is over" — callers inspect which
// side has zero active members to render victory or defeat.
//
// Postcondition: Status is completed iff a side was wiped out; otherwise
// unchanged.
func (s *Session) EvaluateOutcome() {
	if s.Terminal() {
		return
	}
	if s.ActiveCount(KindPlayer) == 0 || s.ActiveCount(KindAdversary) == 0 {
		s.Status = StatusCompleted
	}
}

// Touch updates the activity timestamp.
func (s *Session) Touch(now time.Time) { s.LastActivity = now }
