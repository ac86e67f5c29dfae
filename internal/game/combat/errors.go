package combat

import "errors"

// Sentinel errors for the engine's failure taxonomy. The service layer maps
// these to canonical gRPC status codes; wrap with fmt.Errorf("%w: ...") to
// attach detail.
var (
	// ErrInvalidAction marks a malformed action payload (missing target,
	// missing position, unknown action type).
	ErrInvalidAction = errors.New("invalid action")

	// ErrNoActiveParticipant marks a corrupted or unresolvable turn order:
	// the current actor cannot be found among the participants.
	ErrNoActiveParticipant = errors.New("no active participant")

	// ErrTerminalSession marks an Act attempted against a session whose
	// status has left "active".
	ErrTerminalSession = errors.New("combat session is no longer active")

	// ErrEmptyRoster marks a session constructed with no participants.
	// Post-build this must never occur; it is a fatal construction error.
	ErrEmptyRoster = errors.New("combat roster is empty")
)
