// Package dice provides the randomness abstraction for the combat engine.
//
// All die rolls in combat resolution flow through a Source so that resolution
// logic can be tested with fixed outcomes.
package dice

// Source is the randomness provider for die rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollDie rolls a single die with the given number of sides using src.
//
// Precondition: sides >= 2; src must be non-nil.
// Postcondition: Returns a value in [1, sides].
func RollDie(sides int, src Source) int {
	if sides < 2 {
		panic("dice: RollDie called with sides < 2")
	}
	return src.Intn(sides) + 1
}
