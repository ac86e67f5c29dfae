// Package narrative decorates resolved combat actions with short generated
// flavor text. Resolution never depends on it: narration failures degrade to
// the mechanical description.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/repairman29/mythseeker/internal/game/combat"
)

// Scene is the minimal context a narrator needs for one resolved action.
type Scene struct {
	ActorName  string
	TargetName string
	Record     combat.ActionRecord
	Terrain    string
}

// Narrator produces a one- or two-sentence narrative line for a scene.
//
// Implementations must be safe for concurrent use. An empty string with a nil
// error means "no narration"; callers keep the mechanical description.
type Narrator interface {
	Narrate(ctx context.Context, scene Scene) (string, error)
}

// Noop is a Narrator that never narrates.
type Noop struct{}

// Narrate always returns an empty line.
func (Noop) Narrate(context.Context, Scene) (string, error) { return "", nil }

// prompt renders the scene into a model prompt.
func prompt(scene Scene) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action: %s by %s", scene.Record.Type, scene.ActorName)
	if scene.TargetName != "" {
		fmt.Fprintf(&b, " against %s", scene.TargetName)
	}
	if scene.Record.Hit != nil {
		if *scene.Record.Hit {
			b.WriteString(". The attack hit")
			if scene.Record.Critical != nil && *scene.Record.Critical {
				b.WriteString(" critically")
			}
		} else {
			b.WriteString(". The attack missed")
		}
	}
	if scene.Record.Damage != nil {
		fmt.Fprintf(&b, ", dealing %d %s damage", *scene.Record.Damage, scene.Record.DamageType)
	}
	if scene.Terrain != "" {
		fmt.Fprintf(&b, ". Terrain: %s", scene.Terrain)
	}
	b.WriteString(".")
	return b.String()
}
