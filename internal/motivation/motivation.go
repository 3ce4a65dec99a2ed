// Package motivation selects the coaching message returned with each
// analyzed frame.
package motivation

import "fmt"

// messages cycle with the rep count so the client sees a stable message per
// rep instead of a new one per frame.
var messages = [...]string{
	"Keep pushing, you're strong!",
	"Strong and steady wins!",
	"Feel the burn now!",
	"One more, then another!",
	"Warrior spirit never quits!",
	"You're crushing it today!",
	"Power through, stay focused!",
	"Champions never give up!",
	"Stronger with every rep!",
	"Mind over matter always!",
	"Push your limits higher!",
	"Sweat now, shine later!",
	"Unstoppable force in motion!",
	"Every rep builds greatness!",
	"Fire burns within you!",
	"Transform pain into strength!",
	"Victory is earned daily!",
	"Relentless pursuit of excellence!",
	"Break barriers, exceed expectations!",
	"Beast mode is activated!",
}

// ForRep returns the motivation line for the given rep count. Counts below 1
// get a warm-up prompt.
func ForRep(rep int) string {
	if rep < 1 {
		return "Let's get that first rep!"
	}
	return fmt.Sprintf("Rep %d - %s", rep, messages[(rep-1)%len(messages)])
}
