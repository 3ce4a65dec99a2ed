package counter

import (
	"math"
	"time"
)

// detectRep inspects the transition log for a completed down→up cycle and
// counts it when it spans enough amplitude. Runs once per frame, after
// classification. Returns true when a rep was counted.
func (c *Counter) detectRep(now time.Time) bool {
	// Cooldown: one physical rep (or sensor bounce) must not count twice.
	if !c.lastRep.IsZero() && now.Sub(c.lastRep) <= c.cfg.RepCooldown {
		return false
	}

	if c.transitions.Len() < 2 {
		return false
	}

	pair := c.transitions.Last(2)
	down, up := pair[0], pair[1]
	if down.Direction != DirectionDown || up.Direction != DirectionUp {
		return false
	}

	// Amplitude gate: the differential span between the two transition
	// instants must exceed the minimum range, or it is just wobble.
	if math.Abs(up.Diff-down.Diff) <= c.cfg.MinMovementRange {
		return false
	}

	c.count++
	c.lastRep = now
	// Clear the whole log so the counted pair can never match again. Any
	// other transition that queued up alongside it is discarded with it.
	c.transitions.Clear()
	return true
}
