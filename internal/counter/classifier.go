package counter

import (
	"math"
	"time"
)

// minWindow is how many samples the classifier needs before judging a
// direction. Movement is the net change across this window rather than a
// per-frame derivative, which rejects frame-to-frame keypoint jitter.
const minWindow = 5

// classify folds one differential sample into the rolling window and returns
// the confirmed direction plus the unsigned net movement over the window.
//
// A raw direction only becomes the confirmed one after enough consecutive
// confirming frames; stable frames decay the confirmation counters in half
// steps instead of zeroing them, so a single noisy stable frame does not
// erase progress built over several frames. Until a new direction confirms,
// the previous one is retained (hysteresis).
func (c *Counter) classify(diff float64, now time.Time) (Direction, float64) {
	c.history.Append(diff)

	if c.history.Len() < minWindow {
		return directionStarting, 0
	}

	recent := c.history.Last(minWindow)
	movement := recent[len(recent)-1] - recent[0]

	raw := DirectionStable
	if movement > c.cfg.MovementThreshold {
		raw = DirectionUp
	} else if movement < -c.cfg.MovementThreshold {
		raw = DirectionDown
	}

	// The counters are mutually exclusive: confirming one direction zeroes
	// the other.
	switch raw {
	case DirectionUp:
		c.consecUp++
		c.consecDown = 0
	case DirectionDown:
		c.consecDown++
		c.consecUp = 0
	default:
		if c.consecUp > 0 {
			c.consecUp = math.Max(0, c.consecUp-0.5)
		}
		if c.consecDown > 0 {
			c.consecDown = math.Max(0, c.consecDown-0.5)
		}
	}

	confirmed := c.current
	switch {
	case c.consecUp >= c.cfg.MinConsecutiveFrames:
		confirmed = DirectionUp
	case c.consecDown >= c.cfg.MinConsecutiveFrames:
		confirmed = DirectionDown
	case c.consecUp == 0 && c.consecDown == 0:
		confirmed = DirectionStable
	}

	if confirmed != c.current {
		c.transitions.Append(Transition{Direction: confirmed, At: now, Diff: diff})
		c.current = confirmed
	}

	return confirmed, math.Abs(movement)
}
