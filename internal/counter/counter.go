// Package counter turns a per-frame pose observation into a robust pull-up
// repetition count. A rolling window of wrist-shoulder differentials is
// classified into a confirmed motion direction with hysteresis, and a
// down→up transition pair of sufficient amplitude counts as one rep.
package counter

import (
	"math"
	"time"

	"github.com/claude/pullupcoach/internal/pose"
)

// Direction is a motion direction label.
type Direction string

const (
	DirectionStable Direction = "stable"
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"

	// directionStarting is reported while the rolling window holds fewer
	// samples than the classifier needs. Never entered into the transition
	// log.
	directionStarting Direction = "starting"
)

// Position is the display label reported for a processed frame.
type Position string

const (
	PositionNeutral       Position = "neutral"
	PositionStable        Position = "stable"
	PositionPullingUp     Position = "pulling_up"
	PositionLoweringDown  Position = "lowering_down"
	PositionNoPerson      Position = "no_person"
	PositionLowConfidence Position = "low_confidence"
	PositionError         Position = "error"
)

// Transition records one confirmed direction change: the new direction, when
// it was confirmed, and the differential at that instant.
type Transition struct {
	Direction Direction
	At        time.Time
	Diff      float64
}

// Counter holds all per-session rep-counting state. It is a single-writer
// structure: frames must be fed in arrival order by one caller at a time.
// Counters for distinct sessions are fully independent.
type Counter struct {
	cfg Config

	count    int
	position Position

	history     *ring[float64]
	transitions *ring[Transition]

	lastRep time.Time

	current    Direction
	consecUp   float64
	consecDown float64

	frames int
}

// New creates a counter in its initial state.
func New(cfg Config) *Counter {
	c := &Counter{
		cfg:         cfg,
		history:     newRing[float64](cfg.HistorySize),
		transitions: newRing[Transition](cfg.DirectionLogSize),
	}
	c.Reset()
	return c
}

// Process feeds one frame's keypoints through classification and rep
// detection and returns the current count plus a display position.
//
// A nil or empty keypoint slice means no person was detected; a frame whose
// required keypoints fall below the confidence threshold is unreliable; a
// frame that cannot produce a finite differential is malformed. All three
// leave every piece of accumulated state untouched: the frame simply never
// happened as far as the rolling window and counters are concerned.
func (c *Counter) Process(kps []pose.Keypoint, now time.Time) (int, Position) {
	if len(kps) == 0 {
		return c.count, PositionNoPerson
	}
	if len(kps) < pose.MinKeypoints {
		return c.count, PositionError
	}

	if pose.MinUpperBodyConfidence(kps) < c.cfg.MinConfidence {
		return c.count, PositionLowConfidence
	}

	diff := pose.Differential(kps)
	if math.IsNaN(diff) || math.IsInf(diff, 0) {
		return c.count, PositionError
	}

	dir, _ := c.classify(diff, now)
	c.detectRep(now)

	switch dir {
	case DirectionUp:
		c.position = PositionPullingUp
	case DirectionDown:
		c.position = PositionLoweringDown
	default:
		c.position = PositionStable
	}
	return c.count, c.position
}

// RecordFrame increments the frame counter and returns the new value. Called
// once per delivered frame, before pose detection, so frames without a
// detection still advance it.
func (c *Counter) RecordFrame() int {
	c.frames++
	return c.frames
}

// Reset restores the counter to its initial state. It is the only operation
// that may decrease the count.
func (c *Counter) Reset() {
	c.count = 0
	c.position = PositionNeutral
	c.history.Clear()
	c.transitions.Clear()
	c.lastRep = time.Time{}
	c.current = DirectionStable
	c.consecUp = 0
	c.consecDown = 0
	c.frames = 0
}

// Count returns the number of reps counted so far.
func (c *Counter) Count() int { return c.count }

// Position returns the display position of the most recent processed frame.
func (c *Counter) Position() Position { return c.position }

// Direction returns the currently confirmed motion direction.
func (c *Counter) Direction() Direction { return c.current }

// Frames returns the number of frames delivered since the last reset.
func (c *Counter) Frames() int { return c.frames }
