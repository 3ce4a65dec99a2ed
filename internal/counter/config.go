package counter

import "time"

// Config holds the rep-detection tunables. The defaults are the values the
// detection logic was calibrated with; changing MovementThreshold or
// MinConsecutiveFrames shifts the noise/latency trade-off.
type Config struct {
	// MinConfidence is the lowest acceptable keypoint confidence for the two
	// shoulders and two wrists. Frames below it are discarded entirely.
	MinConfidence float64

	// RepCooldown is the minimum time between two counted reps.
	RepCooldown time.Duration

	// MinConsecutiveFrames is how many confirming frames a raw direction
	// needs before it replaces the current one. Compared with >= against
	// counters that decay in half steps, so it may be met fractionally late.
	MinConsecutiveFrames float64

	// MovementThreshold is the symmetric net-movement threshold (in image
	// units) that separates up/down from stable.
	MovementThreshold float64

	// MinMovementRange is the minimum differential span a down→up cycle must
	// cover to count as a rep.
	MinMovementRange float64

	// HistorySize bounds the rolling window of differential samples.
	HistorySize int

	// DirectionLogSize bounds the log of confirmed direction transitions.
	DirectionLogSize int
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence:        0.3,
		RepCooldown:          2 * time.Second,
		MinConsecutiveFrames: 3,
		MovementThreshold:    8,
		MinMovementRange:     30,
		HistorySize:          30,
		DirectionLogSize:     10,
	}
}
