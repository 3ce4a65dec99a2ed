package session

import (
	"gonum.org/v1/gonum/stat"

	"github.com/claude/pullupcoach/internal/counter"
)

// Summary describes a session's progress so far. Pace statistics appear once
// enough reps exist to compute them.
type Summary struct {
	ID        string            `json:"id"`
	Reps      int               `json:"reps"`
	Frames    int               `json:"frames"`
	Position  counter.Position  `json:"position"`
	Direction counter.Direction `json:"direction"`

	// MeanRepIntervalSec and StddevRepIntervalSec describe the spacing of
	// counted reps. Mean needs 2+ reps, stddev 3+.
	MeanRepIntervalSec   *float64 `json:"mean_rep_interval_sec,omitempty"`
	StddevRepIntervalSec *float64 `json:"stddev_rep_interval_sec,omitempty"`
}

// Summarize returns a point-in-time summary of the session.
func (s *Session) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		ID:        s.ID,
		Reps:      s.counter.Count(),
		Frames:    s.counter.Frames(),
		Position:  s.counter.Position(),
		Direction: s.counter.Direction(),
	}

	if len(s.repTimes) >= 2 {
		intervals := make([]float64, len(s.repTimes)-1)
		for i := 1; i < len(s.repTimes); i++ {
			intervals[i-1] = s.repTimes[i].Sub(s.repTimes[i-1]).Seconds()
		}
		mean := stat.Mean(intervals, nil)
		sum.MeanRepIntervalSec = &mean
		if len(intervals) >= 2 {
			sd := stat.StdDev(intervals, nil)
			sum.StddevRepIntervalSec = &sd
		}
	}
	return sum
}
