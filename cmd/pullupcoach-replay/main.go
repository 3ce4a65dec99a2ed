// pullupcoach-replay feeds recorded wrist-shoulder differentials through the
// rep counter, printing direction transitions and counted reps. Useful for
// tuning thresholds against a captured session without running the pose
// sidecar: record one differential per line (comments and blank lines are
// skipped) and replay at the capture frame rate.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/claude/pullupcoach/internal/counter"
	"github.com/claude/pullupcoach/internal/pose"
)

func main() {
	input := flag.String("input", "-", "differential samples file, one per line ('-' for stdin)")
	fps := flag.Float64("fps", 10, "frames per second of the recording")
	threshold := flag.Float64("threshold", 0, "override movement threshold")
	minRange := flag.Float64("min-range", 0, "override minimum movement range")
	cooldown := flag.Duration("cooldown", 0, "override rep cooldown")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := counter.DefaultConfig()
	if *threshold > 0 {
		cfg.MovementThreshold = *threshold
	}
	if *minRange > 0 {
		cfg.MinMovementRange = *minRange
	}
	if *cooldown > 0 {
		cfg.RepCooldown = *cooldown
	}
	if *fps <= 0 {
		log.Error("fps must be positive")
		os.Exit(1)
	}

	in := os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			log.Error("failed to open input", "error", err)
			os.Exit(1)
		}
		defer f.Close() //nolint:errcheck
		in = f
	}

	c := counter.New(cfg)
	interval := time.Duration(float64(time.Second) / *fps)
	now := time.Now()

	var frame int
	lastDir := c.Direction()
	lastCount := 0

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		diff, err := parseSample(line)
		if err != nil {
			log.Warn("skipping unparsable sample", "line", line)
			continue
		}

		frame++
		now = now.Add(interval)
		c.RecordFrame()
		count, position := c.Process(frameKeypoints(diff), now)

		if dir := c.Direction(); dir != lastDir {
			fmt.Printf("frame %4d  diff %8.1f  direction %s\n", frame, diff, dir)
			lastDir = dir
		}
		if count > lastCount {
			fmt.Printf("frame %4d  diff %8.1f  REP %d (%s)\n", frame, diff, count, position)
			lastCount = count
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error("read error", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d frames, %d reps, final position %s\n", frame, c.Count(), c.Position())
}

// parseSample reads one recorded sample. A bare number is the differential
// itself; "wristY,shoulderY" pairs (as dumped from raw keypoint logs) are
// subtracted here.
func parseSample(line string) (float64, error) {
	if wy, sy, ok := strings.Cut(line, ","); ok {
		wrist, err := strconv.ParseFloat(strings.TrimSpace(wy), 64)
		if err != nil {
			return 0, err
		}
		shoulder, err := strconv.ParseFloat(strings.TrimSpace(sy), 64)
		if err != nil {
			return 0, err
		}
		return wrist - shoulder, nil
	}
	return strconv.ParseFloat(line, 64)
}

// frameKeypoints builds a minimal keypoint array whose differential equals
// diff: shoulders at y=0, wrists at y=diff, full confidence.
func frameKeypoints(diff float64) []pose.Keypoint {
	kps := make([]pose.Keypoint, pose.MinKeypoints)
	for i := range kps {
		kps[i].Confidence = 1
	}
	kps[pose.LeftWrist].Y = diff
	kps[pose.RightWrist].Y = diff
	return kps
}
