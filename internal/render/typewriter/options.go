package typewriter

import (
	"math"
	"time"
)

// DefaultSpeed is used when no valid speed is configured.
const DefaultSpeed = 25

// Options controls reveal pacing. Nil, NaN and infinite overrides fall back
// to the speed-derived defaults.
type Options struct {
	Speed     float64
	ChunkSize *float64 // characters per tick
	Delay     *float64 // minimum milliseconds between productive ticks
}

// Valid reports whether v is a usable numeric override.
func Valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// NormalizedSpeed clamps speed to [lo, hi], substituting DefaultSpeed for
// non-finite or non-positive input.
func NormalizedSpeed(speed, lo, hi float64) float64 {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		speed = DefaultSpeed
	}
	return math.Min(hi, math.Max(lo, speed))
}

// ChunkSizeFor returns characters revealed per tick.
func (o Options) ChunkSizeFor() int {
	if Valid(o.ChunkSize) {
		return int(math.Max(1, math.Round(*o.ChunkSize)))
	}
	speed := NormalizedSpeed(o.Speed, 1, 1000)
	switch {
	case speed < 100:
		return 3
	case speed < 300:
		return 8
	case speed < 600:
		return 15
	default:
		return int(math.Max(20, math.Round(speed/40)))
	}
}

// DelayFor returns the minimum interval between productive ticks, or zero
// when ticks run every frame.
func (o Options) DelayFor() time.Duration {
	if !Valid(o.Delay) {
		return 0
	}
	ms := math.Max(1, *o.Delay)
	return time.Duration(ms * float64(time.Millisecond))
}

// Float returns a pointer to v, for building Options literals.
func Float(v float64) *float64 {
	return &v
}
