// Package pacing computes human-looking wait intervals between actions.
// It is purely advisory: the execution driver owns the actual sleeps
// and their cancellation.
package pacing

import (
	"math/rand"
	"time"

	"outreach-engine/internal/domain"
)

// Extra wait bounds applied when a humanization pause fires.
const (
	humanizeMinSeconds = 30
	humanizeMaxSeconds = 120
)

// Engine produces delays from a seedable random source so tests can
// assert exact sequences.
type Engine struct {
	rng *rand.Rand
}

// NewEngine creates the engine around the given source.
func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// NextDelay returns the wait before the next action and whether an
// extra humanization pause was added. With randomization off the base
// is the midpoint of [min, max].
func (e *Engine) NextDelay(cfg domain.DelayConfig) (time.Duration, bool) {
	min, max := cfg.MinSeconds, cfg.MaxSeconds
	if max < min {
		max = min
	}
	seconds := (min + max) / 2
	if cfg.Randomize {
		seconds = min + e.intn(max-min+1)
	}
	humanized := false
	if cfg.HumanizationChance > 0 && e.rng.Float64() < cfg.HumanizationChance {
		seconds += humanizeMinSeconds + e.intn(humanizeMaxSeconds-humanizeMinSeconds+1)
		humanized = true
	}
	return time.Duration(seconds) * time.Second, humanized
}

// ShouldBatchBreak reports whether a longer pause is due after a run of
// consecutive actions. The caller resets its counter after honoring the
// break.
func (e *Engine) ShouldBatchBreak(cfg domain.DelayConfig, actionsSinceBreak int) (bool, time.Duration) {
	if cfg.BatchSize <= 0 || actionsSinceBreak < cfg.BatchSize {
		return false, 0
	}
	return true, time.Duration(cfg.BatchBreakSeconds) * time.Second
}

func (e *Engine) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return e.rng.Intn(n)
}
