package sim

import (
	"math/rand/v2"
	"sync"
)

// RangeSource simulates a numeric quantity (temperature, light level) with
// a bounded random walk.
//
// Thread Safety: Sample and Shift may race between the sensor loop and the
// hub's feedback effects, so the current value is mutex-guarded.
type RangeSource struct {
	mu        sync.Mutex
	value     float64
	min       float64
	max       float64
	variation float64
}

// NewRangeSource creates a source starting at initial, walking at most
// ±variation per sample and clamped to [min, max].
func NewRangeSource(initial, min, max, variation float64) *RangeSource {
	return &RangeSource{
		value:     clamp(initial, min, max),
		min:       min,
		max:       max,
		variation: variation,
	}
}

// Sample advances the random walk one step and returns the new value.
func (s *RangeSource) Sample() (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := (rand.Float64()*2 - 1) * s.variation
	s.value = clamp(s.value+delta, s.min, s.max)
	return s.value, nil
}

// Shift applies an external change (heating, lighting) to the simulated
// quantity, clamped to the source bounds.
func (s *RangeSource) Shift(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = clamp(s.value+delta, s.min, s.max)
}

// Value returns the current simulated quantity without advancing the walk.
func (s *RangeSource) Value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// MotionSource simulates a binary motion detector: each sample reports
// motion with the configured probability.
type MotionSource struct {
	probability float64
}

// NewMotionSource creates a motion source. Probability is the chance
// (0.0-1.0) that any given sample detects motion.
func NewMotionSource(probability float64) *MotionSource {
	return &MotionSource{probability: probability}
}

// Sample returns true with the configured probability.
func (m *MotionSource) Sample() (any, error) {
	return rand.Float64() < m.probability, nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
