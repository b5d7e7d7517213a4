package viewport

import (
	"math"
	"time"
)

// maxStep bounds one integration step so large frame gaps stay stable.
const maxStep = time.Second / 120

const settleEpsilon = 1e-3

// SpringConfig tunes the animation toward a target value.
type SpringConfig struct {
	Stiffness float64
	Damping   float64
}

// spring is a damped harmonic oscillator pulled toward target.
type spring struct {
	value    float64
	velocity float64
	target   float64
}

// set jumps to v and stops any motion.
func (s *spring) set(v float64) {
	s.value, s.target, s.velocity = v, v, 0
}

func (s *spring) settled() bool {
	return s.value == s.target && s.velocity == 0
}

// step advances the spring by dt using semi-implicit Euler integration.
func (s *spring) step(cfg SpringConfig, dt time.Duration) {
	for dt > 0 && !s.settled() {
		h := min(dt, maxStep)
		dt -= h

		secs := h.Seconds()
		accel := cfg.Stiffness*(s.target-s.value) - cfg.Damping*s.velocity
		s.velocity += accel * secs
		s.value += s.velocity * secs

		if math.Abs(s.target-s.value) < settleEpsilon && math.Abs(s.velocity) < settleEpsilon {
			s.set(s.target)
		}
		if math.IsNaN(s.value) || math.IsInf(s.value, 0) {
			s.set(s.target)
		}
	}
}

// bound pins value inside [lo, hi], dropping velocity that points outward.
func (s *spring) bound(lo, hi float64) {
	switch {
	case s.value > hi:
		s.value = hi
		s.velocity = min(s.velocity, 0)
	case s.value < lo:
		s.value = lo
		s.velocity = max(s.velocity, 0)
	default:
		return
	}
	if s.value == s.target && s.velocity == 0 {
		s.set(s.target)
	}
}
