package sfzvoice

// Smoother is a first-order linear smoother used for gain, pitch-bend and
// crossfade envelopes (spec.md §2, §4.7). It moves its current value toward
// a target by a fixed step per sample, never overshooting.
type Smoother struct {
	current float64
	target  float64
	step    float64
	smoothing bool
}

// Reset snaps the smoother to value with no pending motion.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.step = 0
	s.smoothing = false
}

// setStep sets the per-sample step that covers the current distance to the
// target in durationSamples samples; SetTarget calls it.
func (s *Smoother) setStep(durationSamples int) {
	if durationSamples <= 0 {
		s.step = 0
		return
	}
	diff := s.target - s.current
	if diff < 0 {
		diff = -diff
	}
	s.step = diff / float64(durationSamples)
}

// SetTarget begins smoothing toward target over durationSamples.
func (s *Smoother) SetTarget(target float64, durationSamples int) {
	s.target = target
	s.setStep(durationSamples)
	s.smoothing = s.current != s.target
}

// Tick advances the smoother by one sample and returns the new current
// value.
func (s *Smoother) Tick() float64 {
	if !s.smoothing {
		return s.current
	}
	if s.current < s.target {
		s.current += s.step
		if s.current >= s.target {
			s.current = s.target
			s.smoothing = false
		}
	} else {
		s.current -= s.step
		if s.current <= s.target {
			s.current = s.target
			s.smoothing = false
		}
	}
	return s.current
}

// Fill advances the smoother for len(out) samples, writing each tick into
// out.
func (s *Smoother) Fill(out []float64) {
	for i := range out {
		out[i] = s.Tick()
	}
}

// Current returns the smoother's current value without advancing it.
func (s *Smoother) Current() float64 {
	return s.current
}

// IsSmoothing reports whether the smoother has not yet reached its target.
func (s *Smoother) IsSmoothing() bool {
	return s.smoothing
}
