package sfzvoice

import "github.com/GeoffreyPlitt/debuggo"

var envelopeDebug = debuggo.Debug("sfzvoice:envelope")

// EGState is one phase of a classic delay-attack-hold-decay-sustain-release
// generator.
type EGState int

const (
	EGIdle EGState = iota
	EGDelay
	EGAttack
	EGHold
	EGDecay
	EGSustain
	EGRelease
)

// Envelope is a sample-accurate ADSR-with-delay generator. The amplitude
// stage (spec.md §4.6) uses one directly; the optional pitch and filter EGs
// (spec.md §3) use the same shape with their output scaled by Depth instead
// of being multiplied straight into the signal.
type Envelope struct {
	state EGState
	level float64
	pos   int

	sampleRate float64
	delayN     int
	attackN    int
	holdN      int
	decayN     int
	releaseN   int
	sustain    float64
	depth      float64

	releasePending bool
	releaseAt      int
	releaseFrom    float64
}

// Start configures the envelope from a region's EnvelopeSpec and begins at
// EGDelay (or EGAttack if there is no delay).
func (e *Envelope) Start(spec EnvelopeSpec, sampleRate float64) {
	e.sampleRate = sampleRate
	e.delayN = secondsToSamples(spec.Delay, sampleRate)
	e.attackN = secondsToSamples(spec.Attack, sampleRate)
	e.holdN = secondsToSamples(spec.Hold, sampleRate)
	e.decayN = secondsToSamples(spec.Decay, sampleRate)
	e.releaseN = secondsToSamples(spec.Release, sampleRate)
	e.sustain = spec.Sustain
	e.depth = spec.Depth
	e.pos = 0
	e.level = 0
	e.releasePending = false
	if e.delayN > 0 {
		e.state = EGDelay
	} else if e.attackN > 0 {
		e.state = EGAttack
	} else {
		e.state = EGHold
		e.level = 1
	}
}

func secondsToSamples(seconds float64, sampleRate float64) int {
	if seconds <= 0 {
		return 0
	}
	n := int(seconds * sampleRate)
	if n < 0 {
		return 0
	}
	return n
}

// RemainingDelay returns how many more samples remain in the pre-attack
// delay phase, zero once attack has begun.
func (e *Envelope) RemainingDelay() int {
	if e.state != EGDelay {
		return 0
	}
	remaining := e.delayN - e.pos
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Release schedules a transition into the release phase delay samples from
// now, sample-accurate within the next GetBlock calls. A delay of zero (or
// less) enters the release phase immediately.
func (e *Envelope) Release(delay int) {
	if delay <= 0 {
		e.state = EGRelease
		e.pos = 0
		e.releaseFrom = e.level
		e.releasePending = false
		return
	}
	e.releasePending = true
	e.releaseAt = delay
}

// IsSmoothing reports whether the envelope has not yet reached silence after
// a completed release (or has not been released at all).
func (e *Envelope) IsSmoothing() bool {
	return e.state != EGIdle
}

// GetBlock fills out with n samples of the raw 0..1 envelope, advancing
// internal state sample-accurately, including any pending release.
func (e *Envelope) GetBlock(out []float64) {
	for i := range out {
		if e.releasePending {
			if e.releaseAt <= 0 {
				e.state = EGRelease
				e.pos = 0
				e.releaseFrom = e.level
				e.releasePending = false
			} else {
				e.releaseAt--
			}
		}
		e.tick()
		out[i] = e.level
	}
}

func (e *Envelope) tick() {
	switch e.state {
	case EGIdle:
		e.level = 0

	case EGDelay:
		e.level = 0
		e.pos++
		if e.pos >= e.delayN {
			e.pos = 0
			if e.attackN > 0 {
				e.state = EGAttack
			} else {
				e.state = EGHold
				e.level = 1
			}
		}

	case EGAttack:
		e.pos++
		if e.attackN > 0 {
			e.level = float64(e.pos) / float64(e.attackN)
		} else {
			e.level = 1
		}
		if e.pos >= e.attackN {
			e.level = 1
			e.pos = 0
			e.state = EGHold
		}

	case EGHold:
		e.level = 1
		e.pos++
		if e.pos >= e.holdN {
			e.pos = 0
			if e.decayN > 0 {
				e.state = EGDecay
			} else {
				e.level = e.sustain
				e.state = EGSustain
			}
		}

	case EGDecay:
		e.pos++
		if e.decayN > 0 {
			t := float64(e.pos) / float64(e.decayN)
			e.level = 1 - t*(1-e.sustain)
		} else {
			e.level = e.sustain
		}
		if e.pos >= e.decayN {
			e.level = e.sustain
			e.pos = 0
			e.state = EGSustain
		}

	case EGSustain:
		e.level = e.sustain

	case EGRelease:
		e.pos++
		if e.releaseN > 0 {
			t := float64(e.pos) / float64(e.releaseN)
			e.level = e.releaseFrom * (1 - t)
		} else {
			e.level = 0
		}
		if e.pos >= e.releaseN || e.level <= 1e-6 {
			e.level = 0
			e.state = EGIdle
		}
	}
}

// Depth returns the configured modulation depth (cents for pitch EGs, Hz for
// filter EGs) used when this envelope drives something other than
// amplitude.
func (e *Envelope) Depth() float64 {
	return e.depth
}
