package sfzvoice

import "math"

// BiquadSection is one direct-form-II-transposed biquad stage.
type BiquadSection struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// Process runs x through the section and returns y, updating internal state.
func (b *BiquadSection) Process(x float64) float64 {
	y := b.b0*x + b.z1
	b.z1 = b.b1*x - b.a1*y + b.z2
	b.z2 = b.b2*x - b.a2*y
	return y
}

// ProcessBlock runs an entire block in place.
func (b *BiquadSection) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = b.Process(x)
	}
}

// Reset clears the section's delay state without touching its coefficients.
func (b *BiquadSection) Reset() {
	b.z1, b.z2 = 0, 0
}

// setCoefficients applies RBJ cookbook biquad formulas for the given
// FilterSpec at the given sample rate.
func (b *BiquadSection) setCoefficients(spec FilterSpec, sampleRate float64) {
	freq := spec.Cutoff
	if freq <= 0 {
		freq = 1
	}
	if freq > sampleRate*0.49 {
		freq = sampleRate * 0.49
	}
	q := spec.Resonance
	if q <= 0 {
		q = 0.707
	}

	w0 := 2 * math.Pi * freq / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * q)
	a := math.Pow(10, spec.GainDB/40)

	var b0, b1, b2, a0, a1, a2 float64

	switch spec.Type {
	case FilterLowpass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha

	case FilterHighpass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha

	case FilterBandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha

	case FilterNotch:
		b0 = 1
		b1 = -2 * cosW0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha

	case FilterPeak:
		b0 = 1 + alpha*a
		b1 = -2 * cosW0
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW0
		a2 = 1 - alpha/a

	case FilterLowShelf:
		sq := math.Sqrt(a) * alpha * 2
		b0 = a * ((a + 1) - (a-1)*cosW0 + sq)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW0)
		b2 = a * ((a + 1) - (a-1)*cosW0 - sq)
		a0 = (a + 1) + (a-1)*cosW0 + sq
		a1 = -2 * ((a - 1) + (a+1)*cosW0)
		a2 = (a + 1) + (a-1)*cosW0 - sq

	case FilterHighShelf:
		sq := math.Sqrt(a) * alpha * 2
		b0 = a * ((a + 1) + (a-1)*cosW0 + sq)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW0)
		b2 = a * ((a + 1) + (a-1)*cosW0 - sq)
		a0 = (a + 1) - (a-1)*cosW0 + sq
		a1 = 2 * ((a - 1) - (a+1)*cosW0)
		a2 = (a + 1) - (a-1)*cosW0 - sq

	default:
		b0, a0 = 1, 1
	}

	b.b0 = b0 / a0
	b.b1 = b1 / a0
	b.b2 = b2 / a0
	b.a1 = a1 / a0
	b.a2 = a2 / a0
}

// FilterSlot is one entry in a voice's filter or EQ chain: a fixed biquad
// chain whose coefficients are computed at voice start from the region's
// FilterSpec and the sample rate (spec.md §4.9); key and velocity do not
// affect them.
type FilterSlot struct {
	sections []BiquadSection
	spec     FilterSpec
	active   bool
}

// Setup rebuilds this slot's coefficients for the given spec and sample
// rate. Called once from startVoice, never mid-block.
func (s *FilterSlot) Setup(spec FilterSpec, sampleRate float64) {
	s.spec = spec
	if len(s.sections) == 0 {
		s.sections = make([]BiquadSection, 1)
	}
	s.sections[0].setCoefficients(spec, sampleRate)
	s.sections[0].Reset()
	s.active = true
}

// ProcessBlock runs buf through every section in the chain, in place.
func (s *FilterSlot) ProcessBlock(buf []float64) {
	if !s.active {
		return
	}
	for i := range s.sections {
		s.sections[i].ProcessBlock(buf)
	}
}

// Disable marks the slot inactive; ProcessBlock becomes a no-op until Setup
// is called again.
func (s *FilterSlot) Disable() {
	s.active = false
}
