package sfzvoice

// Oscillator is a phase-accumulator reader over a Wavetable. Each voice owns
// a small fixed array of these for unison/RM/FM synthesis (spec.md §3,
// "oscillators per voice").
type Oscillator struct {
	phase float64
}

// Reset zeroes the phase, used when a voice (re)starts.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// ProcessBlock advances the oscillator across freqHz (one value per sample,
// already including pitch/detune/modulation) and writes table reads into
// out. len(out) == len(freqHz).
func (o *Oscillator) ProcessBlock(table Wavetable, freqHz []float64, sampleRate float64, out []float64) {
	if table == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	invRate := 1.0 / sampleRate
	phase := o.phase
	for i, f := range freqHz {
		out[i] = table.Read(phase)
		phase += f * invRate
		if phase >= 1 {
			phase -= float64(int(phase))
		} else if phase < 0 {
			phase -= float64(int(phase)) - 1
		}
	}
	o.phase = phase
}
