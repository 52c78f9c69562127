package sfzvoice

import "math"

// setupOscillatorUnison computes the per-oscillator detune offset (in cents)
// and linear stereo pan gains for unison mode (spec.md §4.5.1). count is
// region.OscillatorMulti (at least 3 on the unison path) capped by the caller
// at maxUnisonOscillators; detuneCents is
// region.OscillatorDetune. Oscillator 0 sits centered with no detune,
// oscillators 1/2 are the first detuned pair at the full detune amount, and
// oscillators 3.. fan out in narrower steps; pan sweeps linearly from hard
// right at oscillator 0 to hard left at oscillator count-1.
func setupOscillatorUnison(count int, detuneCents float64, detunes, leftGain, rightGain []float64) {
	if count > 0 {
		detunes[0] = 0
	}
	if count > 1 {
		detunes[1] = -detuneCents
	}
	if count > 2 {
		detunes[2] = detuneCents
	}
	for i := 3; i < count; i++ {
		n := float64((i - 1) / 2)
		sign := 1.0
		if i%2 != 0 {
			sign = -1.0
		}
		detunes[i] = sign * 0.25 * n * detuneCents
	}

	for i := 0; i < count; i++ {
		g := 1.0
		if count > 1 {
			g = 1 - float64(i)/float64(count-1)
		}
		rightGain[i] = g
		leftGain[i] = 1 - g
	}
}

// resolveWavetable picks the wavetable for a generator-mode region: one of
// the prebuilt shapes, or a file-backed table loaded through the wave pool
// (spec.md §4.5). ok is false for noise/gnoise/silence, which bypass
// wavetables entirely.
func resolveWavetable(waves WavePool, region *Region) (table Wavetable, ok bool) {
	switch region.SampleID {
	case "*sine":
		return waves.GetWaveSin(), true
	case "*triangle", "*tri":
		return waves.GetWaveTriangle(), true
	case "*square":
		return waves.GetWaveSquare(), true
	case "*saw":
		return waves.GetWaveSaw(), true
	case "*noise", "*gnoise", "*silence":
		return nil, false
	default:
		return waves.GetFileWave(region.SampleID)
	}
}

// fillWithGenerator is the wavetable/noise generator fill path (spec.md
// §4.5). freqSpan holds the already pitch-modulated fundamental frequency in
// Hz for every sample in the block. The voice's preallocated genCarrier,
// genModulator and genFreqU buffers serve as scratch for the carrier,
// modulator and unison voices so the function never allocates.
func fillWithGenerator(v *Voice, waves WavePool, region *Region, freqSpan []float64, rng *Rng, outL, outR []float64) {
	n := len(freqSpan)
	carrier := v.genCarrier[:n]
	modulator := v.genModulator[:n]
	freqU := v.genFreqU[:n]
	detunes := v.genDetune[:]
	leftGain := v.genLeftGain[:]
	rightGain := v.genRightGain[:]

	switch region.SampleID {
	case "*silence":
		for i := 0; i < n; i++ {
			outL[i] = 0
			outR[i] = 0
		}
		return
	case "*noise":
		for i := 0; i < n; i++ {
			outL[i] = rng.Uniform()
			outR[i] = rng.Uniform()
		}
		return
	case "*gnoise":
		for i := 0; i < n; i++ {
			outL[i] = rng.Gaussian()
			outR[i] = rng.Gaussian()
		}
		return
	}

	table, ok := resolveWavetable(waves, region)
	if !ok || table == nil {
		for i := 0; i < n; i++ {
			outL[i] = 0
			outR[i] = 0
		}
		return
	}

	multi := region.OscillatorMulti
	single := multi < 2
	unison := multi >= 3

	switch {
	case single:
		v.oscillators[0].ProcessBlock(table, freqSpan, v.sampleRate, carrier)
		copy(outL, carrier)
		copy(outR, carrier)

	case unison:
		count := multi
		if count > len(v.oscillators) {
			count = len(v.oscillators)
		}
		setupOscillatorUnison(count, region.OscillatorDetune, detunes, leftGain, rightGain)

		for i := 0; i < n; i++ {
			outL[i] = 0
			outR[i] = 0
		}
		for u := 0; u < count; u++ {
			ratio := centsFactor(detunes[u])
			for i := 0; i < n; i++ {
				freqU[i] = freqSpan[i] * ratio
			}
			v.oscillators[u].ProcessBlock(table, freqU, v.sampleRate, carrier)
			lg, rg := leftGain[u], rightGain[u]
			for i := 0; i < n; i++ {
				outL[i] += carrier[i] * lg
				outR[i] += carrier[i] * rg
			}
		}
		norm := 1.0 / math.Sqrt(float64(count))
		for i := 0; i < n; i++ {
			outL[i] *= norm
			outR[i] *= norm
		}

	default:
		// Modulated RM/FM. PM is not implemented (spec.md §9 open question):
		// it falls through to the FM path rather than producing true phase
		// modulation.
		modRatio := centsFactor(0.25 * region.OscillatorDetune)
		for i := 0; i < n; i++ {
			freqU[i] = freqSpan[i] * modRatio
		}
		v.oscillators[1].ProcessBlock(table, freqU, v.sampleRate, modulator)

		depth := region.OscillatorModDepth * 0.01
		if depth < 0 {
			depth = 0
		}
		for i := 0; i < n; i++ {
			modulator[i] *= depth
		}

		switch region.OscillatorMode {
		case OscModeFM, OscModePM:
			for i := 0; i < n; i++ {
				freqU[i] = freqSpan[i] * (1 + modulator[i])
			}
			v.oscillators[0].ProcessBlock(table, freqU, v.sampleRate, carrier)
			copy(outL, carrier)
			copy(outR, carrier)

		default: // OscModeRM
			v.oscillators[0].ProcessBlock(table, freqSpan, v.sampleRate, carrier)
			for i := 0; i < n; i++ {
				outL[i] = carrier[i] * modulator[i]
				outR[i] = outL[i]
			}
		}
	}
}
