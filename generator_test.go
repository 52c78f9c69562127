package sfzvoice

import "testing"

func TestFillWithGeneratorSilence(t *testing.T) {
	resources := testResources(8)
	v := NewVoice(0, resources)
	region := &Region{SampleID: "*silence"}
	freq := make([]float64, 8)
	outL := make([]float64, 8)
	outR := make([]float64, 8)
	fillWithGenerator(v, resources.Waves, region, freq, resources.Rand, outL, outR)
	for i := range outL {
		if outL[i] != 0 || outR[i] != 0 {
			t.Errorf("*silence should produce zeros, got outL[%d]=%.3f outR[%d]=%.3f", i, outL[i], i, outR[i])
		}
	}
}

func TestFillWithGeneratorNoiseIsBounded(t *testing.T) {
	resources := testResources(64)
	v := NewVoice(0, resources)
	region := &Region{SampleID: "*noise"}
	freq := make([]float64, 64)
	outL := make([]float64, 64)
	outR := make([]float64, 64)
	fillWithGenerator(v, resources.Waves, region, freq, resources.Rand, outL, outR)
	for i := range outL {
		if outL[i] < -1 || outL[i] > 1 {
			t.Errorf("*noise sample %d out of [-1,1]: %.4f", i, outL[i])
		}
	}
}

func TestFillWithGeneratorSineIsBoundedAndSameOnBothChannels(t *testing.T) {
	resources := testResources(64)
	v := NewVoice(0, resources)
	region := &Region{SampleID: "*sine"}
	n := 64
	freq := make([]float64, n)
	for i := range freq {
		freq[i] = 441 // one cycle per 100 samples at 44100Hz, close enough for shape checks
	}
	outL := make([]float64, n)
	outR := make([]float64, n)
	fillWithGenerator(v, resources.Waves, region, freq, resources.Rand, outL, outR)

	allZero := true
	for _, s := range outL {
		if s != 0 {
			allZero = false
		}
		if s < -1.01 || s > 1.01 {
			t.Errorf("sine sample out of expected range: %.4f", s)
		}
	}
	if allZero {
		t.Error("a sine oscillator should not produce all zeros")
	}
	for i := range outL {
		if outL[i] != outR[i] {
			t.Error("a single-oscillator generator should be identical on both channels")
		}
	}
}

func TestFillWithGeneratorUnisonNormalizesGain(t *testing.T) {
	resources := testResources(64)
	v := NewVoice(0, resources)
	region := &Region{SampleID: "*saw", OscillatorMulti: 5, OscillatorDetune: 10}
	n := 64
	freq := make([]float64, n)
	for i := range freq {
		freq[i] = 220
	}
	outL := make([]float64, n)
	outR := make([]float64, n)
	fillWithGenerator(v, resources.Waves, region, freq, resources.Rand, outL, outR)

	for i := range outL {
		if outL[i] < -2 || outL[i] > 2 {
			t.Errorf("unison output out of sane range at %d: %.4f", i, outL[i])
		}
	}
}

func TestFillWithGeneratorFMProducesModulatedSignal(t *testing.T) {
	resources := testResources(64)
	v := NewVoice(0, resources)
	region := &Region{
		SampleID:           "*sine",
		OscillatorMulti:    0,
		OscillatorMode:     OscModeFM,
		OscillatorDetune:   400,
		OscillatorModDepth: 50,
	}
	// force the modulated-pair path: OscillatorMulti must be neither <2
	// (single) nor >=3 (unison) for fillWithGenerator to treat this as a
	// modulator/carrier pair.
	region.OscillatorMulti = 2
	n := 64
	freq := make([]float64, n)
	for i := range freq {
		freq[i] = 220
	}
	outL := make([]float64, n)
	outR := make([]float64, n)
	fillWithGenerator(v, resources.Waves, region, freq, resources.Rand, outL, outR)

	allZero := true
	for _, s := range outL {
		if s != 0 {
			allZero = false
		}
	}
	if allZero {
		t.Error("FM synthesis should not produce all zeros")
	}
}

func TestSetupOscillatorUnisonDetuneFormula(t *testing.T) {
	count := 7
	detuneCents := 20.0
	detunes := make([]float64, count)
	leftGain := make([]float64, count)
	rightGain := make([]float64, count)
	setupOscillatorUnison(count, detuneCents, detunes, leftGain, rightGain)

	want := []float64{0, -20, 20, -5, 5, -10, 10}
	for i, w := range want {
		if detunes[i] < w-1e-9 || detunes[i] > w+1e-9 {
			t.Errorf("detunes[%d] = %.4f, want %.4f", i, detunes[i], w)
		}
	}
}

func TestSetupOscillatorUnisonPanSweep(t *testing.T) {
	count := 5
	detunes := make([]float64, count)
	leftGain := make([]float64, count)
	rightGain := make([]float64, count)
	setupOscillatorUnison(count, 10, detunes, leftGain, rightGain)

	if leftGain[0] != 0 {
		t.Errorf("leftGain[0] = %.4f, want 0", leftGain[0])
	}
	if rightGain[count-1] != 0 {
		t.Errorf("rightGain[last] = %.4f, want 0", rightGain[count-1])
	}
	for i := 0; i < count; i++ {
		if d := leftGain[i] + rightGain[i] - 1; d < -1e-9 || d > 1e-9 {
			t.Errorf("leftGain[%d]+rightGain[%d] = %.4f, want 1", i, i, leftGain[i]+rightGain[i])
		}
	}
	// the sweep should be monotonic across the oscillator indices.
	for i := 1; i < count; i++ {
		if leftGain[i] < leftGain[i-1] {
			t.Errorf("leftGain should increase monotonically with index, got leftGain[%d]=%.4f < leftGain[%d]=%.4f",
				i, leftGain[i], i-1, leftGain[i-1])
		}
	}
}

func TestFillWithGeneratorUnknownFileWaveIsSilent(t *testing.T) {
	resources := testResources(16)
	v := NewVoice(0, resources)
	region := &Region{SampleID: "nonexistent/wave.wav"}
	n := 16
	freq := make([]float64, n)
	outL := make([]float64, n)
	outR := make([]float64, n)
	fillWithGenerator(v, resources.Waves, region, freq, resources.Rand, outL, outR)
	for i := range outL {
		if outL[i] != 0 {
			t.Errorf("an unresolvable file wavetable should fall back to silence, got %.4f at %d", outL[i], i)
		}
	}
}
