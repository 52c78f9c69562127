package sfzvoice

import "testing"

func TestCentsFactorOctaveUp(t *testing.T) {
	if f := centsFactor(1200); f < 1.9999 || f > 2.0001 {
		t.Errorf("centsFactor(1200) = %.5f, want 2.0", f)
	}
}

func TestCentsFactorZeroIsUnity(t *testing.T) {
	if f := centsFactor(0); f != 1 {
		t.Errorf("centsFactor(0) = %.5f, want 1.0", f)
	}
}

func TestBendCentsUsesAsymmetricRange(t *testing.T) {
	region := &Region{BendUp: 200, BendDown: -300}
	if c := bendCents(1.0, region); c != 200 {
		t.Errorf("full bend up = %.1f cents, want 200", c)
	}
	if c := bendCents(-1.0, region); c != -300 {
		t.Errorf("full bend down = %.1f cents, want -300", c)
	}
	if c := bendCents(0, region); c != 0 {
		t.Errorf("centered bend = %.1f cents, want 0", c)
	}
}

func TestBendCentsQuantizesToStep(t *testing.T) {
	region := &Region{BendUp: 1200, BendDown: -1200, BendStep: 100}
	c := bendCents(0.26, region) // 0.26*1200 = 312, should round to nearest 100
	if c != 300 {
		t.Errorf("quantized bend = %.1f, want 300", c)
	}
}

func TestPitchEnvelopeAppliesBend(t *testing.T) {
	n := 8
	span := make([]float64, n)
	bend := make([]float64, n)
	for i := range span {
		span[i] = 1.0
	}
	region := &Region{BendUp: 1200, BendDown: -1200}
	var smoother Smoother
	smoother.Reset(1.0)

	events := []PitchEvent{{Delay: 0, Value: 1.0}} // full bend up, one octave
	pitchEnvelope(span, bend, region, events, 1.0, &smoother, nil)

	for i, v := range span {
		if v <= 1.0 {
			t.Fatalf("span[%d] = %.5f, want > 1.0 once the bend ramps toward +1 octave", i, v)
		}
	}
	// the smoother should have reached (or be closing in on) the full octave by the end
	if span[n-1] < 1.5 {
		t.Errorf("span[last] = %.5f, expected it trending toward 2.0 (one octave up)", span[n-1])
	}
}

func TestPitchEnvelopeModPitchMultipliesSpan(t *testing.T) {
	n := 4
	span := make([]float64, n)
	bend := make([]float64, n)
	for i := range span {
		span[i] = 1.0
	}
	region := &Region{BendUp: 1200, BendDown: -1200}
	var smoother Smoother
	smoother.Reset(1.0)

	mod := []float64{1200, 1200, 1200, 1200} // one octave of pitch-EG modulation
	pitchEnvelope(span, bend, region, nil, 0, &smoother, mod)

	for i, v := range span {
		if v < 1.999 || v > 2.001 {
			t.Errorf("span[%d] = %.5f, want ~2.0 from a constant +1200 cent modulation", i, v)
		}
	}
}
