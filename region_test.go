package sfzvoice

import "testing"

func TestRegionIsOscillatorRecognizesGeneratorTags(t *testing.T) {
	cases := []struct {
		sampleID string
		want     bool
	}{
		{"*sine", true},
		{"*saw", true},
		{"*noise", true},
		{"*silence", true},
		{"piano/c4.wav", false},
		{"", false},
	}
	for _, c := range cases {
		r := &Region{SampleID: c.sampleID}
		if got := r.IsOscillator(); got != c.want {
			t.Errorf("IsOscillator(%q) = %v, want %v", c.sampleID, got, c.want)
		}
	}
}

func TestRegionIsOscillatorNilSafe(t *testing.T) {
	var r *Region
	if r.IsOscillator() {
		t.Error("a nil region should not report as an oscillator")
	}
}

func TestPitchKeytrackOrDefault(t *testing.T) {
	r := &Region{}
	if got := r.PitchKeytrackOrDefault(); got != 100 {
		t.Errorf("default keytrack = %.1f, want 100", got)
	}
	r.PitchKeytrack = 50
	if got := r.PitchKeytrackOrDefault(); got != 50 {
		t.Errorf("configured keytrack = %.1f, want 50", got)
	}
}

func TestGetBasePitchVariationCombinesAllSources(t *testing.T) {
	r := &Region{
		PitchKeycenter: 60,
		PitchKeytrack:  100,
		Transpose:      12,
		Tune:           50,
		Pitch:          25,
	}
	// played two semitones above keycenter, full keytrack
	semis := r.GetBasePitchVariation(62, 1.0)
	want := 2.0 + 12 + 0.5 + 0.25
	if semis < want-0.0001 || semis > want+0.0001 {
		t.Errorf("GetBasePitchVariation = %.4f, want %.4f", semis, want)
	}
}

func TestGetBasePitchVariationZeroKeytrackUsesDefaultKeytrack(t *testing.T) {
	r := &Region{PitchKeycenter: 60, PitchKeytrack: 0}
	// PitchKeytrack 0 defaults to 100 cents/key per PitchKeytrackOrDefault,
	// so playing away from keycenter still contributes semitone offset.
	semis := r.GetBasePitchVariation(72, 1.0)
	if semis < 11.9999 || semis > 12.0001 {
		t.Errorf("GetBasePitchVariation = %.4f, want 12 (default full keytrack)", semis)
	}
}
