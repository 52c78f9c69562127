package sfzvoice

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestSfz(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func testSamplerConfig() SamplerConfig {
	return SamplerConfig{SampleRate: 44100, BlockSize: 64, MaxVoices: 4}
}

func TestNewSamplerParsesOscillatorRegion(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=*sine
lokey=0
hikey=127
ampeg_sustain=100
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	if len(s.Regions()) != 1 {
		t.Fatalf("expected 1 region, got %d", len(s.Regions()))
	}
	if !s.Regions()[0].IsOscillator() {
		t.Error("expected the parsed region to be an oscillator region")
	}
}

func TestNewSamplerRejectsMissingFile(t *testing.T) {
	if _, err := NewSampler(filepath.Join(t.TempDir(), "missing.sfz"), testSamplerConfig()); err == nil {
		t.Error("NewSampler on a nonexistent file should return an error")
	}
}

func TestSamplerNoteOnThenRenderBlockProducesSound(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=*sine
lokey=0
hikey=127
ampeg_sustain=100
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}

	s.BeginBlock()
	s.NoteOn(60, 100, 0)

	outL := make([]float64, 64)
	outR := make([]float64, 64)
	s.RenderBlock(outL, outR)

	nonZero := false
	for _, v := range outL {
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("expected nonzero output after NoteOn+RenderBlock on a sustaining oscillator region")
	}
}

func TestSamplerNoteOffReleasesVoice(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=*sine
lokey=0
hikey=127
ampeg_sustain=100
ampeg_release=0.001
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}

	s.BeginBlock()
	s.NoteOn(60, 100, 0)
	outL := make([]float64, 64)
	outR := make([]float64, 64)
	s.RenderBlock(outL, outR)

	s.NoteOff(60, 0)

	cleanedUp := false
	for i := 0; i < 50 && !cleanedUp; i++ {
		s.BeginBlock()
		s.RenderBlock(outL, outR)
		active := 0
		s.voices.ForEachActive(func(v *Voice) { active++ })
		if active == 0 {
			cleanedUp = true
		}
	}
	if !cleanedUp {
		t.Fatal("expected the released voice to be reaped after its release tail finishes")
	}
}

func TestSamplerVelocityRangeExcludesOutOfRangeNotes(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=*sine
lokey=0
hikey=127
lovel=100
hivel=127
ampeg_sustain=100
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}

	s.BeginBlock()
	s.NoteOn(60, 10, 0)
	active := 0
	s.voices.ForEachActive(func(v *Voice) { active++ })
	if active != 0 {
		t.Error("a note below lovel should not trigger any voice")
	}
}

func TestSamplerOffGroupExclusionKillsPreviousVoice(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=*sine
lokey=0
hikey=127
group=1
ampeg_sustain=100
ampeg_release=0.001

<region>
sample=*saw
lokey=0
hikey=127
group=2
off_by=1
ampeg_sustain=100
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}

	s.BeginBlock()
	s.NoteOn(60, 100, 0)
	// both regions match the same note; the group=2/off_by=1 region should
	// have triggered release on the group=1 voice that started just before it.
	var groupOneReleasing bool
	s.voices.ForEachActive(func(v *Voice) {
		if v.region != nil && v.region.Group == 1 && v.ampEnv.state == EGRelease {
			groupOneReleasing = true
		}
	})
	if !groupOneReleasing {
		t.Error("expected off_by=1 on the second region to release the group=1 voice")
	}
}

func TestSamplerSetReverbSendClampsToUnitRange(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=*sine
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	s.SetReverbSend(2.0)
	if s.GetReverbSend() != 1.0 {
		t.Errorf("GetReverbSend() = %.3f, want clamped to 1.0", s.GetReverbSend())
	}
	s.SetReverbSend(-1.0)
	if s.GetReverbSend() != 0.0 {
		t.Errorf("GetReverbSend() = %.3f, want clamped to 0.0", s.GetReverbSend())
	}
}

func TestSamplerControlChangeReverbCCsUpdateMasterReverb(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=*sine
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	s.ControlChange(91, 64, 0)
	if s.GetReverbSend() < 0.49 || s.GetReverbSend() > 0.51 {
		t.Errorf("CC91 should set reverb send to ~0.5, got %.3f", s.GetReverbSend())
	}
}

func TestSamplerPitchBendDispatchesToVoices(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=*sine
ampeg_sustain=100
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	s.BeginBlock()
	s.NoteOn(60, 100, 0)
	s.PitchBend(16383, 0) // max bend up

	var bent bool
	s.voices.ForEachActive(func(v *Voice) {
		if v.currentBend > 0.9 {
			bent = true
		}
	})
	if !bent {
		t.Error("PitchBend should record the bend value on every active voice")
	}
}

func TestSamplerWithSampleRegionUsingRealWavFixture(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, dir, "tone.wav", 1, 44100, 2000)
	path := writeTestSfz(t, dir, "test.sfz", `
<region>
sample=tone.wav
lokey=0
hikey=127
ampeg_sustain=100
`)
	s, err := NewSampler(path, testSamplerConfig())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	s.BeginBlock()
	s.NoteOn(60, 100, 0)

	outL := make([]float64, 64)
	outR := make([]float64, 64)
	s.RenderBlock(outL, outR)

	nonZero := false
	for _, v := range outL {
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("expected nonzero output when playing a real sample-backed region")
	}
}
