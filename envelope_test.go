package sfzvoice

import "testing"

func TestEnvelopeReachesSustainAndReleases(t *testing.T) {
	var eg Envelope
	spec := EnvelopeSpec{Attack: 0.01, Decay: 0.01, Sustain: 0.5, Release: 0.01}
	sampleRate := 1000.0 // 10 samples attack, 10 decay, 10 release
	eg.Start(spec, sampleRate)

	out := make([]float64, 1)
	var last float64
	for i := 0; i < 64 && eg.state != EGSustain; i++ {
		eg.GetBlock(out)
		last = out[0]
	}
	if eg.state != EGSustain {
		t.Fatal("envelope never reached EGSustain within 64 samples")
	}
	if last < 0.49 || last > 0.51 {
		t.Errorf("level on reaching sustain = %.4f, want ~0.5", last)
	}

	eg.GetBlock(out) // still sustaining
	if out[0] < 0.49 || out[0] > 0.51 {
		t.Errorf("sustained level = %.4f, want ~0.5", out[0])
	}
	if !eg.IsSmoothing() {
		t.Error("a sustaining envelope should still report IsSmoothing")
	}

	eg.Release(0)
	for i := 0; i < 64 && eg.IsSmoothing(); i++ {
		eg.GetBlock(out)
		last = out[0]
	}
	if eg.IsSmoothing() {
		t.Error("a fully released envelope should stop reporting IsSmoothing")
	}
	if last > 0.01 {
		t.Errorf("level after full release = %.4f, want ~0", last)
	}
}

func TestEnvelopeDelayHoldsSilence(t *testing.T) {
	var eg Envelope
	spec := EnvelopeSpec{Delay: 0.005, Attack: 0.005}
	eg.Start(spec, 1000)

	if eg.RemainingDelay() != 5 {
		t.Errorf("RemainingDelay() = %d, want 5", eg.RemainingDelay())
	}

	out := make([]float64, 5)
	eg.GetBlock(out)
	for _, v := range out {
		if v != 0 {
			t.Errorf("level during delay = %.4f, want 0", v)
		}
	}
	if eg.RemainingDelay() != 0 {
		t.Error("RemainingDelay should be 0 once attack has begun")
	}
}

func TestEnvelopeNoAttackJumpsToHold(t *testing.T) {
	var eg Envelope
	eg.Start(EnvelopeSpec{Sustain: 1}, 1000)
	out := make([]float64, 1)
	eg.GetBlock(out)
	if out[0] != 1 {
		t.Errorf("with no delay/attack, level should jump straight to 1, got %.4f", out[0])
	}
}

func TestEnvelopeReleaseBeforeAttackCompletesUsesCurrentLevel(t *testing.T) {
	var eg Envelope
	eg.Start(EnvelopeSpec{Attack: 0.01, Sustain: 1, Release: 0.01}, 1000) // 10-sample attack
	out := make([]float64, 5)
	eg.GetBlock(out) // halfway through attack
	levelAtRelease := out[4]

	eg.Release(0)
	eg.GetBlock(out)
	if out[0] > levelAtRelease {
		t.Errorf("release should start decaying from the current level (%.4f), got %.4f at release start", levelAtRelease, out[0])
	}
}

func TestEnvelopeDepthIsPassthrough(t *testing.T) {
	var eg Envelope
	eg.Start(EnvelopeSpec{Depth: 1200}, 1000)
	if eg.Depth() != 1200 {
		t.Errorf("Depth() = %.1f, want 1200", eg.Depth())
	}
}
