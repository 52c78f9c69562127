package sfzvoice

import (
	"math"
	"testing"
)

func TestWavePoolSineAtKnownPhases(t *testing.T) {
	wp := NewWavePool(nil)
	sine := wp.GetWaveSin()
	if v := sine.Read(0); math.Abs(v) > 0.01 {
		t.Errorf("sine.Read(0) = %.4f, want ~0", v)
	}
	if v := sine.Read(0.25); math.Abs(v-1) > 0.01 {
		t.Errorf("sine.Read(0.25) = %.4f, want ~1", v)
	}
}

func TestWavePoolSawRamp(t *testing.T) {
	wp := NewWavePool(nil)
	saw := wp.GetWaveSaw()
	start := saw.Read(0.01)
	end := saw.Read(0.99)
	if end <= start {
		t.Errorf("a rising sawtooth should increase from phase 0.01 (%.3f) to 0.99 (%.3f)", start, end)
	}
}

func TestWavePoolSquareFlipsAtHalfway(t *testing.T) {
	wp := NewWavePool(nil)
	square := wp.GetWaveSquare()
	early := square.Read(0.1)
	late := square.Read(0.6)
	if early <= 0 || late >= 0 {
		t.Errorf("square wave should be positive before 0.5 (%.3f) and negative after (%.3f)", early, late)
	}
}

func TestWavePoolFileWaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, dir, "wave.wav", 1, 44100, 256)
	cache := NewSampleCache(dir)
	wp := NewWavePool(cache)

	table, ok := wp.GetFileWave("wave.wav")
	if !ok || table == nil {
		t.Fatal("expected wave.wav to resolve as a file-backed wavetable")
	}
	// a second lookup should hit the cache and return the same table.
	table2, ok2 := wp.GetFileWave("wave.wav")
	if !ok2 || table2 != table {
		t.Error("GetFileWave should cache and reuse the resolved wavetable")
	}
}

func TestWavePoolFileWaveMissingIsNotOK(t *testing.T) {
	wp := NewWavePool(nil)
	if _, ok := wp.GetFileWave("missing.wav"); ok {
		t.Error("GetFileWave with no FilePool should never resolve")
	}
}

func TestWrapInterpolateWrapsAroundTableEnds(t *testing.T) {
	table := []float64{0, 1, 2, 3}
	// interpolating at the very start should wrap to read table[-1] as table[3]
	v := wrapInterpolate(table, 0, 0)
	if math.IsNaN(v) {
		t.Error("wrapInterpolate should not produce NaN at the table boundary")
	}
}
