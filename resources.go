package sfzvoice

// This file defines the collaborator contracts spec.md §6 requires ("Consumed
// from collaborators") plus the Resources struct voices share. Concrete
// implementations live in sample.go (FilePool), wavepool.go (WavePool),
// modmatrix.go (ModMatrix), midistate.go (MidiState), tuning.go
// (Tuning/StretchTuning) and bufferpool.go (BufferPool).

// AudioBuffer is a decoded, immutable PCM buffer as produced by a
// SamplePromise. Frames() is the number of sample frames (not individual
// floats); for a stereo buffer, Left/Right are independent channel slices of
// that length, and for mono only Left is populated.
type AudioBuffer struct {
	Left, Right []float64
	Channels    int
}

// Frames returns the number of sample frames in the buffer.
func (b *AudioBuffer) Frames() int {
	if b == nil {
		return 0
	}
	return len(b.Left)
}

// SamplePromise is a lazy handle to decoded PCM audio. It is acquired once at
// startVoice and held for the voice's lifetime; GetData() may decode on first
// call but must be a cheap, non-blocking read on subsequent calls from the
// realtime thread.
type SamplePromise interface {
	GetData() *AudioBuffer
	SampleRate() int
	OversamplingFactor() int
}

// FilePool resolves a region's sample id to a SamplePromise.
type FilePool interface {
	GetFilePromise(sampleID string) (SamplePromise, bool)
}

// Wavetable is a single-cycle lookup table read by the oscillator path.
type Wavetable interface {
	// Read returns the table's value at fractional phase in [0,1).
	Read(phase float64) float64
}

// WavePool supplies prebuilt and file-backed wavetables for the generator
// path (spec.md §4.5).
type WavePool interface {
	GetWaveSin() Wavetable
	GetWaveTriangle() Wavetable
	GetWaveSquare() Wavetable
	GetWaveSaw() Wavetable
	GetFileWave(name string) (Wavetable, bool)
}

// ModTarget is an opaque handle to a per-voice modulation destination,
// cached at startVoice and valid until the next startVoice or reset.
type ModTarget int

const (
	ModNone ModTarget = iota
	ModAmplitude
	ModVolume
	ModPan
	ModWidth
	ModPosition
	ModPitch
	ModOscillatorDetune
	ModOscillatorModDepth
)

// ModMatrix produces per-voice, per-target modulation buffers. GetModulation
// returns nil to mean "no modulation this block" — callers must treat a nil
// return as a pass-through, not as all-zero.
type ModMatrix interface {
	InitVoice(voiceID int, regionID int, delay int)
	ReleaseVoice(voiceID int, regionID int, delay int)
	FindTarget(voiceID int, key ModTarget) ModTarget
	GetModulation(voiceID int, target ModTarget) []float64
}

// CCEvent is a single MIDI Control Change with its sample-accurate delay
// into the current block.
type CCEvent struct {
	Delay int
	Value float64 // 0..1
}

// PitchEvent is a single MIDI pitch-bend event.
type PitchEvent struct {
	Delay int
	Value float64 // -1..1
}

// MidiState is read-only during rendering: a time-ordered slice of events
// for the current block plus the latest sticky values.
type MidiState interface {
	GetCCValue(cc int) float64
	GetCCEvents(cc int) []CCEvent
	GetPitchEvents() []PitchEvent
	GetPitchBend() float64
}

// Tuning maps MIDI key numbers to fractional 12-TET key numbers and
// frequencies, with an optional stretch-tuning decorator (see tuning.go).
type Tuning interface {
	GetKeyFractional12TET(note int) float64
	GetFrequencyOfKey(note int) float64
}

// StretchTuning optionally overrides the ratio between two keys beyond what
// equal temperament alone would give.
type StretchTuning interface {
	GetRatioForFractionalKey(note float64) (float64, bool)
}

// BufferPool hands out block-scoped scratch buffers with no allocation on
// the realtime path once warmed up. See bufferpool.go.
type BufferPool interface {
	GetBuffer(n int) (buf []float64, release func())
	GetIndexBuffer(n int) (buf []int, release func())
}

// SynthConfig carries the realtime-relevant constants a voice needs but that
// only change from a paused, non-realtime context (spec.md §5).
type SynthConfig struct {
	SampleRate     int
	SamplesPerBlock int
	MaxFiltersPerVoice int
	MaxEQsPerVoice     int
	MaxLFOsPerVoice    int
	MaxFlexEGsPerVoice int
	PitchEGEnabled     bool
	FilterEGEnabled    bool
}

// Resources bundles everything a Voice borrows but does not own, shared by
// every voice in the engine (spec.md §3 "Resources").
type Resources struct {
	Mod        ModMatrix
	Midi       MidiState
	Files      FilePool
	Waves      WavePool
	Tuning     Tuning
	Stretch    StretchTuning
	Buffers    BufferPool
	Config     SynthConfig
	Rand       *Rng
}
