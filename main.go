package sfzvoice

import (
	"fmt"
	"path/filepath"

	"github.com/GeoffreyPlitt/debuggo"
)

var samplerDebug = debuggo.Debug("sfzvoice:sampler")

// Sampler wires the per-voice engine together with its collaborators into
// something a host driver can point MIDI and a render callback at: parsed
// regions, a voice pool, the modulation/MIDI/tuning/buffer resources every
// voice shares, and a master reverb send. It is the thing cmd/sfzplay and
// the JACK/oto drivers actually hold.
type Sampler struct {
	sfzDir  string
	regions []*Region

	resources *Resources
	voices    *VoicePool
	midi      *LiveMidiState
	mod       *SimpleModMatrix
	files     *SampleCache

	reverb     *Freeverb
	reverbSend float64

	currentKeyswitch int
	activeNoteCount  int
}

// SamplerConfig carries the realtime constants a Sampler needs at
// construction, matching SynthConfig's fields plus the voice pool size.
type SamplerConfig struct {
	SampleRate int
	BlockSize  int
	MaxVoices  int
}

// DefaultSamplerConfig is a reasonable starting point for cmd/sfzplay and
// the bundled drivers: 44.1kHz, 512-sample blocks, 32-voice polyphony.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{SampleRate: 44100, BlockSize: 512, MaxVoices: 32}
}

// NewSampler parses an SFZ file and builds a fully wired Sampler ready to
// receive MIDI and render audio.
func NewSampler(sfzPath string, cfg SamplerConfig) (*Sampler, error) {
	samplerDebug("creating sampler for %s", sfzPath)

	data, err := ParseSfzFile(sfzPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}
	regions := BuildRegions(data)
	samplerDebug("parsed %d regions", len(regions))

	sfzDir := filepath.Dir(sfzPath)
	files := NewSampleCache(sfzDir)
	waves := NewWavePool(files)
	mod := NewSimpleModMatrix()
	midi := NewLiveMidiState()
	tuning := NewEqualTemperament(440)
	buffers := NewScratchBufferPool(cfg.BlockSize, cfg.MaxVoices*3)

	resources := &Resources{
		Mod:     mod,
		Midi:    midi,
		Files:   files,
		Waves:   waves,
		Tuning:  tuning,
		Stretch: nil,
		Buffers: buffers,
		Config: SynthConfig{
			SampleRate:         cfg.SampleRate,
			SamplesPerBlock:    cfg.BlockSize,
			MaxFiltersPerVoice: 1,
			MaxEQsPerVoice:     3,
			MaxLFOsPerVoice:    0,
			MaxFlexEGsPerVoice: 0,
			PitchEGEnabled:     true,
			FilterEGEnabled:    true,
		},
		Rand: NewRng(1),
	}

	s := &Sampler{
		sfzDir:           sfzDir,
		regions:          regions,
		resources:        resources,
		voices:           NewVoicePool(cfg.MaxVoices, resources),
		midi:             midi,
		mod:              mod,
		files:            files,
		reverb:           NewFreeverb(cfg.SampleRate),
		currentKeyswitch: -1,
	}
	s.loadReverbSettings(data)

	return s, nil
}

// Regions exposes the flattened region set, e.g. for a GUI or test harness.
func (s *Sampler) Regions() []*Region { return s.regions }

// Resources exposes the shared collaborator bundle, for a host driver that
// wants to inject its own LFOs or a richer ModMatrix via s.ModMatrix().
func (s *Sampler) Resources() *Resources { return s.resources }

// ModMatrix exposes the concrete matrix so a host can call RouteTarget /
// SetModulation to drive per-voice modulation.
func (s *Sampler) ModMatrix() *SimpleModMatrix { return s.mod }

// BeginBlock must be called by the host driver once per audio block before
// any MIDI dispatch or RenderBlock call, to rotate the MidiState's event
// queues and reap voices that finished releasing last block.
func (s *Sampler) BeginBlock() {
	s.midi.BeginBlock()
	s.voices.ReapIdle()
}

// NoteOn starts every region matching note/velocity, applying off-group
// exclusion and keyswitch/trigger-mode filtering first. Regions layered
// from the same NoteOn call are linked into a sister ring. delay is the
// sample-accurate offset into the current block.
func (s *Sampler) NoteOn(note, velocity int, delay int) {
	s.updateKeyswitch(note)
	s.activeNoteCount++

	var first *Voice
	for _, region := range s.regions {
		if !s.regionMatches(region, note, velocity) {
			continue
		}
		if region.OffBy != 0 {
			s.voices.ForEachActive(func(v *Voice) { v.CheckOffGroup(region.OffBy) })
		}
		voice := s.voices.Allocate()
		if voice == nil {
			samplerDebug("voice pool exhausted, dropping note %d", note)
			continue
		}
		voice.Start(region, note, float64(velocity)/127.0, delay)
		if first == nil {
			first = voice
		} else {
			voice.spliceIntoRing(first)
		}
	}
}

// NoteOff releases every currently playing voice on note, and triggers any
// release-mode region (a "note-off sample", e.g. piano pedal-release
// noise) that matches the released note.
func (s *Sampler) NoteOff(note int, delay int) {
	s.activeNoteCount--
	if s.activeNoteCount < 0 {
		s.activeNoteCount = 0
	}
	for _, v := range s.voices.FindByNote(note) {
		v.RegisterNoteOff(delay)
	}
	for _, region := range s.regions {
		if region.TriggerMode != "release" {
			continue
		}
		if !s.keyInRange(region, note) || !s.keyswitchMatches(region) {
			continue
		}
		voice := s.voices.Allocate()
		if voice == nil {
			continue
		}
		voice.Start(region, note, 64.0/127.0, delay)
	}
}

// ControlChange dispatches a 0..127 MIDI CC to the shared MidiState and, for
// the reverb-control CC range (91-95, matching the teacher's mapping),
// updates the master reverb directly.
func (s *Sampler) ControlChange(cc, value int, delay int) {
	normalized := float64(value) / 127.0
	s.midi.RecordCC(cc, normalized, delay)

	switch cc {
	case 91:
		s.SetReverbSend(normalized)
	case 92:
		s.reverb.SetRoomSize(normalized)
	case 93:
		s.reverb.SetDamping(normalized)
	case 94:
		s.reverb.SetWet(normalized)
	case 95:
		s.reverb.SetDry(normalized)
	}

	if cc == 64 {
		for _, v := range s.allVoices() {
			if v.State() == VoicePlaying && normalized < 0.5 {
				v.RegisterSustainRelease(delay)
			}
		}
	}
}

// PitchBend dispatches a 14-bit MIDI pitch-bend value (0..16383, center
// 8192) to every sounding voice and the shared MidiState.
func (s *Sampler) PitchBend(value14bit int, delay int) {
	bend := (float64(value14bit) - 8192) / 8192.0
	s.midi.RecordPitchBend(bend, delay)
	for _, v := range s.allVoices() {
		v.RegisterPitchWheel(bend)
	}
}

// Aftertouch dispatches channel-pressure aftertouch (0..127) to every
// sounding voice; consumed by a modulation matrix target, if routed.
func (s *Sampler) Aftertouch(value int) {
	normalized := float64(value) / 127.0
	for _, v := range s.allVoices() {
		v.RegisterAftertouch(normalized)
	}
}

func (s *Sampler) allVoices() []*Voice {
	voices := make([]*Voice, 0, s.voices.Len())
	s.voices.ForEachActive(func(v *Voice) { voices = append(voices, v) })
	return voices
}

// RenderBlock sums every active voice into outL/outR (both length n,
// n <= the BlockSize the Sampler was constructed with) and runs the mix
// through the master reverb send.
func (s *Sampler) RenderBlock(outL, outR []float64) {
	n := len(outL)
	zero(outL)
	zero(outR)

	voiceL, releaseL := s.resources.Buffers.GetBuffer(n)
	voiceR, releaseR := s.resources.Buffers.GetBuffer(n)
	defer releaseL()
	defer releaseR()

	s.voices.ForEachActive(func(v *Voice) {
		v.RenderBlock(voiceL, voiceR)
		for i := 0; i < n; i++ {
			outL[i] += voiceL[i]
			outR[i] += voiceR[i]
		}
	})

	if s.reverbSend > 0 {
		wetL, releaseWL := s.resources.Buffers.GetBuffer(n)
		wetR, releaseWR := s.resources.Buffers.GetBuffer(n)
		defer releaseWL()
		defer releaseWR()
		for i := 0; i < n; i++ {
			wetL[i] = outL[i] * s.reverbSend
			wetR[i] = outR[i] * s.reverbSend
		}
		s.reverb.ProcessBlock(wetL, wetR)
		dry := 1 - s.reverbSend
		for i := 0; i < n; i++ {
			outL[i] = outL[i]*dry + wetL[i]
			outR[i] = outR[i]*dry + wetR[i]
		}
	}
}

// SetReverbSend sets the global reverb send level (0..1).
func (s *Sampler) SetReverbSend(send float64) {
	if send < 0 {
		send = 0
	}
	if send > 1 {
		send = 1
	}
	s.reverbSend = send
	samplerDebug("reverb send set to %.2f", send)
}

// GetReverbSend returns the current reverb send level.
func (s *Sampler) GetReverbSend() float64 { return s.reverbSend }

func (s *Sampler) regionMatches(region *Region, note, velocity int) bool {
	if !s.keyInRange(region, note) {
		return false
	}
	if velocity < region.LoVel || velocity > region.HiVel {
		return false
	}
	if !s.keyswitchMatches(region) {
		return false
	}
	switch region.TriggerMode {
	case "first":
		if s.activeNoteCount > 1 {
			return false
		}
	case "legato":
		if s.activeNoteCount <= 1 {
			return false
		}
	case "release":
		return false
	}
	return true
}

func (s *Sampler) keyInRange(region *Region, note int) bool {
	return note >= region.LoKey && note <= region.HiKey
}

func (s *Sampler) keyswitchMatches(region *Region) bool {
	if region.SwLoKey < 0 || region.SwHiKey < 0 {
		return true
	}
	return s.currentKeyswitch >= region.SwLoKey && s.currentKeyswitch <= region.SwHiKey
}

func (s *Sampler) updateKeyswitch(note int) {
	for _, region := range s.regions {
		if region.SwLoKey < 0 || region.SwHiKey < 0 {
			continue
		}
		if note >= region.SwLoKey && note <= region.SwHiKey {
			s.currentKeyswitch = note
			samplerDebug("keyswitch updated: %d", note)
			return
		}
	}
}

// loadReverbSettings reads reverb opcodes from the SFZ file's <global> and
// first <group> section — the teacher's simplification of treating reverb
// as one master send rather than per-voice, kept here since per-voice
// reverb sends are out of this engine's scope.
func (s *Sampler) loadReverbSettings(data *SfzData) {
	if data.Global != nil {
		s.applyReverbOpcodes(data.Global)
	}
	if len(data.Groups) > 0 {
		s.applyReverbOpcodes(data.Groups[0])
	}
}

func (s *Sampler) applyReverbOpcodes(section *SfzSection) {
	if section.hasInherited("reverb_send") {
		s.SetReverbSend(section.GetInheritedFloatOpcode("reverb_send", 0) / 100.0)
	}
	if section.hasInherited("reverb_room_size") {
		s.reverb.SetRoomSize(section.GetInheritedFloatOpcode("reverb_room_size", 0) / 100.0)
	}
	if section.hasInherited("reverb_damping") {
		s.reverb.SetDamping(section.GetInheritedFloatOpcode("reverb_damping", 0) / 100.0)
	}
	if section.hasInherited("reverb_wet") {
		s.reverb.SetWet(section.GetInheritedFloatOpcode("reverb_wet", 0) / 100.0)
	}
	if section.hasInherited("reverb_dry") {
		s.reverb.SetDry(section.GetInheritedFloatOpcode("reverb_dry", 0) / 100.0)
	}
	if section.hasInherited("reverb_width") {
		s.reverb.SetWidth(section.GetInheritedFloatOpcode("reverb_width", 0) / 100.0)
	}
}
