package sfzvoice

import (
	"math"

	"github.com/GeoffreyPlitt/debuggo"
)

var voiceDebug = debuggo.Debug("sfzvoice:voice")

// VoiceState is the voice lifecycle position (spec.md §4.1).
type VoiceState int

const (
	VoiceIdle VoiceState = iota
	VoicePlaying
	VoiceCleanMeUp
)

// maxUnisonOscillators bounds the fixed oscillator array every voice carries,
// large enough for the widest unison layout a region can request.
const maxUnisonOscillators = 9

// Voice is one sounding instance of a region: the full per-voice synthesis
// engine (spec.md §2-§4). It owns no audio-thread-visible collaborators
// directly; everything it needs beyond its own state comes through a shared
// *Resources pointer set once at construction.
type Voice struct {
	id    int
	state VoiceState

	resources *Resources
	region    *Region

	sampleRate float64
	blockSize  int

	// sample playback path
	promise             SamplePromise
	oversampling        int
	sourcePosition      int
	floatPositionOffset float64

	// generator path
	oscillators [maxUnisonOscillators]Oscillator

	// envelopes
	ampEnv       Envelope
	pitchEnv     Envelope
	filterEnv    Envelope
	hasPitchEnv  bool
	hasFilterEnv bool

	// smoothers
	gainSmoother      Smoother
	bendSmoother      Smoother
	crossfadeSmoother Smoother

	// filter/EQ chains, independent state per channel
	filtersL, filtersR []FilterSlot
	eqsL, eqsR         []FilterSlot

	power PowerFollower

	// note/velocity/pitch context
	midiNote    int
	velocity    float64
	baseGain    float64
	baseFreqHz  float64
	currentBend float64
	noteIsOff   bool

	age          int
	triggerDelay int

	// cached modulation target handles, resolved once at start
	targetAmplitude ModTarget
	targetVolume    ModTarget
	targetPan       ModTarget
	targetWidth     ModTarget
	targetPosition  ModTarget
	targetPitch     ModTarget
	targetDetune    ModTarget
	targetModDepth  ModTarget

	// sister ring
	ringPrev, ringNext *Voice

	// permanently owned scratch, sized to blockSize at construction so
	// RenderBlock never allocates (spec.md §5)
	pitchSpan   []float64
	bendScratch []float64
	freqSpan    []float64
	ampEGBuf    []float64
	pitchEGBuf  []float64
	filterEGBuf []float64
	gainCurve   []float64
	xfadeCurve  []float64

	genCarrier   []float64
	genModulator []float64
	genFreqU     []float64
	genDetune    [maxUnisonOscillators]float64
	genLeftGain  [maxUnisonOscillators]float64
	genRightGain [maxUnisonOscillators]float64
}

// NewVoice allocates a voice and all of its audio-thread scratch buffers up
// front. Construction is the only place this type is allowed to allocate.
func NewVoice(id int, resources *Resources) *Voice {
	n := resources.Config.SamplesPerBlock
	v := &Voice{
		id:          id,
		resources:   resources,
		sampleRate:  float64(resources.Config.SampleRate),
		blockSize:   n,
		pitchSpan:   make([]float64, n),
		bendScratch: make([]float64, n),
		freqSpan:    make([]float64, n),
		ampEGBuf:    make([]float64, n),
		pitchEGBuf:  make([]float64, n),
		filterEGBuf: make([]float64, n),
		gainCurve:   make([]float64, n),
		xfadeCurve:  make([]float64, n),

		genCarrier:   make([]float64, n),
		genModulator: make([]float64, n),
		genFreqU:     make([]float64, n),
	}
	v.resetRing()
	v.filtersL = make([]FilterSlot, resources.Config.MaxFiltersPerVoice)
	v.filtersR = make([]FilterSlot, resources.Config.MaxFiltersPerVoice)
	v.eqsL = make([]FilterSlot, resources.Config.MaxEQsPerVoice)
	v.eqsR = make([]FilterSlot, resources.Config.MaxEQsPerVoice)
	return v
}

// ID returns the voice's stable identity, used as the ModMatrix/MidiState
// key.
func (v *Voice) ID() int { return v.id }

// State reports the voice's current lifecycle position.
func (v *Voice) State() VoiceState { return v.state }

// IsActive reports whether the voice is contributing audio or pending
// cleanup — i.e. not free for reuse by a pool.
func (v *Voice) IsActive() bool { return v.state != VoiceIdle }

// Start begins playing region for the given MIDI note/velocity (spec.md
// §4.1). triggerDelaySamples is the sample-accurate offset into the current
// block at which the note actually begins sounding (0 for most hosts).
func (v *Voice) Start(region *Region, midiNote int, velocity float64, triggerDelaySamples int) {
	v.region = region
	v.midiNote = midiNote
	v.velocity = velocity
	v.noteIsOff = false
	v.triggerDelay = triggerDelaySamples
	v.age = 0
	v.sourcePosition = 0
	v.floatPositionOffset = 0

	for i := range v.oscillators {
		v.oscillators[i].Reset()
	}

	v.ampEnv.Start(region.AmpEG, v.sampleRate)
	v.hasPitchEnv = region.PitchEG != nil
	if v.hasPitchEnv {
		v.pitchEnv.Start(*region.PitchEG, v.sampleRate)
	}
	v.hasFilterEnv = region.FilterEG != nil
	if v.hasFilterEnv {
		v.filterEnv.Start(*region.FilterEG, v.sampleRate)
	}

	v.gainSmoother.Reset(0)
	v.gainSmoother.SetTarget(1, maxInt(1, v.blockSize/4))
	v.bendSmoother.Reset(centsFactor(bendCents(v.resources.Midi.GetPitchBend(), region)))
	v.crossfadeSmoother.Reset(crossfadeGain(region.CrossfadeIn, region.CrossfadeCurve, v.resources.Midi) *
		crossfadeGain(region.CrossfadeOut, region.CrossfadeCurve, v.resources.Midi))

	v.power.Reset()

	retunedKey := v.resources.Tuning.GetKeyFractional12TET(midiNote)
	semis := region.GetBasePitchVariation(retunedKey, velocity)
	v.baseFreqHz = v.resources.Tuning.GetFrequencyOfKey(region.PitchKeycenter) * math.Exp2(semis/12)

	if !region.IsOscillator() {
		promise, ok := v.resources.Files.GetFilePromise(region.SampleID)
		if !ok {
			v.promise = nil
			for i := range v.filtersL {
				v.filtersL[i].Disable()
				v.filtersR[i].Disable()
			}
			for i := range v.eqsL {
				v.eqsL[i].Disable()
				v.eqsR[i].Disable()
			}
			v.state = VoiceCleanMeUp
			voiceDebug("voice %d sample %q unresolvable, skipping straight to cleanup", v.id, region.SampleID)
			return
		}
		v.promise = promise
		promise.GetData() // decode now so RenderBlock only reads the cached buffer
		v.oversampling = promise.OversamplingFactor()
		if v.oversampling < 1 {
			v.oversampling = 1
		}
	} else {
		v.promise = nil
	}

	v.baseGain = velocityToGain(velocity)

	for i := range v.filtersL {
		if i < len(region.Filters) {
			v.filtersL[i].Setup(region.Filters[i], v.sampleRate)
			v.filtersR[i].Setup(region.Filters[i], v.sampleRate)
		} else {
			v.filtersL[i].Disable()
			v.filtersR[i].Disable()
		}
	}
	for i := range v.eqsL {
		if i < len(region.EQs) {
			v.eqsL[i].Setup(region.EQs[i], v.sampleRate)
			v.eqsR[i].Setup(region.EQs[i], v.sampleRate)
		} else {
			v.eqsL[i].Disable()
			v.eqsR[i].Disable()
		}
	}

	v.targetAmplitude = v.resources.Mod.FindTarget(v.id, ModAmplitude)
	v.targetVolume = v.resources.Mod.FindTarget(v.id, ModVolume)
	v.targetPan = v.resources.Mod.FindTarget(v.id, ModPan)
	v.targetWidth = v.resources.Mod.FindTarget(v.id, ModWidth)
	v.targetPosition = v.resources.Mod.FindTarget(v.id, ModPosition)
	v.targetPitch = v.resources.Mod.FindTarget(v.id, ModPitch)
	v.targetDetune = v.resources.Mod.FindTarget(v.id, ModOscillatorDetune)
	v.targetModDepth = v.resources.Mod.FindTarget(v.id, ModOscillatorModDepth)
	v.resources.Mod.InitVoice(v.id, region.ID, triggerDelaySamples)

	v.state = VoicePlaying
	voiceDebug("voice %d start note=%d vel=%.3f", v.id, midiNote, velocity)
}

// velocityToGain maps a 0..1 MIDI velocity to a linear gain using the
// standard -x^2 curve SFZ engines use for amp_veltrack=100 (default).
func velocityToGain(velocity float64) float64 {
	if velocity < 0 {
		velocity = 0
	}
	if velocity > 1 {
		velocity = 1
	}
	return velocity * velocity
}

// RegisterNoteOff schedules the voice's release, sample-accurate within the
// current block (spec.md §4.2).
func (v *Voice) RegisterNoteOff(delay int) {
	if v.state != VoicePlaying {
		return
	}
	v.noteIsOff = true
	if v.region != nil && v.region.CheckSustain {
		if v.resources.Midi.GetCCValue(v.region.SustainCC) >= v.region.SustainThreshold {
			return
		}
	}
	v.release(delay)
}

func (v *Voice) release(delay int) {
	if v.ampEnv.RemainingDelay() > delay {
		v.state = VoiceCleanMeUp
		voiceDebug("voice %d released before its pre-attack delay elapsed, never became audible", v.id)
		return
	}
	v.ampEnv.Release(delay)
	if v.hasPitchEnv {
		v.pitchEnv.Release(delay)
	}
	if v.hasFilterEnv {
		v.filterEnv.Release(delay)
	}
	v.resources.Mod.ReleaseVoice(v.id, v.region.ID, delay)
}

// RegisterSustainRelease is called when a pedal-up CC arrives after a note
// that was already held past its own note-off by a sustain pedal.
func (v *Voice) RegisterSustainRelease(delay int) {
	if v.state != VoicePlaying || !v.noteIsOff {
		return
	}
	v.release(delay)
}

// RegisterPitchWheel records the latest sticky pitch-bend value; sample
// accurate application within the block happens through MidiState's event
// queue inside pitchEnvelope.
func (v *Voice) RegisterPitchWheel(value float64) {
	v.currentBend = value
}

// RegisterAftertouch is consumed by the modulation matrix, not by Voice
// directly; kept as an explicit no-op entry point per spec.md §4.2.
func (v *Voice) RegisterAftertouch(value float64) {
	_ = value
}

// RegisterTempo is a no-op placeholder: tempo-synced LFOs are owned by the
// modulation matrix, not the per-voice engine (spec.md §9 open question).
func (v *Voice) RegisterTempo(bpm float64) {
	_ = bpm
}

// TriggerOff forces an immediate or timed release, used by off-group
// exclusion (spec.md §4.12).
func (v *Voice) TriggerOff() {
	if v.state != VoicePlaying {
		return
	}
	if v.region != nil && v.region.OffMode == OffTime {
		v.ampEnv.Start(EnvelopeSpec{Release: v.region.OffTime, Sustain: 0}, v.sampleRate)
		v.ampEnv.Release(0)
		return
	}
	v.release(0)
}

// CheckOffGroup kills this voice if it belongs to the group a newly
// triggered region excludes (spec.md §4.12). Called by Sampler.NoteOn right
// before starting the new voice.
func (v *Voice) CheckOffGroup(offByGroup int) {
	if v.state != VoicePlaying || v.region == nil || offByGroup == 0 {
		return
	}
	if v.region.Group == offByGroup {
		v.TriggerOff()
	}
}

// Reset clears the voice back to its construction-time zero state so a pool
// can reuse it (spec.md §4.1). Scratch buffers are left as-is: contents of
// an idle voice's buffers are irrelevant until the next Start.
func (v *Voice) Reset() {
	v.state = VoiceIdle
	v.region = nil
	v.promise = nil
	v.sourcePosition = 0
	v.floatPositionOffset = 0
	v.noteIsOff = false
	v.age = 0
	v.power.Reset()
	v.spliceOutOfRing()
}

// RenderBlock is the hard-realtime callback entry point (spec.md §2 "Control
// flow per audio block", §4.1-§4.12). outL/outR must both be len(n); n must
// not exceed the blockSize this voice was constructed with.
func (v *Voice) RenderBlock(outL, outR []float64) {
	n := len(outL)
	if v.state == VoiceIdle || v.region == nil {
		zero(outL)
		zero(outR)
		return
	}

	if v.triggerDelay >= n {
		zero(outL)
		zero(outR)
		v.triggerDelay -= n
		return
	}

	start := 0
	if v.triggerDelay > 0 {
		start = v.triggerDelay
		zero(outL[:start])
		zero(outR[:start])
		v.triggerDelay = 0
	}

	region := v.region
	active := n - start
	pitchSpan := v.pitchSpan[start:n]
	bend := v.bendScratch[start:n]
	freqSpan := v.freqSpan[start:n]
	aL := outL[start:n]
	aR := outR[start:n]

	for i := range pitchSpan {
		pitchSpan[i] = 1.0
	}

	var modPitch []float64
	if m := v.resources.Mod.GetModulation(v.id, v.targetPitch); m != nil {
		modPitch = sliceFrom(m, start, n)
	}
	if v.hasPitchEnv {
		v.pitchEnv.GetBlock(v.pitchEGBuf[start:n])
		depth := v.pitchEnv.Depth()
		if modPitch == nil {
			modPitch = v.pitchEGBuf[start:n]
			for i := range modPitch {
				modPitch[i] *= depth
			}
		} else {
			for i := range modPitch {
				modPitch[i] += v.pitchEGBuf[start+i] * depth
			}
		}
	}

	pitchEnvelope(pitchSpan, bend, region, v.resources.Midi.GetPitchEvents(), v.currentBend, &v.bendSmoother, modPitch)

	var outcome sampleFillOutcome
	switch {
	case region.IsOscillator():
		for i := range freqSpan {
			freqSpan[i] = v.baseFreqHz * pitchSpan[i]
		}
		fillWithGenerator(v, v.resources.Waves, region, freqSpan, v.resources.Rand, aL, aR)

	case v.promise != nil:
		buf := v.promise.GetData()
		if buf == nil || buf.Frames() == 0 {
			zero(aL)
			zero(aR)
			v.state = VoiceCleanMeUp
			return
		}
		speedRatio := float64(v.promise.SampleRate()*v.oversampling) / v.sampleRate
		speedRatio *= v.baseFreqHz / v.resources.Tuning.GetFrequencyOfKey(region.PitchKeycenter)
		jumps, releaseJ := v.resources.Buffers.GetBuffer(active)
		indices, releaseI := v.resources.Buffers.GetIndexBuffer(active)
		coeffs, releaseC := v.resources.Buffers.GetBuffer(active)
		v.sourcePosition, v.floatPositionOffset, outcome = fillWithData(
			buf, region, v.oversampling, speedRatio, pitchSpan,
			jumps, indices, coeffs,
			v.sourcePosition, v.floatPositionOffset, aL, aR)
		releaseJ()
		releaseI()
		releaseC()

	default:
		zero(aL)
		zero(aR)
	}

	v.ampEnv.GetBlock(v.ampEGBuf[start:n])
	if outcome.hitEnd && v.ampEnv.IsSmoothing() {
		v.ampEnv.Release(0)
		v.ampEnv.GetBlock(v.ampEGBuf[start+outcome.hitAt : n])
	}

	var modAmp, modVol []float64
	if m := v.resources.Mod.GetModulation(v.id, v.targetAmplitude); m != nil {
		modAmp = sliceFrom(m, start, n)
	}
	if m := v.resources.Mod.GetModulation(v.id, v.targetVolume); m != nil {
		modVol = sliceFrom(m, start, n)
	}
	ampStage(aL, aR, v.ampEGBuf[start:n], v.baseGain, region.VolumeDB, modAmp, modVol, &v.gainSmoother, v.gainCurve[start:n])

	crossfadeStage(aL, aR, region, v.resources.Midi, &v.crossfadeSmoother, v.xfadeCurve[start:n])

	pan := region.Pan
	width := region.Width
	position := region.Position
	if m := v.resources.Mod.GetModulation(v.id, v.targetPan); len(m) > 0 {
		pan += m[0]
	}
	if m := v.resources.Mod.GetModulation(v.id, v.targetWidth); len(m) > 0 {
		width += m[0]
	}
	if m := v.resources.Mod.GetModulation(v.id, v.targetPosition); len(m) > 0 {
		position += m[0]
	}

	if v.isMonoSource() {
		l, r := equalPowerPan(pan)
		for i := range aL {
			src := aL[i]
			aL[i] = src * l
			aR[i] = src * r
		}
	} else {
		panStage(aL, aR, pan, width, position)
	}

	if v.hasFilterEnv {
		v.filterEnv.GetBlock(v.filterEGBuf[start:n])
		applyFilterEnvelope(v, region, v.filterEGBuf[start])
	}
	for i := range v.filtersL {
		v.filtersL[i].ProcessBlock(aL)
	}
	for i := range v.filtersR {
		v.filtersR[i].ProcessBlock(aR)
	}
	for i := range v.eqsL {
		v.eqsL[i].ProcessBlock(aL)
	}
	for i := range v.eqsR {
		v.eqsR[i].ProcessBlock(aR)
	}

	for i := range aL {
		aL[i] = sanitize(aL[i])
		aR[i] = sanitize(aR[i])
	}

	v.power.Process(aL, aR)
	v.age += active

	if !v.ampEnv.IsSmoothing() {
		v.state = VoiceCleanMeUp
	}
}

func (v *Voice) isMonoSource() bool {
	if v.region.IsOscillator() {
		return true
	}
	if v.promise == nil {
		return true
	}
	buf := v.promise.GetData()
	return buf == nil || buf.Channels <= 1
}

// applyFilterEnvelope recomputes a voice's first filter slot's cutoff from
// the filter EG's block-start value, scaled by the EG's configured depth in
// Hz. Coefficients are recomputed once per block rather than per sample:
// a per-sample biquad recoefficiening pass is not worth its cost here.
func applyFilterEnvelope(v *Voice, region *Region, egLevel float64) {
	if len(region.Filters) == 0 {
		return
	}
	spec := region.Filters[0]
	spec.Cutoff += egLevel * v.filterEnv.Depth()
	if spec.Cutoff < 1 {
		spec.Cutoff = 1
	}
	v.filtersL[0].Setup(spec, v.sampleRate)
	v.filtersR[0].Setup(spec, v.sampleRate)
}

func zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// sliceFrom defensively re-slices a modulation buffer that may be shorter
// than the voice's full block; it never panics on a short buffer.
func sliceFrom(buf []float64, start, end int) []float64 {
	if end > len(buf) {
		end = len(buf)
	}
	if start > end {
		return nil
	}
	return buf[start:end]
}
