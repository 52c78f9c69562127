package sfzvoice

import "github.com/GeoffreyPlitt/debuggo"

var poolDebug = debuggo.Debug("sfzvoice:pool")

// VoicePool is a fixed-size, non-stealing round-robin voice allocator: it
// hands out the next idle Voice it finds and refuses to start a new note
// when every voice is busy (polyphony management and stealing heuristics
// are out of scope). It exists to let cmd/sfzplay demonstrate more than one
// simultaneous voice without the engine itself needing to know about
// allocation policy.
type VoicePool struct {
	voices []*Voice
	next   int
}

// NewVoicePool constructs count voices sharing resources, each with a
// stable id in [0, count).
func NewVoicePool(count int, resources *Resources) *VoicePool {
	voices := make([]*Voice, count)
	for i := range voices {
		voices[i] = NewVoice(i, resources)
	}
	return &VoicePool{voices: voices}
}

// Len reports the pool's fixed voice count.
func (p *VoicePool) Len() int { return len(p.voices) }

// Voice returns the voice at index i, for callers that need direct access
// (e.g. a host driver summing the mix).
func (p *VoicePool) Voice(i int) *Voice { return p.voices[i] }

// Allocate finds the next idle voice starting from the last one handed out,
// so repeated allocation cycles through the whole pool rather than
// favoring index 0. Returns nil if every voice is busy.
func (p *VoicePool) Allocate() *Voice {
	n := len(p.voices)
	for i := 0; i < n; i++ {
		idx := (p.next + i) % n
		if !p.voices[idx].IsActive() {
			p.next = (idx + 1) % n
			return p.voices[idx]
		}
	}
	poolDebug("pool exhausted: %d voices all busy", n)
	return nil
}

// ForEachActive calls fn for every voice currently contributing audio or
// pending cleanup.
func (p *VoicePool) ForEachActive(fn func(*Voice)) {
	for _, v := range p.voices {
		if v.IsActive() {
			fn(v)
		}
	}
}

// ReapIdle resets every voice whose amplitude envelope has finished
// smoothing (VoiceCleanMeUp), returning it to the free pool for Allocate.
func (p *VoicePool) ReapIdle() {
	for _, v := range p.voices {
		if v.State() == VoiceCleanMeUp {
			v.Reset()
		}
	}
}

// FindByNote returns every active, still-sounding voice currently playing
// midiNote, used to dispatch note-off. Off-group exclusion goes through
// ForEachActive instead.
func (p *VoicePool) FindByNote(midiNote int) []*Voice {
	var found []*Voice
	for _, v := range p.voices {
		if v.State() == VoicePlaying && v.midiNote == midiNote {
			found = append(found, v)
		}
	}
	return found
}
