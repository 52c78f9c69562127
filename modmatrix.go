package sfzvoice

import "sync"

// SimpleModMatrix is a minimal ModMatrix (spec.md §6): it stores one
// per-sample modulation span per (voice id, target) pair, set by whatever
// is generating modulation (LFOs, a host sequencer, test code) and handed
// back to the voice as a borrowed slice during renderBlock. It performs no
// modulation generation itself — it is a dispatch table, not a synth.
type SimpleModMatrix struct {
	mu    sync.RWMutex
	spans map[int]map[ModTarget][]float64

	// targets records which ModTarget handles are live for a voice between
	// InitVoice and ReleaseVoice, so FindTarget can report ModNone for a
	// target nobody routed to this voice/region pairing.
	targets map[int]map[ModTarget]bool
}

// NewSimpleModMatrix creates an empty matrix.
func NewSimpleModMatrix() *SimpleModMatrix {
	return &SimpleModMatrix{
		spans:   make(map[int]map[ModTarget][]float64),
		targets: make(map[int]map[ModTarget]bool),
	}
}

// InitVoice implements ModMatrix. regionID and delay are accepted for
// interface compatibility (a richer matrix would use them to look up
// per-region routing tables and schedule ramp-in at a sample offset); this
// minimal one just opens a bucket for the voice.
func (m *SimpleModMatrix) InitVoice(voiceID, regionID, delay int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[voiceID]; !ok {
		m.targets[voiceID] = make(map[ModTarget]bool)
	}
}

// ReleaseVoice implements ModMatrix, dropping all modulation state for a
// voice when its release begins.
func (m *SimpleModMatrix) ReleaseVoice(voiceID, regionID, delay int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.spans, voiceID)
	delete(m.targets, voiceID)
}

// RouteTarget marks target as live for voiceID, called by a host once per
// voice start for every target its routing table actually uses. Targets
// never routed stay ModNone for that voice, matching spec.md's "a voice
// that routes nothing to a target must render as if unmodulated".
func (m *SimpleModMatrix) RouteTarget(voiceID int, target ModTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[voiceID]; !ok {
		m.targets[voiceID] = make(map[ModTarget]bool)
	}
	m.targets[voiceID][target] = true
}

// FindTarget implements ModMatrix.
func (m *SimpleModMatrix) FindTarget(voiceID int, key ModTarget) ModTarget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if routed, ok := m.targets[voiceID]; ok && routed[key] {
		return key
	}
	return ModNone
}

// SetModulation installs the per-sample modulation span a host (or a test)
// wants a voice's target to see for the current block. Not called from the
// realtime thread itself — LFOs and envelopes external to the voice engine
// compute into span and publish it here before renderBlock runs.
func (m *SimpleModMatrix) SetModulation(voiceID int, target ModTarget, span []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.spans[voiceID]
	if !ok {
		bucket = make(map[ModTarget][]float64)
		m.spans[voiceID] = bucket
	}
	bucket[target] = span
}

// GetModulation implements ModMatrix. Called from renderBlock; returns the
// borrowed slice installed by SetModulation, or nil if nothing routes to
// this target.
func (m *SimpleModMatrix) GetModulation(voiceID int, target ModTarget) []float64 {
	if target == ModNone {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if bucket, ok := m.spans[voiceID]; ok {
		return bucket[target]
	}
	return nil
}
