package sfzvoice

// sisterRing is the intrusive doubly-linked list embedding used to group
// voices triggered from one logical event (spec.md §4.11, §9). A lone voice
// is a ring of one: both pointers point to itself.

func (v *Voice) resetRing() {
	v.ringPrev = v
	v.ringNext = v
}

// SetNextSisterVoice links other as this voice's next ring neighbor and
// points other's previous link back at v; the former neighbors are not
// relinked.
func (v *Voice) SetNextSisterVoice(other *Voice) {
	if other == nil {
		return
	}
	v.ringNext = other
	other.ringPrev = v
}

// SetPreviousSisterVoice links other as this voice's previous ring neighbor
// and points other's next link back at v; the former neighbors are not
// relinked.
func (v *Voice) SetPreviousSisterVoice(other *Voice) {
	if other == nil {
		return
	}
	v.ringPrev = other
	other.ringNext = v
}

// spliceIntoRing joins v into the ring that other belongs to (placing v
// immediately after other), used when a new voice is triggered alongside
// existing sister voices from the same origin event.
func (v *Voice) spliceIntoRing(other *Voice) {
	if other == nil || other == v {
		return
	}
	next := other.ringNext
	other.ringNext = v
	v.ringPrev = other
	v.ringNext = next
	next.ringPrev = v
}

// spliceOutOfRing removes v from whatever ring it is in, reconnecting its
// neighbors, then resets v to a self-loop. Safe to call on an
// already-solitary voice.
func (v *Voice) spliceOutOfRing() {
	if v.ringPrev == v && v.ringNext == v {
		return
	}
	v.ringPrev.ringNext = v.ringNext
	v.ringNext.ringPrev = v.ringPrev
	v.resetRing()
}

// sisterRingWalk calls fn for every voice in v's ring, including v itself,
// stopping early if fn returns false. O(ring size), no locking — mutation
// only ever happens from the audio thread (spec.md §4.11).
func (v *Voice) sisterRingWalk(fn func(*Voice) bool) {
	start := v
	cur := v
	for {
		if !fn(cur) {
			return
		}
		cur = cur.ringNext
		if cur == start {
			return
		}
	}
}
