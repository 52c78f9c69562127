package sfzvoice

import "testing"

func newTestVoice(id int) *Voice {
	v := &Voice{id: id}
	v.resetRing()
	return v
}

func TestVoiceRingStartsAsSelfLoop(t *testing.T) {
	v := newTestVoice(1)
	if v.ringNext != v || v.ringPrev != v {
		t.Error("a fresh voice should be a ring of one pointing to itself")
	}
}

func TestSpliceIntoRingJoinsTwoVoices(t *testing.T) {
	a := newTestVoice(1)
	b := newTestVoice(2)
	b.spliceIntoRing(a)

	if a.ringNext != b || b.ringPrev != a {
		t.Error("splicing b after a should link a->b")
	}
	if b.ringNext != a || a.ringPrev != b {
		t.Error("splicing b after a (a ring of one) should close the loop back to a")
	}
}

func TestSpliceIntoRingThreeVoices(t *testing.T) {
	a := newTestVoice(1)
	b := newTestVoice(2)
	c := newTestVoice(3)
	b.spliceIntoRing(a)
	c.spliceIntoRing(a)

	seen := map[int]bool{}
	a.sisterRingWalk(func(v *Voice) bool {
		seen[v.id] = true
		return true
	})
	for _, id := range []int{1, 2, 3} {
		if !seen[id] {
			t.Errorf("ring walk from a should visit voice %d", id)
		}
	}
}

func TestSpliceOutOfRingReconnectsNeighbors(t *testing.T) {
	a := newTestVoice(1)
	b := newTestVoice(2)
	c := newTestVoice(3)
	b.spliceIntoRing(a)
	c.spliceIntoRing(b)

	b.spliceOutOfRing()

	if a.ringNext != c || c.ringPrev != a {
		t.Error("removing b should reconnect a and c directly")
	}
	if b.ringNext != b || b.ringPrev != b {
		t.Error("the removed voice should become a self-loop again")
	}
}

func TestSpliceOutOfRingOnSolitaryVoiceIsNoOp(t *testing.T) {
	a := newTestVoice(1)
	a.spliceOutOfRing()
	if a.ringNext != a || a.ringPrev != a {
		t.Error("splicing a lone voice out of its own ring should be a no-op")
	}
}

func TestSisterRingWalkCanStopEarly(t *testing.T) {
	a := newTestVoice(1)
	b := newTestVoice(2)
	c := newTestVoice(3)
	b.spliceIntoRing(a)
	c.spliceIntoRing(b)

	count := 0
	a.sisterRingWalk(func(v *Voice) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Errorf("walk should have stopped after 2 voices, visited %d", count)
	}
}

func TestSpliceIntoRingIgnoresNilAndSelf(t *testing.T) {
	a := newTestVoice(1)
	a.spliceIntoRing(nil)
	a.spliceIntoRing(a)
	if a.ringNext != a || a.ringPrev != a {
		t.Error("splicing nil or self should leave the ring unchanged")
	}
}
