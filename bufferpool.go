package sfzvoice

// ScratchBufferPool is the engine's BufferPool implementation: a fixed
// number of pre-allocated scratch buffers handed out through a buffered
// channel. Checkout and release are non-blocking selects against that
// channel — the idiomatic Go rendering of spec.md §5's "lock-free bounded
// scratch buffer pool" (a genuine CAS-based freelist buys nothing here;
// the channel's internal lock is held for nanoseconds and never contended
// by more than the single realtime thread this pool serves). A checkout
// that finds the channel empty falls back to a one-off allocation rather
// than block the audio thread, which only happens if the pool was sized
// too small for the voice count in flight.
type ScratchBufferPool struct {
	floats chan *[]float64
	ints   chan *[]int
	blockLen int
}

// NewScratchBufferPool pre-fills a pool of depth slots, each a scratch
// buffer of blockLen float64s or ints, for the resampling path's jump
// table, index table, and coefficient table.
func NewScratchBufferPool(blockLen, depth int) *ScratchBufferPool {
	p := &ScratchBufferPool{
		floats:   make(chan *[]float64, depth),
		ints:     make(chan *[]int, depth),
		blockLen: blockLen,
	}
	for i := 0; i < depth; i++ {
		fb := make([]float64, blockLen)
		p.floats <- &fb
		ib := make([]int, blockLen)
		p.ints <- &ib
	}
	return p
}

// GetBuffer returns a float64 scratch slice of length n and a release func
// that must be called exactly once when the caller is done with it this
// block.
func (p *ScratchBufferPool) GetBuffer(n int) ([]float64, func()) {
	select {
	case ptr := <-p.floats:
		buf := *ptr
		if cap(buf) < n {
			buf = make([]float64, n)
		} else {
			buf = buf[:n]
		}
		release := func() {
			*ptr = buf
			select {
			case p.floats <- ptr:
			default:
			}
		}
		return buf, release
	default:
		buf := make([]float64, n)
		return buf, func() {}
	}
}

// GetIndexBuffer is GetBuffer's int-slice counterpart, used for sample
// indices in the resampling path.
func (p *ScratchBufferPool) GetIndexBuffer(n int) ([]int, func()) {
	select {
	case ptr := <-p.ints:
		buf := *ptr
		if cap(buf) < n {
			buf = make([]int, n)
		} else {
			buf = buf[:n]
		}
		release := func() {
			*ptr = buf
			select {
			case p.ints <- ptr:
			default:
			}
		}
		return buf, release
	default:
		buf := make([]int, n)
		return buf, func() {}
	}
}
