package sfzvoice

import "math"

const wavetableLength = 2048

// simpleWavetable is a fixed-length, single-cycle lookup table read with
// Hermite interpolation (spec.md §2 "Wavetable oscillator").
type simpleWavetable struct {
	table []float64
}

func newWavetable(fn func(phase float64) float64) *simpleWavetable {
	t := make([]float64, wavetableLength)
	for i := range t {
		t[i] = fn(float64(i) / float64(wavetableLength))
	}
	return &simpleWavetable{table: t}
}

func (w *simpleWavetable) Read(phase float64) float64 {
	phase -= math.Floor(phase)
	pos := phase * float64(wavetableLength)
	i0 := int(pos)
	frac := pos - float64(i0)
	return wrapInterpolate(w.table, i0, frac)
}

func wrapInterpolate(table []float64, i0 int, frac float64) float64 {
	n := len(table)
	at := func(i int) float64 {
		i %= n
		if i < 0 {
			i += n
		}
		return table[i]
	}
	pm1 := at(i0 - 1)
	p0 := at(i0)
	p1 := at(i0 + 1)
	p2 := at(i0 + 2)

	t := frac
	t2 := t * t
	t3 := t2 * t

	c0 := p0
	c1 := 0.5 * (p1 - pm1)
	c2 := pm1 - 2.5*p0 + 2*p1 - 0.5*p2
	c3 := 0.5*(p2-pm1) + 1.5*(p0-p1)

	return c0 + c1*t + c2*t2 + c3*t3
}

// fileWavetable reads a single-cycle (or looped-as-one-cycle) file-backed
// sample through cubic Hermite interpolation (wrapInterpolate) into table
// space.
type fileWavetable struct {
	data []float64
}

func (w *fileWavetable) Read(phase float64) float64 {
	n := len(w.data)
	if n == 0 {
		return 0
	}
	phase -= math.Floor(phase)
	pos := phase * float64(n)
	i0 := int(pos)
	frac := pos - float64(i0)
	return wrapInterpolate(w.data, i0, frac)
}

// WavePoolImpl is a concrete WavePool: prebuilt sine/triangle/square/saw
// tables plus a cache of file-backed tables resolved through a FilePool.
type WavePoolImpl struct {
	sine     *simpleWavetable
	triangle *simpleWavetable
	square   *simpleWavetable
	saw      *simpleWavetable

	files  FilePool
	cache  map[string]Wavetable
}

// NewWavePool builds the prebuilt tables and wires an (optional) FilePool for
// file-backed oscillator waves.
func NewWavePool(files FilePool) *WavePoolImpl {
	return &WavePoolImpl{
		sine:     newWavetable(func(p float64) float64 { return math.Sin(2 * math.Pi * p) }),
		triangle: newWavetable(triangleWave),
		square:   newWavetable(squareWave),
		saw:      newWavetable(func(p float64) float64 { return 2*p - 1 }),
		files:    files,
		cache:    make(map[string]Wavetable),
	}
}

func squareWave(p float64) float64 {
	if p < 0.5 {
		return 1
	}
	return -1
}

func triangleWave(p float64) float64 {
	if p < 0.25 {
		return 4 * p
	}
	if p < 0.75 {
		return 2 - 4*p
	}
	return 4*p - 4
}

func (wp *WavePoolImpl) GetWaveSin() Wavetable      { return wp.sine }
func (wp *WavePoolImpl) GetWaveTriangle() Wavetable { return wp.triangle }
func (wp *WavePoolImpl) GetWaveSquare() Wavetable   { return wp.square }
func (wp *WavePoolImpl) GetWaveSaw() Wavetable      { return wp.saw }

// GetFileWave resolves and caches a file-backed single-cycle wavetable.
func (wp *WavePoolImpl) GetFileWave(name string) (Wavetable, bool) {
	if wt, ok := wp.cache[name]; ok {
		return wt, true
	}
	if wp.files == nil {
		return nil, false
	}
	promise, ok := wp.files.GetFilePromise(name)
	if !ok {
		return nil, false
	}
	buf := promise.GetData()
	if buf == nil || buf.Frames() == 0 {
		return nil, false
	}
	wt := &fileWavetable{data: buf.Left}
	wp.cache[name] = wt
	return wt, true
}
