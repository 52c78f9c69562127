//go:build !headless
// +build !headless

package sfzvoice

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/ebitengine/oto/v3"
)

var otoDebug = debuggo.Debug("sfzvoice:oto")

// OtoDriver is the portable (non-JACK) audio backend: it renders Sampler
// blocks on demand from oto's pull-based Read, the way the teacher has no
// equivalent for but a wavetable-synth engine commonly does (grounded on
// the oto.Player-over-io.Reader shape used for cross-platform realtime
// audio output in the broader example corpus). It is built unless the
// headless tag is set, and cmd/sfzplay always uses it.
type OtoDriver struct {
	ctx     *oto.Context
	player  *oto.Player
	sampler *Sampler

	mu         sync.Mutex
	blockL     []float64
	blockR     []float64
	blockFrames int

	pending []byte // leftover encoded bytes from a partially consumed block
}

const otoChannels = 2
const otoBytesPerSample = 4 // float32 LE

// NewOtoDriver opens an oto context at sampleRate and wires it to render
// blockFrames-sized chunks from sampler on demand.
func NewOtoDriver(sampler *Sampler, sampleRate, blockFrames int) (*OtoDriver, error) {
	options := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: otoChannels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	od := &OtoDriver{
		ctx:         ctx,
		sampler:     sampler,
		blockL:      make([]float64, blockFrames),
		blockR:      make([]float64, blockFrames),
		blockFrames: blockFrames,
	}
	od.player = ctx.NewPlayer(od)
	otoDebug("oto driver ready: sampleRate=%d blockFrames=%d", sampleRate, blockFrames)
	return od, nil
}

// Read implements io.Reader for oto.Player: it renders Sampler blocks and
// encodes them as interleaved float32LE stereo PCM, filling p fully or
// until a partial block is consumed across calls.
func (od *OtoDriver) Read(p []byte) (int, error) {
	od.mu.Lock()
	defer od.mu.Unlock()

	n := 0
	for n < len(p) {
		if len(od.pending) == 0 {
			od.renderNextBlock()
		}
		copied := copy(p[n:], od.pending)
		od.pending = od.pending[copied:]
		n += copied
	}
	return n, nil
}

func (od *OtoDriver) renderNextBlock() {
	od.sampler.BeginBlock()
	od.sampler.RenderBlock(od.blockL, od.blockR)

	buf := make([]byte, od.blockFrames*otoChannels*otoBytesPerSample)
	for i := 0; i < od.blockFrames; i++ {
		off := i * otoChannels * otoBytesPerSample
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(od.blockL[i])))
		binary.LittleEndian.PutUint32(buf[off+otoBytesPerSample:], math.Float32bits(float32(od.blockR[i])))
	}
	od.pending = buf
}

// Start begins playback.
func (od *OtoDriver) Start() {
	od.player.Play()
}

// Stop pauses playback without releasing the underlying player.
func (od *OtoDriver) Stop() {
	od.player.Pause()
}

// Close releases the player.
func (od *OtoDriver) Close() error {
	return od.player.Close()
}
