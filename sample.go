package sfzvoice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

var sampleDebug = debuggo.Debug("sfzvoice:sample")

// decodedSample is the raw decoded form of a WAV or FLAC file, before it is
// handed to a voice as an AudioBuffer.
type decodedSample struct {
	filePath   string
	left       []float64
	right      []float64
	channels   int
	sampleRate int
}

// samplePromise implements SamplePromise (resources.go) over a lazily
// decoded file. Decode happens once, guarded by a sync.Once — safe to call
// GetData from any goroutine, but callers on the realtime thread must only
// ever see the cheap post-decode path, since startVoice resolves the
// promise (and therefore usually triggers the decode) before the voice is
// handed to the renderer.
type samplePromise struct {
	once sync.Once
	err  error

	filePath     string
	decode       func(string) (*decodedSample, error)
	oversampling int

	buf *AudioBuffer
	sr  int
}

func (p *samplePromise) GetData() *AudioBuffer {
	p.once.Do(func() {
		d, err := p.decode(p.filePath)
		if err != nil {
			p.err = err
			sampleDebug("decode failed for %s: %v", p.filePath, err)
			return
		}
		p.sr = d.sampleRate
		p.buf = &AudioBuffer{Left: d.left, Right: d.right, Channels: d.channels}
	})
	return p.buf
}

func (p *samplePromise) SampleRate() int {
	p.GetData()
	return p.sr
}

func (p *samplePromise) OversamplingFactor() int {
	if p.oversampling < 1 {
		return 1
	}
	return p.oversampling
}

// SampleCache is a FilePool: it resolves a region's sample id (a path
// relative to the SFZ file's directory) to a cached, lazily decoded
// SamplePromise, avoiding duplicate loads across regions that share a
// sample file.
type SampleCache struct {
	mu       sync.Mutex
	baseDir  string
	promises map[string]*samplePromise
}

// NewSampleCache creates an empty cache rooted at the SFZ file's directory,
// used to resolve relative sample paths.
func NewSampleCache(sfzDir string) *SampleCache {
	return &SampleCache{
		baseDir:  sfzDir,
		promises: make(map[string]*samplePromise),
	}
}

// GetFilePromise implements FilePool.
func (sc *SampleCache) GetFilePromise(sampleID string) (SamplePromise, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if p, ok := sc.promises[sampleID]; ok {
		return p, true
	}

	absolutePath := sampleID
	if !filepath.IsAbs(sampleID) {
		absolutePath = filepath.Join(sc.baseDir, sampleID)
	}
	if _, err := os.Stat(absolutePath); err != nil {
		sampleDebug("sample file not found: %s", absolutePath)
		return nil, false
	}

	p := &samplePromise{filePath: absolutePath, decode: decodeAudioFile}
	sc.promises[sampleID] = p
	return p, true
}

// Clear drops every cached promise, forcing the next GetFilePromise to
// re-resolve (and the next GetData to re-decode) from disk.
func (sc *SampleCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.promises = make(map[string]*samplePromise)
}

// Size returns the number of distinct sample ids resolved so far.
func (sc *SampleCache) Size() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.promises)
}

// decodeAudioFile dispatches to the WAV or FLAC decoder by extension.
func decodeAudioFile(filePath string) (*decodedSample, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".wav":
		return decodeWAV(filePath)
	case ".flac":
		return decodeFLAC(filePath)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .wav, .flac)", filePath)
	}
}

func decodeWAV(filePath string) (*decodedSample, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file %s: %w", filePath, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", filePath)
	}

	audioData, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data from %s: %w", filePath, err)
	}

	channels := int(audioData.Format.NumChannels)
	divisor := bitDepthDivisor(decoder.BitDepth)
	frames := len(audioData.Data) / channels

	left := make([]float64, frames)
	var right []float64
	if channels > 1 {
		right = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		left[i] = float64(audioData.Data[i*channels]) / divisor
		if channels > 1 {
			right[i] = float64(audioData.Data[i*channels+1]) / divisor
		}
	}

	return &decodedSample{
		filePath:   filePath,
		left:       left,
		right:      right,
		channels:   channels,
		sampleRate: int(audioData.Format.SampleRate),
	}, nil
}

func decodeFLAC(filePath string) (*decodedSample, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file %s: %w", filePath, err)
	}
	defer file.Close()

	stream, err := flac.New(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC decoder for %s: %w", filePath, err)
	}
	defer stream.Close()

	info := stream.Info
	if info == nil {
		return nil, fmt.Errorf("no stream info available for FLAC file: %s", filePath)
	}

	channels := int(info.NChannels)
	divisor := bitDepthDivisor(int(info.BitsPerSample))

	var left, right []float64
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("failed to read FLAC frame from %s: %w", filePath, err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			left = append(left, float64(frame.Subframes[0].Samples[i])/divisor)
			if channels > 1 {
				right = append(right, float64(frame.Subframes[1].Samples[i])/divisor)
			}
		}
	}

	return &decodedSample{
		filePath:   filePath,
		left:       left,
		right:      right,
		channels:   channels,
		sampleRate: int(info.SampleRate),
	}, nil
}

func bitDepthDivisor(bitDepth int) float64 {
	switch bitDepth {
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}
