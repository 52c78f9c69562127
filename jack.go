//go:build jack
// +build jack

package sfzvoice

import (
	"fmt"
	"sync"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/xthexder/go-jack"
)

var jackDebug = debuggo.Debug("sfzvoice:jack")

// JackDriver binds a Sampler to a JACK client: two audio output ports (left/
// right) and one MIDI input port, driven from JACK's process callback. It
// owns the mutex around Sampler calls the teacher's JackClient held around
// its voice slice (spec.md §5: synchronization is the host's job, not the
// engine's).
type JackDriver struct {
	client        *jack.Client
	sampler       *Sampler
	outL, outR    *jack.Port
	midiIn        *jack.Port
	sampleRate    uint32
	bufferSize    uint32
	mu            sync.Mutex
	scratchL      []float64
	scratchR      []float64
}

// NewJackDriver opens a JACK client named clientName and wires it to
// sampler's RenderBlock/NoteOn/NoteOff/ControlChange/PitchBend.
func NewJackDriver(sampler *Sampler, clientName string) (*JackDriver, error) {
	jackDebug("creating JACK client: %s", clientName)

	client, err := jack.ClientOpen(clientName, jack.NoStartServer)
	if err != nil {
		return nil, fmt.Errorf("failed to open JACK client: %w", err)
	}

	jd := &JackDriver{
		client:     client,
		sampler:    sampler,
		sampleRate: uint32(client.GetSampleRate()),
		bufferSize: uint32(client.GetBufferSize()),
	}
	jd.scratchL = make([]float64, jd.bufferSize)
	jd.scratchR = make([]float64, jd.bufferSize)

	outL, err := client.PortRegister("out_left", jack.DEFAULT_AUDIO_TYPE, jack.PortIsOutput, 0)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to register left output port: %w", err)
	}
	jd.outL = outL

	outR, err := client.PortRegister("out_right", jack.DEFAULT_AUDIO_TYPE, jack.PortIsOutput, 0)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to register right output port: %w", err)
	}
	jd.outR = outR

	midiIn, err := client.PortRegister("midi_in", jack.DEFAULT_MIDI_TYPE, jack.PortIsInput, 0)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to register MIDI input port: %w", err)
	}
	jd.midiIn = midiIn

	client.SetProcessCallback(jd.process)

	jackDebug("JACK client created: sampleRate=%d bufferSize=%d", jd.sampleRate, jd.bufferSize)
	return jd, nil
}

// Start activates the JACK client and begins audio processing.
func (jd *JackDriver) Start() error {
	if err := jd.client.Activate(); err != nil {
		return fmt.Errorf("failed to activate JACK client: %w", err)
	}
	return nil
}

// Stop deactivates the JACK client.
func (jd *JackDriver) Stop() error {
	if err := jd.client.Deactivate(); err != nil {
		return fmt.Errorf("failed to deactivate JACK client: %w", err)
	}
	return nil
}

// Close closes the JACK client connection.
func (jd *JackDriver) Close() error {
	if err := jd.client.Close(); err != nil {
		return fmt.Errorf("failed to close JACK client: %w", err)
	}
	return nil
}

// process is JACK's realtime callback: drain MIDI, render the block,
// deinterleave into JACK's two mono output buffers.
func (jd *JackDriver) process(nframes uint32) int {
	jd.mu.Lock()
	defer jd.mu.Unlock()

	jd.sampler.BeginBlock()

	midiBuf := jd.midiIn.GetBuffer(nframes)
	jd.processMidiEvents(midiBuf, nframes)

	n := int(nframes)
	left := jd.scratchL[:n]
	right := jd.scratchR[:n]
	jd.sampler.RenderBlock(left, right)

	outL := jack.GetAudioSamples(jd.outL.GetBuffer(nframes), nframes)
	outR := jack.GetAudioSamples(jd.outR.GetBuffer(nframes), nframes)
	for i := 0; i < n; i++ {
		outL[i] = jack.AudioSample(left[i])
		outR[i] = jack.AudioSample(right[i])
	}

	return 0
}

func (jd *JackDriver) processMidiEvents(midiBuffer *jack.PortBuffer, nframes uint32) {
	eventCount := jack.MidiGetEventCount(midiBuffer)
	for i := uint32(0); i < eventCount; i++ {
		event, err := jack.MidiEventGet(midiBuffer, i)
		if err != nil {
			continue
		}
		if len(event.Buffer) < 1 {
			continue
		}
		delay := int(event.Time)
		status := event.Buffer[0]

		switch status & 0xF0 {
		case 0x90: // note on
			if len(event.Buffer) >= 3 {
				note := int(event.Buffer[1])
				velocity := int(event.Buffer[2])
				if velocity > 0 {
					jd.sampler.NoteOn(note, velocity, delay)
				} else {
					jd.sampler.NoteOff(note, delay)
				}
			}
		case 0x80: // note off
			if len(event.Buffer) >= 2 {
				jd.sampler.NoteOff(int(event.Buffer[1]), delay)
			}
		case 0xB0: // control change
			if len(event.Buffer) >= 3 {
				jd.sampler.ControlChange(int(event.Buffer[1]), int(event.Buffer[2]), delay)
			}
		case 0xE0: // pitch bend
			if len(event.Buffer) >= 3 {
				lsb := int(event.Buffer[1])
				msb := int(event.Buffer[2])
				jd.sampler.PitchBend((msb<<7)|lsb, delay)
			}
		case 0xD0: // channel aftertouch
			if len(event.Buffer) >= 2 {
				jd.sampler.Aftertouch(int(event.Buffer[1]))
			}
		}
	}
}
