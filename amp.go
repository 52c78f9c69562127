package sfzvoice

import "math"

// ampStage applies the amplitude pipeline described in spec.md §4.6:
// EG × baseGain × (Amplitude modulation, percent) × volumeDB-as-gain ×
// (Volume modulation, dB) × gain smoother, computed once per sample and
// applied identically to both channels in place. eg is the
// already-rendered envelope block (§4.2's Envelope.GetBlock output);
// modAmplitude and modVolume may be nil, meaning "no modulation active
// this block". gainCurve is caller-owned scratch of the same length.
func ampStage(left, right []float64, eg []float64, baseGain float64, volumeDB float64, modAmplitude, modVolume []float64, gain *Smoother, gainCurve []float64) {
	n := len(left)
	volumeGain := math.Pow(10, volumeDB/20)

	for i := 0; i < n; i++ {
		g := eg[i] * baseGain * volumeGain

		if modAmplitude != nil {
			g *= modAmplitude[i] * 0.01
		}
		if modVolume != nil {
			g *= math.Pow(10, modVolume[i]/20)
		}

		gain.Tick()
		g *= gain.Current()
		gainCurve[i] = g
	}

	for i := 0; i < n; i++ {
		left[i] *= gainCurve[i]
		right[i] *= gainCurve[i]
	}
}
