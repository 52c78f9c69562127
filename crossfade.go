package sfzvoice

import "math"

// crossfadeCurveGain maps a normalized 0..1 position within a crossfade
// range into a gain, per region.CrossfadeCurve (spec.md §4.7).
func crossfadeCurveGain(curve CrossfadeCurve, t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	switch curve {
	case CrossfadePower:
		return math.Sin(t * math.Pi / 2)
	default:
		return t
	}
}

// rangeGain evaluates a single crossfade range at a CC value (0..1),
// returning the multiplier that range contributes: 1 outside the range in
// the "fully open" direction, 0 in the "fully closed" direction, and a
// curved ramp across [Lo, Hi].
func rangeGain(rng CrossfadeRange, curve CrossfadeCurve, value float64) float64 {
	lo, hi := rng.Lo, rng.Hi
	if lo == hi {
		if value >= lo {
			return 1
		}
		return 0
	}
	t := (value - lo) / (hi - lo)
	return crossfadeCurveGain(curve, t)
}

// crossfadeGain combines every configured range for one direction
// (crossfadeIn or crossfadeOut) multiplicatively — a region with several CC
// crossfade ranges must satisfy all of them to be fully audible.
func crossfadeGain(ranges []CrossfadeRange, curve CrossfadeCurve, midi MidiState) float64 {
	if len(ranges) == 0 {
		return 1
	}
	g := 1.0
	for _, r := range ranges {
		g *= rangeGain(r, curve, midi.GetCCValue(r.CC))
	}
	return g
}

// crossfadeStage builds the per-sample crossfade envelope for this block and
// applies it to left/right in place (spec.md §4.7), running the result
// through smoother so a CC-driven gain change never produces a block-boundary
// discontinuity. When every relevant CC had at most one event in this block
// (the common case), the target gain is constant across the block and the
// function takes the fast path of ramping the smoother toward it once instead
// of re-evaluating and re-targeting per sample.
func crossfadeStage(left, right []float64, region *Region, midi MidiState, smoother *Smoother, curveBuf []float64) {
	n := len(left)
	if n == 0 || (len(region.CrossfadeIn) == 0 && len(region.CrossfadeOut) == 0) {
		return
	}

	inEvents := crossfadeEventCount(region.CrossfadeIn, midi)
	outEvents := crossfadeEventCount(region.CrossfadeOut, midi)

	if inEvents <= 1 && outEvents <= 1 {
		g := crossfadeGain(region.CrossfadeIn, region.CrossfadeCurve, midi) *
			crossfadeGain(region.CrossfadeOut, region.CrossfadeCurve, midi)
		smoother.SetTarget(g, n)
		smoother.Fill(curveBuf)
		for i := 0; i < n; i++ {
			left[i] *= curveBuf[i]
			right[i] *= curveBuf[i]
		}
		return
	}

	// Slow path: a CC moved more than once mid-block for one of the
	// crossfade controllers. Recompute the combined gain sample by sample
	// using each range's sticky-value-as-of-this-sample and retarget the
	// smoother one sample at a time; curveBuf is caller-owned scratch of
	// block length. Cost scales with range count, not with an allocation, so
	// it stays off the heap even here.
	for i := 0; i < n; i++ {
		target := crossfadeGainAtSample(region.CrossfadeIn, region.CrossfadeCurve, midi, i) *
			crossfadeGainAtSample(region.CrossfadeOut, region.CrossfadeCurve, midi, i)
		smoother.SetTarget(target, 1)
		curveBuf[i] = smoother.Tick()
	}

	for i := 0; i < n; i++ {
		left[i] *= curveBuf[i]
		right[i] *= curveBuf[i]
	}
}

// crossfadeEventCount returns the largest number of events this block on any
// single CC used by ranges.
func crossfadeEventCount(ranges []CrossfadeRange, midi MidiState) int {
	most := 0
	for _, r := range ranges {
		if c := len(midi.GetCCEvents(r.CC)); c > most {
			most = c
		}
	}
	return most
}

// ccValueAtSample returns cc's sticky value as of sample index i within the
// current block: the latest event at or before i, or the pre-block sticky
// value if none has fired yet.
func ccValueAtSample(midi MidiState, cc int, i int) float64 {
	v := midi.GetCCValue(cc)
	for _, ev := range midi.GetCCEvents(cc) {
		if ev.Delay <= i {
			v = ev.Value
		} else {
			break
		}
	}
	return v
}

func crossfadeGainAtSample(ranges []CrossfadeRange, curve CrossfadeCurve, midi MidiState, i int) float64 {
	if len(ranges) == 0 {
		return 1
	}
	g := 1.0
	for _, r := range ranges {
		g *= rangeGain(r, curve, ccValueAtSample(midi, r.CC, i))
	}
	return g
}
