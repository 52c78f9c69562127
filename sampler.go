package sfzvoice

import "math"

// sampleFillOutcome reports whether filling from sample data hit the end of
// a non-looping region this block; the voice then starts its amplitude EG
// release at the clamp point, running over the region's release time.
type sampleFillOutcome struct {
	hitEnd  bool
	hitAt   int
}

// fillWithData is the sampler raw-fill path (spec.md §4.4). jumps, indices
// and coeffs are caller-owned scratch of block length; outL/outR are the
// destination channels (outR may be unused for a mono sink, but callers
// always pass both since Voice renders stereo).
func fillWithData(
	buf *AudioBuffer,
	region *Region,
	oversampling int,
	speedRatio float64,
	pitchRatioSpan []float64,
	jumps []float64,
	indices []int,
	coeffs []float64,
	sourcePosition int,
	floatPositionOffset float64,
	outL, outR []float64,
) (newSourcePosition int, newFloatOffset float64, outcome sampleFillOutcome) {
	n := len(pitchRatioSpan)
	frames := buf.Frames()

	for i := 0; i < n; i++ {
		jumps[i] = pitchRatioSpan[i] * speedRatio
	}
	jumps[0] += floatPositionOffset
	for i := 1; i < n; i++ {
		jumps[i] += jumps[i-1]
	}

	for i := 0; i < n; i++ {
		idx := math.Floor(jumps[i])
		indices[i] = int(idx) + sourcePosition
		coeffs[i] = jumps[i] - idx
	}

	loopEnd := region.LoopEnd * oversampling
	loopStart := region.LoopStart * oversampling
	looping := (region.LoopMode == LoopContinuous || region.LoopMode == LoopSustain) && loopEnd <= frames && loopEnd > loopStart

	if looping {
		span := loopEnd + 1 - loopStart
		for i := 0; i < n; i++ {
			if indices[i] > loopEnd {
				indices[i] = loopStart + (indices[i]-loopStart)%span
			}
		}
	} else {
		clampAt := region.TrueSampleEnd
		if frames < clampAt || clampAt == 0 {
			clampAt = frames
		}
		clampAt--
		if clampAt < 0 {
			clampAt = 0
		}
		hit := false
		hitAt := 0
		for i := 0; i < n; i++ {
			if indices[i] > clampAt {
				if !hit {
					hit = true
					hitAt = i
				}
				indices[i] = clampAt
				coeffs[i] = 1.0
			}
		}
		if hit {
			outcome.hitEnd = true
			outcome.hitAt = hitAt
		}
	}

	interp := InterpolatorForQuality(region.SampleQuality)

	if buf.Channels <= 1 {
		for i := 0; i < n; i++ {
			s := interp(buf.Left, indices[i], coeffs[i])
			outL[i] = sanitize(s)
			outR[i] = outL[i]
		}
	} else {
		for i := 0; i < n; i++ {
			outL[i] = sanitize(interp(buf.Left, indices[i], coeffs[i]))
			outR[i] = sanitize(interp(buf.Right, indices[i], coeffs[i]))
		}
	}

	if n > 0 {
		newSourcePosition = indices[n-1]
		newFloatOffset = coeffs[n-1]
	} else {
		newSourcePosition = sourcePosition
		newFloatOffset = floatPositionOffset
	}
	return newSourcePosition, newFloatOffset, outcome
}

// sanitize replaces non-finite values with silence rather than propagating
// NaN/Inf downstream (spec.md §7 "never crash in release").
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
