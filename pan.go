package sfzvoice

import "math"

// equalPowerPan returns (leftGain, rightGain) for a pan value in -100..100
// using the standard quarter-cosine equal-power law.
func equalPowerPan(pan float64) (float64, float64) {
	p := pan / 100
	if p < -1 {
		p = -1
	}
	if p > 1 {
		p = 1
	}
	angle := (p + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// panMonoToStereo spreads a mono source into the stereo field at a constant
// pan position — used when a region's sample is mono (spec.md §4.8).
func panMonoToStereo(mono []float64, pan float64, outL, outR []float64) {
	l, r := equalPowerPan(pan)
	for i, s := range mono {
		outL[i] = s * l
		outR[i] = s * r
	}
}

// panStage applies the full three-stage pan/width/position transform to an
// already-stereo signal in place, in the order spec.md §4.8 lists them:
//  1. pan rotates the stereo image;
//  2. width narrows or widens the (possibly rotated) image around its
//     center;
//  3. position re-derives a mono sum and re-pans it, letting a sample-based
//     region be repositioned independent of its recorded width.
//
// A √2 makeup gain follows the pan and position stages to compensate for
// the energy lost to equal-power panning of an already-stereo signal.
func panStage(left, right []float64, pan, width, position float64) {
	n := len(left)
	const makeup = math.Sqrt2

	if pan != 0 {
		l, r := equalPowerPan(pan)
		for i := 0; i < n; i++ {
			left[i] = left[i]*l*makeup
			right[i] = right[i]*r*makeup
		}
	}

	if width != 100 {
		w := width / 100
		for i := 0; i < n; i++ {
			mid := (left[i] + right[i]) * 0.5
			side := (left[i] - right[i]) * 0.5 * w
			left[i] = mid + side
			right[i] = mid - side
		}
	}

	if position != 0 {
		l, r := equalPowerPan(position)
		for i := 0; i < n; i++ {
			mono := (left[i] + right[i]) * 0.5
			left[i] = mono * l * makeup
			right[i] = mono * r * makeup
		}
	}
}
