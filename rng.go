package sfzvoice

import "math/rand"

// Rng is the process-wide random generator shared by every voice's noise
// generators. Per spec.md §5 it is touched only from the audio thread in
// this design; it carries no internal locking.
type Rng struct {
	src *rand.Rand
}

// NewRng creates a seeded generator. Seed with a fixed value in tests for
// reproducible noise.
func NewRng(seed int64) *Rng {
	return &Rng{src: rand.New(rand.NewSource(seed))}
}

// Uniform returns a uniform sample in [-1, 1).
func (r *Rng) Uniform() float64 {
	return r.src.Float64()*2 - 1
}

// Gaussian returns a standard-normal sample, scaled into a sensible audio
// range by the caller.
func (r *Rng) Gaussian() float64 {
	return r.src.NormFloat64()
}
