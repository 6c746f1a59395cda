package services

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// Shuffler hands out an independent random generator per request.
type Shuffler struct {
	newRand func() *rand.Rand
}

// NewShuffler returns a shuffler whose generators are ChaCha8 streams seeded from the
// operating system's CSPRNG, so no two requests share or can predict a stream.
func NewShuffler() *Shuffler {
	return &Shuffler{newRand: cryptoSeededRand}
}

// NewShufflerWithSource is used by tests that need reproducible orderings.
func NewShufflerWithSource(newRand func() *rand.Rand) *Shuffler {
	return &Shuffler{newRand: newRand}
}

// Rand returns a fresh generator.
func (s *Shuffler) Rand() *rand.Rand {
	return s.newRand()
}

func cryptoSeededRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return rand.New(rand.NewChaCha8(seed))
}

// Shuffle returns a uniformly random permutation of items using Fisher-Yates. The input
// slice is left untouched.
func Shuffle[T any](rng *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for m := len(out) - 1; m > 0; m-- {
		i := rng.IntN(m + 1)
		out[m], out[i] = out[i], out[m]
	}
	return out
}
