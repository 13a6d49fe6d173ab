package dataset

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"strings"
)

// KeyedRand returns a generator seeded from the given parts, so domain
// generators can vary output per input without any shared random state.
func KeyedRand(parts ...string) *rand.Rand {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return rand.New(rand.NewPCG(binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])))
}

// Pick returns a deterministic element of choices for the given generator.
func Pick[T any](r *rand.Rand, choices []T) T {
	return choices[r.IntN(len(choices))]
}
