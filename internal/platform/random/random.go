// Package random provides seeded math/rand sources backed by crypto/rand.
//
// Role shuffles and vote tie-breaks need uniform randomness but also need to
// be reproducible in tests, so callers receive a *rand.Rand they can replace
// with a fixed-seed source.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewRand returns a math/rand source seeded from crypto/rand.
func NewRand() (*mrand.Rand, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return mrand.New(mrand.NewSource(seed)), nil
}
