// Package random provides the seedable randomness used by the simulator.
//
// Operators draw through the Source interface so runs are reproducible from a
// single seed and tests can script every draw. NewSeed uses crypto/rand to pick
// a seed when the caller does not supply one.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
