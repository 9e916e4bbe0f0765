// Package random sources the randomness beacon used for winner selection.
//
// Beacon values come from crypto/rand and are read at the moment of the
// draw. Caching or precomputing a beacon would let a caller predict the
// winning index, so callers must request a fresh value per draw.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewBeacon reads a fresh beacon value using crypto/rand.
func NewBeacon() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read randomness beacon: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}
