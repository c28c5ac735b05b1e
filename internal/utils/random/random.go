package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// NewRand returns a math/rand source seeded from crypto/rand, falling
// back to the clock if the system entropy source is unavailable. Draws
// and delays must not be predictable from process start time alone.
func NewRand() *rand.Rand {
	var seed int64
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	} else {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
