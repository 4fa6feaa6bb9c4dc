package molecule

import (
	"crypto/sha256"
	"encoding/binary"
)

// MorganOracle maps a canonically rendered atom environment to a fingerprint
// bit.  The oracle is deliberately opaque to the signature layer: signatures
// record the bits it emits but never depend on how they are derived, so the
// bundled hash oracle can be swapped for a toolkit-backed one without
// touching signature semantics.
type MorganOracle interface {
	// Bit returns the fingerprint bit for a canonical environment string.
	// The result is always in [0, BitWidth).
	Bit(env string) uint32

	// BitWidth returns the size of the bit space.
	BitWidth() uint32
}

// HashOracle is the bundled MorganOracle: the first eight bytes of the
// SHA-256 digest of the environment string, reduced modulo the bit width.
// Deterministic across processes and platforms, which is what makes persisted
// alphabets comparable.
type HashOracle struct {
	bitWidth uint32
}

// NewHashOracle constructs a HashOracle.  A zero or negative width falls back
// to 2048, the conventional Morgan fingerprint length.
func NewHashOracle(bitWidth uint32) *HashOracle {
	if bitWidth == 0 {
		bitWidth = 2048
	}
	return &HashOracle{bitWidth: bitWidth}
}

var _ MorganOracle = (*HashOracle)(nil)

// Bit implements MorganOracle.
func (o *HashOracle) Bit(env string) uint32 {
	sum := sha256.Sum256([]byte(env))
	return uint32(binary.BigEndian.Uint64(sum[:8]) % uint64(o.bitWidth))
}

// BitWidth implements MorganOracle.
func (o *HashOracle) BitWidth() uint32 { return o.bitWidth }
