// Package types defines the primitive identity and logical-clock types shared
// by every component of the resolver program.
package types

import (
	"encoding/hex"
	"fmt"
)

// Slot is a monotonically increasing logical-clock tick advanced by the
// surrounding platform. All timing comparisons in the protocol use slots.
type Slot uint64

// MaxSlot is the highest representable slot.
const MaxSlot = Slot(^uint64(0))

// Add returns the slot advanced by x ticks, saturating at MaxSlot instead of
// wrapping. Deadlines computed from untrusted durations must never wrap into
// the past.
func (s Slot) Add(x uint64) Slot {
	if uint64(s) > uint64(MaxSlot)-x {
		return MaxSlot
	}
	return s + Slot(x)
}

// PublicKeyLength is the byte length of every identity in the program.
const PublicKeyLength = 32

// PublicKey is a 32-byte identity: a signer key, a program identity, or a
// program-derived record address.
type PublicKey [PublicKeyLength]byte

// BytesToPublicKey converts a byte slice into a PublicKey, zero padding or
// truncating on the right to 32 bytes.
func BytesToPublicKey(b []byte) PublicKey {
	var pk PublicKey
	copy(pk[:], b)
	return pk
}

// HexToPublicKey parses a hex string, with or without a 0x prefix, into a
// PublicKey. Invalid input yields the zero key.
func HexToPublicKey(s string) PublicKey {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}
	}
	return BytesToPublicKey(b)
}

// Bytes returns a copy of the key contents.
func (p PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeyLength)
	copy(b, p[:])
	return b
}

// IsZero reports whether the key is the all-zero identity.
func (p PublicKey) IsZero() bool {
	return p == PublicKey{}
}

// Equal reports byte equality with another key.
func (p PublicKey) Equal(other PublicKey) bool {
	return p == other
}

func (p PublicKey) String() string {
	return fmt.Sprintf("%#x", p[:])
}
