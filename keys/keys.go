// Package keys implements deterministic record addressing. The canonical
// storage address of every persisted record is a one-way function of a fixed
// seed tag, the entity identifiers, and the owning program identity, so only
// program logic can produce the authoritative record location for a given
// tuple. Derived addresses carry no corresponding signing key: the derivation
// folds in a domain marker that the transport layer never accepts as a signer
// identity, and the bump search keeps candidates out of the reserved
// zero-leading-byte identity range.
package keys

import (
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"

	"github.com/restakelabs/resolver/types"
)

// derivedAddressMarker domain-separates record addresses from every other
// SHA-256 use in the protocol.
var derivedAddressMarker = []byte("resolver-derived-record-address")

// MaxBump is the starting disambiguation byte for the derivation search.
const MaxBump = uint8(255)

// ErrNoValidBump is returned when no bump in [0, 255] produces a usable
// address. With SHA-256 output this is not expected to occur in practice.
var ErrNoValidBump = errors.New("no valid bump found for seeds")

// ErrAddressMismatch is returned when a supplied record address does not
// match the canonical derivation for its seeds.
var ErrAddressMismatch = errors.New("record address does not match derivation")

// Derive computes the canonical record address for the given program
// identity and ordered seeds, returning the address and the disambiguation
// byte (bump) that produced it. The search walks the bump downward from
// MaxBump; candidates with a zero leading byte are rejected, keeping derived
// addresses disjoint from the reserved identity range.
func Derive(programID types.PublicKey, seeds ...[]byte) (types.PublicKey, uint8, error) {
	for bump := int(MaxBump); bump >= 0; bump-- {
		candidate := deriveWithBump(programID, uint8(bump), seeds)
		if candidate[0] != 0 {
			return candidate, uint8(bump), nil
		}
	}
	return types.PublicKey{}, 0, ErrNoValidBump
}

// DeriveWithBump recomputes the address for a known bump. Used when a stored
// record already carries its disambiguation byte.
func DeriveWithBump(programID types.PublicKey, bump uint8, seeds ...[]byte) types.PublicKey {
	return deriveWithBump(programID, bump, seeds)
}

// Verify recomputes the derivation for the supplied seeds and compares it to
// the claimed address, failing closed on any mismatch.
func Verify(programID types.PublicKey, claimed types.PublicKey, seeds ...[]byte) error {
	derived, _, err := Derive(programID, seeds...)
	if err != nil {
		return err
	}
	if !derived.Equal(claimed) {
		return errors.Wrapf(ErrAddressMismatch, "want %s, got %s", derived, claimed)
	}
	return nil
}

func deriveWithBump(programID types.PublicKey, bump uint8, seeds [][]byte) types.PublicKey {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID[:])
	h.Write(derivedAddressMarker)
	return types.BytesToPublicKey(h.Sum(nil))
}
