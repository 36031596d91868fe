package core

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/restakelabs/resolver/types"
)

// Record discriminators. The first byte of every persisted record identifies
// its kind; a record of the wrong kind is rejected on load.
const (
	ConfigDiscriminator        byte = 1
	NcnConfigDiscriminator     byte = 2
	ResolverDiscriminator      byte = 3
	SlasherDiscriminator       byte = 4
	SlashProposalDiscriminator byte = 5
)

// envelopeHeaderLength is the discriminator byte plus the owning program
// identity prepended to every record payload.
const envelopeHeaderLength = 1 + types.PublicKeyLength

// wrapRecord prefixes a record payload with its discriminator and owning
// program identity.
func wrapRecord(discriminator byte, owner types.PublicKey, payload []byte) []byte {
	out := make([]byte, 0, envelopeHeaderLength+len(payload))
	out = append(out, discriminator)
	out = append(out, owner[:]...)
	return append(out, payload...)
}

// unwrapRecord validates the discriminator, owner, and exact payload width of
// an encoded record before exposing the payload bytes. Any mismatch means the
// caller is looking at a record of the wrong kind or owner and must not trust
// the field contents.
func unwrapRecord(discriminator byte, owner types.PublicKey, data []byte, payloadLength int) ([]byte, error) {
	if len(data) != envelopeHeaderLength+payloadLength {
		return nil, errors.Wrapf(ErrInvalidRecord, "wrong record length %d, want %d", len(data), envelopeHeaderLength+payloadLength)
	}
	if data[0] != discriminator {
		return nil, errors.Wrapf(ErrInvalidRecord, "wrong discriminator %d, want %d", data[0], discriminator)
	}
	if !types.BytesToPublicKey(data[1:envelopeHeaderLength]).Equal(owner) {
		return nil, errors.Wrap(ErrInvalidRecord, "record has an invalid owner")
	}
	return data[envelopeHeaderLength:], nil
}

func putUint64(buf []byte, v uint64) []byte {
	enc := make([]byte, 8)
	binary.LittleEndian.PutUint64(enc, v)
	return append(buf, enc...)
}

func readUint64(buf []byte) (uint64, []byte) {
	return binary.LittleEndian.Uint64(buf[:8]), buf[8:]
}

func readPublicKey(buf []byte) (types.PublicKey, []byte) {
	return types.BytesToPublicKey(buf[:types.PublicKeyLength]), buf[types.PublicKeyLength:]
}

// signedBy reports whether the given identity is among the verified signers
// of a request. Signature verification itself happens in the transport layer
// before a request ever reaches the program.
func signedBy(signers []types.PublicKey, key types.PublicKey) bool {
	for _, signer := range signers {
		if signer.Equal(key) {
			return true
		}
	}
	return false
}
