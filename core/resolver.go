package core

import (
	"github.com/pkg/errors"

	"github.com/restakelabs/resolver/keys"
	"github.com/restakelabs/resolver/types"
)

const resolverPayloadLength = 3*types.PublicKeyLength + 1

// Resolver is the registry entry mapping an operator within an NCN to the
// resolver identity currently authorized to propose slashes against it.
type Resolver struct {
	Ncn      types.PublicKey
	Operator types.PublicKey

	// Resolver is the authority permitted to call ProposeSlash for the
	// operator. Rotated by the NCN admin via SetResolver.
	Resolver types.PublicKey

	Bump uint8
}

// NewResolver builds a resolver registry entry.
func NewResolver(ncn, operator, resolver types.PublicKey, bump uint8) *Resolver {
	return &Resolver{Ncn: ncn, Operator: operator, Resolver: resolver, Bump: bump}
}

// ResolverSeeds are the derivation seeds of a resolver registry entry.
func ResolverSeeds(ncn, operator types.PublicKey) [][]byte {
	return [][]byte{[]byte("resolver"), ncn.Bytes(), operator.Bytes()}
}

// FindResolverAddress derives the canonical address of the resolver entry
// for the given NCN and operator.
func FindResolverAddress(programID, ncn, operator types.PublicKey) (types.PublicKey, uint8, error) {
	return keys.Derive(programID, ResolverSeeds(ncn, operator)...)
}

// CheckResolver verifies the registered resolver is among the request
// signers.
func (r *Resolver) CheckResolver(signers []types.PublicKey) error {
	if !signedBy(signers, r.Resolver) {
		return errors.Wrap(ErrUnauthorized, "registered resolver did not sign")
	}
	return nil
}

// Marshal encodes the record with its discriminator and owner envelope.
func (r *Resolver) Marshal(owner types.PublicKey) []byte {
	payload := make([]byte, 0, resolverPayloadLength)
	payload = append(payload, r.Ncn[:]...)
	payload = append(payload, r.Operator[:]...)
	payload = append(payload, r.Resolver[:]...)
	payload = append(payload, r.Bump)
	return wrapRecord(ResolverDiscriminator, owner, payload)
}

// UnmarshalResolver decodes and validates an encoded resolver entry.
func UnmarshalResolver(owner types.PublicKey, data []byte) (*Resolver, error) {
	payload, err := unwrapRecord(ResolverDiscriminator, owner, data, resolverPayloadLength)
	if err != nil {
		return nil, err
	}
	r := &Resolver{}
	r.Ncn, payload = readPublicKey(payload)
	r.Operator, payload = readPublicKey(payload)
	r.Resolver, payload = readPublicKey(payload)
	r.Bump = payload[0]
	return r, nil
}
