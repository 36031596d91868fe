package core

import (
	"github.com/pkg/errors"

	"github.com/restakelabs/resolver/keys"
	"github.com/restakelabs/resolver/types"
)

const ncnConfigPayloadLength = 2*types.PublicKeyLength + 8 + 8 + 1

// NcnConfig holds the per-network-namespace parameters of the resolver
// program: the NCN admin (who holds veto authority and may edit durations),
// the veto window duration, and the post-resolution retention duration.
// Duration changes affect only proposals created afterward; existing
// proposals keep the values snapshot at their creation.
type NcnConfig struct {
	// Ncn is the network namespace this configuration governs.
	Ncn types.PublicKey

	// Admin holds veto authority for the namespace and is the sole writer
	// of the durations below.
	Admin types.PublicKey

	// VetoDuration is the number of slots a new proposal remains contestable.
	VetoDuration uint64

	// DeleteSlashProposalDuration is the number of slots a resolved proposal
	// is retained before its storage may be reclaimed.
	DeleteSlashProposalDuration uint64

	Bump uint8
}

// NewNcnConfig builds a per-NCN configuration record.
func NewNcnConfig(ncn, admin types.PublicKey, vetoDuration, deleteSlashProposalDuration uint64, bump uint8) *NcnConfig {
	return &NcnConfig{
		Ncn:                         ncn,
		Admin:                       admin,
		VetoDuration:                vetoDuration,
		DeleteSlashProposalDuration: deleteSlashProposalDuration,
		Bump:                        bump,
	}
}

// NcnConfigSeeds are the derivation seeds of an NCN configuration record.
func NcnConfigSeeds(ncn types.PublicKey) [][]byte {
	return [][]byte{[]byte("ncn_resolver_program_config"), ncn.Bytes()}
}

// FindNcnConfigAddress derives the canonical address of the configuration
// record for the given NCN.
func FindNcnConfigAddress(programID, ncn types.PublicKey) (types.PublicKey, uint8, error) {
	return keys.Derive(programID, NcnConfigSeeds(ncn)...)
}

// CheckAdmin verifies the NCN admin is among the request signers.
func (c *NcnConfig) CheckAdmin(signers []types.PublicKey) error {
	if !signedBy(signers, c.Admin) {
		return errors.Wrap(ErrUnauthorized, "ncn admin did not sign")
	}
	return nil
}

// Marshal encodes the record with its discriminator and owner envelope.
func (c *NcnConfig) Marshal(owner types.PublicKey) []byte {
	payload := make([]byte, 0, ncnConfigPayloadLength)
	payload = append(payload, c.Ncn[:]...)
	payload = append(payload, c.Admin[:]...)
	payload = putUint64(payload, c.VetoDuration)
	payload = putUint64(payload, c.DeleteSlashProposalDuration)
	payload = append(payload, c.Bump)
	return wrapRecord(NcnConfigDiscriminator, owner, payload)
}

// UnmarshalNcnConfig decodes and validates an encoded NCN config record.
func UnmarshalNcnConfig(owner types.PublicKey, data []byte) (*NcnConfig, error) {
	payload, err := unwrapRecord(NcnConfigDiscriminator, owner, data, ncnConfigPayloadLength)
	if err != nil {
		return nil, err
	}
	c := &NcnConfig{}
	c.Ncn, payload = readPublicKey(payload)
	c.Admin, payload = readPublicKey(payload)
	c.VetoDuration, payload = readUint64(payload)
	c.DeleteSlashProposalDuration, payload = readUint64(payload)
	c.Bump = payload[0]
	return c, nil
}
