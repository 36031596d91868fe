package core

import (
	"github.com/pkg/errors"

	"github.com/restakelabs/resolver/keys"
	"github.com/restakelabs/resolver/types"
)

const slasherPayloadLength = 5*types.PublicKeyLength + 1 + 1

// SlasherAdminRole selects which capability a secondary admin holds on a
// slasher registry entry.
type SlasherAdminRole uint8

const (
	// RoleExecuteSlash lets the secondary admin execute resolved proposals.
	RoleExecuteSlash SlasherAdminRole = iota

	// RoleDelegateCustody lets the secondary admin rotate the delegated
	// custody reference.
	RoleDelegateCustody
)

func (r SlasherAdminRole) String() string {
	switch r {
	case RoleExecuteSlash:
		return "EXECUTE_SLASH"
	case RoleDelegateCustody:
		return "DELEGATE_CUSTODY"
	default:
		return "UNKNOWN"
	}
}

// Slasher is the registry entry for a slashing authority acting against an
// operator within an NCN. Its admin fields gate ProposeSlash execution-side
// operations; the delegated custody reference names the collateral account
// execution debits.
type Slasher struct {
	Ncn      types.PublicKey
	Operator types.PublicKey

	// Admin manages this entry and may execute resolved proposals.
	Admin types.PublicKey

	// SecondaryAdmin optionally holds one delegated capability.
	SecondaryAdmin types.PublicKey
	SecondaryRole  SlasherAdminRole

	// DelegatedCustody is the custody account this authority is permitted
	// to draw slashed collateral from during execution.
	DelegatedCustody types.PublicKey

	Bump uint8
}

// NewSlasher builds a slasher registry entry.
func NewSlasher(ncn, operator, admin types.PublicKey, bump uint8) *Slasher {
	return &Slasher{Ncn: ncn, Operator: operator, Admin: admin, Bump: bump}
}

// SlasherSeeds are the derivation seeds of a slasher registry entry.
func SlasherSeeds(ncn, operator types.PublicKey) [][]byte {
	return [][]byte{[]byte("slasher"), ncn.Bytes(), operator.Bytes()}
}

// FindSlasherAddress derives the canonical address of the slasher entry for
// the given NCN and operator.
func FindSlasherAddress(programID, ncn, operator types.PublicKey) (types.PublicKey, uint8, error) {
	return keys.Derive(programID, SlasherSeeds(ncn, operator)...)
}

// CheckAdmin verifies the current admin is among the request signers.
func (s *Slasher) CheckAdmin(signers []types.PublicKey) error {
	if !signedBy(signers, s.Admin) {
		return errors.Wrap(ErrUnauthorized, "slasher admin did not sign")
	}
	return nil
}

// CheckSecondaryAdmin verifies the current secondary admin signed. While no
// secondary admin is set, the primary admin holds its capabilities.
func (s *Slasher) CheckSecondaryAdmin(signers []types.PublicKey) error {
	if s.SecondaryAdmin.IsZero() {
		return s.CheckAdmin(signers)
	}
	if !signedBy(signers, s.SecondaryAdmin) {
		return errors.Wrap(ErrUnauthorized, "slasher secondary admin did not sign")
	}
	return nil
}

// CheckExecuteAuthority verifies a signer holding execute capability: the
// admin, or the secondary admin when it carries the execute role.
func (s *Slasher) CheckExecuteAuthority(signers []types.PublicKey) error {
	if signedBy(signers, s.Admin) {
		return nil
	}
	if !s.SecondaryAdmin.IsZero() && s.SecondaryRole == RoleExecuteSlash && signedBy(signers, s.SecondaryAdmin) {
		return nil
	}
	return errors.Wrap(ErrUnauthorized, "no execute authority signed")
}

// CheckDelegateAuthority verifies a signer permitted to rebind the delegated
// custody account: the admin, or the secondary admin when it carries the
// delegate role.
func (s *Slasher) CheckDelegateAuthority(signers []types.PublicKey) error {
	if signedBy(signers, s.Admin) {
		return nil
	}
	if !s.SecondaryAdmin.IsZero() && s.SecondaryRole == RoleDelegateCustody && signedBy(signers, s.SecondaryAdmin) {
		return nil
	}
	return errors.Wrap(ErrUnauthorized, "no delegate authority signed")
}

// Marshal encodes the record with its discriminator and owner envelope.
func (s *Slasher) Marshal(owner types.PublicKey) []byte {
	payload := make([]byte, 0, slasherPayloadLength)
	payload = append(payload, s.Ncn[:]...)
	payload = append(payload, s.Operator[:]...)
	payload = append(payload, s.Admin[:]...)
	payload = append(payload, s.SecondaryAdmin[:]...)
	payload = append(payload, byte(s.SecondaryRole))
	payload = append(payload, s.DelegatedCustody[:]...)
	payload = append(payload, s.Bump)
	return wrapRecord(SlasherDiscriminator, owner, payload)
}

// UnmarshalSlasher decodes and validates an encoded slasher entry.
func UnmarshalSlasher(owner types.PublicKey, data []byte) (*Slasher, error) {
	payload, err := unwrapRecord(SlasherDiscriminator, owner, data, slasherPayloadLength)
	if err != nil {
		return nil, err
	}
	s := &Slasher{}
	s.Ncn, payload = readPublicKey(payload)
	s.Operator, payload = readPublicKey(payload)
	s.Admin, payload = readPublicKey(payload)
	s.SecondaryAdmin, payload = readPublicKey(payload)
	s.SecondaryRole = SlasherAdminRole(payload[0])
	payload = payload[1:]
	s.DelegatedCustody, payload = readPublicKey(payload)
	s.Bump = payload[0]
	return s, nil
}
