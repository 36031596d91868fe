package program

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/types"
)

// InstructionKind tags the operation carried by a request payload.
type InstructionKind uint8

const (
	// KindInitializeConfig creates the singleton program configuration.
	KindInitializeConfig InstructionKind = iota
	// KindInitializeNcnResolverProgramConfig creates a per-NCN configuration.
	KindInitializeNcnResolverProgramConfig
	// KindInitializeResolver registers a resolver for an (ncn, operator) pair.
	KindInitializeResolver
	// KindInitializeSlasher registers a slasher authority for an (ncn, operator) pair.
	KindInitializeSlasher
	// KindProposeSlash opens a slash proposal against an operator.
	KindProposeSlash
	// KindSetResolver rotates the registered resolver identity.
	KindSetResolver
	// KindVetoSlash cancels an active proposal inside its veto window.
	KindVetoSlash
	// KindExecuteSlash forfeits collateral once the veto window elapsed.
	KindExecuteSlash
	// KindSlasherDelegateTokenAccount rebinds the delegated custody account.
	KindSlasherDelegateTokenAccount
	// KindSlasherSetAdmin rotates the slasher admin key.
	KindSlasherSetAdmin
	// KindSlasherSetSecondaryAdmin rotates the secondary admin and its role.
	KindSlasherSetSecondaryAdmin
	// KindDeleteSlashProposal reclaims a resolved proposal past retention.
	KindDeleteSlashProposal
	// KindUpdateNcnResolverProgramConfig edits the per-NCN durations.
	KindUpdateNcnResolverProgramConfig
)

// String returns the canonical operation name used in logs and metrics.
func (k InstructionKind) String() string {
	switch k {
	case KindInitializeConfig:
		return "InitializeConfig"
	case KindInitializeNcnResolverProgramConfig:
		return "InitializeNcnResolverProgramConfig"
	case KindInitializeResolver:
		return "InitializeResolver"
	case KindInitializeSlasher:
		return "InitializeSlasher"
	case KindProposeSlash:
		return "ProposeSlash"
	case KindSetResolver:
		return "SetResolver"
	case KindVetoSlash:
		return "VetoSlash"
	case KindExecuteSlash:
		return "ExecuteSlash"
	case KindSlasherDelegateTokenAccount:
		return "SlasherDelegateTokenAccount"
	case KindSlasherSetAdmin:
		return "SlasherSetAdmin"
	case KindSlasherSetSecondaryAdmin:
		return "SlasherSetSecondaryAdmin"
	case KindDeleteSlashProposal:
		return "DeleteSlashProposal"
	case KindUpdateNcnResolverProgramConfig:
		return "UpdateNcnResolverProgramConfig"
	default:
		return "Unknown"
	}
}

// Instruction is the decoded form of a request payload. Only the fields
// relevant to Kind are populated; identities travel in the request account
// list instead.
type Instruction struct {
	Kind InstructionKind

	// Admin seeds the program configuration on KindInitializeConfig.
	Admin types.PublicKey

	// VetoDuration and DeleteSlashProposalDuration carry the per-NCN
	// window lengths on configuration initialize and update.
	VetoDuration                uint64
	DeleteSlashProposalDuration uint64

	// Role accompanies KindSlasherSetSecondaryAdmin.
	Role core.SlasherAdminRole

	// Amount is the collateral forfeited by KindProposeSlash.
	Amount uint64
}

// Encode serializes the instruction as a tag byte followed by the
// fixed-width little-endian payload its kind requires.
func (ins *Instruction) Encode() []byte {
	out := []byte{byte(ins.Kind)}
	switch ins.Kind {
	case KindInitializeConfig:
		out = append(out, ins.Admin[:]...)
	case KindInitializeNcnResolverProgramConfig, KindUpdateNcnResolverProgramConfig:
		out = appendUint64(out, ins.VetoDuration)
		out = appendUint64(out, ins.DeleteSlashProposalDuration)
	case KindSlasherSetSecondaryAdmin:
		out = append(out, byte(ins.Role))
	case KindProposeSlash:
		out = appendUint64(out, ins.Amount)
	}
	return out
}

// DecodeInstruction parses a request payload, rejecting unknown tags, short
// payloads and trailing bytes.
func DecodeInstruction(data []byte) (*Instruction, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(core.ErrMalformedInput, "empty instruction data")
	}
	ins := &Instruction{Kind: InstructionKind(data[0])}
	payload := data[1:]

	var want int
	switch ins.Kind {
	case KindInitializeConfig:
		want = types.PublicKeyLength
	case KindInitializeNcnResolverProgramConfig, KindUpdateNcnResolverProgramConfig:
		want = 16
	case KindSlasherSetSecondaryAdmin:
		want = 1
	case KindProposeSlash:
		want = 8
	case KindInitializeResolver, KindInitializeSlasher, KindSetResolver,
		KindVetoSlash, KindExecuteSlash, KindSlasherDelegateTokenAccount,
		KindSlasherSetAdmin, KindDeleteSlashProposal:
		want = 0
	default:
		return nil, errors.Wrapf(core.ErrMalformedInput, "unknown instruction tag %d", data[0])
	}
	if len(payload) != want {
		return nil, errors.Wrapf(core.ErrMalformedInput,
			"instruction %s expects %d payload bytes, got %d", ins.Kind, want, len(payload))
	}

	switch ins.Kind {
	case KindInitializeConfig:
		ins.Admin = types.BytesToPublicKey(payload)
	case KindInitializeNcnResolverProgramConfig, KindUpdateNcnResolverProgramConfig:
		ins.VetoDuration = binary.LittleEndian.Uint64(payload[:8])
		ins.DeleteSlashProposalDuration = binary.LittleEndian.Uint64(payload[8:])
	case KindSlasherSetSecondaryAdmin:
		ins.Role = core.SlasherAdminRole(payload[0])
	case KindProposeSlash:
		ins.Amount = binary.LittleEndian.Uint64(payload)
	}
	return ins, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}
