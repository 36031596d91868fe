package core

import (
	"github.com/pkg/errors"

	"github.com/restakelabs/resolver/keys"
	"github.com/restakelabs/resolver/types"
)

const slashProposalPayloadLength = 2*types.PublicKeyLength + 8 + 8 + 8 + 8 + 1 + 8 + 1

// ProposalStatus is the lifecycle state of a slash proposal. It is a one-way
// latch: once a proposal leaves Active it never returns.
type ProposalStatus uint8

const (
	ProposalActive ProposalStatus = iota
	ProposalVetoed
	ProposalExecuted
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalActive:
		return "ACTIVE"
	case ProposalVetoed:
		return "VETOED"
	case ProposalExecuted:
		return "EXECUTED"
	default:
		return "UNKNOWN"
	}
}

// SlashProposal is the central entity of the protocol: a request to forfeit
// part of an operator's collateral, contestable during a slot-bounded veto
// window. Exactly one live proposal exists per (ncn, operator, resolver)
// triple; its storage address is derived from that triple so no caller can
// create a colliding or spoofed record.
//
// The veto window is the half-open interval [CaptureSlot, VetoDeadlineSlot):
// a veto at the deadline slot is rejected, an execute at the deadline slot is
// permitted. Both durations are snapshot from the NCN configuration at
// creation time; later configuration edits never retroactively change an
// existing proposal.
type SlashProposal struct {
	Operator types.PublicKey
	Resolver types.PublicKey

	// Amount of collateral units forfeited on execution. Always > 0.
	Amount uint64

	// CaptureSlot is the slot at which the proposal amount was fixed.
	CaptureSlot types.Slot

	// VetoDeadlineSlot = CaptureSlot + veto duration at creation time.
	VetoDeadlineSlot types.Slot

	// DeleteDuration is the retention window snapshot at creation time.
	DeleteDuration uint64

	Status ProposalStatus

	// TerminalSlot is the slot at which the proposal was vetoed or executed.
	// Zero while the proposal is active.
	TerminalSlot types.Slot

	Bump uint8
}

// NewSlashProposal builds an active proposal with its timing snapshot taken
// from the governing NCN configuration.
func NewSlashProposal(operator, resolver types.PublicKey, amount uint64, captureSlot types.Slot, cfg *NcnConfig, bump uint8) (*SlashProposal, error) {
	if amount == 0 {
		return nil, ErrZeroSlashAmount
	}
	return &SlashProposal{
		Operator:         operator,
		Resolver:         resolver,
		Amount:           amount,
		CaptureSlot:      captureSlot,
		VetoDeadlineSlot: captureSlot.Add(cfg.VetoDuration),
		DeleteDuration:   cfg.DeleteSlashProposalDuration,
		Status:           ProposalActive,
		Bump:             bump,
	}, nil
}

// SlashProposalSeeds are the derivation seeds of the proposal record for a
// (ncn, operator, resolver) triple.
func SlashProposalSeeds(ncn, operator, resolver types.PublicKey) [][]byte {
	return [][]byte{[]byte("slash_proposal"), ncn.Bytes(), operator.Bytes(), resolver.Bytes()}
}

// FindSlashProposalAddress derives the canonical proposal address for the
// given triple.
func FindSlashProposalAddress(programID, ncn, operator, resolver types.PublicKey) (types.PublicKey, uint8, error) {
	return keys.Derive(programID, SlashProposalSeeds(ncn, operator, resolver)...)
}

// Completed reports whether the proposal reached a terminal state.
func (p *SlashProposal) Completed() bool {
	return p.Status != ProposalActive
}

// CheckVetoPeriodEnded errors when the veto window has already elapsed.
// Gates the veto path.
func (p *SlashProposal) CheckVetoPeriodEnded(currentSlot types.Slot) error {
	if p.VetoDeadlineSlot <= currentSlot {
		return ErrVetoPeriodEnded
	}
	return nil
}

// CheckVetoPeriodNotEnded errors while the veto window is still open. Gates
// the execute path; the deadline slot itself belongs to the execute side.
func (p *SlashProposal) CheckVetoPeriodNotEnded(currentSlot types.Slot) error {
	if p.VetoDeadlineSlot > currentSlot {
		return ErrVetoPeriodNotEnded
	}
	return nil
}

// CheckCompleted errors when the proposal already reached a terminal state.
func (p *SlashProposal) CheckCompleted() error {
	if p.Completed() {
		return errors.Wrapf(ErrProposalCompleted, "status %s", p.Status)
	}
	return nil
}

// SetVetoed latches the proposal as terminated without transfer.
func (p *SlashProposal) SetVetoed(currentSlot types.Slot) error {
	if err := p.CheckCompleted(); err != nil {
		return err
	}
	p.Status = ProposalVetoed
	p.TerminalSlot = currentSlot
	return nil
}

// SetExecuted latches the proposal as executed. The custody transfer must
// already have succeeded when this is called.
func (p *SlashProposal) SetExecuted(currentSlot types.Slot) error {
	if err := p.CheckCompleted(); err != nil {
		return err
	}
	p.Status = ProposalExecuted
	p.TerminalSlot = currentSlot
	return nil
}

// PurgeSlot is the first slot at which the record's storage may be
// reclaimed. Only meaningful once the proposal is terminal.
func (p *SlashProposal) PurgeSlot() types.Slot {
	return p.TerminalSlot.Add(p.DeleteDuration)
}

// CheckCanDelete errors unless the proposal is terminal and its retention
// window has fully elapsed. An active, still-contestable proposal can never
// be deleted.
func (p *SlashProposal) CheckCanDelete(currentSlot types.Slot) error {
	if !p.Completed() {
		return ErrProposalNotResolved
	}
	if currentSlot < p.PurgeSlot() {
		return errors.Wrapf(ErrRetentionNotElapsed, "deletable at slot %d, current slot %d", p.PurgeSlot(), currentSlot)
	}
	return nil
}

// Marshal encodes the record with its discriminator and owner envelope.
func (p *SlashProposal) Marshal(owner types.PublicKey) []byte {
	payload := make([]byte, 0, slashProposalPayloadLength)
	payload = append(payload, p.Operator[:]...)
	payload = append(payload, p.Resolver[:]...)
	payload = putUint64(payload, p.Amount)
	payload = putUint64(payload, uint64(p.CaptureSlot))
	payload = putUint64(payload, uint64(p.VetoDeadlineSlot))
	payload = putUint64(payload, p.DeleteDuration)
	payload = append(payload, byte(p.Status))
	payload = putUint64(payload, uint64(p.TerminalSlot))
	payload = append(payload, p.Bump)
	return wrapRecord(SlashProposalDiscriminator, owner, payload)
}

// UnmarshalSlashProposal decodes and validates an encoded proposal record.
func UnmarshalSlashProposal(owner types.PublicKey, data []byte) (*SlashProposal, error) {
	payload, err := unwrapRecord(SlashProposalDiscriminator, owner, data, slashProposalPayloadLength)
	if err != nil {
		return nil, err
	}
	p := &SlashProposal{}
	p.Operator, payload = readPublicKey(payload)
	p.Resolver, payload = readPublicKey(payload)
	p.Amount, payload = readUint64(payload)
	var v uint64
	v, payload = readUint64(payload)
	p.CaptureSlot = types.Slot(v)
	v, payload = readUint64(payload)
	p.VetoDeadlineSlot = types.Slot(v)
	p.DeleteDuration, payload = readUint64(payload)
	p.Status = ProposalStatus(payload[0])
	payload = payload[1:]
	v, payload = readUint64(payload)
	p.TerminalSlot = types.Slot(v)
	p.Bump = payload[0]
	return p, nil
}
