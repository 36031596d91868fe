package program

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/keys"
	"github.com/restakelabs/resolver/types"
)

// Account list layouts, record address first:
//
//	ProposeSlash:        [proposalAddr, ncn, operator, resolverIdentity]
//	VetoSlash:           [proposalAddr, ncn, operator, resolverIdentity]
//	ExecuteSlash:        [proposalAddr, ncn, operator, resolverIdentity, destination]
//	DeleteSlashProposal: [proposalAddr, ncn, operator, resolverIdentity]
func (p *Processor) proposeSlash(ctx context.Context, req *Request, ins *Instruction) error {
	if err := checkAccounts(req, 4); err != nil {
		return err
	}
	ncn, operator, identity := req.Accounts[1], req.Accounts[2], req.Accounts[3]
	addr, bump, err := core.FindSlashProposalAddress(p.programID, ncn, operator, identity)
	if err != nil {
		return err
	}
	if !req.Accounts[0].Equal(addr) {
		return errors.Wrapf(keys.ErrAddressMismatch, "slash proposal record at %s", req.Accounts[0])
	}

	// Only the currently registered resolver may open a proposal.
	resolverAddr, _, err := core.FindResolverAddress(p.programID, ncn, operator)
	if err != nil {
		return err
	}
	rec, err := p.db.Resolver(ctx, resolverAddr)
	if err != nil {
		return err
	}
	if !rec.Resolver.Equal(identity) {
		return errors.Wrap(core.ErrUnauthorized, "resolver identity is not the registered resolver")
	}
	if err := rec.CheckResolver(req.Signers); err != nil {
		return err
	}

	cfg, err := p.loadNcnConfig(ctx, ncn)
	if err != nil {
		return err
	}
	proposal, err := core.NewSlashProposal(operator, identity, ins.Amount, req.CurrentSlot, cfg, bump)
	if err != nil {
		return err
	}
	if err := p.db.CreateSlashProposal(ctx, addr, proposal); err != nil {
		return err
	}
	slashProposalsOpenedTotal.Inc()
	log.WithFields(logrus.Fields{
		"operator":     operator,
		"amount":       ins.Amount,
		"captureSlot":  proposal.CaptureSlot,
		"vetoDeadline": proposal.VetoDeadlineSlot,
	}).Info("Opened slash proposal")
	return nil
}

// loadSlashProposal fetches a proposal and verifies the supplied address
// against its triple derivation.
func (p *Processor) loadSlashProposal(ctx context.Context, addr, ncn types.PublicKey) (*core.SlashProposal, error) {
	proposal, err := p.db.SlashProposal(ctx, addr)
	if err != nil {
		return nil, err
	}
	seeds := core.SlashProposalSeeds(ncn, proposal.Operator, proposal.Resolver)
	if err := keys.Verify(p.programID, addr, seeds...); err != nil {
		return nil, err
	}
	return proposal, nil
}

func (p *Processor) vetoSlash(ctx context.Context, req *Request) error {
	if err := checkAccounts(req, 4); err != nil {
		return err
	}
	addr, ncn := req.Accounts[0], req.Accounts[1]
	proposal, err := p.loadSlashProposal(ctx, addr, ncn)
	if err != nil {
		return err
	}
	cfg, err := p.loadNcnConfig(ctx, ncn)
	if err != nil {
		return err
	}
	if err := cfg.CheckAdmin(req.Signers); err != nil {
		return err
	}
	if err := proposal.CheckVetoPeriodEnded(req.CurrentSlot); err != nil {
		return err
	}
	if err := proposal.SetVetoed(req.CurrentSlot); err != nil {
		return err
	}
	if err := p.db.TerminateSlashProposal(ctx, addr, proposal); err != nil {
		return err
	}
	slashProposalsVetoedTotal.Inc()
	log.WithFields(logrus.Fields{
		"operator": proposal.Operator,
		"amount":   proposal.Amount,
		"slot":     req.CurrentSlot,
	}).Info("Vetoed slash proposal")
	return nil
}

func (p *Processor) executeSlash(ctx context.Context, req *Request) error {
	if err := checkAccounts(req, 5); err != nil {
		return err
	}
	addr, ncn, operator := req.Accounts[0], req.Accounts[1], req.Accounts[2]
	destination := req.Accounts[4]
	proposal, err := p.loadSlashProposal(ctx, addr, ncn)
	if err != nil {
		return err
	}

	slasherAddr, _, err := core.FindSlasherAddress(p.programID, ncn, operator)
	if err != nil {
		return err
	}
	entry, err := p.db.Slasher(ctx, slasherAddr)
	if err != nil {
		return err
	}
	if err := entry.CheckExecuteAuthority(req.Signers); err != nil {
		return err
	}
	if err := proposal.CheckVetoPeriodNotEnded(req.CurrentSlot); err != nil {
		return err
	}
	if err := proposal.CheckCompleted(); err != nil {
		return err
	}

	// The transfer commits before the latch flips: a failed transfer leaves
	// the proposal active so execution can be retried.
	if err := p.custody.Transfer(ctx, entry.DelegatedCustody, destination, proposal.Amount); err != nil {
		return errors.Wrap(core.ErrTransferFailed, err.Error())
	}
	if err := proposal.SetExecuted(req.CurrentSlot); err != nil {
		return err
	}
	if err := p.db.TerminateSlashProposal(ctx, addr, proposal); err != nil {
		return err
	}
	slashProposalsExecutedTotal.Inc()
	log.WithFields(logrus.Fields{
		"operator": proposal.Operator,
		"amount":   proposal.Amount,
		"slot":     req.CurrentSlot,
	}).Info("Executed slash proposal")
	return nil
}

func (p *Processor) deleteSlashProposal(ctx context.Context, req *Request) error {
	if err := checkAccounts(req, 4); err != nil {
		return err
	}
	addr, ncn := req.Accounts[0], req.Accounts[1]
	proposal, err := p.loadSlashProposal(ctx, addr, ncn)
	if err != nil {
		return err
	}
	// Reclaiming storage needs no signer; the state checks alone gate it.
	if err := proposal.CheckCanDelete(req.CurrentSlot); err != nil {
		return err
	}
	if err := p.db.DeleteSlashProposal(ctx, addr); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"operator": proposal.Operator,
		"status":   proposal.Status,
	}).Info("Deleted slash proposal")
	return nil
}
