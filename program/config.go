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
//	InitializeConfig:                   [configAddr]
//	InitializeNcnResolverProgramConfig: [ncnConfigAddr, ncn, admin]
//	UpdateNcnResolverProgramConfig:     [ncnConfigAddr, ncn]
func (p *Processor) initializeConfig(ctx context.Context, req *Request, ins *Instruction) error {
	if err := checkAccounts(req, 1); err != nil {
		return err
	}
	addr, bump, err := core.FindConfigAddress(p.programID)
	if err != nil {
		return err
	}
	if !req.Accounts[0].Equal(addr) {
		return errors.Wrapf(keys.ErrAddressMismatch, "config record at %s", req.Accounts[0])
	}
	cfg := core.NewConfig(ins.Admin, bump)
	if err := cfg.CheckAdmin(req.Signers); err != nil {
		return err
	}
	if err := p.db.CreateProgramConfig(ctx, addr, cfg); err != nil {
		return err
	}
	log.WithField("admin", ins.Admin).Info("Initialized program config")
	return nil
}

func (p *Processor) initializeNcnConfig(ctx context.Context, req *Request, ins *Instruction) error {
	if err := checkAccounts(req, 3); err != nil {
		return err
	}
	ncn, admin := req.Accounts[1], req.Accounts[2]
	addr, bump, err := core.FindNcnConfigAddress(p.programID, ncn)
	if err != nil {
		return err
	}
	if !req.Accounts[0].Equal(addr) {
		return errors.Wrapf(keys.ErrAddressMismatch, "ncn config record at %s", req.Accounts[0])
	}
	cfg := core.NewNcnConfig(ncn, admin, ins.VetoDuration, ins.DeleteSlashProposalDuration, bump)
	if err := cfg.CheckAdmin(req.Signers); err != nil {
		return err
	}
	if err := p.db.CreateNcnConfig(ctx, addr, cfg); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"ncn":            ncn,
		"vetoDuration":   ins.VetoDuration,
		"deleteDuration": ins.DeleteSlashProposalDuration,
	}).Info("Initialized NCN config")
	return nil
}

func (p *Processor) updateNcnConfig(ctx context.Context, req *Request, ins *Instruction) error {
	if err := checkAccounts(req, 2); err != nil {
		return err
	}
	ncn := req.Accounts[1]
	addr, _, err := core.FindNcnConfigAddress(p.programID, ncn)
	if err != nil {
		return err
	}
	if !req.Accounts[0].Equal(addr) {
		return errors.Wrapf(keys.ErrAddressMismatch, "ncn config record at %s", req.Accounts[0])
	}
	cfg, err := p.db.NcnConfig(ctx, addr)
	if err != nil {
		return err
	}
	if err := cfg.CheckAdmin(req.Signers); err != nil {
		return err
	}
	cfg.VetoDuration = ins.VetoDuration
	cfg.DeleteSlashProposalDuration = ins.DeleteSlashProposalDuration
	return p.db.SaveNcnConfig(ctx, addr, cfg)
}

// loadNcnConfig fetches the configuration governing an NCN by derivation.
func (p *Processor) loadNcnConfig(ctx context.Context, ncn types.PublicKey) (*core.NcnConfig, error) {
	addr, _, err := core.FindNcnConfigAddress(p.programID, ncn)
	if err != nil {
		return nil, err
	}
	return p.db.NcnConfig(ctx, addr)
}
