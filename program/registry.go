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
//	InitializeResolver:          [resolverAddr, ncn, operator, resolverIdentity]
//	SetResolver:                 [resolverAddr, ncn, operator, newResolverIdentity]
//	InitializeSlasher:           [slasherAddr, ncn, operator, admin]
//	SlasherSetAdmin:             [slasherAddr, newAdmin]
//	SlasherSetSecondaryAdmin:    [slasherAddr, newSecondaryAdmin]
//	SlasherDelegateTokenAccount: [slasherAddr, tokenAccount]
func (p *Processor) initializeResolver(ctx context.Context, req *Request) error {
	if err := checkAccounts(req, 4); err != nil {
		return err
	}
	ncn, operator, identity := req.Accounts[1], req.Accounts[2], req.Accounts[3]
	addr, bump, err := core.FindResolverAddress(p.programID, ncn, operator)
	if err != nil {
		return err
	}
	if !req.Accounts[0].Equal(addr) {
		return errors.Wrapf(keys.ErrAddressMismatch, "resolver record at %s", req.Accounts[0])
	}
	cfg, err := p.loadNcnConfig(ctx, ncn)
	if err != nil {
		return err
	}
	if err := cfg.CheckAdmin(req.Signers); err != nil {
		return err
	}
	rec := core.NewResolver(ncn, operator, identity, bump)
	if err := p.db.CreateResolver(ctx, addr, rec); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"ncn":      ncn,
		"operator": operator,
		"resolver": identity,
	}).Info("Registered resolver")
	return nil
}

func (p *Processor) setResolver(ctx context.Context, req *Request) error {
	if err := checkAccounts(req, 4); err != nil {
		return err
	}
	ncn, operator, identity := req.Accounts[1], req.Accounts[2], req.Accounts[3]
	addr, _, err := core.FindResolverAddress(p.programID, ncn, operator)
	if err != nil {
		return err
	}
	if !req.Accounts[0].Equal(addr) {
		return errors.Wrapf(keys.ErrAddressMismatch, "resolver record at %s", req.Accounts[0])
	}
	rec, err := p.db.Resolver(ctx, addr)
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
	old := rec.Resolver
	rec.Resolver = identity
	if err := p.db.SaveResolver(ctx, addr, rec); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"old": old,
		"new": identity,
	}).Info("Rotated resolver")
	return nil
}

func (p *Processor) initializeSlasher(ctx context.Context, req *Request) error {
	if err := checkAccounts(req, 4); err != nil {
		return err
	}
	ncn, operator, admin := req.Accounts[1], req.Accounts[2], req.Accounts[3]
	addr, bump, err := core.FindSlasherAddress(p.programID, ncn, operator)
	if err != nil {
		return err
	}
	if !req.Accounts[0].Equal(addr) {
		return errors.Wrapf(keys.ErrAddressMismatch, "slasher record at %s", req.Accounts[0])
	}
	entry := core.NewSlasher(ncn, operator, admin, bump)
	if err := entry.CheckAdmin(req.Signers); err != nil {
		return err
	}
	if err := p.db.CreateSlasher(ctx, addr, entry); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"ncn":      ncn,
		"operator": operator,
		"admin":    admin,
	}).Info("Registered slasher")
	return nil
}

// loadSlasher fetches a slasher record and verifies the supplied address
// matches its derivation.
func (p *Processor) loadSlasher(ctx context.Context, addr types.PublicKey) (*core.Slasher, error) {
	entry, err := p.db.Slasher(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := keys.Verify(p.programID, addr, core.SlasherSeeds(entry.Ncn, entry.Operator)...); err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *Processor) slasherSetAdmin(ctx context.Context, req *Request) error {
	if err := checkAccounts(req, 2); err != nil {
		return err
	}
	entry, err := p.loadSlasher(ctx, req.Accounts[0])
	if err != nil {
		return err
	}
	if err := entry.CheckAdmin(req.Signers); err != nil {
		return err
	}
	entry.Admin = req.Accounts[1]
	return p.db.SaveSlasher(ctx, req.Accounts[0], entry)
}

func (p *Processor) slasherSetSecondaryAdmin(ctx context.Context, req *Request, ins *Instruction) error {
	if err := checkAccounts(req, 2); err != nil {
		return err
	}
	entry, err := p.loadSlasher(ctx, req.Accounts[0])
	if err != nil {
		return err
	}
	if err := entry.CheckSecondaryAdmin(req.Signers); err != nil {
		return err
	}
	entry.SecondaryAdmin = req.Accounts[1]
	entry.SecondaryRole = ins.Role
	return p.db.SaveSlasher(ctx, req.Accounts[0], entry)
}

func (p *Processor) slasherDelegateTokenAccount(ctx context.Context, req *Request) error {
	if err := checkAccounts(req, 2); err != nil {
		return err
	}
	entry, err := p.loadSlasher(ctx, req.Accounts[0])
	if err != nil {
		return err
	}
	if err := entry.CheckDelegateAuthority(req.Signers); err != nil {
		return err
	}
	entry.DelegatedCustody = req.Accounts[1]
	return p.db.SaveSlasher(ctx, req.Accounts[0], entry)
}
