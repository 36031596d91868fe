// Package program dispatches resolver operations: it validates request
// identity and shape, then routes each instruction to the handler that
// mutates the record store.
package program

import (
	"context"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/custody"
	"github.com/restakelabs/resolver/db"
	"github.com/restakelabs/resolver/types"
)

// Request is one signed operation submitted to the dispatcher. The transport
// layer has already verified every signature in Signers; handlers only check
// membership.
type Request struct {
	// ProgramID the caller believes it is addressing. Mismatches are
	// rejected before the payload is decoded.
	ProgramID types.PublicKey

	// Accounts is the ordered identity list the instruction operates on.
	// The expected layout is fixed per instruction kind, record address
	// first.
	Accounts []types.PublicKey

	// Signers holds the verified signing keys attached to the request.
	Signers []types.PublicKey

	// CurrentSlot is the slot the request is evaluated at.
	CurrentSlot types.Slot

	// Data is the encoded instruction: tag byte plus fixed-width payload.
	Data []byte
}

// Config holds the dispatcher dependencies.
type Config struct {
	Database  db.Database
	ProgramID types.PublicKey
	Custody   custody.Transferer
}

// Processor routes decoded instructions to their handlers. All state checks
// and mutations happen against the configured database; conflicting writes
// are serialized by bolt's single-writer transactions.
type Processor struct {
	db        db.Database
	programID types.PublicKey
	custody   custody.Transferer
}

// NewProcessor creates a dispatcher bound to a record store and a custody
// transferer.
func NewProcessor(cfg *Config) *Processor {
	return &Processor{
		db:        cfg.Database,
		programID: cfg.ProgramID,
		custody:   cfg.Custody,
	}
}

// Process validates and applies a single request.
func (p *Processor) Process(ctx context.Context, req *Request) error {
	ctx, span := trace.StartSpan(ctx, "Program.Process")
	defer span.End()

	ins, err := p.decode(req)
	if err != nil {
		instructionsFailedTotal.WithLabelValues("Unknown").Inc()
		return err
	}
	if err := p.apply(ctx, req, ins); err != nil {
		instructionsFailedTotal.WithLabelValues(ins.Kind.String()).Inc()
		log.WithError(err).WithField("instruction", ins.Kind.String()).Debug("Rejected instruction")
		return err
	}
	instructionsProcessedTotal.WithLabelValues(ins.Kind.String()).Inc()
	return nil
}

// ProcessBatch decodes and statically validates many requests concurrently,
// then applies them serially in submission order.
func (p *Processor) ProcessBatch(ctx context.Context, reqs []*Request) error {
	ctx, span := trace.StartSpan(ctx, "Program.ProcessBatch")
	defer span.End()

	decoded := make([]*Instruction, len(reqs))
	eg, _ := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			ins, err := p.decode(req)
			if err != nil {
				return errors.Wrapf(err, "request %d", i)
			}
			decoded[i] = ins
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, req := range reqs {
		ins := decoded[i]
		if err := p.apply(ctx, req, ins); err != nil {
			instructionsFailedTotal.WithLabelValues(ins.Kind.String()).Inc()
			return errors.Wrapf(err, "request %d", i)
		}
		instructionsProcessedTotal.WithLabelValues(ins.Kind.String()).Inc()
	}
	return nil
}

// decode performs the stateless part of request validation.
func (p *Processor) decode(req *Request) (*Instruction, error) {
	if !req.ProgramID.Equal(p.programID) {
		return nil, errors.Wrapf(core.ErrWrongProgram, "request targets %s", req.ProgramID)
	}
	return DecodeInstruction(req.Data)
}

func (p *Processor) apply(ctx context.Context, req *Request, ins *Instruction) error {
	log.Debugf("Instruction: %s", ins.Kind)
	switch ins.Kind {
	case KindInitializeConfig:
		return p.initializeConfig(ctx, req, ins)
	case KindInitializeNcnResolverProgramConfig:
		return p.initializeNcnConfig(ctx, req, ins)
	case KindUpdateNcnResolverProgramConfig:
		return p.updateNcnConfig(ctx, req, ins)
	case KindInitializeResolver:
		return p.initializeResolver(ctx, req)
	case KindSetResolver:
		return p.setResolver(ctx, req)
	case KindInitializeSlasher:
		return p.initializeSlasher(ctx, req)
	case KindSlasherSetAdmin:
		return p.slasherSetAdmin(ctx, req)
	case KindSlasherSetSecondaryAdmin:
		return p.slasherSetSecondaryAdmin(ctx, req, ins)
	case KindSlasherDelegateTokenAccount:
		return p.slasherDelegateTokenAccount(ctx, req)
	case KindProposeSlash:
		return p.proposeSlash(ctx, req, ins)
	case KindVetoSlash:
		return p.vetoSlash(ctx, req)
	case KindExecuteSlash:
		return p.executeSlash(ctx, req)
	case KindDeleteSlashProposal:
		return p.deleteSlashProposal(ctx, req)
	default:
		return errors.Wrapf(core.ErrMalformedInput, "unknown instruction tag %d", ins.Kind)
	}
}

// checkAccounts enforces the fixed per-kind account list length.
func checkAccounts(req *Request, want int) error {
	if len(req.Accounts) != want {
		return errors.Wrapf(core.ErrMalformedInput,
			"expected %d accounts, got %d", want, len(req.Accounts))
	}
	return nil
}
