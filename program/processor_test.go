package program

import (
	"context"
	"testing"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/custody"
	dbtest "github.com/restakelabs/resolver/db/testing"
	"github.com/restakelabs/resolver/keys"
	"github.com/restakelabs/resolver/testing/assert"
	"github.com/restakelabs/resolver/testing/require"
	"github.com/restakelabs/resolver/types"
)

// testEnv wires a processor against a temporary store and an in-memory
// custody ledger, with one NCN, operator, resolver and slasher registered.
type testEnv struct {
	proc      *Processor
	ledger    *custody.Ledger
	programID types.PublicKey

	ncn          types.PublicKey
	operator     types.PublicKey
	resolverKey  types.PublicKey
	ncnAdmin     types.PublicKey
	slasherAdmin types.PublicKey
	custodyAcct  types.PublicKey
	destination  types.PublicKey

	proposalAddr types.PublicKey
	slasherAddr  types.PublicKey
}

const (
	testVetoDuration   = uint64(100)
	testDeleteDuration = uint64(40)
)

func setupEnv(t *testing.T) *testEnv {
	env := &testEnv{
		programID:    types.BytesToPublicKey([]byte("test program")),
		ncn:          types.BytesToPublicKey([]byte("ncn")),
		operator:     types.BytesToPublicKey([]byte("operator")),
		resolverKey:  types.BytesToPublicKey([]byte("resolver")),
		ncnAdmin:     types.BytesToPublicKey([]byte("ncn admin")),
		slasherAdmin: types.BytesToPublicKey([]byte("slasher admin")),
		custodyAcct:  types.BytesToPublicKey([]byte("custody account")),
		destination:  types.BytesToPublicKey([]byte("destination")),
	}
	env.ledger = custody.NewLedger()
	env.proc = NewProcessor(&Config{
		Database:  dbtest.SetupDB(t, env.programID),
		ProgramID: env.programID,
		Custody:   env.ledger,
	})

	var err error
	env.proposalAddr, _, err = core.FindSlashProposalAddress(env.programID, env.ncn, env.operator, env.resolverKey)
	require.NoError(t, err)
	env.slasherAddr, _, err = core.FindSlasherAddress(env.programID, env.ncn, env.operator)
	require.NoError(t, err)

	ctx := context.Background()

	configAddr, _, err := core.FindConfigAddress(env.programID)
	require.NoError(t, err)
	programAdmin := types.BytesToPublicKey([]byte("program admin"))
	require.NoError(t, env.proc.Process(ctx, &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{configAddr},
		Signers:   []types.PublicKey{programAdmin},
		Data:      (&Instruction{Kind: KindInitializeConfig, Admin: programAdmin}).Encode(),
	}))

	ncnCfgAddr, _, err := core.FindNcnConfigAddress(env.programID, env.ncn)
	require.NoError(t, err)
	require.NoError(t, env.proc.Process(ctx, &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{ncnCfgAddr, env.ncn, env.ncnAdmin},
		Signers:   []types.PublicKey{env.ncnAdmin},
		Data: (&Instruction{
			Kind:                        KindInitializeNcnResolverProgramConfig,
			VetoDuration:                testVetoDuration,
			DeleteSlashProposalDuration: testDeleteDuration,
		}).Encode(),
	}))

	resolverAddr, _, err := core.FindResolverAddress(env.programID, env.ncn, env.operator)
	require.NoError(t, err)
	require.NoError(t, env.proc.Process(ctx, &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{resolverAddr, env.ncn, env.operator, env.resolverKey},
		Signers:   []types.PublicKey{env.ncnAdmin},
		Data:      (&Instruction{Kind: KindInitializeResolver}).Encode(),
	}))

	require.NoError(t, env.proc.Process(ctx, &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{env.slasherAddr, env.ncn, env.operator, env.slasherAdmin},
		Signers:   []types.PublicKey{env.slasherAdmin},
		Data:      (&Instruction{Kind: KindInitializeSlasher}).Encode(),
	}))
	require.NoError(t, env.proc.Process(ctx, &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{env.slasherAddr, env.custodyAcct},
		Signers:   []types.PublicKey{env.slasherAdmin},
		Data:      (&Instruction{Kind: KindSlasherDelegateTokenAccount}).Encode(),
	}))
	return env
}

func (env *testEnv) propose(slot types.Slot, amount uint64, signers ...types.PublicKey) error {
	if signers == nil {
		signers = []types.PublicKey{env.resolverKey}
	}
	return env.proc.Process(context.Background(), &Request{
		ProgramID:   env.programID,
		Accounts:    []types.PublicKey{env.proposalAddr, env.ncn, env.operator, env.resolverKey},
		Signers:     signers,
		CurrentSlot: slot,
		Data:        (&Instruction{Kind: KindProposeSlash, Amount: amount}).Encode(),
	})
}

func (env *testEnv) veto(slot types.Slot, signers ...types.PublicKey) error {
	if signers == nil {
		signers = []types.PublicKey{env.ncnAdmin}
	}
	return env.proc.Process(context.Background(), &Request{
		ProgramID:   env.programID,
		Accounts:    []types.PublicKey{env.proposalAddr, env.ncn, env.operator, env.resolverKey},
		Signers:     signers,
		CurrentSlot: slot,
		Data:        (&Instruction{Kind: KindVetoSlash}).Encode(),
	})
}

func (env *testEnv) execute(slot types.Slot, signers ...types.PublicKey) error {
	if signers == nil {
		signers = []types.PublicKey{env.slasherAdmin}
	}
	return env.proc.Process(context.Background(), &Request{
		ProgramID:   env.programID,
		Accounts:    []types.PublicKey{env.proposalAddr, env.ncn, env.operator, env.resolverKey, env.destination},
		Signers:     signers,
		CurrentSlot: slot,
		Data:        (&Instruction{Kind: KindExecuteSlash}).Encode(),
	})
}

func (env *testEnv) deleteProposal(slot types.Slot) error {
	return env.proc.Process(context.Background(), &Request{
		ProgramID:   env.programID,
		Accounts:    []types.PublicKey{env.proposalAddr, env.ncn, env.operator, env.resolverKey},
		CurrentSlot: slot,
		Data:        (&Instruction{Kind: KindDeleteSlashProposal}).Encode(),
	})
}

func (env *testEnv) proposal(t *testing.T) *core.SlashProposal {
	p, err := env.proc.db.SlashProposal(context.Background(), env.proposalAddr)
	require.NoError(t, err)
	return p
}

func TestProcessor_WrongProgram(t *testing.T) {
	env := setupEnv(t)
	err := env.proc.Process(context.Background(), &Request{
		ProgramID: types.BytesToPublicKey([]byte("another program")),
		Data:      (&Instruction{Kind: KindVetoSlash}).Encode(),
	})
	require.ErrorIs(t, err, core.ErrWrongProgram)
}

func TestProcessor_MalformedInput(t *testing.T) {
	env := setupEnv(t)
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "unknown tag", data: []byte{0xff}},
		{name: "short payload", data: []byte{byte(KindProposeSlash), 1, 2}},
		{name: "trailing bytes", data: append((&Instruction{Kind: KindVetoSlash}).Encode(), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.proc.Process(context.Background(), &Request{
				ProgramID: env.programID,
				Data:      tt.data,
			})
			require.ErrorIs(t, err, core.ErrMalformedInput)
		})
	}
}

func TestProcessor_ProposeZeroAmount(t *testing.T) {
	env := setupEnv(t)
	require.ErrorIs(t, env.propose(1000, 0), core.ErrZeroSlashAmount)
}

func TestProcessor_ProposeDuplicate(t *testing.T) {
	env := setupEnv(t)
	require.NoError(t, env.propose(1000, 5000))
	require.ErrorIs(t, env.propose(1001, 6000), core.ErrAlreadyExists)
}

func TestProcessor_ProposeUnauthorized(t *testing.T) {
	env := setupEnv(t)
	stranger := types.BytesToPublicKey([]byte("stranger"))
	require.ErrorIs(t, env.propose(1000, 5000, stranger), core.ErrUnauthorized)
}

func TestProcessor_VetoInsideWindow(t *testing.T) {
	env := setupEnv(t)
	require.NoError(t, env.propose(1000, 5000))

	// A non-admin cannot veto.
	require.ErrorIs(t, env.veto(1050, types.BytesToPublicKey([]byte("stranger"))), core.ErrUnauthorized)

	// The last contestable slot is deadline-1.
	require.NoError(t, env.veto(1099))
	p := env.proposal(t)
	assert.Equal(t, core.ProposalVetoed, p.Status)
	assert.Equal(t, types.Slot(1099), p.TerminalSlot)

	// No forfeiture happened.
	assert.Equal(t, uint64(0), env.ledger.Balance(env.destination))

	// Execution of a vetoed proposal is impossible.
	require.ErrorIs(t, env.execute(1150), core.ErrProposalCompleted)
}

func TestProcessor_VetoAfterDeadline(t *testing.T) {
	env := setupEnv(t)
	require.NoError(t, env.propose(1000, 5000))
	require.ErrorIs(t, env.veto(1100), core.ErrVetoPeriodEnded)
	assert.Equal(t, core.ProposalActive, env.proposal(t).Status)
}

func TestProcessor_ExecuteLifecycle(t *testing.T) {
	env := setupEnv(t)
	env.ledger.Credit(env.custodyAcct, 10000)
	require.NoError(t, env.propose(1000, 5000))

	// Execution is rejected while the window is open.
	require.ErrorIs(t, env.execute(1050), core.ErrVetoPeriodNotEnded)
	require.ErrorIs(t, env.execute(1099), core.ErrVetoPeriodNotEnded)

	// The deadline slot itself belongs to the execute side.
	require.NoError(t, env.execute(1100))
	p := env.proposal(t)
	assert.Equal(t, core.ProposalExecuted, p.Status)
	assert.Equal(t, types.Slot(1100), p.TerminalSlot)
	assert.Equal(t, uint64(5000), env.ledger.Balance(env.destination))
	assert.Equal(t, uint64(5000), env.ledger.Balance(env.custodyAcct))

	// Re-execution cannot double spend.
	require.ErrorIs(t, env.execute(1140), core.ErrProposalCompleted)
	assert.Equal(t, uint64(5000), env.ledger.Balance(env.destination))
}

func TestProcessor_ExecuteUnauthorized(t *testing.T) {
	env := setupEnv(t)
	env.ledger.Credit(env.custodyAcct, 10000)
	require.NoError(t, env.propose(1000, 5000))
	require.ErrorIs(t, env.execute(1100, types.BytesToPublicKey([]byte("stranger"))), core.ErrUnauthorized)
	assert.Equal(t, uint64(0), env.ledger.Balance(env.destination))
}

func TestProcessor_ExecuteBySecondaryAdminRole(t *testing.T) {
	env := setupEnv(t)
	env.ledger.Credit(env.custodyAcct, 10000)
	secondary := types.BytesToPublicKey([]byte("secondary"))
	require.NoError(t, env.proc.Process(context.Background(), &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{env.slasherAddr, secondary},
		Signers:   []types.PublicKey{env.slasherAdmin},
		Data:      (&Instruction{Kind: KindSlasherSetSecondaryAdmin, Role: core.RoleExecuteSlash}).Encode(),
	}))

	require.NoError(t, env.propose(1000, 5000))
	require.NoError(t, env.execute(1100, secondary))
	assert.Equal(t, uint64(5000), env.ledger.Balance(env.destination))
}

func TestProcessor_TransferFailureLeavesProposalActive(t *testing.T) {
	env := setupEnv(t)
	// Custody account holds less than the slash amount.
	env.ledger.Credit(env.custodyAcct, 100)
	require.NoError(t, env.propose(1000, 5000))

	err := env.execute(1100)
	require.ErrorIs(t, err, core.ErrTransferFailed)
	assert.Equal(t, core.ProposalActive, env.proposal(t).Status)
	assert.Equal(t, uint64(0), env.ledger.Balance(env.destination))

	// Execution is retriable once the custody account is funded.
	env.ledger.Credit(env.custodyAcct, 4900)
	require.NoError(t, env.execute(1110))
	assert.Equal(t, core.ProposalExecuted, env.proposal(t).Status)
	assert.Equal(t, uint64(5000), env.ledger.Balance(env.destination))
}

func TestProcessor_DeleteAfterRetention(t *testing.T) {
	env := setupEnv(t)
	env.ledger.Credit(env.custodyAcct, 10000)
	require.NoError(t, env.propose(1000, 5000))

	// An active proposal is never deletable.
	require.ErrorIs(t, env.deleteProposal(9999), core.ErrProposalNotResolved)

	require.NoError(t, env.execute(1100))

	// Retention window: purge slot = 1100 + 40.
	require.ErrorIs(t, env.deleteProposal(1139), core.ErrRetentionNotElapsed)
	require.NoError(t, env.deleteProposal(1140))
	_, err := env.proc.db.SlashProposal(context.Background(), env.proposalAddr)
	require.ErrorIs(t, err, core.ErrNotFound)

	// The address is reusable after deletion.
	require.NoError(t, env.propose(1150, 7000))
	assert.Equal(t, uint64(7000), env.proposal(t).Amount)
}

func TestProcessor_SetResolverRotatesProposer(t *testing.T) {
	env := setupEnv(t)
	newResolver := types.BytesToPublicKey([]byte("new resolver"))
	resolverAddr, _, err := core.FindResolverAddress(env.programID, env.ncn, env.operator)
	require.NoError(t, err)

	// Only the NCN admin may rotate.
	err = env.proc.Process(context.Background(), &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{resolverAddr, env.ncn, env.operator, newResolver},
		Signers:   []types.PublicKey{env.resolverKey},
		Data:      (&Instruction{Kind: KindSetResolver}).Encode(),
	})
	require.ErrorIs(t, err, core.ErrUnauthorized)

	require.NoError(t, env.proc.Process(context.Background(), &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{resolverAddr, env.ncn, env.operator, newResolver},
		Signers:   []types.PublicKey{env.ncnAdmin},
		Data:      (&Instruction{Kind: KindSetResolver}).Encode(),
	}))

	// The old resolver lost propose capability.
	require.ErrorIs(t, env.propose(1000, 5000), core.ErrUnauthorized)
}

func TestProcessor_UpdateNcnConfigDoesNotTouchLiveProposal(t *testing.T) {
	env := setupEnv(t)
	require.NoError(t, env.propose(1000, 5000))

	ncnCfgAddr, _, err := core.FindNcnConfigAddress(env.programID, env.ncn)
	require.NoError(t, err)
	require.NoError(t, env.proc.Process(context.Background(), &Request{
		ProgramID: env.programID,
		Accounts:  []types.PublicKey{ncnCfgAddr, env.ncn},
		Signers:   []types.PublicKey{env.ncnAdmin},
		Data: (&Instruction{
			Kind:                        KindUpdateNcnResolverProgramConfig,
			VetoDuration:                1,
			DeleteSlashProposalDuration: 1,
		}).Encode(),
	}))

	// The live proposal keeps its creation-time snapshot.
	p := env.proposal(t)
	assert.Equal(t, types.Slot(1100), p.VetoDeadlineSlot)
	assert.Equal(t, testDeleteDuration, p.DeleteDuration)
}

func TestProcessor_AddressMismatchRejected(t *testing.T) {
	env := setupEnv(t)
	forged := types.BytesToPublicKey([]byte("forged address"))
	err := env.proc.Process(context.Background(), &Request{
		ProgramID:   env.programID,
		Accounts:    []types.PublicKey{forged, env.ncn, env.operator, env.resolverKey},
		Signers:     []types.PublicKey{env.resolverKey},
		CurrentSlot: 1000,
		Data:        (&Instruction{Kind: KindProposeSlash, Amount: 5000}).Encode(),
	})
	require.ErrorIs(t, err, keys.ErrAddressMismatch)
}

func TestProcessor_ProcessBatch(t *testing.T) {
	env := setupEnv(t)
	env.ledger.Credit(env.custodyAcct, 10000)

	reqs := []*Request{
		{
			ProgramID:   env.programID,
			Accounts:    []types.PublicKey{env.proposalAddr, env.ncn, env.operator, env.resolverKey},
			Signers:     []types.PublicKey{env.resolverKey},
			CurrentSlot: 1000,
			Data:        (&Instruction{Kind: KindProposeSlash, Amount: 5000}).Encode(),
		},
		{
			ProgramID:   env.programID,
			Accounts:    []types.PublicKey{env.proposalAddr, env.ncn, env.operator, env.resolverKey, env.destination},
			Signers:     []types.PublicKey{env.slasherAdmin},
			CurrentSlot: 1100,
			Data:        (&Instruction{Kind: KindExecuteSlash}).Encode(),
		},
	}
	require.NoError(t, env.proc.ProcessBatch(context.Background(), reqs))
	assert.Equal(t, core.ProposalExecuted, env.proposal(t).Status)

	// One malformed request fails the whole batch at the decode stage.
	err := env.proc.ProcessBatch(context.Background(), []*Request{
		{ProgramID: env.programID, Data: []byte{0xff}},
	})
	require.ErrorIs(t, err, core.ErrMalformedInput)
}
