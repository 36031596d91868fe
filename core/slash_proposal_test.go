package core

import (
	"testing"

	"github.com/restakelabs/resolver/testing/assert"
	"github.com/restakelabs/resolver/testing/require"
	"github.com/restakelabs/resolver/types"
)

func testNcnConfig(vetoDuration, deleteDuration uint64) *NcnConfig {
	return NewNcnConfig(
		types.BytesToPublicKey([]byte("ncn")),
		types.BytesToPublicKey([]byte("ncn admin")),
		vetoDuration,
		deleteDuration,
		254,
	)
}

func TestNewSlashProposal_RejectsZeroAmount(t *testing.T) {
	operator := types.BytesToPublicKey([]byte("operator"))
	resolver := types.BytesToPublicKey([]byte("resolver"))
	_, err := NewSlashProposal(operator, resolver, 0, 1000, testNcnConfig(100, 50), 255)
	require.ErrorIs(t, err, ErrZeroSlashAmount)
}

func TestNewSlashProposal_SnapshotsDurations(t *testing.T) {
	operator := types.BytesToPublicKey([]byte("operator"))
	resolver := types.BytesToPublicKey([]byte("resolver"))
	cfg := testNcnConfig(100, 50)
	p, err := NewSlashProposal(operator, resolver, 5000, 1000, cfg, 255)
	require.NoError(t, err)
	assert.Equal(t, types.Slot(1000), p.CaptureSlot)
	assert.Equal(t, types.Slot(1100), p.VetoDeadlineSlot)
	assert.Equal(t, uint64(50), p.DeleteDuration)
	assert.Equal(t, ProposalActive, p.Status)

	// Later configuration edits must not touch the snapshot.
	cfg.VetoDuration = 1
	cfg.DeleteSlashProposalDuration = 1
	assert.Equal(t, types.Slot(1100), p.VetoDeadlineSlot)
	assert.Equal(t, uint64(50), p.DeleteDuration)
}

func TestSlashProposal_VetoWindowBoundary(t *testing.T) {
	operator := types.BytesToPublicKey([]byte("operator"))
	resolver := types.BytesToPublicKey([]byte("resolver"))
	p, err := NewSlashProposal(operator, resolver, 5000, 1000, testNcnConfig(100, 50), 255)
	require.NoError(t, err)

	tests := []struct {
		name       string
		slot       types.Slot
		vetoErr    error
		executeErr error
	}{
		{name: "capture slot", slot: 1000, vetoErr: nil, executeErr: ErrVetoPeriodNotEnded},
		{name: "inside window", slot: 1099, vetoErr: nil, executeErr: ErrVetoPeriodNotEnded},
		{name: "deadline slot belongs to execute", slot: 1100, vetoErr: ErrVetoPeriodEnded, executeErr: nil},
		{name: "after deadline", slot: 1140, vetoErr: ErrVetoPeriodEnded, executeErr: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotVeto := p.CheckVetoPeriodEnded(tt.slot)
			if tt.vetoErr == nil {
				assert.NoError(t, gotVeto)
			} else {
				assert.ErrorIs(t, gotVeto, tt.vetoErr)
			}
			gotExec := p.CheckVetoPeriodNotEnded(tt.slot)
			if tt.executeErr == nil {
				assert.NoError(t, gotExec)
			} else {
				assert.ErrorIs(t, gotExec, tt.executeErr)
			}
		})
	}
}

func TestSlashProposal_TerminalLatch(t *testing.T) {
	operator := types.BytesToPublicKey([]byte("operator"))
	resolver := types.BytesToPublicKey([]byte("resolver"))
	p, err := NewSlashProposal(operator, resolver, 5000, 1000, testNcnConfig(100, 50), 255)
	require.NoError(t, err)

	require.NoError(t, p.SetVetoed(1050))
	assert.Equal(t, ProposalVetoed, p.Status)
	assert.Equal(t, types.Slot(1050), p.TerminalSlot)

	// A completed proposal can never transition again.
	require.ErrorIs(t, p.SetExecuted(1100), ErrProposalCompleted)
	require.ErrorIs(t, p.SetVetoed(1100), ErrProposalCompleted)
	assert.Equal(t, ProposalVetoed, p.Status)
	assert.Equal(t, types.Slot(1050), p.TerminalSlot)
}

func TestSlashProposal_CheckCanDelete(t *testing.T) {
	operator := types.BytesToPublicKey([]byte("operator"))
	resolver := types.BytesToPublicKey([]byte("resolver"))
	p, err := NewSlashProposal(operator, resolver, 5000, 1000, testNcnConfig(100, 40), 255)
	require.NoError(t, err)

	// Active proposals are never deletable, however old.
	require.ErrorIs(t, p.CheckCanDelete(9999), ErrProposalNotResolved)

	require.NoError(t, p.SetExecuted(1100))
	assert.Equal(t, types.Slot(1140), p.PurgeSlot())
	require.ErrorIs(t, p.CheckCanDelete(1139), ErrRetentionNotElapsed)
	require.NoError(t, p.CheckCanDelete(1140))
	require.NoError(t, p.CheckCanDelete(1150))
}

func TestSlashProposal_OverflowingDurationsNeverWrap(t *testing.T) {
	operator := types.BytesToPublicKey([]byte("operator"))
	resolver := types.BytesToPublicKey([]byte("resolver"))

	// A retention duration near uint64 max must pin the purge slot at the
	// horizon, not wrap it into the past.
	p, err := NewSlashProposal(operator, resolver, 5000, 1000, testNcnConfig(100, ^uint64(0)), 255)
	require.NoError(t, err)
	require.NoError(t, p.SetExecuted(1100))
	assert.Equal(t, types.MaxSlot, p.PurgeSlot())
	require.ErrorIs(t, p.CheckCanDelete(9999), ErrRetentionNotElapsed)

	// Same for the veto deadline: the window stays open rather than closing
	// immediately.
	p2, err := NewSlashProposal(operator, resolver, 5000, 1000, testNcnConfig(^uint64(0), 40), 255)
	require.NoError(t, err)
	assert.Equal(t, types.MaxSlot, p2.VetoDeadlineSlot)
	require.NoError(t, p2.CheckVetoPeriodEnded(9999))
	require.ErrorIs(t, p2.CheckVetoPeriodNotEnded(9999), ErrVetoPeriodNotEnded)
}

func TestSlashProposal_MarshalTamperRejection(t *testing.T) {
	owner := types.BytesToPublicKey([]byte("program"))
	operator := types.BytesToPublicKey([]byte("operator"))
	resolver := types.BytesToPublicKey([]byte("resolver"))
	p, err := NewSlashProposal(operator, resolver, 5000, 1000, testNcnConfig(100, 50), 255)
	require.NoError(t, err)
	require.NoError(t, p.SetExecuted(1100))

	enc := p.Marshal(owner)
	got, err := UnmarshalSlashProposal(owner, enc)
	require.NoError(t, err)
	require.DeepEqual(t, p, got)

	// Wrong discriminator byte.
	bad := append([]byte{}, enc...)
	bad[0] = ConfigDiscriminator
	_, err = UnmarshalSlashProposal(owner, bad)
	require.ErrorIs(t, err, ErrInvalidRecord)

	// Wrong owner program.
	_, err = UnmarshalSlashProposal(types.BytesToPublicKey([]byte("other program")), enc)
	require.ErrorIs(t, err, ErrInvalidRecord)

	// Truncated payload.
	_, err = UnmarshalSlashProposal(owner, enc[:len(enc)-1])
	require.ErrorIs(t, err, ErrInvalidRecord)
}
