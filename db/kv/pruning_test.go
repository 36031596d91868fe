package kv

import (
	"context"
	"testing"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/testing/assert"
	"github.com/restakelabs/resolver/testing/require"
	"github.com/restakelabs/resolver/types"
)

// storeProposal persists a proposal for a distinct resolver identity and
// returns its address.
func storeProposal(t testing.TB, store *Store, resolver []byte, terminalSlot types.Slot) types.PublicKey {
	t.Helper()
	ctx := context.Background()
	ncn := types.BytesToPublicKey([]byte("ncn"))
	operator := types.BytesToPublicKey([]byte("operator"))
	identity := types.BytesToPublicKey(resolver)
	cfg := core.NewNcnConfig(ncn, types.BytesToPublicKey([]byte("admin")), 100, 40, 254)

	addr, bump, err := core.FindSlashProposalAddress(testProgramID, ncn, operator, identity)
	require.NoError(t, err)
	p, err := core.NewSlashProposal(operator, identity, 5000, 1000, cfg, bump)
	require.NoError(t, err)
	require.NoError(t, store.CreateSlashProposal(ctx, addr, p))

	if terminalSlot != 0 {
		require.NoError(t, p.SetExecuted(terminalSlot))
		require.NoError(t, store.TerminateSlashProposal(ctx, addr, p))
	}
	return addr
}

func TestStore_PruneResolvedProposals(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// Empty store exits early.
	pruned, err := store.PruneResolvedProposals(ctx, 10000)
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)

	// Retention = 40 slots. Purge slots land at terminal + 40.
	active := storeProposal(t, store, []byte("resolver active"), 0)
	early := storeProposal(t, store, []byte("resolver early"), 1100)  // purge 1140
	late := storeProposal(t, store, []byte("resolver late"), 1200)    // purge 1240

	// Before any purge slot elapsed.
	pruned, err = store.PruneResolvedProposals(ctx, 1139)
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)

	// Exactly at the first purge slot: only the early proposal goes.
	pruned, err = store.PruneResolvedProposals(ctx, 1140)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	_, err = store.SlashProposal(ctx, early)
	require.ErrorIs(t, err, core.ErrNotFound)

	// The later terminal proposal and the active one survive.
	_, err = store.SlashProposal(ctx, late)
	require.NoError(t, err)
	_, err = store.SlashProposal(ctx, active)
	require.NoError(t, err)

	// Far past every retention window the rest of the terminal set goes,
	// but active proposals are never pruned.
	pruned, err = store.PruneResolvedProposals(ctx, 9999)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	_, err = store.SlashProposal(ctx, active)
	require.NoError(t, err)
}
