package kv

import (
	"context"
	"testing"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/testing/assert"
	"github.com/restakelabs/resolver/testing/require"
	"github.com/restakelabs/resolver/types"
)

func TestStore_ProgramConfigLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	addr, bump, err := core.FindConfigAddress(testProgramID)
	require.NoError(t, err)

	_, err = store.ProgramConfig(ctx, addr)
	require.ErrorIs(t, err, core.ErrNotFound)

	cfg := core.NewConfig(types.BytesToPublicKey([]byte("admin")), bump)
	require.NoError(t, store.CreateProgramConfig(ctx, addr, cfg))
	require.ErrorIs(t, store.CreateProgramConfig(ctx, addr, cfg), core.ErrAlreadyInitialized)

	got, err := store.ProgramConfig(ctx, addr)
	require.NoError(t, err)
	require.DeepEqual(t, cfg, got)
}

func TestStore_ResolverRotation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ncn := types.BytesToPublicKey([]byte("ncn"))
	operator := types.BytesToPublicKey([]byte("operator"))
	addr, bump, err := core.FindResolverAddress(testProgramID, ncn, operator)
	require.NoError(t, err)

	rec := core.NewResolver(ncn, operator, types.BytesToPublicKey([]byte("resolver")), bump)
	require.NoError(t, store.CreateResolver(ctx, addr, rec))
	require.ErrorIs(t, store.CreateResolver(ctx, addr, rec), core.ErrAlreadyExists)

	rec.Resolver = types.BytesToPublicKey([]byte("new resolver"))
	require.NoError(t, store.SaveResolver(ctx, addr, rec))

	got, err := store.Resolver(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, rec.Resolver, got.Resolver)
}

func TestStore_SlasherLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ncn := types.BytesToPublicKey([]byte("ncn"))
	operator := types.BytesToPublicKey([]byte("operator"))
	addr, bump, err := core.FindSlasherAddress(testProgramID, ncn, operator)
	require.NoError(t, err)

	entry := core.NewSlasher(ncn, operator, types.BytesToPublicKey([]byte("admin")), bump)
	require.NoError(t, store.CreateSlasher(ctx, addr, entry))
	require.ErrorIs(t, store.CreateSlasher(ctx, addr, entry), core.ErrAlreadyExists)

	entry.DelegatedCustody = types.BytesToPublicKey([]byte("custody"))
	require.NoError(t, store.SaveSlasher(ctx, addr, entry))

	got, err := store.Slasher(ctx, addr)
	require.NoError(t, err)
	require.DeepEqual(t, entry, got)
}
