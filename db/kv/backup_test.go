package kv

import (
	"context"
	"os"
	"path"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/restakelabs/resolver/shared/params"
	"github.com/restakelabs/resolver/testing/assert"
	"github.com/restakelabs/resolver/testing/require"
)

func TestStore_Backup(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	p, addr := testProposal(t, 5000, 1000)
	require.NoError(t, store.CreateSlashProposal(ctx, addr, p))

	require.NoError(t, store.Backup(ctx, ""))

	files, err := os.ReadDir(path.Join(store.databasePath, backupsDirectoryName))
	require.NoError(t, err)
	require.NotEqual(t, 0, len(files), "No backups created")

	// The backup is a standalone bolt database carrying the same records.
	backupPath := path.Join(store.databasePath, backupsDirectoryName, files[0].Name())
	copyDB, err := bolt.Open(
		backupPath,
		params.ResolverIoConfig().ReadWritePermissions,
		&bolt.Options{Timeout: params.ResolverIoConfig().BoltTimeout},
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, copyDB.Close())
	}()

	want := p.Marshal(testProgramID)
	require.NoError(t, copyDB.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(slashProposalsBucket)
		require.NotNil(t, bkt, "Missing slash proposals bucket in backup")
		assert.DeepEqual(t, want, bkt.Get(addr.Bytes()))
		return nil
	}))
}

func TestStore_Backup_CustomOutputDir(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	outputDir := t.TempDir()
	p, addr := testProposal(t, 5000, 1000)
	require.NoError(t, store.CreateSlashProposal(ctx, addr, p))

	require.NoError(t, store.Backup(ctx, outputDir))

	files, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.NotEqual(t, 0, len(files), "No backups created")
}
