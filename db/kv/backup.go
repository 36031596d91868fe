package kv

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"

	"github.com/restakelabs/resolver/shared/params"
)

const backupsDirectoryName = "backups"

// Backup the database to the datadir backup directory.
// Example for backup: $DATADIR/backups/resolver_db_10291092.backup
func (s *Store) Backup(ctx context.Context, outputDir string) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.Backup")
	defer span.End()

	backupsDir := outputDir
	if backupsDir == "" {
		backupsDir = path.Join(s.databasePath, backupsDirectoryName)
	}
	// Ensure the backups directory exists.
	if err := os.MkdirAll(backupsDir, params.ResolverIoConfig().ReadWriteExecutePermissions); err != nil {
		return err
	}
	backupPath := path.Join(backupsDir, fmt.Sprintf("resolver_db_%d.backup", time.Now().Unix()))
	log.WithField("backup", backupPath).Info("Writing backup database")

	copyDB, err := bolt.Open(
		backupPath,
		params.ResolverIoConfig().ReadWritePermissions,
		&bolt.Options{Timeout: params.ResolverIoConfig().BoltTimeout},
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := copyDB.Close(); err != nil {
			log.WithError(err).Error("Failed to close backup database")
		}
	}()

	return s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			log.Debugf("Copying bucket %s", name)
			return copyDB.Update(func(tx2 *bolt.Tx) error {
				b2, err := tx2.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return b.ForEach(b2.Put)
			})
		})
	})
}
