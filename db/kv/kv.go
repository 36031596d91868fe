// Package kv implements the resolver database on top of BoltDB, the
// underlying persistent kv-store for the program's records.
package kv

import (
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	prombolt "github.com/prysmaticlabs/prombbolt"
	bolt "go.etcd.io/bbolt"

	"github.com/restakelabs/resolver/shared/params"
	"github.com/restakelabs/resolver/types"
)

var databaseFileName = "resolver.db"

// Store defines an implementation of the resolver Database interface using
// BoltDB as the underlying persistent kv-store.
type Store struct {
	db           *bolt.DB
	databasePath string
	programID    types.PublicKey
}

// Config options for the resolver db.
type Config struct {
	// ProgramID is the owning program identity stamped into every record
	// envelope and validated on every load.
	ProgramID types.PublicKey
}

// NewKVStore initializes a new boltDB key-value store at the directory path
// specified, creates the kv-buckets based on the schema, and stores an open
// connection db object as a property of the Store struct.
func NewKVStore(dirPath string, cfg *Config) (*Store, error) {
	if err := os.MkdirAll(dirPath, params.ResolverIoConfig().ReadWriteExecutePermissions); err != nil {
		return nil, err
	}
	datafile := path.Join(dirPath, databaseFileName)
	boltDB, err := bolt.Open(
		datafile,
		params.ResolverIoConfig().ReadWritePermissions,
		&bolt.Options{Timeout: params.ResolverIoConfig().BoltTimeout},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}

	kv := &Store{
		db:           boltDB,
		databasePath: dirPath,
		programID:    cfg.ProgramID,
	}

	if err := kv.db.Update(func(tx *bolt.Tx) error {
		return createBuckets(
			tx,
			programConfigBucket,
			ncnConfigsBucket,
			resolversBucket,
			slashersBucket,
			slashProposalsBucket,
			proposalRetentionBucket,
		)
	}); err != nil {
		return nil, err
	}
	if err := prometheus.Register(createBoltCollector(kv.db)); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			return nil, err
		}
	}
	return kv, nil
}

// ClearDB removes the previously stored database in the data directory.
func (s *Store) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	prometheus.Unregister(createBoltCollector(s.db))
	return os.Remove(path.Join(s.databasePath, databaseFileName))
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	prometheus.Unregister(createBoltCollector(s.db))
	return s.db.Close()
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

// Size returns the db size in bytes.
func (s *Store) Size() (int64, error) {
	var size int64
	err := s.db.View(func(tx *bolt.Tx) error {
		size = tx.Size()
		return nil
	})
	return size, err
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

// createBoltCollector returns a prometheus collector specifically configured
// for boltdb.
func createBoltCollector(db *bolt.DB) prometheus.Collector {
	return prombolt.New("boltDB", db)
}
