package kv

import (
	"context"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/types"
)

// ProgramConfig retrieves the program-wide configuration record.
func (s *Store) ProgramConfig(ctx context.Context, addr types.PublicKey) (*core.Config, error) {
	_, span := trace.StartSpan(ctx, "ResolverDB.ProgramConfig")
	defer span.End()
	var cfg *core.Config
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(programConfigBucket).Get(addr.Bytes())
		if enc == nil {
			return errors.Wrap(core.ErrNotFound, "program config")
		}
		decoded, err := core.UnmarshalConfig(s.programID, enc)
		if err != nil {
			return err
		}
		cfg = decoded
		return nil
	})
	return cfg, err
}

// CreateProgramConfig persists the program configuration, failing if it was
// already initialized.
func (s *Store) CreateProgramConfig(ctx context.Context, addr types.PublicKey, cfg *core.Config) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.CreateProgramConfig")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(programConfigBucket)
		if bkt.Get(addr.Bytes()) != nil {
			return errors.Wrap(core.ErrAlreadyInitialized, "program config")
		}
		return bkt.Put(addr.Bytes(), cfg.Marshal(s.programID))
	})
}

// NcnConfig retrieves the configuration record of a network namespace.
func (s *Store) NcnConfig(ctx context.Context, addr types.PublicKey) (*core.NcnConfig, error) {
	_, span := trace.StartSpan(ctx, "ResolverDB.NcnConfig")
	defer span.End()
	var cfg *core.NcnConfig
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(ncnConfigsBucket).Get(addr.Bytes())
		if enc == nil {
			return errors.Wrap(core.ErrNotFound, "ncn config")
		}
		decoded, err := core.UnmarshalNcnConfig(s.programID, enc)
		if err != nil {
			return err
		}
		cfg = decoded
		return nil
	})
	return cfg, err
}

// CreateNcnConfig persists a namespace configuration, failing if one already
// exists for the namespace.
func (s *Store) CreateNcnConfig(ctx context.Context, addr types.PublicKey, cfg *core.NcnConfig) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.CreateNcnConfig")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(ncnConfigsBucket)
		if bkt.Get(addr.Bytes()) != nil {
			return errors.Wrap(core.ErrAlreadyInitialized, "ncn config")
		}
		return bkt.Put(addr.Bytes(), cfg.Marshal(s.programID))
	})
}

// SaveNcnConfig overwrites a namespace configuration. Duration changes only
// affect proposals created afterward; existing proposals keep the values
// snapshot at their creation.
func (s *Store) SaveNcnConfig(ctx context.Context, addr types.PublicKey, cfg *core.NcnConfig) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.SaveNcnConfig")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ncnConfigsBucket).Put(addr.Bytes(), cfg.Marshal(s.programID))
	})
}
