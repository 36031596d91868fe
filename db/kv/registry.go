package kv

import (
	"context"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/types"
)

// Resolver retrieves a resolver registry entry.
func (s *Store) Resolver(ctx context.Context, addr types.PublicKey) (*core.Resolver, error) {
	_, span := trace.StartSpan(ctx, "ResolverDB.Resolver")
	defer span.End()
	var r *core.Resolver
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(resolversBucket).Get(addr.Bytes())
		if enc == nil {
			return errors.Wrap(core.ErrNotFound, "resolver")
		}
		decoded, err := core.UnmarshalResolver(s.programID, enc)
		if err != nil {
			return err
		}
		r = decoded
		return nil
	})
	return r, err
}

// CreateResolver persists a resolver registry entry, failing if one already
// exists for the (ncn, operator) pair.
func (s *Store) CreateResolver(ctx context.Context, addr types.PublicKey, r *core.Resolver) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.CreateResolver")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(resolversBucket)
		if bkt.Get(addr.Bytes()) != nil {
			return errors.Wrap(core.ErrAlreadyExists, "resolver")
		}
		return bkt.Put(addr.Bytes(), r.Marshal(s.programID))
	})
}

// SaveResolver overwrites a resolver registry entry.
func (s *Store) SaveResolver(ctx context.Context, addr types.PublicKey, r *core.Resolver) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.SaveResolver")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resolversBucket).Put(addr.Bytes(), r.Marshal(s.programID))
	})
}

// Slasher retrieves a slasher registry entry.
func (s *Store) Slasher(ctx context.Context, addr types.PublicKey) (*core.Slasher, error) {
	_, span := trace.StartSpan(ctx, "ResolverDB.Slasher")
	defer span.End()
	var entry *core.Slasher
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(slashersBucket).Get(addr.Bytes())
		if enc == nil {
			return errors.Wrap(core.ErrNotFound, "slasher")
		}
		decoded, err := core.UnmarshalSlasher(s.programID, enc)
		if err != nil {
			return err
		}
		entry = decoded
		return nil
	})
	return entry, err
}

// CreateSlasher persists a slasher registry entry, failing if one already
// exists for the (ncn, operator) pair.
func (s *Store) CreateSlasher(ctx context.Context, addr types.PublicKey, entry *core.Slasher) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.CreateSlasher")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(slashersBucket)
		if bkt.Get(addr.Bytes()) != nil {
			return errors.Wrap(core.ErrAlreadyExists, "slasher")
		}
		return bkt.Put(addr.Bytes(), entry.Marshal(s.programID))
	})
}

// SaveSlasher overwrites a slasher registry entry.
func (s *Store) SaveSlasher(ctx context.Context, addr types.PublicKey, entry *core.Slasher) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.SaveSlasher")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slashersBucket).Put(addr.Bytes(), entry.Marshal(s.programID))
	})
}
