package kv

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/types"
)

// SlashProposal retrieves the proposal record stored at the given derived
// address.
func (s *Store) SlashProposal(ctx context.Context, addr types.PublicKey) (*core.SlashProposal, error) {
	_, span := trace.StartSpan(ctx, "ResolverDB.SlashProposal")
	defer span.End()
	var p *core.SlashProposal
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(slashProposalsBucket).Get(addr.Bytes())
		if enc == nil {
			return errors.Wrap(core.ErrNotFound, "slash proposal")
		}
		decoded, err := core.UnmarshalSlashProposal(s.programID, enc)
		if err != nil {
			return err
		}
		p = decoded
		return nil
	})
	return p, err
}

// HasSlashProposal reports whether any proposal record, live or resolved,
// occupies the given address.
func (s *Store) HasSlashProposal(ctx context.Context, addr types.PublicKey) (bool, error) {
	_, span := trace.StartSpan(ctx, "ResolverDB.HasSlashProposal")
	defer span.End()
	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(slashProposalsBucket).Get(addr.Bytes()) != nil
		return nil
	})
	return exists, err
}

// SlashProposalsByStatus retrieves every proposal currently in the given
// lifecycle state. Records are collected in one read transaction and decoded
// concurrently in batches.
func (s *Store) SlashProposalsByStatus(ctx context.Context, status core.ProposalStatus) ([]*core.SlashProposal, error) {
	ctx, span := trace.StartSpan(ctx, "ResolverDB.SlashProposalsByStatus")
	defer span.End()
	encoded := make([][]byte, 0)
	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(slashProposalsBucket).ForEach(func(_, v []byte) error {
			enc := make([]byte, len(v))
			copy(enc, v)
			encoded = append(encoded, enc)
			return nil
		})
	}); err != nil {
		return nil, err
	}

	proposals := make([]*core.SlashProposal, 0, len(encoded))
	proposalsMu := sync.Mutex{}
	eg, egctx := errgroup.WithContext(ctx)
	for _, enc := range encoded {
		encToProcess := enc
		eg.Go(func() error {
			if egctx.Err() != nil {
				return egctx.Err()
			}
			decoded, err := core.UnmarshalSlashProposal(s.programID, encToProcess)
			if err != nil {
				return err
			}
			if decoded.Status != status {
				return nil
			}
			proposalsMu.Lock()
			defer proposalsMu.Unlock()
			proposals = append(proposals, decoded)
			return nil
		})
	}
	return proposals, eg.Wait()
}

// CreateSlashProposal persists a newly proposed slash, failing if any record
// already occupies the triple's derived address. A second propose call for
// the same (ncn, operator, resolver) triple must fail, never overwrite.
func (s *Store) CreateSlashProposal(ctx context.Context, addr types.PublicKey, p *core.SlashProposal) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.CreateSlashProposal")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(slashProposalsBucket)
		if bkt.Get(addr.Bytes()) != nil {
			return errors.Wrap(core.ErrAlreadyExists, "slash proposal")
		}
		return bkt.Put(addr.Bytes(), p.Marshal(s.programID))
	})
}

// TerminateSlashProposal persists a proposal that just reached a terminal
// state and writes its retention index entry in the same transaction. The
// stored record's latch is re-checked inside the transaction so a terminal
// proposal can never be terminated twice.
func (s *Store) TerminateSlashProposal(ctx context.Context, addr types.PublicKey, p *core.SlashProposal) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.TerminateSlashProposal")
	defer span.End()
	if !p.Completed() {
		return core.ErrProposalNotResolved
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(slashProposalsBucket)
		enc := bkt.Get(addr.Bytes())
		if enc == nil {
			return errors.Wrap(core.ErrNotFound, "slash proposal")
		}
		stored, err := core.UnmarshalSlashProposal(s.programID, enc)
		if err != nil {
			return err
		}
		if err := stored.CheckCompleted(); err != nil {
			return err
		}
		if err := bkt.Put(addr.Bytes(), p.Marshal(s.programID)); err != nil {
			return err
		}
		return tx.Bucket(proposalRetentionBucket).Put(keyForRetentionEntry(p.PurgeSlot(), addr), addr.Bytes())
	})
}

// DeleteSlashProposal reclaims the storage of a terminal proposal, removing
// the record and its retention index entry in one transaction.
func (s *Store) DeleteSlashProposal(ctx context.Context, addr types.PublicKey) error {
	_, span := trace.StartSpan(ctx, "ResolverDB.DeleteSlashProposal")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(slashProposalsBucket)
		enc := bkt.Get(addr.Bytes())
		if enc == nil {
			return errors.Wrap(core.ErrNotFound, "slash proposal")
		}
		stored, err := core.UnmarshalSlashProposal(s.programID, enc)
		if err != nil {
			return err
		}
		if err := bkt.Delete(addr.Bytes()); err != nil {
			return err
		}
		if stored.Completed() {
			if err := tx.Bucket(proposalRetentionBucket).Delete(keyForRetentionEntry(stored.PurgeSlot(), addr)); err != nil {
				return err
			}
		}
		slashProposalsDeletedTotal.Inc()
		return nil
	})
}
