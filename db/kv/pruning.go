package kv

import (
	"bytes"
	"context"
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"

	"github.com/restakelabs/resolver/types"
)

// PruneResolvedProposals deletes every terminal slash proposal whose
// retention window has fully elapsed at the given slot. Active proposals are
// never touched: only records indexed in the retention bucket, which is
// written exclusively on terminal transitions, are candidates.
func (s *Store) PruneResolvedProposals(ctx context.Context, currentSlot types.Slot) (int, error) {
	_, span := trace.StartSpan(ctx, "ResolverDB.PruneResolvedProposals")
	defer span.End()

	encodedPruneHorizon := encodeSlot(currentSlot)

	// We retrieve the lowest purge slot in the retention bucket. If there is
	// no data stored, or the lowest entry is still inside its retention
	// window, just exit early.
	var lowestPurgeSlot types.Slot
	var hasData bool
	if err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(proposalRetentionBucket).Cursor()
		k, _ := c.First()
		if k == nil {
			return nil
		}
		hasData = true
		lowestPurgeSlot = types.Slot(binary.BigEndian.Uint64(k[:8]))
		return nil
	}); err != nil {
		return 0, err
	}
	if !hasData {
		return 0, nil
	}
	if lowestPurgeSlot > currentSlot {
		log.Debugf("Lowest purge slot %d is > current slot %d, nothing to prune", lowestPurgeSlot, currentSlot)
		return 0, nil
	}

	pruned := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		retentionBkt := tx.Bucket(proposalRetentionBucket)
		proposalsBkt := tx.Bucket(slashProposalsBucket)
		c := retentionBkt.Cursor()

		// We begin a pruning iteration starting from the first item in the
		// bucket. Entries are ordered by purge slot, so we completely exit
		// the process at the first entry past the pruning horizon.
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !slotPrefixLessThanOrEqual(k, encodedPruneHorizon) {
				return nil
			}
			if err := retentionBkt.Delete(k); err != nil {
				return err
			}
			if err := proposalsBkt.Delete(v); err != nil {
				return err
			}
			slashProposalsPrunedTotal.Inc()
			pruned++
		}
		return nil
	})
	return pruned, err
}

func slotPrefixLessThanOrEqual(key, lessThan []byte) bool {
	enc := key[:8]
	return bytes.Compare(enc, lessThan) <= 0
}
