package kv

import (
	"encoding/binary"

	"github.com/restakelabs/resolver/types"
)

// The schema will define how to store and retrieve data from the db. We can
// prefix or suffix certain values such as addresses with attributes needed
// for storage and retrieval.
var (
	programConfigBucket  = []byte("program-config-bucket")
	ncnConfigsBucket     = []byte("ncn-configs-bucket")
	resolversBucket      = []byte("resolvers-bucket")
	slashersBucket       = []byte("slashers-bucket")
	slashProposalsBucket = []byte("slash-proposals-bucket")

	// proposalRetentionBucket indexes terminal proposals by purge slot:
	//  (purge_slot ++ proposal_address) => proposal_address
	// so the pruning sweep is a single cursor scan in slot order.
	proposalRetentionBucket = []byte("proposal-retention-bucket")
)

// Encodes a slot into big-endian bytes so that lexicographic key order in
// the retention bucket matches numeric slot order.
func encodeSlot(slot types.Slot) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(slot))
	return buf
}

// Disk key for a retention index entry, a purge slot plus the proposal
// address as a byte slice.
func keyForRetentionEntry(purgeSlot types.Slot, addr types.PublicKey) []byte {
	return append(encodeSlot(purgeSlot), addr.Bytes()...)
}
