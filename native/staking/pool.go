package staking

import (
	"fmt"
	"sort"

	coreerrors "xenochain/core/errors"
	"xenochain/native/gametoken"
)

// RankedPool partitions staked entries by reward rank. Removal is O(1) via
// swap-with-last, and owners can be sampled with probability proportional to
// their entries' ranks.
type RankedPool struct {
	buckets  map[uint8][]*StakeEntry
	position map[uint64]int
	weight   uint64
	size     int
}

// NewRankedPool returns an empty pool.
func NewRankedPool() *RankedPool {
	return &RankedPool{
		buckets:  make(map[uint8][]*StakeEntry),
		position: make(map[uint64]int),
	}
}

// Insert appends the entry to its rank bucket and records its position.
func (p *RankedPool) Insert(rank uint8, entry *StakeEntry) {
	bucket := append(p.buckets[rank], entry)
	p.buckets[rank] = bucket
	p.position[entry.ItemID] = len(bucket) - 1
	p.weight += uint64(rank)
	p.size++
}

// Remove deletes the entry for itemID from its rank bucket by moving the last
// element into the vacated slot. The recorded position of the moved entry is
// updated so the position map stays consistent with the bucket contents.
func (p *RankedPool) Remove(rank uint8, itemID uint64) (*StakeEntry, error) {
	idx, ok := p.position[itemID]
	bucket := p.buckets[rank]
	if !ok || idx >= len(bucket) || bucket[idx].ItemID != itemID {
		return nil, fmt.Errorf("staking: item %d not in rank %d pool: %w", itemID, rank, coreerrors.ErrNotFound)
	}
	removed := bucket[idx]
	last := len(bucket) - 1
	moved := bucket[last]
	bucket[idx] = moved
	bucket[last] = nil
	p.buckets[rank] = bucket[:last]
	if moved.ItemID != itemID {
		p.position[moved.ItemID] = idx
	}
	delete(p.position, itemID)
	p.weight -= uint64(rank)
	p.size--
	return removed, nil
}

// Entry returns the staked entry for itemID within the given rank bucket.
func (p *RankedPool) Entry(rank uint8, itemID uint64) (*StakeEntry, bool) {
	idx, ok := p.position[itemID]
	if !ok {
		return nil, false
	}
	bucket := p.buckets[rank]
	if idx >= len(bucket) || bucket[idx].ItemID != itemID {
		return nil, false
	}
	return bucket[idx], true
}

// Contains reports whether itemID is staked in the pool.
func (p *RankedPool) Contains(itemID uint64) bool {
	_, ok := p.position[itemID]
	return ok
}

// TotalRankWeight returns the sum of ranks over all staked entries.
func (p *RankedPool) TotalRankWeight() uint64 { return p.weight }

// Size returns the number of staked entries.
func (p *RankedPool) Size() int { return p.size }

// SampleWeightedOwner picks the owner of a staked entry with probability
// proportional to the entry's rank. The low bits of the seed walk the rank
// classes in ascending rank order; the high bits pick a uniform member of the
// owning class. Returns false when the pool is empty.
func (p *RankedPool) SampleWeightedOwner(seed uint64) (gametoken.Address, bool) {
	if p.weight == 0 {
		return gametoken.ZeroAddress, false
	}
	cursor := seed % p.weight
	ranks := make([]int, 0, len(p.buckets))
	for rank := range p.buckets {
		if len(p.buckets[rank]) > 0 {
			ranks = append(ranks, int(rank))
		}
	}
	sort.Ints(ranks)
	for _, rank := range ranks {
		bucket := p.buckets[uint8(rank)]
		classWeight := uint64(rank) * uint64(len(bucket))
		if cursor < classWeight {
			member := (seed >> 32) % uint64(len(bucket))
			return bucket[member].Owner, true
		}
		cursor -= classWeight
	}
	// Unreachable while the weight invariant holds.
	return gametoken.ZeroAddress, false
}

// forEach visits every staked entry with its rank, in unspecified order.
func (p *RankedPool) forEach(fn func(rank uint8, entry *StakeEntry)) {
	for rank, bucket := range p.buckets {
		for _, entry := range bucket {
			fn(rank, entry)
		}
	}
}
