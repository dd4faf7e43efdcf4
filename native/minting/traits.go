package minting

import (
	"encoding/binary"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	coreerrors "xenochain/core/errors"
	"xenochain/native/gametoken"
)

// maxTraitRetries bounds the collision-retry loop. Collisions are already
// improbable after one re-derivation; sixteen misses in a row means the seed
// source is broken rather than unlucky.
const maxTraitRetries = 16

// aliasTable is an alias-method sampler over at most 256 outcomes. The low
// byte of the seed picks a column, the high byte decides between the column
// and its alias.
type aliasTable struct {
	prob  []uint8
	alias []uint8
}

func (t aliasTable) sample(seed uint16) uint8 {
	idx := int(seed) % len(t.prob)
	if uint8(seed>>8) < t.prob[idx] {
		return uint8(idx)
	}
	return t.alias[idx]
}

// TraitSet holds the per-species alias tables for every trait slot plus the
// alien rank-class table.
type TraitSet struct {
	marine [gametoken.TraitSlots]aliasTable
	alien  [gametoken.TraitSlots]aliasTable
	rank   aliasTable
}

// DefaultTraitSet returns the launch rarity tables. The rank table skews
// heavily toward the weakest class so high-rank aliens stay scarce.
func DefaultTraitSet() *TraitSet {
	set := &TraitSet{}
	for slot := 0; slot < gametoken.TraitSlots; slot++ {
		set.marine[slot] = aliasTable{
			prob:  []uint8{255, 170, 120, 60, 190, 90, 40, 220},
			alias: []uint8{0, 0, 1, 0, 2, 4, 4, 5},
		}
		set.alien[slot] = aliasTable{
			prob:  []uint8{255, 140, 90, 200, 50, 160},
			alias: []uint8{0, 0, 1, 0, 3, 3},
		}
	}
	set.rank = aliasTable{
		prob:  []uint8{8, 20, 40, 73, 120, 160, 210, 255},
		alias: []uint8{7, 7, 7, 6, 6, 7, 7, 7},
	}
	return set
}

// traitGenerator derives trait records from reveal seeds and enforces the
// no-two-items-identical constraint through a keccak fingerprint map.
type traitGenerator struct {
	set      *TraitSet
	existing map[[32]byte]uint64
}

func newTraitGenerator(set *TraitSet) *traitGenerator {
	if set == nil {
		set = DefaultTraitSet()
	}
	return &traitGenerator{
		set:      set,
		existing: make(map[[32]byte]uint64),
	}
}

// derive computes the trait record for one unit. The batch set carries
// fingerprints of units generated earlier in the same reveal that have not
// been committed to the existing map yet. On a fingerprint collision the seed
// is re-derived by hashing in the item id and retry counter; the loop is
// bounded even though termination is near-certain on the first retry.
func (g *traitGenerator) derive(seed [32]byte, itemID uint64, batch map[[32]byte]bool) (gametoken.TraitRecord, [32]byte, error) {
	current := seed
	for retry := 0; retry < maxTraitRetries; retry++ {
		record := g.roll(current)
		print := fingerprint(record)
		if _, taken := g.existing[print]; !taken && !batch[print] {
			return record, print, nil
		}
		var extra [16]byte
		binary.BigEndian.PutUint64(extra[0:8], itemID)
		binary.BigEndian.PutUint64(extra[8:16], uint64(retry)+1)
		copy(current[:], ethcrypto.Keccak256(current[:], extra[:]))
	}
	return gametoken.TraitRecord{}, [32]byte{}, fmt.Errorf("minting: trait space exhausted for item %d: %w", itemID, coreerrors.ErrCapacityExceeded)
}

// roll maps seed slices onto a concrete record: two bytes decide the species
// (one in ten is an alien), two bytes feed each trait slot, two more the rank
// class.
func (g *traitGenerator) roll(seed [32]byte) gametoken.TraitRecord {
	record := gametoken.TraitRecord{}
	species := binary.BigEndian.Uint16(seed[2:4])
	record.IsMarine = species%10 != 0
	tables := &g.set.alien
	if record.IsMarine {
		tables = &g.set.marine
	}
	for slot := 0; slot < gametoken.TraitSlots; slot++ {
		slice := binary.BigEndian.Uint16(seed[4+2*slot : 6+2*slot])
		record.Traits[slot] = tables[slot].sample(slice)
	}
	if !record.IsMarine {
		record.RankIndex = g.set.rank.sample(binary.BigEndian.Uint16(seed[16:18]))
	}
	return record
}

// commit registers a fingerprint once its unit has definitively minted.
func (g *traitGenerator) commit(print [32]byte, itemID uint64) {
	g.existing[print] = itemID
}

// fingerprint hashes the full trait combination, species included, so that
// identical-looking items across species remain distinguishable.
func fingerprint(record gametoken.TraitRecord) [32]byte {
	var buf [2 + gametoken.TraitSlots]byte
	if record.IsMarine {
		buf[0] = 1
	}
	buf[1] = record.RankIndex
	copy(buf[2:], record.Traits[:])
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(buf[:]))
	return out
}
