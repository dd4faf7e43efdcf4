package minting

import (
	"encoding/binary"
	"errors"
	"testing"

	coreerrors "xenochain/core/errors"
	"xenochain/native/gametoken"
)

func TestAliasTableCertainColumn(t *testing.T) {
	table := aliasTable{prob: []uint8{255, 0}, alias: []uint8{0, 0}}
	// Column 0 has certain probability; column 1 always falls to its alias.
	if got := table.sample(0x0000); got != 0 {
		t.Fatalf("certain column: got %d want 0", got)
	}
	if got := table.sample(0xff01); got != 0 {
		t.Fatalf("zero-probability column: got %d want alias 0", got)
	}
}

func TestRollSpeciesSplit(t *testing.T) {
	gen := newTraitGenerator(nil)
	var seed [32]byte
	// A species roll divisible by ten yields an alien.
	binary.BigEndian.PutUint16(seed[2:4], 30)
	record := gen.roll(seed)
	if record.IsMarine {
		t.Fatalf("species roll 30 produced a marine")
	}
	binary.BigEndian.PutUint16(seed[2:4], 31)
	record = gen.roll(seed)
	if !record.IsMarine {
		t.Fatalf("species roll 31 produced an alien")
	}
	if record.RankIndex != 0 {
		t.Fatalf("marine carries a rank index: %d", record.RankIndex)
	}
}

func TestRollIsDeterministic(t *testing.T) {
	gen := newTraitGenerator(nil)
	var seed [32]byte
	for i := range seed {
		seed[i] = byte(i * 7)
	}
	first := gen.roll(seed)
	second := gen.roll(seed)
	if first != second {
		t.Fatalf("same seed rolled different records: %+v vs %+v", first, second)
	}
}

func TestDeriveRetriesPastCollision(t *testing.T) {
	gen := newTraitGenerator(nil)
	var seed [32]byte
	seed[31] = 1

	record, print, err := gen.derive(seed, 1, nil)
	if err != nil {
		t.Fatalf("first derive: %v", err)
	}
	gen.commit(print, 1)

	// The same seed for a new item must re-derive rather than duplicate.
	again, againPrint, err := gen.derive(seed, 2, nil)
	if err != nil {
		t.Fatalf("derive after collision: %v", err)
	}
	if againPrint == print {
		t.Fatalf("collision retry produced the same fingerprint")
	}
	if again == record {
		t.Fatalf("collision retry produced an identical record")
	}
}

func TestDeriveHonoursBatchSet(t *testing.T) {
	gen := newTraitGenerator(nil)
	var seed [32]byte
	seed[31] = 9

	_, print, err := gen.derive(seed, 1, nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	batch := map[[32]byte]bool{print: true}
	_, other, err := gen.derive(seed, 2, batch)
	if err != nil {
		t.Fatalf("derive against batch: %v", err)
	}
	if other == print {
		t.Fatalf("batch collision not avoided")
	}
}

// degenerateTraitSet collapses every roll onto a single outcome so the
// fingerprint space has exactly two members, one per species.
func degenerateTraitSet() *TraitSet {
	single := aliasTable{prob: []uint8{255}, alias: []uint8{0}}
	set := &TraitSet{rank: single}
	for slot := 0; slot < gametoken.TraitSlots; slot++ {
		set.marine[slot] = single
		set.alien[slot] = single
	}
	return set
}

func TestDeriveFailsWhenTraitSpaceExhausted(t *testing.T) {
	gen := newTraitGenerator(degenerateTraitSet())
	gen.commit(fingerprint(gametoken.TraitRecord{IsMarine: true}), 1)
	gen.commit(fingerprint(gametoken.TraitRecord{IsMarine: false}), 2)

	var seed [32]byte
	seed[31] = 5
	if _, _, err := gen.derive(seed, 3, nil); !errors.Is(err, coreerrors.ErrCapacityExceeded) {
		t.Fatalf("exhausted trait space: got %v", err)
	}
}

func TestFingerprintSeparatesSpecies(t *testing.T) {
	marine := gametoken.TraitRecord{IsMarine: true, Traits: [gametoken.TraitSlots]uint8{1, 2, 3, 4, 5, 0}}
	alien := marine
	alien.IsMarine = false
	if fingerprint(marine) == fingerprint(alien) {
		t.Fatalf("species does not alter the fingerprint")
	}
}
