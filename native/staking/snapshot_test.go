package staking

import "testing"

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	h := newHarness(t, testParams())
	owner := poolAddr(1)
	h.mintMarine(t, owner, 1)
	h.mintAlien(t, owner, 20, 3)
	h.stake(t, owner, 1, 20)
	h.now = 1500
	if _, err := h.ledger.ClaimMany(owner, []uint64{1}, false); err != nil {
		t.Fatalf("claim: %v", err)
	}

	data, err := h.ledger.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored := newHarness(t, testParams())
	restored.registry = h.registry
	restored.traits = h.traits
	restored.ledger.SetCollaborators(h.registry, restored.rewards, h.traits, restored.random)
	restored.now = h.now
	if err := restored.ledger.Restore(data); err != nil {
		t.Fatalf("restore: %v", err)
	}

	before := h.ledger.Stats()
	after := restored.ledger.Stats()
	if after.StakedMarines != before.StakedMarines || after.StakedAliens != before.StakedAliens {
		t.Fatalf("pool sizes diverged: %+v vs %+v", after, before)
	}
	if after.TotalRankWeight != before.TotalRankWeight {
		t.Fatalf("rank weight diverged: %d vs %d", after.TotalRankWeight, before.TotalRankWeight)
	}
	if after.PerUnit.Cmp(before.PerUnit) != 0 || after.TotalEmitted.Cmp(before.TotalEmitted) != 0 {
		t.Fatalf("accounting diverged: perUnit %s/%s emitted %s/%s",
			after.PerUnit, before.PerUnit, after.TotalEmitted, before.TotalEmitted)
	}

	// The restored alien settles exactly what the live ledger owes it.
	livePos, err := h.ledger.Position(20)
	if err != nil {
		t.Fatalf("live position: %v", err)
	}
	restoredPos, err := restored.ledger.Position(20)
	if err != nil {
		t.Fatalf("restored position: %v", err)
	}
	if livePos.Pending.Cmp(restoredPos.Pending) != 0 {
		t.Fatalf("pending diverged: %s vs %s", restoredPos.Pending, livePos.Pending)
	}
	if restoredPos.Pending.Sign() <= 0 {
		t.Fatalf("expected a positive pending reward, got %s", restoredPos.Pending)
	}
}
