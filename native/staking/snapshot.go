package staking

import (
	"encoding/json"
	"fmt"
	"math/big"

	"xenochain/native/gametoken"
)

type entrySnapshot struct {
	Owner      string `json:"owner"`
	ItemID     uint64 `json:"itemId"`
	Rank       uint8  `json:"rank,omitempty"`
	Checkpoint string `json:"checkpoint"`
	StakedAt   int64  `json:"stakedAt"`
}

type ledgerSnapshot struct {
	Marines      []entrySnapshot `json:"marines"`
	Aliens       []entrySnapshot `json:"aliens"`
	PerUnit      string          `json:"perUnit"`
	Unaccounted  string          `json:"unaccounted"`
	TotalEmitted string          `json:"totalEmitted"`
	LastAccrual  int64           `json:"lastAccrual"`
	Paused       bool            `json:"paused"`
	RescueMode   bool            `json:"rescueMode"`
}

func snapshotEntry(entry *StakeEntry) entrySnapshot {
	return entrySnapshot{
		Owner:      entry.Owner.Hex(),
		ItemID:     entry.ItemID,
		Rank:       entry.Rank,
		Checkpoint: entry.Checkpoint.String(),
		StakedAt:   entry.StakedAt,
	}
}

func restoreEntry(snap entrySnapshot) (*StakeEntry, error) {
	owner, err := gametoken.ParseAddress(snap.Owner)
	if err != nil {
		return nil, err
	}
	checkpoint, ok := new(big.Int).SetString(snap.Checkpoint, 10)
	if !ok {
		return nil, fmt.Errorf("staking: invalid checkpoint %q for item %d", snap.Checkpoint, snap.ItemID)
	}
	return &StakeEntry{
		Owner:      owner,
		ItemID:     snap.ItemID,
		Rank:       snap.Rank,
		Checkpoint: checkpoint,
		StakedAt:   snap.StakedAt,
	}, nil
}

// Snapshot serialises the full ledger state for persistence.
func (l *Ledger) Snapshot() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := ledgerSnapshot{
		Marines:      make([]entrySnapshot, 0, len(l.marines)),
		Aliens:       make([]entrySnapshot, 0, l.aliens.Size()),
		PerUnit:      l.accrual.perUnit.String(),
		Unaccounted:  l.accrual.unaccounted.String(),
		TotalEmitted: l.totalEmitted.String(),
		LastAccrual:  l.lastAccrual,
		Paused:       l.paused,
		RescueMode:   l.rescueMode,
	}
	for _, entry := range l.marines {
		snap.Marines = append(snap.Marines, snapshotEntry(entry))
	}
	l.aliens.forEach(func(rank uint8, entry *StakeEntry) {
		snap.Aliens = append(snap.Aliens, snapshotEntry(entry))
	})
	return json.Marshal(snap)
}

// Restore replaces the ledger state with a previously serialised snapshot.
func (l *Ledger) Restore(data []byte) error {
	var snap ledgerSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("staking: decode snapshot: %w", err)
	}
	perUnit, ok := new(big.Int).SetString(snap.PerUnit, 10)
	if !ok {
		return fmt.Errorf("staking: invalid perUnit %q", snap.PerUnit)
	}
	unaccounted, ok := new(big.Int).SetString(snap.Unaccounted, 10)
	if !ok {
		return fmt.Errorf("staking: invalid unaccounted %q", snap.Unaccounted)
	}
	totalEmitted, ok := new(big.Int).SetString(snap.TotalEmitted, 10)
	if !ok {
		return fmt.Errorf("staking: invalid totalEmitted %q", snap.TotalEmitted)
	}

	marines := make(map[uint64]*StakeEntry, len(snap.Marines))
	for _, es := range snap.Marines {
		entry, err := restoreEntry(es)
		if err != nil {
			return err
		}
		marines[entry.ItemID] = entry
	}
	aliens := NewRankedPool()
	for _, es := range snap.Aliens {
		entry, err := restoreEntry(es)
		if err != nil {
			return err
		}
		aliens.Insert(entry.Rank, entry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.marines = marines
	l.aliens = aliens
	l.accrual.perUnit = perUnit
	l.accrual.unaccounted = unaccounted
	l.totalEmitted = totalEmitted
	l.lastAccrual = snap.LastAccrual
	l.paused = snap.Paused
	l.rescueMode = snap.RescueMode
	return nil
}
