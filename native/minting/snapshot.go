package minting

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"xenochain/native/gametoken"
)

type commitSnapshot struct {
	Requester string `json:"requester"`
	Slot      uint64 `json:"slot"`
	Count     uint16 `json:"count"`
	AutoStake bool   `json:"autoStake"`
}

type seedSnapshot struct {
	Slot uint64 `json:"slot"`
	Seed string `json:"seed"`
}

type traitPrintSnapshot struct {
	Print  string `json:"print"`
	ItemID uint64 `json:"itemId"`
}

type engineSnapshot struct {
	Commits      []commitSnapshot     `json:"commits"`
	Seeds        []seedSnapshot       `json:"seeds"`
	OpenSlot     uint64               `json:"openSlot"`
	MintedCount  uint64               `json:"mintedCount"`
	PendingCount uint64               `json:"pendingCount"`
	IntakeOpen   bool                 `json:"intakeOpen"`
	TraitPrints  []traitPrintSnapshot `json:"traitPrints"`
}

// Snapshot serialises the full minter state for persistence.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := engineSnapshot{
		OpenSlot:     e.openSlot,
		MintedCount:  e.mintedCount,
		PendingCount: e.pendingCount,
		IntakeOpen:   e.intakeOpen,
	}
	for requester, commit := range e.commits {
		snap.Commits = append(snap.Commits, commitSnapshot{
			Requester: requester.Hex(),
			Slot:      commit.Slot,
			Count:     commit.Count,
			AutoStake: commit.AutoStake,
		})
	}
	for slot, seed := range e.seeds {
		snap.Seeds = append(snap.Seeds, seedSnapshot{Slot: slot, Seed: hex.EncodeToString(seed[:])})
	}
	for print, itemID := range e.gen.existing {
		snap.TraitPrints = append(snap.TraitPrints, traitPrintSnapshot{
			Print:  hex.EncodeToString(print[:]),
			ItemID: itemID,
		})
	}
	return json.Marshal(snap)
}

// Restore replaces the minter state with a previously serialised snapshot.
// Trait tables are left as configured.
func (e *Engine) Restore(data []byte) error {
	var snap engineSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("minting: decode snapshot: %w", err)
	}
	commits := make(map[gametoken.Address]*MintCommit, len(snap.Commits))
	for _, cs := range snap.Commits {
		requester, err := gametoken.ParseAddress(cs.Requester)
		if err != nil {
			return err
		}
		commits[requester] = &MintCommit{Slot: cs.Slot, Count: cs.Count, AutoStake: cs.AutoStake}
	}
	seeds := make(map[uint64][32]byte, len(snap.Seeds))
	for _, ss := range snap.Seeds {
		raw, err := hex.DecodeString(ss.Seed)
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("minting: invalid seed for slot %d", ss.Slot)
		}
		var seed [32]byte
		copy(seed[:], raw)
		seeds[ss.Slot] = seed
	}
	existing := make(map[[32]byte]uint64, len(snap.TraitPrints))
	for _, ts := range snap.TraitPrints {
		raw, err := hex.DecodeString(ts.Print)
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("minting: invalid trait fingerprint for item %d", ts.ItemID)
		}
		var print [32]byte
		copy(print[:], raw)
		existing[print] = ts.ItemID
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.commits = commits
	e.seeds = seeds
	e.openSlot = snap.OpenSlot
	if e.openSlot == 0 {
		e.openSlot = 1
	}
	e.mintedCount = snap.MintedCount
	e.pendingCount = snap.PendingCount
	e.intakeOpen = snap.IntakeOpen
	e.gen.existing = existing
	return nil
}
