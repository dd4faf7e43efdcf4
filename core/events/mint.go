package events

import (
	"math/big"
	"strconv"

	"xenochain/native/gametoken"
)

const (
	// TypeMintCommitted captures a queued mint request.
	TypeMintCommitted = "minting.committed"
	// TypeSeedBound captures a random seed being sealed into a commit slot.
	TypeSeedBound = "minting.seedBound"
	// TypeMintRevealed captures a single revealed unit and its final recipient.
	TypeMintRevealed = "minting.revealed"
	// TypeCommitCleared captures an administrative force-clear of a stuck commit.
	TypeCommitCleared = "minting.commitCleared"
)

// MintCommitted is emitted when a mint request is queued against a slot.
type MintCommitted struct {
	Requester gametoken.Address
	Slot      uint64
	Count     uint16
	AutoStake bool
	Cost      *big.Int
}

// EventType satisfies the Event interface.
func (MintCommitted) EventType() string { return TypeMintCommitted }

// Attributes satisfies the Event interface.
func (e MintCommitted) Attributes() map[string]string {
	return map[string]string{
		"requester": e.Requester.Hex(),
		"slot":      strconv.FormatUint(e.Slot, 10),
		"count":     strconv.FormatUint(uint64(e.Count), 10),
		"autoStake": strconv.FormatBool(e.AutoStake),
		"cost":      formatAmount(e.Cost),
	}
}

// SeedBound is emitted when the oracle seals the open slot with a seed.
type SeedBound struct {
	Slot uint64
}

// EventType satisfies the Event interface.
func (SeedBound) EventType() string { return TypeSeedBound }

// Attributes satisfies the Event interface.
func (e SeedBound) Attributes() map[string]string {
	return map[string]string{"slot": strconv.FormatUint(e.Slot, 10)}
}

// MintRevealed is emitted once per revealed unit.
type MintRevealed struct {
	Requester gametoken.Address
	Recipient gametoken.Address
	ItemID    uint64
	Stolen    bool
	AutoStake bool
}

// EventType satisfies the Event interface.
func (MintRevealed) EventType() string { return TypeMintRevealed }

// Attributes satisfies the Event interface.
func (e MintRevealed) Attributes() map[string]string {
	return map[string]string{
		"requester": e.Requester.Hex(),
		"recipient": e.Recipient.Hex(),
		"itemId":    strconv.FormatUint(e.ItemID, 10),
		"stolen":    strconv.FormatBool(e.Stolen),
		"autoStake": strconv.FormatBool(e.AutoStake),
	}
}

// CommitCleared is emitted when an admin force-clears a stuck commit.
type CommitCleared struct {
	Requester gametoken.Address
	Slot      uint64
	Count     uint16
}

// EventType satisfies the Event interface.
func (CommitCleared) EventType() string { return TypeCommitCleared }

// Attributes satisfies the Event interface.
func (e CommitCleared) Attributes() map[string]string {
	return map[string]string{
		"requester": e.Requester.Hex(),
		"slot":      strconv.FormatUint(e.Slot, 10),
		"count":     strconv.FormatUint(uint64(e.Count), 10),
	}
}
