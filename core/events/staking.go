package events

import (
	"math/big"
	"strconv"

	"xenochain/native/gametoken"
)

const (
	// TypeStakeAdded captures a single item entering a staking pool.
	TypeStakeAdded = "staking.stakeAdded"
	// TypeClaimSettled captures a settled claim, whether or not the item left the pool.
	TypeClaimSettled = "staking.claimSettled"
	// TypeRescued captures an emergency withdrawal that bypassed accrual.
	TypeRescued = "staking.rescued"
)

// StakeAdded is emitted when an item is staked into either pool.
type StakeAdded struct {
	Owner    gametoken.Address
	ItemID   uint64
	IsMarine bool
	Rank     uint8
}

// EventType satisfies the Event interface.
func (StakeAdded) EventType() string { return TypeStakeAdded }

// Attributes satisfies the Event interface.
func (e StakeAdded) Attributes() map[string]string {
	attrs := map[string]string{
		"owner":  e.Owner.Hex(),
		"itemId": strconv.FormatUint(e.ItemID, 10),
		"marine": strconv.FormatBool(e.IsMarine),
	}
	if !e.IsMarine {
		attrs["rank"] = strconv.FormatUint(uint64(e.Rank), 10)
	}
	return attrs
}

// ClaimSettled is emitted once per item in a claim batch. Paid is the amount
// credited to the owner, Diverted the amount redistributed to the alien pool.
type ClaimSettled struct {
	Owner    gametoken.Address
	ItemID   uint64
	Unstaked bool
	Paid     *big.Int
	Diverted *big.Int
}

// EventType satisfies the Event interface.
func (ClaimSettled) EventType() string { return TypeClaimSettled }

// Attributes satisfies the Event interface.
func (e ClaimSettled) Attributes() map[string]string {
	return map[string]string{
		"owner":    e.Owner.Hex(),
		"itemId":   strconv.FormatUint(e.ItemID, 10),
		"unstaked": strconv.FormatBool(e.Unstaked),
		"paid":     formatAmount(e.Paid),
		"diverted": formatAmount(e.Diverted),
	}
}

// Rescued is emitted when an item leaves a pool through the emergency path.
type Rescued struct {
	Owner  gametoken.Address
	ItemID uint64
}

// EventType satisfies the Event interface.
func (Rescued) EventType() string { return TypeRescued }

// Attributes satisfies the Event interface.
func (e Rescued) Attributes() map[string]string {
	return map[string]string{
		"owner":  e.Owner.Hex(),
		"itemId": strconv.FormatUint(e.ItemID, 10),
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
