package staking

import (
	"math/big"

	"xenochain/native/gametoken"
)

// StakeEntry is the record of one currently staked item. For marines the
// checkpoint is a unix timestamp; for aliens it is a snapshot of the reward
// accumulator. StakedAt always carries the stake time and drives the
// minimum-hold gate for aliens, whose checkpoint is not a clock.
type StakeEntry struct {
	Owner      gametoken.Address
	ItemID     uint64
	Rank       uint8
	Checkpoint *big.Int
	StakedAt   int64
}

// Position is the externally visible view of a staked item.
type Position struct {
	Owner    gametoken.Address
	ItemID   uint64
	IsMarine bool
	Rank     uint8
	StakedAt int64
	Pending  *big.Int
}

// Stats summarises the ledger for operators and indexers.
type Stats struct {
	StakedMarines   int
	StakedAliens    int
	TotalRankWeight uint64
	TotalEmitted    *big.Int
	PerUnit         *big.Int
	Unaccounted     *big.Int
	Paused          bool
	RescueMode      bool
}
