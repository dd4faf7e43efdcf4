package gametoken

import "math/big"

// ItemRegistry is the ownership/transfer surface of the item collection the
// game modules consume. Transfer approval and enumeration stay outside the
// core; the registry is trusted to gate admin bypass itself.
type ItemRegistry interface {
	OwnerOf(itemID uint64) (Address, error)
	TransferFrom(from, to Address, itemID uint64) error
	MintItem(to Address, itemID uint64) error
}

// RewardLedger is the fungible SCRAP token ledger. Mint credits freshly
// accrued rewards, Burn destroys the up-front mint commitment cost.
type RewardLedger interface {
	MintReward(to Address, amount *big.Int) error
	BurnReward(from Address, amount *big.Int) error
}

// TraitReader exposes the generated traits of an item. The staking ledger
// classifies items (marine vs alien) and derives reward ranks through it.
type TraitReader interface {
	Traits(itemID uint64) (TraitRecord, error)
}

// TraitWriter records the traits assigned to a freshly revealed item.
type TraitWriter interface {
	SetTraits(itemID uint64, record TraitRecord) error
}

// RandomSource returns a fresh unpredictable value on demand. It backs the
// steal-on-unstake coin flip and is distinct from the commit-reveal seed path.
type RandomSource interface {
	Random() uint64
}

// TheftInsurer is the optional hook that can cancel a mint theft by consuming
// a qualifying secondary-collection token held by the requester. CancelTheft
// reports whether the theft was cancelled.
type TheftInsurer interface {
	CancelTheft(requester Address, seed uint64) bool
}
