package minting

import (
	"errors"
	"math/big"
)

// CostTier prices mint units whose cumulative mint index falls below UpTo.
type CostTier struct {
	UpTo  uint64
	Price *big.Int
}

// Params controls the commit-reveal mint pipeline.
type Params struct {
	// MaxSupply is the total number of items that can ever be minted.
	MaxSupply uint64
	// MaxPerCommit bounds the unit count of a single commit.
	MaxPerCommit uint16
	// CostTiers price units by cumulative mint index, ascending. Units past
	// the last tier cost FlatPrice.
	CostTiers []CostTier
	// FlatPrice applies beyond the last tier.
	FlatPrice *big.Int
}

// DefaultParams mirrors the launch schedule: 50k supply, the first fifth sold
// externally at zero SCRAP, then doubling tiers. Prices are in base units of
// 10^18.
func DefaultParams() Params {
	tier2, _ := new(big.Int).SetString("20000000000000000000000", 10)
	tier3, _ := new(big.Int).SetString("40000000000000000000000", 10)
	flat, _ := new(big.Int).SetString("80000000000000000000000", 10)
	return Params{
		MaxSupply:    50000,
		MaxPerCommit: 10,
		CostTiers: []CostTier{
			{UpTo: 10000, Price: big.NewInt(0)},
			{UpTo: 20000, Price: tier2},
			{UpTo: 40000, Price: tier3},
		},
		FlatPrice: flat,
	}
}

// Validate ensures the parameters fall within acceptable bounds.
func (p Params) Validate() error {
	if p.MaxSupply == 0 {
		return errors.New("max supply must be positive")
	}
	if p.MaxPerCommit == 0 {
		return errors.New("max per commit must be positive")
	}
	var prev uint64
	for _, tier := range p.CostTiers {
		if tier.UpTo <= prev {
			return errors.New("cost tiers must have ascending bounds")
		}
		if tier.Price == nil || tier.Price.Sign() < 0 {
			return errors.New("tier price must be non-negative")
		}
		prev = tier.UpTo
	}
	if p.FlatPrice == nil || p.FlatPrice.Sign() < 0 {
		return errors.New("flat price must be non-negative")
	}
	return nil
}

// unitPrice returns the cost of the unit at the given cumulative mint index.
func (p Params) unitPrice(index uint64) *big.Int {
	for _, tier := range p.CostTiers {
		if index < tier.UpTo {
			return tier.Price
		}
	}
	return p.FlatPrice
}

// costFor sums the price of count units starting at the given index.
func (p Params) costFor(start uint64, count uint16) *big.Int {
	total := big.NewInt(0)
	for i := uint64(0); i < uint64(count); i++ {
		total.Add(total, p.unitPrice(start+i))
	}
	return total
}
