package staking

import (
	"errors"
	"math/big"
)

const (
	// TaxBpsDenominator is the fixed denominator for the claim tax rate.
	TaxBpsDenominator = 10000
	// SecondsPerDay converts the daily emission rate into per-second accrual.
	SecondsPerDay = 86400
)

// Params controls the staking economy.
type Params struct {
	// DailyRate is the SCRAP emission per staked marine per day.
	DailyRate *big.Int
	// MinimumHold is the seconds an item must stay staked before unstaking.
	MinimumHold int64
	// ClaimTaxBps is the share of a marine claim redistributed to aliens.
	ClaimTaxBps uint64
	// EmissionCeiling caps cumulative marine emission. Once crossed the
	// accrual clock freezes.
	EmissionCeiling *big.Int
	// MaxRank is the highest alien reward weight. Rank = MaxRank - rankIndex.
	MaxRank uint8
}

// DefaultParams mirrors the launch economy: 10000 SCRAP/day, two day lock,
// 20% claim tax, 2.4 billion SCRAP ceiling, eight rank classes. Amounts are
// denominated in base units of 10^18.
func DefaultParams() Params {
	daily, _ := new(big.Int).SetString("10000000000000000000000", 10)
	ceiling, _ := new(big.Int).SetString("2400000000000000000000000000", 10)
	return Params{
		DailyRate:       daily,
		MinimumHold:     2 * SecondsPerDay,
		ClaimTaxBps:     2000,
		EmissionCeiling: ceiling,
		MaxRank:         8,
	}
}

// Validate ensures the parameters fall within acceptable bounds.
func (p Params) Validate() error {
	if p.DailyRate == nil || p.DailyRate.Sign() <= 0 {
		return errors.New("daily rate must be positive")
	}
	if p.MinimumHold < 0 {
		return errors.New("minimum hold cannot be negative")
	}
	if p.ClaimTaxBps > TaxBpsDenominator {
		return errors.New("claim tax cannot exceed 100%")
	}
	if p.EmissionCeiling == nil || p.EmissionCeiling.Sign() <= 0 {
		return errors.New("emission ceiling must be positive")
	}
	if p.MaxRank == 0 {
		return errors.New("max rank must be positive")
	}
	return nil
}
