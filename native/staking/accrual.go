package staking

import "math/big"

// RewardAccrual tracks the cumulative reward per rank point for the alien
// pool. Rewards arriving while no alien is staked accumulate in unaccounted
// and are folded into perUnit by the next distribution with positive weight.
type RewardAccrual struct {
	perUnit     *big.Int
	unaccounted *big.Int
}

// NewRewardAccrual returns a zeroed accumulator.
func NewRewardAccrual() *RewardAccrual {
	return &RewardAccrual{
		perUnit:     big.NewInt(0),
		unaccounted: big.NewInt(0),
	}
}

// Distribute spreads amount across the current total rank weight. With zero
// weight the amount is deferred. The integer-division remainder is an
// accepted rounding loss.
func (a *RewardAccrual) Distribute(amount *big.Int, totalRankWeight uint64) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	if totalRankWeight == 0 {
		a.unaccounted.Add(a.unaccounted, amount)
		return
	}
	total := new(big.Int).Add(amount, a.unaccounted)
	total.Quo(total, new(big.Int).SetUint64(totalRankWeight))
	a.perUnit.Add(a.perUnit, total)
	a.unaccounted.SetInt64(0)
}

// Settle computes the amount owed to an entry of the given rank since its
// checkpoint. It never mutates state: the caller either deletes the entry or
// resets its checkpoint to PerUnit.
func (a *RewardAccrual) Settle(rank uint8, checkpoint *big.Int) *big.Int {
	owed := new(big.Int).Sub(a.perUnit, checkpoint)
	if owed.Sign() <= 0 {
		return big.NewInt(0)
	}
	return owed.Mul(owed, new(big.Int).SetUint64(uint64(rank)))
}

// PerUnit returns a copy of the current per-rank-point accumulator, suitable
// for use as a fresh checkpoint.
func (a *RewardAccrual) PerUnit() *big.Int {
	return new(big.Int).Set(a.perUnit)
}

// Unaccounted returns a copy of the deferred reward balance.
func (a *RewardAccrual) Unaccounted() *big.Int {
	return new(big.Int).Set(a.unaccounted)
}
