package staking

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	coreerrors "xenochain/core/errors"
	"xenochain/core/events"
	"xenochain/native/gametoken"
)

var (
	// ErrStillLocked indicates an unstake was attempted before the minimum hold elapsed.
	ErrStillLocked = fmt.Errorf("staking: minimum hold not met: %w", coreerrors.ErrPreconditionFailed)

	errPaused        = fmt.Errorf("staking: paused: %w", coreerrors.ErrPreconditionFailed)
	errNotConfigured = fmt.Errorf("staking: collaborators not configured: %w", coreerrors.ErrPreconditionFailed)
	errRescueOff     = fmt.Errorf("staking: rescue mode disabled: %w", coreerrors.ErrPreconditionFailed)
)

// Ledger owns both staking pools and orchestrates stake, claim, unstake and
// rescue flows. Marines accrue by elapsed time against a capped global
// emission; aliens share redistributed rewards weighted by rank. All mutating
// operations are serialized behind one mutex so every batch observes and
// produces consistent state.
type Ledger struct {
	mu     sync.Mutex
	params Params

	registry gametoken.ItemRegistry
	rewards  gametoken.RewardLedger
	traits   gametoken.TraitReader
	random   gametoken.RandomSource
	emitter  events.Emitter
	nowFn    func() int64

	custody gametoken.Address
	admin   gametoken.Address
	minter  gametoken.Address

	marines map[uint64]*StakeEntry
	aliens  *RankedPool
	accrual *RewardAccrual

	totalEmitted *big.Int
	lastAccrual  int64

	paused     bool
	rescueMode bool
}

// NewLedger creates a staking ledger with a no-op emitter. Collaborators must
// be configured before the first operation.
func NewLedger(params Params) (*Ledger, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("staking: invalid params: %w", err)
	}
	return &Ledger{
		params:       params,
		emitter:      events.NoopEmitter{},
		nowFn:        func() int64 { return time.Now().Unix() },
		marines:      make(map[uint64]*StakeEntry),
		aliens:       NewRankedPool(),
		accrual:      NewRewardAccrual(),
		totalEmitted: big.NewInt(0),
	}, nil
}

// SetCollaborators wires the external contracts the ledger depends on.
func (l *Ledger) SetCollaborators(registry gametoken.ItemRegistry, rewards gametoken.RewardLedger, traits gametoken.TraitReader, random gametoken.RandomSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registry = registry
	l.rewards = rewards
	l.traits = traits
	l.random = random
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// SetCustody configures the registry account that holds staked items.
func (l *Ledger) SetCustody(addr gametoken.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.custody = addr
}

// SetAdmin configures the identity allowed to toggle pause and rescue mode.
func (l *Ledger) SetAdmin(addr gametoken.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.admin = addr
}

// SetMinter configures the trusted minter identity for mint-and-stake flows.
func (l *Ledger) SetMinter(addr gametoken.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minter = addr
}

// SetPaused toggles the pause flag. Admin only.
func (l *Ledger) SetPaused(caller gametoken.Address, paused bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return err
	}
	l.paused = paused
	return nil
}

// SetRescueMode toggles the emergency rescue switch. Admin only.
func (l *Ledger) SetRescueMode(caller gametoken.Address, enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return err
	}
	l.rescueMode = enabled
	return nil
}

func (l *Ledger) requireAdmin(caller gametoken.Address) error {
	if l.admin.IsZero() || caller != l.admin {
		return fmt.Errorf("staking: caller %s is not admin: %w", caller.Hex(), coreerrors.ErrUnauthorized)
	}
	return nil
}

func (l *Ledger) requireConfigured() error {
	if l.registry == nil || l.rewards == nil || l.traits == nil || l.random == nil {
		return errNotConfigured
	}
	return nil
}

func (l *Ledger) emit(evt events.Event) {
	if l.emitter != nil {
		l.emitter.Emit(evt)
	}
}

// accrueGlobal advances the capped global marine emission. It must run once
// at the top of every externally triggered batch, before any per-item math.
// Once the ceiling is crossed lastAccrual stays frozen, which also freezes
// the per-entry elapsed-time formula.
func (l *Ledger) accrueGlobal(now int64) {
	if l.totalEmitted.Cmp(l.params.EmissionCeiling) >= 0 {
		return
	}
	elapsed := now - l.lastAccrual
	if elapsed > 0 && l.lastAccrual > 0 && len(l.marines) > 0 {
		add := big.NewInt(elapsed)
		add.Mul(add, big.NewInt(int64(len(l.marines))))
		add.Mul(add, l.params.DailyRate)
		add.Quo(add, big.NewInt(SecondsPerDay))
		l.totalEmitted.Add(l.totalEmitted, add)
	}
	l.lastAccrual = now
}

// marineOwed computes the elapsed-time reward for a marine entry. Below the
// ceiling the live clock applies; once the ceiling is crossed only time up to
// the frozen accrual timestamp counts.
func (l *Ledger) marineOwed(entry *StakeEntry, now int64) *big.Int {
	checkpoint := entry.Checkpoint.Int64()
	until := now
	if l.totalEmitted.Cmp(l.params.EmissionCeiling) >= 0 {
		if l.lastAccrual <= checkpoint {
			return big.NewInt(0)
		}
		until = l.lastAccrual
	}
	if until <= checkpoint {
		return big.NewInt(0)
	}
	owed := big.NewInt(until - checkpoint)
	owed.Mul(owed, l.params.DailyRate)
	owed.Quo(owed, big.NewInt(SecondsPerDay))
	return owed
}

// classify resolves an item's class and rank through the trait oracle. The
// result is cached by callers for the duration of one operation; no branch
// re-queries mutable trait state afterwards.
func (l *Ledger) classify(itemID uint64) (isMarine bool, rank uint8, err error) {
	record, err := l.traits.Traits(itemID)
	if err != nil {
		return false, 0, err
	}
	if record.IsMarine {
		return true, 0, nil
	}
	if record.RankIndex >= l.params.MaxRank {
		return false, 0, fmt.Errorf("staking: item %d rank index %d out of range: %w", itemID, record.RankIndex, coreerrors.ErrPreconditionFailed)
	}
	return false, l.params.MaxRank - record.RankIndex, nil
}

type stakeCandidate struct {
	itemID   uint64
	isMarine bool
	rank     uint8
	transfer bool
}

// StakeMany stakes the given items for owner. The caller must be the owner
// (items are pulled from their registry account) or the trusted minter, whose
// batches may carry zero-id markers for slots lost to mint theft. The whole
// batch fails on the first bad element. Returns the number of items staked,
// which excludes skipped markers.
func (l *Ledger) StakeMany(caller, owner gametoken.Address, itemIDs []uint64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireConfigured(); err != nil {
		return 0, err
	}
	if l.paused {
		return 0, errPaused
	}
	fromMinter := !l.minter.IsZero() && caller == l.minter
	if !fromMinter && caller != owner {
		return 0, fmt.Errorf("staking: caller %s cannot stake for %s: %w", caller.Hex(), owner.Hex(), coreerrors.ErrUnauthorized)
	}

	now := l.nowFn()
	l.accrueGlobal(now)

	candidates := make([]stakeCandidate, 0, len(itemIDs))
	seen := make(map[uint64]struct{}, len(itemIDs))
	for _, itemID := range itemIDs {
		if itemID == 0 {
			if fromMinter {
				continue
			}
			return 0, fmt.Errorf("staking: zero item id: %w", coreerrors.ErrPreconditionFailed)
		}
		if _, dup := seen[itemID]; dup {
			return 0, fmt.Errorf("staking: item %d repeated in batch: %w", itemID, coreerrors.ErrStateConflict)
		}
		seen[itemID] = struct{}{}
		if _, staked := l.marines[itemID]; staked || l.aliens.Contains(itemID) {
			return 0, fmt.Errorf("staking: item %d already staked: %w", itemID, coreerrors.ErrStateConflict)
		}
		if !fromMinter {
			holder, err := l.registry.OwnerOf(itemID)
			if err != nil {
				return 0, err
			}
			if holder != owner {
				return 0, fmt.Errorf("staking: item %d not owned by %s: %w", itemID, owner.Hex(), coreerrors.ErrPreconditionFailed)
			}
		}
		isMarine, rank, err := l.classify(itemID)
		if err != nil {
			return 0, err
		}
		candidates = append(candidates, stakeCandidate{
			itemID:   itemID,
			isMarine: isMarine,
			rank:     rank,
			transfer: !fromMinter,
		})
	}

	for _, c := range candidates {
		entry := &StakeEntry{
			Owner:    owner,
			ItemID:   c.itemID,
			Rank:     c.rank,
			StakedAt: now,
		}
		if c.isMarine {
			entry.Checkpoint = big.NewInt(now)
			l.marines[c.itemID] = entry
		} else {
			entry.Checkpoint = l.accrual.PerUnit()
			l.aliens.Insert(c.rank, entry)
		}
		l.emit(events.StakeAdded{Owner: owner, ItemID: c.itemID, IsMarine: c.isMarine, Rank: c.rank})
	}
	// Pull transfers run after all internal bookkeeping so a reentrant
	// registry sees fully updated state.
	for _, c := range candidates {
		if !c.transfer {
			continue
		}
		if err := l.registry.TransferFrom(owner, l.custody, c.itemID); err != nil {
			return 0, fmt.Errorf("staking: transfer item %d into custody: %w", c.itemID, err)
		}
	}
	return len(candidates), nil
}

type claimTarget struct {
	entry    *StakeEntry
	isMarine bool
}

// ClaimMany settles rewards for the caller's staked items, optionally
// unstaking them. Owed amounts are summed and disbursed with a single mint at
// the end of the batch. On unstake a fair coin decides whether the entire
// owed amount is diverted to the alien pool instead of paid out.
func (l *Ledger) ClaimMany(caller gametoken.Address, itemIDs []uint64, unstake bool) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireConfigured(); err != nil {
		return nil, err
	}
	if l.paused {
		return nil, errPaused
	}

	now := l.nowFn()
	l.accrueGlobal(now)

	targets := make([]claimTarget, 0, len(itemIDs))
	seen := make(map[uint64]struct{}, len(itemIDs))
	for _, itemID := range itemIDs {
		if _, dup := seen[itemID]; dup {
			return nil, fmt.Errorf("staking: item %d repeated in batch: %w", itemID, coreerrors.ErrStateConflict)
		}
		seen[itemID] = struct{}{}
		entry, isMarine, err := l.lookup(itemID)
		if err != nil {
			return nil, err
		}
		if entry.Owner != caller {
			return nil, fmt.Errorf("staking: item %d not staked by %s: %w", itemID, caller.Hex(), coreerrors.ErrPreconditionFailed)
		}
		if unstake {
			lockRef := entry.StakedAt
			if isMarine {
				lockRef = entry.Checkpoint.Int64()
			}
			if now-lockRef < l.params.MinimumHold {
				return nil, fmt.Errorf("item %d: %w", itemID, ErrStillLocked)
			}
		}
		targets = append(targets, claimTarget{entry: entry, isMarine: isMarine})
	}

	totalPaid := big.NewInt(0)
	returned := make([]uint64, 0, len(targets))
	for _, t := range targets {
		var paid, diverted *big.Int
		if t.isMarine {
			paid, diverted = l.settleMarine(t.entry, now, unstake)
		} else {
			paid, diverted = l.settleAlien(t.entry, unstake)
		}
		if unstake {
			returned = append(returned, t.entry.ItemID)
		}
		totalPaid.Add(totalPaid, paid)
		l.emit(events.ClaimSettled{
			Owner:    caller,
			ItemID:   t.entry.ItemID,
			Unstaked: unstake,
			Paid:     paid,
			Diverted: diverted,
		})
	}

	// External calls last: items leave custody and the batch total is minted
	// only after every pool mutation has landed.
	for _, itemID := range returned {
		if err := l.registry.TransferFrom(l.custody, caller, itemID); err != nil {
			return nil, fmt.Errorf("staking: return item %d: %w", itemID, err)
		}
	}
	if totalPaid.Sign() > 0 {
		if err := l.rewards.MintReward(caller, totalPaid); err != nil {
			return nil, fmt.Errorf("staking: disburse claim: %w", err)
		}
	}
	return totalPaid, nil
}

// settleMarine resolves one marine entry. Claim-without-unstake routes the
// claim tax to the alien pool and restarts the clock; unstake flips a coin
// for the steal-everything outcome and deletes the entry.
func (l *Ledger) settleMarine(entry *StakeEntry, now int64, unstake bool) (paid, diverted *big.Int) {
	owed := l.marineOwed(entry, now)
	paid = big.NewInt(0)
	diverted = big.NewInt(0)
	if unstake {
		delete(l.marines, entry.ItemID)
		if l.random.Random()&1 == 1 {
			l.accrual.Distribute(owed, l.aliens.TotalRankWeight())
			diverted = owed
		} else {
			paid = owed
		}
		return paid, diverted
	}
	tax := new(big.Int).Mul(owed, new(big.Int).SetUint64(l.params.ClaimTaxBps))
	tax.Quo(tax, big.NewInt(TaxBpsDenominator))
	l.accrual.Distribute(tax, l.aliens.TotalRankWeight())
	paid = new(big.Int).Sub(owed, tax)
	diverted = tax
	entry.Checkpoint = big.NewInt(now)
	return paid, diverted
}

// settleAlien resolves one alien entry. The unstake steal diverts the owed
// amount back into the same rank-weighted accumulator it was paid from (after
// the entry has left the pool), mirroring the reference economy's asymmetric
// tax routing.
func (l *Ledger) settleAlien(entry *StakeEntry, unstake bool) (paid, diverted *big.Int) {
	owed := l.accrual.Settle(entry.Rank, entry.Checkpoint)
	paid = big.NewInt(0)
	diverted = big.NewInt(0)
	if unstake {
		// Remove first so the unstaker does not share in their own forfeit.
		if _, err := l.aliens.Remove(entry.Rank, entry.ItemID); err == nil {
			if l.random.Random()&1 == 1 {
				l.accrual.Distribute(owed, l.aliens.TotalRankWeight())
				diverted = owed
			} else {
				paid = owed
			}
		}
		return paid, diverted
	}
	paid = owed
	entry.Checkpoint = l.accrual.PerUnit()
	return paid, diverted
}

// Rescue returns the caller's items without any accrual, tax or coin flip.
// It is the emergency escape hatch and deliberately avoids the randomness
// collaborator entirely; only the rescue flag and ownership are checked.
func (l *Ledger) Rescue(caller gametoken.Address, itemIDs []uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.rescueMode {
		return errRescueOff
	}
	if l.registry == nil || l.traits == nil {
		return errNotConfigured
	}

	targets := make([]claimTarget, 0, len(itemIDs))
	seen := make(map[uint64]struct{}, len(itemIDs))
	for _, itemID := range itemIDs {
		if _, dup := seen[itemID]; dup {
			return fmt.Errorf("staking: item %d repeated in batch: %w", itemID, coreerrors.ErrStateConflict)
		}
		seen[itemID] = struct{}{}
		entry, isMarine, err := l.lookup(itemID)
		if err != nil {
			return err
		}
		if entry.Owner != caller {
			return fmt.Errorf("staking: item %d not staked by %s: %w", itemID, caller.Hex(), coreerrors.ErrPreconditionFailed)
		}
		targets = append(targets, claimTarget{entry: entry, isMarine: isMarine})
	}

	for _, t := range targets {
		if t.isMarine {
			delete(l.marines, t.entry.ItemID)
		} else {
			_, _ = l.aliens.Remove(t.entry.Rank, t.entry.ItemID)
		}
		l.emit(events.Rescued{Owner: caller, ItemID: t.entry.ItemID})
	}
	for _, t := range targets {
		if err := l.registry.TransferFrom(l.custody, caller, t.entry.ItemID); err != nil {
			return fmt.Errorf("staking: rescue item %d: %w", t.entry.ItemID, err)
		}
	}
	return nil
}

// lookup finds the staked entry for an item in either pool.
func (l *Ledger) lookup(itemID uint64) (*StakeEntry, bool, error) {
	if entry, ok := l.marines[itemID]; ok {
		return entry, true, nil
	}
	if l.aliens.Contains(itemID) {
		isMarine, rank, err := l.classify(itemID)
		if err != nil {
			return nil, false, err
		}
		if !isMarine {
			if entry, ok := l.aliens.Entry(rank, itemID); ok {
				return entry, false, nil
			}
		}
	}
	return nil, false, fmt.Errorf("staking: item %d not staked: %w", itemID, coreerrors.ErrNotFound)
}

// SampleAlienOwner exposes rank-weighted owner sampling to the minter's
// theft mechanic.
func (l *Ledger) SampleAlienOwner(seed uint64) (gametoken.Address, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aliens.SampleWeightedOwner(seed)
}

// Position returns the view of a staked item, including its pending reward
// computed against the current clock without mutating accrual state.
func (l *Ledger) Position(itemID uint64) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireConfigured(); err != nil {
		return Position{}, err
	}
	entry, isMarine, err := l.lookup(itemID)
	if err != nil {
		return Position{}, err
	}
	pending := l.accrual.Settle(entry.Rank, entry.Checkpoint)
	if isMarine {
		pending = l.marineOwed(entry, l.nowFn())
	}
	return Position{
		Owner:    entry.Owner,
		ItemID:   entry.ItemID,
		IsMarine: isMarine,
		Rank:     entry.Rank,
		StakedAt: entry.StakedAt,
		Pending:  pending,
	}, nil
}

// Stats returns an operator summary of the ledger.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		StakedMarines:   len(l.marines),
		StakedAliens:    l.aliens.Size(),
		TotalRankWeight: l.aliens.TotalRankWeight(),
		TotalEmitted:    new(big.Int).Set(l.totalEmitted),
		PerUnit:         l.accrual.PerUnit(),
		Unaccounted:     l.accrual.Unaccounted(),
		Paused:          l.paused,
		RescueMode:      l.rescueMode,
	}
}
