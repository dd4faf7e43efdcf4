package minting

import (
	"encoding/binary"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	coreerrors "xenochain/core/errors"
	"xenochain/core/events"
	"xenochain/native/gametoken"
)

var (
	errIntakeClosed  = fmt.Errorf("minting: commit intake closed: %w", coreerrors.ErrPreconditionFailed)
	errNotConfigured = fmt.Errorf("minting: collaborators not configured: %w", coreerrors.ErrPreconditionFailed)
	errSeedMissing   = fmt.Errorf("minting: slot seed not bound yet: %w", coreerrors.ErrStateConflict)
	errSeedZero      = fmt.Errorf("minting: seed must be non-zero: %w", coreerrors.ErrPreconditionFailed)
)

// MintCommit is one outstanding mint request, bound to the slot that was open
// when it was made.
type MintCommit struct {
	Slot      uint64
	Count     uint16
	AutoStake bool
}

// StakeSink is the slice of the staking ledger the minter drives: auto-stake
// handoff and rank-weighted theft targeting.
type StakeSink interface {
	StakeMany(caller, owner gametoken.Address, itemIDs []uint64) (int, error)
	SampleAlienOwner(seed uint64) (gametoken.Address, bool)
}

// Engine is the commit-reveal mint pipeline. Commits queue against the
// currently open slot; an oracle later seals the slot with a random seed, and
// reveals derive per-unit outcomes from that seed only then, so nothing about
// traits or theft is predictable at commit time.
type Engine struct {
	mu     sync.Mutex
	params Params

	registry gametoken.ItemRegistry
	rewards  gametoken.RewardLedger
	traits   gametoken.TraitWriter
	stakers  StakeSink
	insurer  gametoken.TheftInsurer
	emitter  events.Emitter

	self    gametoken.Address
	custody gametoken.Address
	admin   gametoken.Address
	oracle  gametoken.Address

	commits      map[gametoken.Address]*MintCommit
	seeds        map[uint64][32]byte
	openSlot     uint64
	mintedCount  uint64
	pendingCount uint64
	intakeOpen   bool

	gen *traitGenerator
}

// NewEngine creates a minter with default trait tables and a no-op emitter.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("minting: invalid params: %w", err)
	}
	return &Engine{
		params:     params,
		emitter:    events.NoopEmitter{},
		commits:    make(map[gametoken.Address]*MintCommit),
		seeds:      make(map[uint64][32]byte),
		openSlot:   1,
		intakeOpen: true,
		gen:        newTraitGenerator(nil),
	}, nil
}

// SetCollaborators wires the external contracts the minter depends on.
func (e *Engine) SetCollaborators(registry gametoken.ItemRegistry, rewards gametoken.RewardLedger, traits gametoken.TraitWriter, stakers StakeSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry = registry
	e.rewards = rewards
	e.traits = traits
	e.stakers = stakers
}

// SetInsurer wires the optional theft-insurance hook.
func (e *Engine) SetInsurer(insurer gametoken.TheftInsurer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.insurer = insurer
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetIdentities configures the minter's own identity (trusted by the staking
// ledger), the custody account auto-staked items are minted into, the admin
// and the seed oracle.
func (e *Engine) SetIdentities(self, custody, admin, oracle gametoken.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.self = self
	e.custody = custody
	e.admin = admin
	e.oracle = oracle
}

// SetTraitSet replaces the rarity tables. Intended for wiring at startup.
func (e *Engine) SetTraitSet(set *TraitSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen = newTraitGenerator(set)
}

// SetIntakeOpen toggles whether new commits are accepted. Admin only.
func (e *Engine) SetIntakeOpen(caller gametoken.Address, open bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.intakeOpen = open
	return nil
}

func (e *Engine) requireAdmin(caller gametoken.Address) error {
	if e.admin.IsZero() || caller != e.admin {
		return fmt.Errorf("minting: caller %s is not admin: %w", caller.Hex(), coreerrors.ErrUnauthorized)
	}
	return nil
}

func (e *Engine) requireConfigured() error {
	if e.registry == nil || e.rewards == nil || e.traits == nil || e.stakers == nil {
		return errNotConfigured
	}
	return nil
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(evt)
	}
}

// Commit queues a mint request of count units for the requester against the
// currently open slot. The tiered cost is burnt up front and is not refunded
// by a later force-clear.
func (e *Engine) Commit(requester gametoken.Address, count uint16, autoStake bool) (*MintCommit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireConfigured(); err != nil {
		return nil, err
	}
	if !e.intakeOpen {
		return nil, errIntakeClosed
	}
	if _, exists := e.commits[requester]; exists {
		return nil, fmt.Errorf("minting: %s already has a pending commit: %w", requester.Hex(), coreerrors.ErrStateConflict)
	}
	if count == 0 || count > e.params.MaxPerCommit {
		return nil, fmt.Errorf("minting: count %d outside 1..%d: %w", count, e.params.MaxPerCommit, coreerrors.ErrCapacityExceeded)
	}
	reserved := e.mintedCount + e.pendingCount
	if reserved+uint64(count) > e.params.MaxSupply {
		return nil, fmt.Errorf("minting: supply ceiling %d reached: %w", e.params.MaxSupply, coreerrors.ErrCapacityExceeded)
	}

	cost := e.params.costFor(reserved, count)
	if cost.Sign() > 0 {
		if err := e.rewards.BurnReward(requester, cost); err != nil {
			return nil, fmt.Errorf("minting: burn commit cost: %w", err)
		}
	}

	commit := &MintCommit{Slot: e.openSlot, Count: count, AutoStake: autoStake}
	e.commits[requester] = commit
	e.pendingCount += uint64(count)
	e.emit(events.MintCommitted{
		Requester: requester,
		Slot:      commit.Slot,
		Count:     count,
		AutoStake: autoStake,
		Cost:      cost,
	})
	return commit, nil
}

// BindSeed seals the currently open slot with the oracle's seed and opens the
// next slot. Every commit queued against the sealed slot becomes revealable;
// a slot's seed is immutable once bound.
func (e *Engine) BindSeed(caller gametoken.Address, seed [32]byte) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.oracle.IsZero() || caller != e.oracle {
		return 0, fmt.Errorf("minting: caller %s is not the seed oracle: %w", caller.Hex(), coreerrors.ErrUnauthorized)
	}
	if seed == ([32]byte{}) {
		return 0, errSeedZero
	}
	slot := e.openSlot
	e.seeds[slot] = seed
	e.openSlot++
	e.emit(events.SeedBound{Slot: slot})
	return slot, nil
}

// RevealResult summarises one resolved commit.
type RevealResult struct {
	ItemIDs []uint64
	Stolen  int
}

// Reveal resolves the requester's pending commit.
func (e *Engine) Reveal(requester gametoken.Address) (*RevealResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revealLocked(requester)
}

// ForceReveal resolves a commit on behalf of its requester. Admin only.
func (e *Engine) ForceReveal(caller, requester gametoken.Address) (*RevealResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	return e.revealLocked(requester)
}

type revealedUnit struct {
	itemID    uint64
	recipient gametoken.Address
	stolen    bool
	toCustody bool
	record    gametoken.TraitRecord
	print     [32]byte
}

func (e *Engine) revealLocked(requester gametoken.Address) (*RevealResult, error) {
	if err := e.requireConfigured(); err != nil {
		return nil, err
	}
	commit, ok := e.commits[requester]
	if !ok {
		return nil, fmt.Errorf("minting: no pending commit for %s: %w", requester.Hex(), coreerrors.ErrNotFound)
	}
	seed, bound := e.seeds[commit.Slot]
	if !bound || seed == ([32]byte{}) {
		return nil, fmt.Errorf("slot %d: %w", commit.Slot, errSeedMissing)
	}

	// Derive every unit before touching durable state so a trait-space
	// failure aborts the reveal cleanly.
	running := seed
	nextID := e.mintedCount
	units := make([]revealedUnit, 0, commit.Count)
	batch := make(map[[32]byte]bool, commit.Count)
	for i := uint16(0); i < commit.Count; i++ {
		nextID++
		running = deriveUnitSeed(running, requester, nextID)
		recipient, stolen := e.selectRecipient(running, requester)
		record, print, err := e.gen.derive(running, nextID, batch)
		if err != nil {
			return nil, err
		}
		batch[print] = true
		units = append(units, revealedUnit{
			itemID:    nextID,
			recipient: recipient,
			stolen:    stolen,
			toCustody: commit.AutoStake && !stolen,
			record:    record,
			print:     print,
		})
	}

	// Internal bookkeeping lands before any mint leaves the engine.
	e.mintedCount = nextID
	e.pendingCount -= uint64(commit.Count)
	delete(e.commits, requester)
	for _, unit := range units {
		e.gen.commit(unit.print, unit.itemID)
	}

	for _, unit := range units {
		if err := e.traits.SetTraits(unit.itemID, unit.record); err != nil {
			return nil, fmt.Errorf("minting: record traits for item %d: %w", unit.itemID, err)
		}
	}

	// The stake handoff runs before any item is minted so a rejection (the
	// ledger may be paused) degrades to direct delivery instead of stranding
	// units in custody.
	if commit.AutoStake {
		autoIDs := make([]uint64, len(units))
		staked := false
		for i, unit := range units {
			if unit.toCustody {
				autoIDs[i] = unit.itemID
				staked = true
			}
		}
		// Stolen slots stay as zero markers; the ledger skips them.
		if staked {
			if _, err := e.stakers.StakeMany(e.self, requester, autoIDs); err != nil {
				for i := range units {
					units[i].toCustody = false
				}
			}
		}
	}

	result := &RevealResult{ItemIDs: make([]uint64, 0, len(units))}
	for _, unit := range units {
		target := unit.recipient
		if unit.toCustody {
			target = e.custody
		}
		if err := e.registry.MintItem(target, unit.itemID); err != nil {
			return nil, fmt.Errorf("minting: mint item %d: %w", unit.itemID, err)
		}
		result.ItemIDs = append(result.ItemIDs, unit.itemID)
		if unit.stolen {
			result.Stolen++
		}
		e.emit(events.MintRevealed{
			Requester: requester,
			Recipient: unit.recipient,
			ItemID:    unit.itemID,
			Stolen:    unit.stolen,
			AutoStake: unit.toCustody,
		})
	}
	return result, nil
}

// ForceClear drops a stuck commit without minting. The burnt cost stays
// burnt. Admin only.
func (e *Engine) ForceClear(caller, requester gametoken.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	commit, ok := e.commits[requester]
	if !ok {
		return fmt.Errorf("minting: no pending commit for %s: %w", requester.Hex(), coreerrors.ErrNotFound)
	}
	e.pendingCount -= uint64(commit.Count)
	delete(e.commits, requester)
	e.emit(events.CommitCleared{Requester: requester, Slot: commit.Slot, Count: commit.Count})
	return nil
}

// PendingCommit returns the requester's outstanding commit, if any, together
// with whether its slot seed is already bound.
func (e *Engine) PendingCommit(requester gametoken.Address) (MintCommit, bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	commit, ok := e.commits[requester]
	if !ok {
		return MintCommit{}, false, false
	}
	seed, bound := e.seeds[commit.Slot]
	return *commit, true, bound && seed != ([32]byte{})
}

// Minted returns the number of revealed items.
func (e *Engine) Minted() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mintedCount
}

// OpenSlot returns the slot new commits currently land in.
func (e *Engine) OpenSlot() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openSlot
}

// deriveUnitSeed advances the running seed for one unit by hashing in the
// requester identity and item id, so two requesters sharing a slot seed and
// two units of one commit all see distinct outcomes.
func deriveUnitSeed(running [32]byte, requester gametoken.Address, itemID uint64) [32]byte {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], itemID)
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(running[:], requester[:], id[:]))
	return out
}
