package gametoken

import (
	"fmt"
	"math/big"
	"sync"

	coreerrors "xenochain/core/errors"
)

// MemoryRegistry is an in-memory ItemRegistry used by tests and the daemon's
// standalone mode.
type MemoryRegistry struct {
	mu     sync.RWMutex
	owners map[uint64]Address
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{owners: make(map[uint64]Address)}
}

// OwnerOf returns the current owner of the item.
func (r *MemoryRegistry) OwnerOf(itemID uint64) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[itemID]
	if !ok {
		return ZeroAddress, fmt.Errorf("item %d: %w", itemID, coreerrors.ErrNotFound)
	}
	return owner, nil
}

// TransferFrom moves the item between accounts. The sender must be the
// current owner.
func (r *MemoryRegistry) TransferFrom(from, to Address, itemID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[itemID]
	if !ok {
		return fmt.Errorf("item %d: %w", itemID, coreerrors.ErrNotFound)
	}
	if owner != from {
		return fmt.Errorf("item %d not owned by %s: %w", itemID, from.Hex(), coreerrors.ErrUnauthorized)
	}
	r.owners[itemID] = to
	return nil
}

// MintItem creates the item owned by the recipient.
func (r *MemoryRegistry) MintItem(to Address, itemID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[itemID]; ok {
		return fmt.Errorf("item %d already minted: %w", itemID, coreerrors.ErrStateConflict)
	}
	r.owners[itemID] = to
	return nil
}

// MemoryLedger is an in-memory SCRAP balance ledger.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[Address]*big.Int
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[Address]*big.Int)}
}

// MintReward credits the account.
func (l *MemoryLedger) MintReward(to Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("mint amount must be non-negative: %w", coreerrors.ErrPreconditionFailed)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.balances[to]
	if !ok {
		bal = big.NewInt(0)
		l.balances[to] = bal
	}
	bal.Add(bal, amount)
	return nil
}

// BurnReward debits the account, failing when the balance is insufficient.
func (l *MemoryLedger) BurnReward(from Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("burn amount must be non-negative: %w", coreerrors.ErrPreconditionFailed)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.balances[from]
	if !ok || bal.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance for %s: %w", from.Hex(), coreerrors.ErrPreconditionFailed)
	}
	bal.Sub(bal, amount)
	return nil
}

// Balance returns a copy of the account balance.
func (l *MemoryLedger) Balance(addr Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// MemoryTraitStore keeps trait records in memory and serves both the reader
// and writer interfaces.
type MemoryTraitStore struct {
	mu      sync.RWMutex
	records map[uint64]TraitRecord
}

// NewMemoryTraitStore returns an empty store.
func NewMemoryTraitStore() *MemoryTraitStore {
	return &MemoryTraitStore{records: make(map[uint64]TraitRecord)}
}

// Traits returns the record for the item.
func (s *MemoryTraitStore) Traits(itemID uint64) (TraitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[itemID]
	if !ok {
		return TraitRecord{}, fmt.Errorf("traits for item %d: %w", itemID, coreerrors.ErrNotFound)
	}
	return record, nil
}

// SetTraits stores the record for the item.
func (s *MemoryTraitStore) SetTraits(itemID uint64, record TraitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[itemID] = record
	return nil
}

// SeededRandom is a deterministic RandomSource for tests and standalone runs.
// It uses an xorshift64* generator behind a mutex.
type SeededRandom struct {
	mu    sync.Mutex
	state uint64
}

// NewSeededRandom returns a generator seeded with the supplied value.
func NewSeededRandom(seed uint64) *SeededRandom {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &SeededRandom{state: seed}
}

// Random returns the next value in the sequence.
func (r *SeededRandom) Random() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * 0x2545f4914f6cdd1d
}
