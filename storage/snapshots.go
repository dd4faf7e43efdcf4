package storage

import "fmt"

// Keys under which the engine snapshots are persisted.
var (
	KeyStakingSnapshot = []byte("snapshot/staking")
	KeyMintingSnapshot = []byte("snapshot/minting")
)

// Snapshotter is anything that can round-trip its state as bytes. Both the
// staking ledger and the mint engine satisfy it.
type Snapshotter interface {
	Snapshot() ([]byte, error)
	Restore(data []byte) error
}

// SaveSnapshot serialises the component and writes it under key.
func SaveSnapshot(db Database, key []byte, component Snapshotter) error {
	data, err := component.Snapshot()
	if err != nil {
		return fmt.Errorf("storage: snapshot %s: %w", key, err)
	}
	if err := db.Put(key, data); err != nil {
		return fmt.Errorf("storage: persist %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot restores the component from key when present. A missing key is
// not an error; the component keeps its initial state.
func LoadSnapshot(db Database, key []byte, component Snapshotter) error {
	ok, err := db.Has(key)
	if err != nil {
		return fmt.Errorf("storage: probe %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	data, err := db.Get(key)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", key, err)
	}
	if err := component.Restore(data); err != nil {
		return fmt.Errorf("storage: restore %s: %w", key, err)
	}
	return nil
}
