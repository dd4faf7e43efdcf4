package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeComponent is a Snapshotter whose state is one byte slice.
type fakeComponent struct {
	state   []byte
	snapErr error
}

func (f *fakeComponent) Snapshot() ([]byte, error) {
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return append([]byte(nil), f.state...), nil
}

func (f *fakeComponent) Restore(data []byte) error {
	f.state = append([]byte(nil), data...)
	return nil
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte("original")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'X'

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)

	ok, err := db.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = db.Has([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = db.Get([]byte("missing"))
	require.Error(t, err)
}

func TestSaveLoadSnapshotRoundTrip(t *testing.T) {
	db := NewMemDB()
	source := &fakeComponent{state: []byte(`{"minted":42}`)}
	require.NoError(t, SaveSnapshot(db, KeyMintingSnapshot, source))

	target := &fakeComponent{}
	require.NoError(t, LoadSnapshot(db, KeyMintingSnapshot, target))
	require.Equal(t, source.state, target.state)
}

func TestLoadSnapshotMissingKeyIsNoop(t *testing.T) {
	db := NewMemDB()
	target := &fakeComponent{state: []byte("initial")}
	require.NoError(t, LoadSnapshot(db, KeyStakingSnapshot, target))
	require.Equal(t, []byte("initial"), target.state)
}

func TestSaveSnapshotPropagatesComponentError(t *testing.T) {
	db := NewMemDB()
	broken := &fakeComponent{snapErr: errors.New("torn state")}
	err := SaveSnapshot(db, KeyStakingSnapshot, broken)
	require.Error(t, err)
	require.ErrorContains(t, err, "torn state")
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, db1.Put([]byte("k"), []byte("v")))
	db1.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}
