package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/revshare"
)

func addr(b byte) revshare.Address {
	var a revshare.Address
	a[19] = b
	return a
}

func sampleState() *State {
	return &State{
		Owner: addr(0xee),
		Registry: &revshare.RegistryState{
			TotalShares: 100,
			Entries: []revshare.RevShareEntry{
				{Address: addr(1), Share: 40},
				{Address: addr(2), Share: 60},
			},
		},
		Ledger: &ledger.State{
			Totals: map[ledger.AssetID]uint64{ledger.NativeAsset: 1500, "usdt": 10},
			Entries: []ledger.Entry{
				{Asset: ledger.NativeAsset, Recipient: addr(1), Released: 600},
				{Asset: ledger.NativeAsset, Recipient: addr(2), Released: 900},
				{Asset: "usdt", Recipient: addr(2), Released: 10},
			},
		},
	}
}

func openTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sub", "state.db")
	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	return s, path
}

func TestBoltStoreEmpty(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestBoltStoreRoundTrip(t *testing.T) {
	s, path := openTestStore(t)
	want := sampleState()
	require.NoError(t, s.Save(want))
	require.NoError(t, s.Close())

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Owner, got.Owner)
	assert.Equal(t, want.Registry, got.Registry)
	assert.Equal(t, want.Ledger.Totals, got.Ledger.Totals)
	assert.ElementsMatch(t, want.Ledger.Entries, got.Ledger.Entries)

	l := ledger.New(revshare.NewRegistry())
	require.NoError(t, l.Restore(got.Ledger))
	assert.Equal(t, uint64(900), l.Released(ledger.NativeAsset, addr(2)))
}

func TestBoltStoreOverwrite(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	st := sampleState()
	require.NoError(t, s.Save(st))

	st.Owner = addr(0xdd)
	st.Registry = &revshare.RegistryState{TotalShares: 40, Entries: st.Registry.Entries[:1]}
	st.Ledger.Totals[ledger.NativeAsset] = 1600
	st.Ledger.Entries[0].Released = 700
	require.NoError(t, s.Save(st))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, addr(0xdd), got.Owner)
	assert.Len(t, got.Registry.Entries, 1)
	assert.Equal(t, uint64(1600), got.Ledger.Totals[ledger.NativeAsset])
	assert.Contains(t, got.Ledger.Entries, ledger.Entry{Asset: ledger.NativeAsset, Recipient: addr(1), Released: 700})
}

func TestBoltStoreSaveNil(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()
	assert.ErrorIs(t, s.Save(nil), ErrNilParam)
	assert.ErrorIs(t, s.Save(&State{}), ErrNilParam)
}

func TestBoltStoreCorrupt(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()
	require.NoError(t, s.Save(sampleState()))

	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTotals).Put([]byte("native"), []byte{1, 2, 3})
	}))
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestReleasedKey(t *testing.T) {
	k := releasedKey("usdt", addr(7))
	asset, id, err := splitReleasedKey(k)
	require.NoError(t, err)
	assert.Equal(t, ledger.AssetID("usdt"), asset)
	assert.Equal(t, addr(7), id)

	_, _, err = splitReleasedKey([]byte("no-separator"))
	assert.ErrorIs(t, err, ErrCorrupt)
	_, _, err = splitReleasedKey(append([]byte{0}, make([]byte, 20)...))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotInitialized)

	st := sampleState()
	require.NoError(t, s.Save(st))
	st.Registry.Entries[0].Share = 1 // must not leak into the stored copy

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(40), got.Registry.Entries[0].Share)
	assert.Equal(t, 1, s.Saves())

	s.SaveErr = errors.New("disk full")
	assert.Error(t, s.Save(st))
	assert.Equal(t, 1, s.Saves())
	assert.NoError(t, s.Close())
}
