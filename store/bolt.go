package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/revshare"
)

var (
	bucketMeta     = []byte("meta")
	bucketRegistry = []byte("registry")
	bucketTotals   = []byte("totals")
	bucketReleased = []byte("released")

	keyOwner = []byte("owner")
	keyState = []byte("state")
)

// BoltStore persists State in a bbolt database.
//
// Layout:
//
//	meta/owner                  20-byte owner address
//	registry/state              SerializeRegistry snapshot
//	totals/<asset>              8-byte big-endian total released
//	released/<asset>\x00<addr>  8-byte big-endian released to addr
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenTimeout bounds how long OpenBoltStore waits for another process
// holding the database file.
const OpenTimeout = 5 * time.Second

// OpenBoltStore opens or creates the database at dbPath, creating the
// parent directory if needed.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketRegistry, bucketTotals, bucketReleased} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Load reads the stored state. It returns ErrNotInitialized if Save was
// never called on this database.
func (s *BoltStore) Load() (*State, error) {
	st := &State{Ledger: &ledger.State{Totals: make(map[ledger.AssetID]uint64)}}

	err := s.db.View(func(tx *bbolt.Tx) error {
		owner := tx.Bucket(bucketMeta).Get(keyOwner)
		if owner == nil {
			return ErrNotInitialized
		}
		if len(owner) != revshare.AddressSize {
			return fmt.Errorf("%w: owner is %d bytes", ErrCorrupt, len(owner))
		}
		copy(st.Owner[:], owner)

		reg, err := revshare.DeserializeRegistry(tx.Bucket(bucketRegistry).Get(keyState))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		st.Registry = reg

		err = tx.Bucket(bucketTotals).ForEach(func(k, v []byte) error {
			n, err := decodeAmount(v)
			if err != nil {
				return err
			}
			st.Ledger.Totals[ledger.AssetID(k)] = n
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketReleased).ForEach(func(k, v []byte) error {
			asset, id, err := splitReleasedKey(k)
			if err != nil {
				return err
			}
			n, err := decodeAmount(v)
			if err != nil {
				return err
			}
			st.Ledger.Entries = append(st.Ledger.Entries, ledger.Entry{Asset: asset, Recipient: id, Released: n})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Save replaces the stored state in a single transaction.
func (s *BoltStore) Save(st *State) error {
	if st == nil || st.Registry == nil || st.Ledger == nil {
		return ErrNilParam
	}
	regData, err := revshare.SerializeRegistry(st.Registry)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketMeta).Put(keyOwner, st.Owner[:]); err != nil {
			return fmt.Errorf("store: put owner: %w", err)
		}
		if err := tx.Bucket(bucketRegistry).Put(keyState, regData); err != nil {
			return fmt.Errorf("store: put registry: %w", err)
		}

		// Counters only grow and are never deleted, so overwriting is enough.
		totals := tx.Bucket(bucketTotals)
		for asset, total := range st.Ledger.Totals {
			if err := totals.Put([]byte(asset), encodeAmount(total)); err != nil {
				return fmt.Errorf("store: put total %s: %w", asset, err)
			}
		}
		released := tx.Bucket(bucketReleased)
		for _, e := range st.Ledger.Entries {
			if err := released.Put(releasedKey(e.Asset, e.Recipient), encodeAmount(e.Released)); err != nil {
				return fmt.Errorf("store: put released %s/%s: %w", e.Asset, e.Recipient, err)
			}
		}
		return nil
	})
}

func encodeAmount(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func decodeAmount(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: amount is %d bytes", ErrCorrupt, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// releasedKey is asset || 0x00 || address. AssetIDs never contain NUL.
func releasedKey(asset ledger.AssetID, id revshare.Address) []byte {
	k := make([]byte, 0, len(asset)+1+revshare.AddressSize)
	k = append(k, asset...)
	k = append(k, 0)
	return append(k, id[:]...)
}

func splitReleasedKey(k []byte) (ledger.AssetID, revshare.Address, error) {
	var id revshare.Address
	i := bytes.IndexByte(k, 0)
	if i <= 0 || len(k)-i-1 != revshare.AddressSize {
		return "", id, fmt.Errorf("%w: released key %x", ErrCorrupt, k)
	}
	copy(id[:], k[i+1:])
	return ledger.AssetID(k[:i]), id, nil
}
