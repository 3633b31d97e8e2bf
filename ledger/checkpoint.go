package ledger

import (
	"fmt"
	"math/bits"

	"github.com/bitfsorg/revsplit/revshare"
)

// Checkpoint captures one asset's counters so a failed round can be undone.
type Checkpoint struct {
	asset    AssetID
	total    uint64
	released map[revshare.Address]uint64
}

// Checkpoint snapshots the counters of asset.
func (l *Ledger) Checkpoint(asset AssetID) *Checkpoint {
	cp := &Checkpoint{asset: asset, total: l.totalReleased[asset]}
	if m := l.released[asset]; m != nil {
		cp.released = make(map[revshare.Address]uint64, len(m))
		for k, v := range m {
			cp.released[k] = v
		}
	}
	return cp
}

// Revert restores the counters captured by cp.
func (l *Ledger) Revert(cp *Checkpoint) {
	if cp.released == nil {
		delete(l.released, cp.asset)
		delete(l.totalReleased, cp.asset)
		return
	}
	m := make(map[revshare.Address]uint64, len(cp.released))
	for k, v := range cp.released {
		m[k] = v
	}
	l.released[cp.asset] = m
	l.totalReleased[cp.asset] = cp.total
}

// Entry is one persisted (asset, recipient) counter.
type Entry struct {
	Asset     AssetID
	Recipient revshare.Address
	Released  uint64
}

// State is a serializable copy of the ledger.
type State struct {
	Totals  map[AssetID]uint64
	Entries []Entry
}

// Snapshot returns a copy of every counter. Entries are ordered by asset.
func (l *Ledger) Snapshot() *State {
	st := &State{Totals: make(map[AssetID]uint64, len(l.totalReleased))}
	for _, asset := range l.Assets() {
		st.Totals[asset] = l.totalReleased[asset]
		for id, v := range l.released[asset] {
			st.Entries = append(st.Entries, Entry{Asset: asset, Recipient: id, Released: v})
		}
	}
	return st
}

// Restore replaces every counter with the contents of st after checking
// that each asset total equals the sum of its entries.
func (l *Ledger) Restore(st *State) error {
	if st == nil {
		return fmt.Errorf("%w: nil state", ErrInconsistentState)
	}
	totals := make(map[AssetID]uint64, len(st.Totals))
	released := make(map[AssetID]map[revshare.Address]uint64)
	sums := make(map[AssetID]uint64)

	for _, e := range st.Entries {
		if err := e.Asset.Validate(); err != nil {
			return err
		}
		m := released[e.Asset]
		if m == nil {
			m = make(map[revshare.Address]uint64)
			released[e.Asset] = m
		}
		if _, dup := m[e.Recipient]; dup {
			return fmt.Errorf("%w: duplicate entry %s/%s", ErrInconsistentState, e.Asset, e.Recipient)
		}
		m[e.Recipient] = e.Released
		sum, carry := bits.Add64(sums[e.Asset], e.Released, 0)
		if carry != 0 {
			return fmt.Errorf("%w: %s entries overflow", ErrInconsistentState, e.Asset)
		}
		sums[e.Asset] = sum
	}
	for asset, total := range st.Totals {
		if err := asset.Validate(); err != nil {
			return err
		}
		if sums[asset] != total {
			return fmt.Errorf("%w: %s total %d, entries sum to %d", ErrInconsistentState, asset, total, sums[asset])
		}
		totals[asset] = total
	}
	for asset, sum := range sums {
		if _, ok := st.Totals[asset]; !ok {
			return fmt.Errorf("%w: %s has entries summing to %d but no total", ErrInconsistentState, asset, sum)
		}
	}

	l.totalReleased = totals
	l.released = released
	return nil
}
