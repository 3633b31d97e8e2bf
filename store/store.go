// Package store persists the splitter's state between runs.
package store

import (
	"errors"
	"sync"

	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/revshare"
)

var (
	// ErrNotInitialized indicates no state has been saved yet.
	ErrNotInitialized = errors.New("store: not initialized")

	// ErrCorrupt indicates stored state could not be decoded.
	ErrCorrupt = errors.New("store: corrupt state")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")
)

// State is everything the distribution engine needs to resume.
type State struct {
	Owner    revshare.Address
	Registry *revshare.RegistryState
	Ledger   *ledger.State
}

// Store loads and saves State. Save replaces the stored state as a whole.
type Store interface {
	Load() (*State, error)
	Save(st *State) error
	Close() error
}

// MemStore keeps state in memory. SaveErr, when set, makes Save fail.
type MemStore struct {
	mu    sync.Mutex
	state *State
	saves int

	SaveErr error
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore { return &MemStore{} }

// Load returns a copy of the last saved state.
func (s *MemStore) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNotInitialized
	}
	return cloneState(s.state), nil
}

// Save stores a copy of st.
func (s *MemStore) Save(st *State) error {
	if st == nil {
		return ErrNilParam
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.state = cloneState(st)
	s.saves++
	return nil
}

// Saves returns the number of successful saves.
func (s *MemStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Close is a no-op.
func (s *MemStore) Close() error { return nil }

func cloneState(st *State) *State {
	out := &State{Owner: st.Owner}
	if st.Registry != nil {
		out.Registry = &revshare.RegistryState{
			TotalShares: st.Registry.TotalShares,
			Entries:     append([]revshare.RevShareEntry(nil), st.Registry.Entries...),
		}
	}
	if st.Ledger != nil {
		out.Ledger = &ledger.State{
			Totals:  make(map[ledger.AssetID]uint64, len(st.Ledger.Totals)),
			Entries: append([]ledger.Entry(nil), st.Ledger.Entries...),
		}
		for k, v := range st.Ledger.Totals {
			out.Ledger.Totals[k] = v
		}
	}
	return out
}
