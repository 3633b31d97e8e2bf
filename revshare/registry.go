package revshare

// Registry holds the current recipients and their shares.
//
// Entries live in one slice that defines iteration order, with an index from
// address to slice position. Remove swaps the last entry into the vacated
// slot, so order is not stable across removals.
//
// A Registry is not safe for concurrent use; callers serialize access.
type Registry struct {
	entries     []RevShareEntry
	index       map[Address]int
	totalShares uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[Address]int)}
}

// NewRegistryFromState builds a registry from a validated snapshot.
func NewRegistryFromState(state *RegistryState) (*Registry, error) {
	r := NewRegistry()
	if err := r.Restore(state); err != nil {
		return nil, err
	}
	return r, nil
}

// AddOrUpdate sets the share for id. It reports added=true when id was not
// previously a member. Updates keep the entry's position.
func (r *Registry) AddOrUpdate(id Address, share uint64) (added bool, err error) {
	if id.IsZero() {
		return false, ErrInvalidRecipient
	}
	if share == 0 || share > MaxShares {
		return false, ErrInvalidShare
	}

	if i, ok := r.index[id]; ok {
		newTotal := r.totalShares - r.entries[i].Share + share
		if newTotal > MaxShares {
			return false, ErrShareCapExceeded
		}
		r.entries[i].Share = share
		r.totalShares = newTotal
		return false, nil
	}

	if r.totalShares+share > MaxShares {
		return false, ErrShareCapExceeded
	}
	r.index[id] = len(r.entries)
	r.entries = append(r.entries, RevShareEntry{Address: id, Share: share})
	r.totalShares += share
	return true, nil
}

// Remove deletes id and returns the share it held.
func (r *Registry) Remove(id Address) (uint64, error) {
	i, ok := r.index[id]
	if !ok {
		return 0, ErrNotRegistered
	}
	share := r.entries[i].Share

	last := len(r.entries) - 1
	if i != last {
		r.entries[i] = r.entries[last]
		r.index[r.entries[i].Address] = i
	}
	r.entries[last] = RevShareEntry{}
	r.entries = r.entries[:last]
	delete(r.index, id)
	r.totalShares -= share
	return share, nil
}

// ShareOf returns the share held by id, or 0 for non-members.
func (r *Registry) ShareOf(id Address) uint64 {
	if i, ok := r.index[id]; ok {
		return r.entries[i].Share
	}
	return 0
}

// IsMember reports whether id is a current recipient.
func (r *Registry) IsMember(id Address) bool {
	_, ok := r.index[id]
	return ok
}

// TotalShares returns the sum of all active shares.
func (r *Registry) TotalShares() uint64 { return r.totalShares }

// Len returns the number of recipients.
func (r *Registry) Len() int { return len(r.entries) }

// Members returns the recipient addresses in current iteration order.
func (r *Registry) Members() []Address {
	out := make([]Address, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Address
	}
	return out
}

// State returns a copy of the registry contents.
func (r *Registry) State() *RegistryState {
	entries := make([]RevShareEntry, len(r.entries))
	copy(entries, r.entries)
	return &RegistryState{TotalShares: r.totalShares, Entries: entries}
}

// Restore replaces the registry contents with state after validating it.
// On error the registry is left unchanged.
func (r *Registry) Restore(state *RegistryState) error {
	if err := ValidateState(state); err != nil {
		return err
	}
	entries := make([]RevShareEntry, len(state.Entries))
	copy(entries, state.Entries)
	index := make(map[Address]int, len(entries))
	for i, e := range entries {
		index[e.Address] = i
	}
	r.entries = entries
	r.index = index
	r.totalShares = state.TotalShares
	return nil
}
