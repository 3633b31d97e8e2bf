package revshare

import "fmt"

// ValidateState checks a registry snapshot against the registry invariants:
// non-null unique recipients, every share in (0, MaxShares], and a total that
// equals the sum of shares without exceeding MaxShares.
func ValidateState(state *RegistryState) error {
	if state == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidRegistryData)
	}

	seen := make(map[Address]struct{}, len(state.Entries))
	var sum uint64
	for i, e := range state.Entries {
		if e.Address.IsZero() {
			return fmt.Errorf("entry %d: %w", i, ErrInvalidRecipient)
		}
		if _, dup := seen[e.Address]; dup {
			return fmt.Errorf("entry %d: %w: %s", i, ErrDuplicateRecipient, e.Address)
		}
		seen[e.Address] = struct{}{}
		if e.Share == 0 || e.Share > MaxShares {
			return fmt.Errorf("entry %d: %w: %d", i, ErrInvalidShare, e.Share)
		}
		sum += e.Share
	}

	if sum != state.TotalShares {
		return fmt.Errorf("%w: entries sum to %d, total is %d", ErrShareConservationViolation, sum, state.TotalShares)
	}
	if sum > MaxShares {
		return fmt.Errorf("%w: total %d", ErrShareCapExceeded, sum)
	}
	return nil
}
