// Package auth decides who may change the revenue split.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bitfsorg/revsplit/revshare"
)

// ErrUnauthorized indicates the caller may not perform a mutating operation.
var ErrUnauthorized = errors.New("auth: caller is not authorized")

// Guard authorizes callers of mutating operations.
type Guard interface {
	Authorize(caller revshare.Address) error
}

// Ownable is a Guard with a single transferable owner.
type Ownable interface {
	Guard
	Owner() revshare.Address
	SetOwner(owner revshare.Address) error
}

// OwnerGuard admits exactly one owner address.
type OwnerGuard struct {
	mu    sync.RWMutex
	owner revshare.Address
}

// Compile-time interface check.
var _ Ownable = (*OwnerGuard)(nil)

// NewOwnerGuard creates a guard for owner, which must not be null.
func NewOwnerGuard(owner revshare.Address) (*OwnerGuard, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: null owner", revshare.ErrInvalidRecipient)
	}
	return &OwnerGuard{owner: owner}, nil
}

// Authorize admits only the current owner. The null address is never admitted.
func (g *OwnerGuard) Authorize(caller revshare.Address) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if caller.IsZero() || caller != g.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

// Owner returns the current owner.
func (g *OwnerGuard) Owner() revshare.Address {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.owner
}

// SetOwner replaces the owner.
func (g *OwnerGuard) SetOwner(owner revshare.Address) error {
	if owner.IsZero() {
		return fmt.Errorf("%w: null owner", revshare.ErrInvalidRecipient)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owner = owner
	return nil
}

// AllowAll admits every caller. It suits single-operator tools where
// access is already controlled by who can run the process.
type AllowAll struct{}

// Authorize always succeeds.
func (AllowAll) Authorize(revshare.Address) error { return nil }
