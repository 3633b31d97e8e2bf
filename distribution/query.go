package distribution

import (
	"context"
	"fmt"
	"math/bits"
	"sort"

	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/revshare"
)

// ShareOf returns id's share, or 0 for non-members.
func (e *Engine) ShareOf(id revshare.Address) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.ShareOf(id)
}

// IsMember reports whether id is registered.
func (e *Engine) IsMember(id revshare.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.IsMember(id)
}

// TotalShares returns the sum of all registered shares.
func (e *Engine) TotalShares() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.TotalShares()
}

// Members returns the registered recipients in payout order.
func (e *Engine) Members() []revshare.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Members()
}

// Recipients returns every registered recipient with its share, in payout order.
func (e *Engine) Recipients() []revshare.RevShareEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.State().Entries
}

// Owner returns the current owner, or the null address if the guard has none.
func (e *Engine) Owner() revshare.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ownerLocked()
}

// Assets returns the registered asset IDs, sorted.
func (e *Engine) Assets() []ledger.AssetID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ledger.AssetID, 0, len(e.gateways))
	for id := range e.gateways {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AssetBalance returns the balance currently held for asset id.
func (e *Engine) AssetBalance(ctx context.Context, id ledger.AssetID) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	gw, err := e.gatewayLocked(id)
	if err != nil {
		return 0, err
	}
	return gw.Balance(ctx)
}

// TotalReleased returns the cumulative native amount paid out.
func (e *Engine) TotalReleased() uint64 {
	return e.TotalReleasedFor(ledger.NativeAsset)
}

// TotalReleasedFor returns the cumulative amount of asset id paid out.
func (e *Engine) TotalReleasedFor(id ledger.AssetID) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.TotalReleased(id)
}

// Released returns the cumulative amount of asset id paid to recipient.
func (e *Engine) Released(id ledger.AssetID, recipient revshare.Address) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Released(id, recipient)
}

// Pending returns what recipient would receive if asset id were distributed
// now. An empty registry has nothing pending.
func (e *Engine) Pending(ctx context.Context, id ledger.AssetID, recipient revshare.Address) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	gw, err := e.gatewayLocked(id)
	if err != nil {
		return 0, err
	}
	if e.registry.TotalShares() == 0 {
		return 0, nil
	}
	balance, err := gw.Balance(ctx)
	if err != nil {
		return 0, fmt.Errorf("distribution: %s balance: %w", id, err)
	}
	received, carry := bits.Add64(balance, e.ledger.TotalReleased(id), 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: total received for %s overflows", ledger.ErrArithmeticFault, id)
	}
	return e.ledger.PendingPayment(recipient, received, e.ledger.Released(id, recipient))
}
