// Package ledger tracks cumulative payouts per asset and per recipient and
// computes what each recipient is still owed.
//
// Entitlement is measured against everything an asset has ever received:
// the current balance plus everything already released. A recipient's
// pending payment is its proportional cut of that lifetime total minus what
// it has already been paid, so deposits may arrive at any time relative to
// payout rounds without anyone being paid twice.
package ledger

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/bitfsorg/revsplit/revshare"
)

// AssetID names an asset tracked by the ledger.
type AssetID string

// NativeAsset is the reserved identifier for the native transferable unit.
const NativeAsset AssetID = "native"

// Validate checks that id is usable as a ledger and storage key.
func (id AssetID) Validate() error {
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidAsset)
	}
	if strings.IndexByte(string(id), 0) >= 0 {
		return fmt.Errorf("%w: identifier contains NUL", ErrInvalidAsset)
	}
	return nil
}

// ShareSource exposes recipient shares. *revshare.Registry implements it.
type ShareSource interface {
	ShareOf(id revshare.Address) uint64
	TotalShares() uint64
}

// TransferFunc moves amount of an asset to a recipient. A non-nil error means
// nothing was moved.
type TransferFunc func(to revshare.Address, amount uint64) error

// Ledger holds released counters. It is not safe for concurrent use.
type Ledger struct {
	shares        ShareSource
	totalReleased map[AssetID]uint64
	released      map[AssetID]map[revshare.Address]uint64
}

// New creates an empty ledger that reads shares from shares.
func New(shares ShareSource) *Ledger {
	return &Ledger{
		shares:        shares,
		totalReleased: make(map[AssetID]uint64),
		released:      make(map[AssetID]map[revshare.Address]uint64),
	}
}

// PendingPayment returns floor(totalReceived * share / totalShares) minus
// alreadyReleased. An entitlement below alreadyReleased yields zero.
func (l *Ledger) PendingPayment(id revshare.Address, totalReceived, alreadyReleased uint64) (uint64, error) {
	total := l.shares.TotalShares()
	if total == 0 {
		return 0, fmt.Errorf("%w: total shares is zero", ErrArithmeticFault)
	}
	share := l.shares.ShareOf(id)

	// share <= total, so the quotient always fits and Div64 cannot panic.
	hi, lo := bits.Mul64(totalReceived, share)
	entitled, _ := bits.Div64(hi, lo, total)

	if entitled <= alreadyReleased {
		return 0, nil
	}
	return entitled - alreadyReleased, nil
}

// Release pays id its pending amount of asset given the asset's current
// balance. A zero pending amount is a no-op. Counters change only after
// transfer succeeds.
func (l *Ledger) Release(asset AssetID, id revshare.Address, balance uint64, transfer TransferFunc) (uint64, error) {
	totalReceived, carry := bits.Add64(balance, l.totalReleased[asset], 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: total received for %s overflows", ErrArithmeticFault, asset)
	}

	payment, err := l.PendingPayment(id, totalReceived, l.Released(asset, id))
	if err != nil {
		return 0, err
	}
	if payment == 0 {
		return 0, nil
	}

	if err := transfer(id, payment); err != nil {
		return 0, fmt.Errorf("%w: %d of %s to %s: %w", ErrTransferFailed, payment, asset, id, err)
	}
	l.credit(asset, id, payment)
	return payment, nil
}

// Credit records a payment made outside Release, such as one confirmed by an
// external system after the round that staged it was rolled back.
func (l *Ledger) Credit(asset AssetID, id revshare.Address, amount uint64) {
	if amount == 0 {
		return
	}
	l.credit(asset, id, amount)
}

func (l *Ledger) credit(asset AssetID, id revshare.Address, amount uint64) {
	m := l.released[asset]
	if m == nil {
		m = make(map[revshare.Address]uint64)
		l.released[asset] = m
	}
	m[id] += amount
	l.totalReleased[asset] += amount
}

// TotalReleased returns the cumulative amount paid out for asset.
func (l *Ledger) TotalReleased(asset AssetID) uint64 {
	return l.totalReleased[asset]
}

// Released returns the cumulative amount paid to id for asset.
func (l *Ledger) Released(asset AssetID, id revshare.Address) uint64 {
	return l.released[asset][id]
}

// Assets returns every asset with at least one recorded payment, sorted.
func (l *Ledger) Assets() []AssetID {
	out := make([]AssetID, 0, len(l.totalReleased))
	for a := range l.totalReleased {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
