// Package asset adapts concrete asset-transfer primitives to the staged,
// commit-or-discard interface the distribution engine drives.
package asset

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfsorg/revsplit/revshare"
)

// Gateway gives access to the balance held for distribution and to transfers
// out of it.
type Gateway interface {
	// Balance returns the amount currently held for distribution.
	Balance(ctx context.Context) (uint64, error)

	// Stage opens a batch of transfers that take effect together on Commit.
	Stage(ctx context.Context) (Batch, error)
}

// Batch collects transfers for one payout round.
type Batch interface {
	// Transfer stages a payment. It fails if the payment could never be made.
	Transfer(to revshare.Address, amount uint64) error

	// Commit executes every staged payment and returns a reference for the
	// operation (a transaction ID for on-chain gateways). If it fails after
	// some payments were made, the error is a *PartialCommitError.
	Commit(ctx context.Context) (string, error)

	// Discard drops the staged payments. It is safe to call after Commit.
	Discard()
}

// Payment is one staged or executed transfer.
type Payment struct {
	To     revshare.Address
	Amount uint64
}

// PartialCommitError reports a commit that failed after executing a prefix
// of its payments. Applied lists the payments that did happen.
type PartialCommitError struct {
	Applied []Payment
	Err     error
}

func (e *PartialCommitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "asset: commit failed after %d payment(s)", len(e.Applied))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PartialCommitError) Unwrap() error { return e.Err }

// sumPayments returns the total staged amount, or false if it overflows.
func sumPayments(ps []Payment) (uint64, bool) {
	var total uint64
	for _, p := range ps {
		if total+p.Amount < total {
			return 0, false
		}
		total += p.Amount
	}
	return total, true
}
