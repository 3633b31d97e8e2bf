package asset

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/bitfsorg/revsplit/revshare"
)

// MemGateway is an in-memory Gateway. Commits are atomic: either every staged
// payment is applied or none is.
type MemGateway struct {
	mu       sync.Mutex
	balance  uint64
	credited map[revshare.Address]uint64
	commits  int

	// Reject, when set, is consulted for each payment at commit time. A
	// non-nil result fails the whole commit.
	Reject func(p Payment) error
}

// Compile-time interface check.
var _ Gateway = (*MemGateway)(nil)

// NewMemGateway creates a gateway holding balance.
func NewMemGateway(balance uint64) *MemGateway {
	return &MemGateway{balance: balance, credited: make(map[revshare.Address]uint64)}
}

// Deposit adds an inflow to the distributable balance.
func (g *MemGateway) Deposit(amount uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balance += amount
}

// Balance returns the distributable balance.
func (g *MemGateway) Balance(_ context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance, nil
}

// Credited returns the total paid to id through this gateway.
func (g *MemGateway) Credited(id revshare.Address) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.credited[id]
}

// Stage opens a new batch.
func (g *MemGateway) Stage(_ context.Context) (Batch, error) {
	return &memBatch{gw: g}, nil
}

type memBatch struct {
	gw       *MemGateway
	payments []Payment
	closed   bool
}

func (b *memBatch) Transfer(to revshare.Address, amount uint64) error {
	if b.closed {
		return ErrBatchClosed
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	b.payments = append(b.payments, Payment{To: to, Amount: amount})
	return nil
}

func (b *memBatch) Commit(_ context.Context) (string, error) {
	if b.closed {
		return "", ErrBatchClosed
	}
	b.closed = true

	g := b.gw
	g.mu.Lock()
	defer g.mu.Unlock()

	total, ok := sumPayments(b.payments)
	if !ok || total > g.balance {
		return "", fmt.Errorf("%w: staged %d, balance %d", ErrInsufficientBalance, total, g.balance)
	}
	if g.Reject != nil {
		for _, p := range b.payments {
			if err := g.Reject(p); err != nil {
				return "", fmt.Errorf("%w: %s: %w", ErrTransferRejected, p.To, err)
			}
		}
	}
	for _, p := range b.payments {
		g.credited[p.To] += p.Amount
	}
	g.balance -= total
	g.commits++
	return "mem-" + strconv.Itoa(g.commits), nil
}

func (b *memBatch) Discard() {
	b.closed = true
	b.payments = nil
}
