package asset

import (
	"context"
	"fmt"

	"github.com/bitfsorg/revsplit/revshare"
)

// Token is a fungible, balance-queryable asset.
type Token interface {
	// BalanceOf returns the amount held by owner.
	BalanceOf(ctx context.Context, owner revshare.Address) (uint64, error)

	// Transfer moves amount from the distributor to to and reports success.
	Transfer(ctx context.Context, to revshare.Address, amount uint64) (bool, error)

	// Decimals returns the token's display precision.
	Decimals(ctx context.Context) (uint8, error)
}

// TokenGateway distributes a Token held by a single distributor address.
//
// A Token offers no multi-transfer primitive, so Commit performs transfers in
// order and reports any prefix that went through as a *PartialCommitError.
type TokenGateway struct {
	token Token
	self  revshare.Address
}

// Compile-time interface check.
var _ Gateway = (*TokenGateway)(nil)

// NewTokenGateway wraps token after checking that it reports a positive
// number of decimals.
func NewTokenGateway(ctx context.Context, token Token, self revshare.Address) (*TokenGateway, error) {
	if token == nil {
		return nil, fmt.Errorf("%w: token", ErrNilParam)
	}
	if self.IsZero() {
		return nil, fmt.Errorf("%w: distributor address is null", ErrInvalidAsset)
	}
	decimals, err := token.Decimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: decimals: %w", ErrInvalidAsset, err)
	}
	if decimals == 0 {
		return nil, fmt.Errorf("%w: decimals must be positive", ErrInvalidAsset)
	}
	return &TokenGateway{token: token, self: self}, nil
}

// Balance returns the distributor's token balance.
func (g *TokenGateway) Balance(ctx context.Context) (uint64, error) {
	return g.token.BalanceOf(ctx, g.self)
}

// Stage opens a new batch.
func (g *TokenGateway) Stage(_ context.Context) (Batch, error) {
	return &tokenBatch{gw: g}, nil
}

type tokenBatch struct {
	gw       *TokenGateway
	payments []Payment
	closed   bool
}

func (b *tokenBatch) Transfer(to revshare.Address, amount uint64) error {
	if b.closed {
		return ErrBatchClosed
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	b.payments = append(b.payments, Payment{To: to, Amount: amount})
	return nil
}

func (b *tokenBatch) Commit(ctx context.Context) (string, error) {
	if b.closed {
		return "", ErrBatchClosed
	}
	b.closed = true

	for i, p := range b.payments {
		ok, err := b.gw.token.Transfer(ctx, p.To, p.Amount)
		if err == nil && !ok {
			err = ErrTransferRejected
		}
		if err != nil {
			err = fmt.Errorf("transfer %d to %s: %w", p.Amount, p.To, err)
			if i == 0 {
				return "", err
			}
			return "", &PartialCommitError{Applied: append([]Payment(nil), b.payments[:i]...), Err: err}
		}
	}
	return "", nil
}

func (b *tokenBatch) Discard() {
	b.closed = true
	b.payments = nil
}
