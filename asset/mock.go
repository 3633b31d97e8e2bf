package asset

import (
	"context"

	"github.com/bitfsorg/revsplit/revshare"
)

// MockToken is a test double for Token.
// All function fields must be set before the corresponding method is called.
type MockToken struct {
	BalanceOfFn func(ctx context.Context, owner revshare.Address) (uint64, error)
	TransferFn  func(ctx context.Context, to revshare.Address, amount uint64) (bool, error)
	DecimalsFn  func(ctx context.Context) (uint8, error)
}

func (m *MockToken) BalanceOf(ctx context.Context, owner revshare.Address) (uint64, error) {
	return m.BalanceOfFn(ctx, owner)
}
func (m *MockToken) Transfer(ctx context.Context, to revshare.Address, amount uint64) (bool, error) {
	return m.TransferFn(ctx, to, amount)
}
func (m *MockToken) Decimals(ctx context.Context) (uint8, error) {
	return m.DecimalsFn(ctx)
}
