package network

import "context"

// MockNodeService is a test double for NodeService.
// All function fields must be set before the corresponding method is called.
type MockNodeService struct {
	ListUnspentFn func(ctx context.Context, address string) ([]*UTXO, error)
	BroadcastTxFn func(ctx context.Context, rawTxHex string) (string, error)
}

func (m *MockNodeService) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	return m.ListUnspentFn(ctx, address)
}
func (m *MockNodeService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
