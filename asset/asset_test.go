package asset

import (
	"context"
	"errors"
	"strings"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/revsplit/network"
	"github.com/bitfsorg/revsplit/revshare"
)

func addr(b byte) revshare.Address {
	var a revshare.Address
	for i := range a {
		a[i] = b
	}
	return a
}

// --- MemGateway ---

func TestMemGatewayCommit(t *testing.T) {
	ctx := context.Background()
	g := NewMemGateway(1000)

	b, err := g.Stage(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Transfer(addr(1), 400))
	require.NoError(t, b.Transfer(addr(2), 600))
	ref, err := b.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mem-1", ref)

	bal, err := g.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal)
	assert.Equal(t, uint64(400), g.Credited(addr(1)))
	assert.Equal(t, uint64(600), g.Credited(addr(2)))

	_, err = b.Commit(ctx)
	assert.ErrorIs(t, err, ErrBatchClosed)
	assert.ErrorIs(t, b.Transfer(addr(1), 1), ErrBatchClosed)
}

func TestMemGatewayOverdraw(t *testing.T) {
	ctx := context.Background()
	g := NewMemGateway(100)
	b, _ := g.Stage(ctx)
	require.NoError(t, b.Transfer(addr(1), 101))

	_, err := b.Commit(ctx)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	bal, _ := g.Balance(ctx)
	assert.Equal(t, uint64(100), bal)
}

func TestMemGatewayRejectIsAtomic(t *testing.T) {
	ctx := context.Background()
	g := NewMemGateway(1000)
	g.Reject = func(p Payment) error {
		if p.To == addr(2) {
			return errors.New("frozen")
		}
		return nil
	}
	b, _ := g.Stage(ctx)
	require.NoError(t, b.Transfer(addr(1), 100))
	require.NoError(t, b.Transfer(addr(2), 100))

	_, err := b.Commit(ctx)
	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.Equal(t, uint64(0), g.Credited(addr(1)))
	bal, _ := g.Balance(ctx)
	assert.Equal(t, uint64(1000), bal)
}

func TestMemGatewayDiscard(t *testing.T) {
	ctx := context.Background()
	g := NewMemGateway(10)
	g.Deposit(5)
	b, _ := g.Stage(ctx)
	require.NoError(t, b.Transfer(addr(1), 10))
	b.Discard()
	assert.ErrorIs(t, b.Transfer(addr(1), 1), ErrBatchClosed)
	bal, _ := g.Balance(ctx)
	assert.Equal(t, uint64(15), bal)
	assert.ErrorIs(t, (&memBatch{gw: g}).Transfer(addr(1), 0), ErrInvalidAmount)
}

// --- TokenGateway ---

func TestNewTokenGatewayDecimals(t *testing.T) {
	ctx := context.Background()
	self := addr(9)

	zero := &MockToken{DecimalsFn: func(context.Context) (uint8, error) { return 0, nil }}
	_, err := NewTokenGateway(ctx, zero, self)
	assert.ErrorIs(t, err, ErrInvalidAsset)

	broken := &MockToken{DecimalsFn: func(context.Context) (uint8, error) { return 0, errors.New("no such method") }}
	_, err = NewTokenGateway(ctx, broken, self)
	assert.ErrorIs(t, err, ErrInvalidAsset)

	ok := &MockToken{DecimalsFn: func(context.Context) (uint8, error) { return 8, nil }}
	_, err = NewTokenGateway(ctx, ok, revshare.Address{})
	assert.ErrorIs(t, err, ErrInvalidAsset)
	_, err = NewTokenGateway(ctx, nil, self)
	assert.ErrorIs(t, err, ErrNilParam)

	g, err := NewTokenGateway(ctx, ok, self)
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func newToken(balance uint64, failOn map[revshare.Address]bool) (*MockToken, map[revshare.Address]uint64) {
	paid := make(map[revshare.Address]uint64)
	return &MockToken{
		DecimalsFn:  func(context.Context) (uint8, error) { return 2, nil },
		BalanceOfFn: func(context.Context, revshare.Address) (uint64, error) { return balance, nil },
		TransferFn: func(_ context.Context, to revshare.Address, amount uint64) (bool, error) {
			if failOn[to] {
				return false, nil
			}
			paid[to] += amount
			return true, nil
		},
	}, paid
}

func TestTokenGatewayCommit(t *testing.T) {
	ctx := context.Background()
	tok, paid := newToken(500, nil)
	g, err := NewTokenGateway(ctx, tok, addr(9))
	require.NoError(t, err)

	bal, err := g.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), bal)

	b, _ := g.Stage(ctx)
	require.NoError(t, b.Transfer(addr(1), 200))
	require.NoError(t, b.Transfer(addr(2), 300))
	_, err = b.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), paid[addr(1)])
	assert.Equal(t, uint64(300), paid[addr(2)])
}

func TestTokenGatewayFirstTransferFails(t *testing.T) {
	ctx := context.Background()
	tok, _ := newToken(500, map[revshare.Address]bool{addr(1): true})
	g, _ := NewTokenGateway(ctx, tok, addr(9))
	b, _ := g.Stage(ctx)
	require.NoError(t, b.Transfer(addr(1), 200))
	require.NoError(t, b.Transfer(addr(2), 300))

	_, err := b.Commit(ctx)
	assert.ErrorIs(t, err, ErrTransferRejected)
	var partial *PartialCommitError
	assert.False(t, errors.As(err, &partial))
}

func TestTokenGatewayPartialCommit(t *testing.T) {
	ctx := context.Background()
	tok, paid := newToken(500, map[revshare.Address]bool{addr(3): true})
	g, _ := NewTokenGateway(ctx, tok, addr(9))
	b, _ := g.Stage(ctx)
	require.NoError(t, b.Transfer(addr(1), 100))
	require.NoError(t, b.Transfer(addr(2), 100))
	require.NoError(t, b.Transfer(addr(3), 100))

	_, err := b.Commit(ctx)
	var partial *PartialCommitError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []Payment{{To: addr(1), Amount: 100}, {To: addr(2), Amount: 100}}, partial.Applied)
	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.Contains(t, err.Error(), "after 2 payment(s)")
	assert.Equal(t, uint64(0), paid[addr(3)])
}

// --- NativeGateway ---

type nativeFixture struct {
	gw        *NativeGateway
	node      *network.MockNodeService
	broadcast []string
}

func newNativeFixture(t *testing.T, pool, fee uint64) *nativeFixture {
	t.Helper()
	poolKey, err := ec.NewPrivateKey()
	require.NoError(t, err)
	feeKey, err := ec.NewPrivateKey()
	require.NoError(t, err)

	f := &nativeFixture{}
	f.node = &network.MockNodeService{}
	gw, err := NewNativeGateway(f.node, NativeConfig{PoolKey: poolKey, FeeKey: feeKey, Mainnet: true})
	require.NoError(t, err)
	f.gw = gw

	f.node.ListUnspentFn = func(_ context.Context, address string) ([]*network.UTXO, error) {
		switch address {
		case gw.PoolAddress():
			return []*network.UTXO{
				{TxID: "11" + strings.Repeat("00", 31), Vout: 0, Amount: pool / 2},
				{TxID: "22" + strings.Repeat("00", 31), Vout: 1, Amount: pool - pool/2},
			}, nil
		case gw.FeeAddress():
			return []*network.UTXO{{TxID: "33" + strings.Repeat("00", 31), Vout: 0, Amount: fee}}, nil
		}
		return nil, nil
	}
	f.node.BroadcastTxFn = func(_ context.Context, raw string) (string, error) {
		f.broadcast = append(f.broadcast, raw)
		parsed, err := transaction.NewTransactionFromHex(raw)
		if err != nil {
			return "", err
		}
		return parsed.TxID().String(), nil
	}
	return f
}

func TestNativeGatewayBalance(t *testing.T) {
	f := newNativeFixture(t, 1001, 500)
	bal, err := f.gw.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), bal)
	assert.NotEqual(t, f.gw.PoolAddress(), f.gw.FeeAddress())
}

func TestNativeGatewayCommitSingleTx(t *testing.T) {
	ctx := context.Background()
	f := newNativeFixture(t, 1000, 500)

	b, err := f.gw.Stage(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Transfer(addr(1), 300))
	require.NoError(t, b.Transfer(addr(2), 500))
	txid, err := b.Commit(ctx)
	require.NoError(t, err)
	assert.Len(t, txid, 64)
	require.Len(t, f.broadcast, 1)

	parsed, err := transaction.NewTransactionFromHex(f.broadcast[0])
	require.NoError(t, err)
	assert.Len(t, parsed.Inputs, 3)
	require.GreaterOrEqual(t, len(parsed.Outputs), 3)
	assert.Equal(t, uint64(300), parsed.Outputs[0].Satoshis)
	assert.Equal(t, uint64(500), parsed.Outputs[1].Satoshis)
	assert.Equal(t, uint64(200), parsed.Outputs[2].Satoshis) // pool remainder
}

func TestNativeGatewayBroadcastRejected(t *testing.T) {
	ctx := context.Background()
	f := newNativeFixture(t, 1000, 500)
	f.node.BroadcastTxFn = func(context.Context, string) (string, error) {
		return "", network.ErrBroadcastRejected
	}
	b, _ := f.gw.Stage(ctx)
	require.NoError(t, b.Transfer(addr(1), 300))

	_, err := b.Commit(ctx)
	assert.ErrorIs(t, err, ErrTransferRejected)
	var partial *PartialCommitError
	assert.False(t, errors.As(err, &partial))
}

func TestNativeGatewayOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newNativeFixture(t, 100, 500)
	b, _ := f.gw.Stage(ctx)
	require.NoError(t, b.Transfer(addr(1), 300))
	_, err := b.Commit(ctx)
	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.Empty(t, f.broadcast)
}

func TestNativeGatewayTransferChecks(t *testing.T) {
	f := newNativeFixture(t, 100, 500)
	b, _ := f.gw.Stage(context.Background())
	assert.ErrorIs(t, b.Transfer(revshare.Address{}, 10), ErrTransferRejected)
	assert.ErrorIs(t, b.Transfer(addr(1), 0), ErrInvalidAmount)
}

func TestNewNativeGatewayRequiresKeys(t *testing.T) {
	key, err := ec.NewPrivateKey()
	require.NoError(t, err)
	_, err = NewNativeGateway(nil, NativeConfig{PoolKey: key, FeeKey: key})
	assert.ErrorIs(t, err, ErrNilParam)
	_, err = NewNativeGateway(&network.MockNodeService{}, NativeConfig{PoolKey: key})
	assert.ErrorIs(t, err, ErrNilParam)
}
