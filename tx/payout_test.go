package tx

import (
	"bytes"
	"strings"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) (*ec.PrivateKey, []byte) {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	pkh := priv.PubKey().Hash()
	return priv, pkh
}

func testUTXO(t *testing.T, priv *ec.PrivateKey, pkh []byte, seed byte, amount uint64) *UTXO {
	t.Helper()
	lock, err := LockingScriptForPKH(pkh, true)
	require.NoError(t, err)
	return &UTXO{
		TxID:         strings.Repeat(string("0123456789abcdef"[seed%16]), 64),
		Vout:         uint32(seed),
		Amount:       amount,
		ScriptPubKey: lock,
		PrivateKey:   priv,
	}
}

type payoutFixture struct {
	params  *PayoutParams
	poolPKH []byte
	feePKH  []byte
}

func newFixture(t *testing.T, pool, fee uint64, amounts ...uint64) payoutFixture {
	t.Helper()
	poolKey, poolPKH := testKey(t)
	feeKey, feePKH := testKey(t)
	payments := make([]Payment, len(amounts))
	for i, a := range amounts {
		payments[i] = Payment{PubKeyHash: bytes.Repeat([]byte{byte(i + 1)}, 20), Amount: a}
	}
	return payoutFixture{
		params: &PayoutParams{
			PoolUTXOs:     []*UTXO{testUTXO(t, poolKey, poolPKH, 1, pool)},
			FeeUTXOs:      []*UTXO{testUTXO(t, feeKey, feePKH, 2, fee)},
			Payments:      payments,
			PoolChangePKH: poolPKH,
			FeeChangePKH:  feePKH,
			Mainnet:       true,
		},
		poolPKH: poolPKH,
		feePKH:  feePKH,
	}
}

func TestBuildPayoutTxExactPool(t *testing.T) {
	f := newFixture(t, 1000, 5000, 400, 600)

	out, err := BuildPayoutTx(f.params)
	require.NoError(t, err)
	assert.Len(t, out.TxID, 64)
	assert.Equal(t, uint64(0), out.PoolChange)
	assert.Equal(t, 5000-out.Fee, out.FeeChange)

	parsed, err := transaction.NewTransactionFromHex(out.Hex)
	require.NoError(t, err)
	require.Len(t, parsed.Inputs, 2)
	require.Len(t, parsed.Outputs, 3)
	assert.Equal(t, uint64(400), parsed.Outputs[0].Satoshis)
	assert.Equal(t, uint64(600), parsed.Outputs[1].Satoshis)
	assert.Equal(t, out.FeeChange, parsed.Outputs[2].Satoshis)
	for _, in := range parsed.Inputs {
		assert.NotNil(t, in.UnlockingScript)
	}
	assert.Equal(t, out.TxID, parsed.TxID().String())
}

func TestBuildPayoutTxPoolChange(t *testing.T) {
	f := newFixture(t, 1500, 5000, 300, 200)

	out, err := BuildPayoutTx(f.params)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), out.PoolChange)

	parsed, err := transaction.NewTransactionFromHex(out.Hex)
	require.NoError(t, err)
	require.Len(t, parsed.Outputs, 4)
	poolLock, err := LockingScriptForPKH(f.poolPKH, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), parsed.Outputs[2].Satoshis)
	assert.Equal(t, poolLock, []byte(*parsed.Outputs[2].LockingScript))
}

func TestBuildPayoutTxFeeChangeBelowDust(t *testing.T) {
	f := newFixture(t, 1000, 1, 1000)
	f.params.FeeRate = 1

	out, err := BuildPayoutTx(f.params)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), out.FeeChange)
	assert.Equal(t, uint64(1), out.Fee)
}

func TestBuildPayoutTxErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *PayoutParams)
		want   error
	}{
		{"no payments", func(p *PayoutParams) { p.Payments = nil }, ErrNoPayments},
		{"no pool inputs", func(p *PayoutParams) { p.PoolUTXOs = nil }, ErrNilParam},
		{"no fee inputs", func(p *PayoutParams) { p.FeeUTXOs = nil }, ErrNilParam},
		{"nil input", func(p *PayoutParams) { p.PoolUTXOs = []*UTXO{nil} }, ErrNilParam},
		{"overpay", func(p *PayoutParams) { p.Payments[0].Amount = 2000 }, ErrInsufficientFunds},
		{"fee too small", func(p *PayoutParams) { p.FeeRate = 1000000; p.FeeUTXOs[0].Amount = 10 }, ErrInsufficientFunds},
		{"dust payment", func(p *PayoutParams) { p.DustLimit = 546; p.Payments[0].Amount = 100 }, ErrDustOutput},
		{"dust pool change", func(p *PayoutParams) { p.DustLimit = 546; p.PoolUTXOs[0].Amount = 1100 }, ErrDustOutput},
		{"bad txid", func(p *PayoutParams) { p.PoolUTXOs[0].TxID = "zz" }, ErrInvalidTxID},
		{"bad pkh", func(p *PayoutParams) { p.Payments[0].PubKeyHash = []byte{1, 2} }, ErrScriptBuild},
		{"missing key", func(p *PayoutParams) { p.FeeUTXOs[0].PrivateKey = nil }, ErrSigningFailed},
		{"missing script", func(p *PayoutParams) { p.PoolUTXOs[0].ScriptPubKey = nil }, ErrSigningFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1000, 5000, 1000)
			tt.mutate(f.params)
			_, err := BuildPayoutTx(f.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := BuildPayoutTx(nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestEstimateFee(t *testing.T) {
	assert.Equal(t, uint64(1), EstimateFee(226, 1))
	assert.Equal(t, uint64(1), EstimateFee(1000, 0))
	assert.Equal(t, uint64(2), EstimateFee(1001, 1))
	assert.Equal(t, uint64(113), EstimateFee(226, 500))
	assert.Equal(t, uint64(0), EstimateFee(0, 1))
}

func TestEstimateTxSize(t *testing.T) {
	assert.Equal(t, 10, EstimateTxSize(0, 0))
	assert.Equal(t, 10+2*148+3*34, EstimateTxSize(2, 3))
}
