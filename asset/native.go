package asset

import (
	"context"
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/revsplit/network"
	"github.com/bitfsorg/revsplit/revshare"
	"github.com/bitfsorg/revsplit/tx"
)

// NativeConfig configures a NativeGateway.
type NativeConfig struct {
	// PoolKey controls the address that receives revenue.
	PoolKey *ec.PrivateKey
	// FeeKey funds mining fees so the pool balance only ever drops by the
	// amount paid out.
	FeeKey    *ec.PrivateKey
	Mainnet   bool
	FeeRate   uint64 // sat/KB
	DustLimit uint64
}

// NativeGateway distributes BSV held at a pool address. Every round is a
// single transaction, so a commit either pays everyone or no one.
type NativeGateway struct {
	node     network.NodeService
	cfg      NativeConfig
	poolAddr string
	feeAddr  string
	poolPKH  []byte
	feePKH   []byte
}

// Compile-time interface check.
var _ Gateway = (*NativeGateway)(nil)

// NewNativeGateway creates a gateway reading and spending pool UTXOs through node.
func NewNativeGateway(node network.NodeService, cfg NativeConfig) (*NativeGateway, error) {
	if node == nil {
		return nil, fmt.Errorf("%w: node", ErrNilParam)
	}
	if cfg.PoolKey == nil || cfg.FeeKey == nil {
		return nil, fmt.Errorf("%w: pool and fee keys", ErrNilParam)
	}
	if cfg.DustLimit == 0 {
		cfg.DustLimit = tx.DustLimit
	}
	if cfg.FeeRate == 0 {
		cfg.FeeRate = tx.DefaultFeeRate
	}
	poolAddr, err := script.NewAddressFromPublicKey(cfg.PoolKey.PubKey(), cfg.Mainnet)
	if err != nil {
		return nil, fmt.Errorf("%w: pool address: %w", ErrInvalidAsset, err)
	}
	feeAddr, err := script.NewAddressFromPublicKey(cfg.FeeKey.PubKey(), cfg.Mainnet)
	if err != nil {
		return nil, fmt.Errorf("%w: fee address: %w", ErrInvalidAsset, err)
	}
	return &NativeGateway{
		node:     node,
		cfg:      cfg,
		poolAddr: poolAddr.AddressString,
		feeAddr:  feeAddr.AddressString,
		poolPKH:  cfg.PoolKey.PubKey().Hash(),
		feePKH:   cfg.FeeKey.PubKey().Hash(),
	}, nil
}

// PoolAddress returns the address revenue should be sent to.
func (g *NativeGateway) PoolAddress() string { return g.poolAddr }

// FeeAddress returns the address that must be funded to pay mining fees.
func (g *NativeGateway) FeeAddress() string { return g.feeAddr }

// Balance returns the sum of the pool's unspent outputs, unconfirmed included.
func (g *NativeGateway) Balance(ctx context.Context) (uint64, error) {
	utxos, err := g.node.ListUnspent(ctx, g.poolAddr)
	if err != nil {
		return 0, fmt.Errorf("asset: pool balance: %w", err)
	}
	var total uint64
	for _, u := range utxos {
		if total+u.Amount < total {
			return 0, fmt.Errorf("asset: pool balance overflows")
		}
		total += u.Amount
	}
	return total, nil
}

// Stage opens a new batch.
func (g *NativeGateway) Stage(_ context.Context) (Batch, error) {
	return &nativeBatch{gw: g}, nil
}

// spendable fetches the unspent outputs at addr and attaches key.
func (g *NativeGateway) spendable(ctx context.Context, addr string, pkh []byte, key *ec.PrivateKey) ([]*tx.UTXO, error) {
	utxos, err := g.node.ListUnspent(ctx, addr)
	if err != nil {
		return nil, err
	}
	out := make([]*tx.UTXO, 0, len(utxos))
	for _, u := range utxos {
		lock, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil || len(lock) == 0 {
			if lock, err = tx.LockingScriptForPKH(pkh, g.cfg.Mainnet); err != nil {
				return nil, err
			}
		}
		out = append(out, &tx.UTXO{
			TxID:         u.TxID,
			Vout:         u.Vout,
			Amount:       u.Amount,
			ScriptPubKey: lock,
			PrivateKey:   key,
		})
	}
	return out, nil
}

type nativeBatch struct {
	gw       *NativeGateway
	payments []Payment
	closed   bool
}

func (b *nativeBatch) Transfer(to revshare.Address, amount uint64) error {
	if b.closed {
		return ErrBatchClosed
	}
	if to.IsZero() {
		return fmt.Errorf("%w: null recipient", ErrTransferRejected)
	}
	if amount < b.gw.cfg.DustLimit {
		return fmt.Errorf("%w: %d sat is below the dust limit", ErrInvalidAmount, amount)
	}
	b.payments = append(b.payments, Payment{To: to, Amount: amount})
	return nil
}

func (b *nativeBatch) Commit(ctx context.Context) (string, error) {
	if b.closed {
		return "", ErrBatchClosed
	}
	b.closed = true
	if len(b.payments) == 0 {
		return "", nil
	}
	g := b.gw

	poolUTXOs, err := g.spendable(ctx, g.poolAddr, g.poolPKH, g.cfg.PoolKey)
	if err != nil {
		return "", fmt.Errorf("%w: pool inputs: %w", ErrTransferRejected, err)
	}
	feeUTXOs, err := g.spendable(ctx, g.feeAddr, g.feePKH, g.cfg.FeeKey)
	if err != nil {
		return "", fmt.Errorf("%w: fee inputs: %w", ErrTransferRejected, err)
	}

	payments := make([]tx.Payment, len(b.payments))
	for i, p := range b.payments {
		payments[i] = tx.Payment{PubKeyHash: append([]byte(nil), p.To[:]...), Amount: p.Amount}
	}
	payout, err := tx.BuildPayoutTx(&tx.PayoutParams{
		PoolUTXOs:     poolUTXOs,
		FeeUTXOs:      feeUTXOs,
		Payments:      payments,
		PoolChangePKH: g.poolPKH,
		FeeChangePKH:  g.feePKH,
		FeeRate:       g.cfg.FeeRate,
		DustLimit:     g.cfg.DustLimit,
		Mainnet:       g.cfg.Mainnet,
	})
	if err != nil {
		return "", fmt.Errorf("%w: build payout: %w", ErrTransferRejected, err)
	}

	txid, err := g.node.BroadcastTx(ctx, payout.Hex)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransferRejected, err)
	}
	return txid, nil
}

func (b *nativeBatch) Discard() {
	b.closed = true
	b.payments = nil
}
