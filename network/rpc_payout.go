package network

import (
	"context"
	"fmt"
	"math"
)

// btcToSat converts a BTC amount as returned by the node to satoshis.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent calls `listunspent 0 9999999 ["address"]`.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", []any{0, 9999999, []string{address}}, &results); err != nil {
		return nil, err
	}

	utxos := make([]*UTXO, 0, len(results))
	for _, r := range results {
		utxos = append(utxos, &UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Amount:        btcToSat(r.Amount),
			ScriptPubKey:  r.ScriptPubKey,
			Address:       r.Address,
			Confirmations: r.Confirmations,
		})
	}
	return utxos, nil
}

// BroadcastTx calls `sendrawtransaction "hex"`.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []any{rawTxHex}, &txid); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
	}
	if txid == "" {
		return "", fmt.Errorf("%w: empty txid", ErrInvalidResponse)
	}
	return txid, nil
}
