// Package network talks to a BSV node over JSON-RPC to read the payout
// pool's unspent outputs and broadcast payout transactions.
package network

import "context"

// NodeService is the subset of node functionality the native payout
// gateway needs.
type NodeService interface {
	// ListUnspent returns every unspent output paying address, including
	// unconfirmed ones.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// BroadcastTx submits a raw transaction hex and returns its txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)
}

// UTXO is an unspent output as reported by the node. TxID is display hex.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"` // satoshis
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}
