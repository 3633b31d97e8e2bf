package tx

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// UTXO is a spendable output together with the key that unlocks it.
type UTXO struct {
	TxID         string         `json:"txid"` // display (big-endian) hex
	Vout         uint32         `json:"vout"`
	Amount       uint64         `json:"amount"`        // satoshis
	ScriptPubKey []byte         `json:"script_pubkey"` // locking script bytes
	PrivateKey   *ec.PrivateKey `json:"-"`
}

// Payment is a single payout output to a P2PKH public-key hash.
type Payment struct {
	PubKeyHash []byte
	Amount     uint64
}

func sumUTXOs(utxos []*UTXO) (uint64, error) {
	var total uint64
	for i, u := range utxos {
		if u == nil {
			return 0, fmt.Errorf("%w: utxo[%d]", ErrNilParam, i)
		}
		if total+u.Amount < total {
			return 0, fmt.Errorf("%w: input amounts overflow", ErrInsufficientFunds)
		}
		total += u.Amount
	}
	return total, nil
}
