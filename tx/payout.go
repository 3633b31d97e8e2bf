package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"
)

// PayoutParams describes one payout transaction.
//
// Pool inputs fund the payments and any pool remainder returns to
// PoolChangePKH. Fee inputs fund the mining fee only, with their change
// returned to FeeChangePKH. Keeping the two apart means the pool balance
// drops by exactly the amount paid out.
type PayoutParams struct {
	PoolUTXOs     []*UTXO
	FeeUTXOs      []*UTXO
	Payments      []Payment
	PoolChangePKH []byte
	FeeChangePKH  []byte
	FeeRate       uint64 // sat/KB; 0 selects DefaultFeeRate
	DustLimit     uint64 // 0 selects DustLimit
	Mainnet       bool
}

// PayoutTx is a signed payout transaction.
type PayoutTx struct {
	RawTx      []byte
	Hex        string
	TxID       string
	Fee        uint64
	PoolChange uint64
	FeeChange  uint64
}

// BuildPayoutTx builds and signs a transaction paying every Payment from the
// pool inputs. Output order is payments first (in the given order), then
// pool change, then fee change.
func BuildPayoutTx(params *PayoutParams) (*PayoutTx, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}
	if len(params.Payments) == 0 {
		return nil, ErrNoPayments
	}
	if len(params.PoolUTXOs) == 0 {
		return nil, fmt.Errorf("%w: pool inputs", ErrNilParam)
	}
	if len(params.FeeUTXOs) == 0 {
		return nil, fmt.Errorf("%w: fee inputs", ErrNilParam)
	}
	dust := params.DustLimit
	if dust == 0 {
		dust = DustLimit
	}

	poolTotal, err := sumUTXOs(params.PoolUTXOs)
	if err != nil {
		return nil, err
	}
	feeTotal, err := sumUTXOs(params.FeeUTXOs)
	if err != nil {
		return nil, err
	}

	var paid uint64
	for i, p := range params.Payments {
		if p.Amount < dust {
			return nil, fmt.Errorf("%w: payment[%d] is %d sat", ErrDustOutput, i, p.Amount)
		}
		if paid+p.Amount < paid {
			return nil, fmt.Errorf("%w: payment amounts overflow", ErrInsufficientFunds)
		}
		paid += p.Amount
	}
	if paid > poolTotal {
		return nil, fmt.Errorf("%w: payouts need %d sat, pool has %d sat",
			ErrInsufficientFunds, paid, poolTotal)
	}
	poolChange := poolTotal - paid
	if poolChange > 0 && poolChange < dust {
		return nil, fmt.Errorf("%w: pool remainder is %d sat", ErrDustOutput, poolChange)
	}

	numInputs := len(params.PoolUTXOs) + len(params.FeeUTXOs)
	numOutputs := len(params.Payments) + 1
	if poolChange > 0 {
		numOutputs++
	}
	fee := EstimateFee(EstimateTxSize(numInputs, numOutputs), params.FeeRate)
	if feeTotal < fee {
		return nil, fmt.Errorf("%w: fee needs %d sat, fee inputs have %d sat",
			ErrInsufficientFunds, fee, feeTotal)
	}
	feeChange := feeTotal - fee

	sdkTx := transaction.NewTransaction()
	inputs := make([]*UTXO, 0, numInputs)
	inputs = append(inputs, params.PoolUTXOs...)
	inputs = append(inputs, params.FeeUTXOs...)
	for i, u := range inputs {
		hash, err := chainhash.NewHashFromHex(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d: %w", ErrInvalidTxID, i, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:       hash,
			SourceTxOutIndex: u.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
	}

	for i, p := range params.Payments {
		out, err := p2pkhOutput(p.PubKeyHash, p.Amount, params.Mainnet)
		if err != nil {
			return nil, fmt.Errorf("payment[%d]: %w", i, err)
		}
		sdkTx.AddOutput(out)
	}
	if poolChange > 0 {
		out, err := p2pkhOutput(params.PoolChangePKH, poolChange, params.Mainnet)
		if err != nil {
			return nil, fmt.Errorf("pool change: %w", err)
		}
		sdkTx.AddOutput(out)
	}
	// Fee change below dust is left to the miner.
	if feeChange >= dust {
		out, err := p2pkhOutput(params.FeeChangePKH, feeChange, params.Mainnet)
		if err != nil {
			return nil, fmt.Errorf("fee change: %w", err)
		}
		sdkTx.AddOutput(out)
	} else {
		fee += feeChange
		feeChange = 0
	}

	if err := signInputs(sdkTx, inputs); err != nil {
		return nil, err
	}

	return &PayoutTx{
		RawTx:      sdkTx.Bytes(),
		Hex:        sdkTx.Hex(),
		TxID:       sdkTx.TxID().String(),
		Fee:        fee,
		PoolChange: poolChange,
		FeeChange:  feeChange,
	}, nil
}

// p2pkhOutput builds a P2PKH output for a 20-byte public-key hash.
func p2pkhOutput(pkh []byte, satoshis uint64, mainnet bool) (*transaction.TransactionOutput, error) {
	if len(pkh) != 20 {
		return nil, fmt.Errorf("%w: public key hash is %d bytes", ErrScriptBuild, len(pkh))
	}
	addr, err := script.NewAddressFromPublicKeyHash(pkh, mainnet)
	if err != nil {
		return nil, fmt.Errorf("%w: address from hash: %w", ErrScriptBuild, err)
	}
	lock, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrScriptBuild, err)
	}
	return &transaction.TransactionOutput{Satoshis: satoshis, LockingScript: lock}, nil
}

// signInputs attaches source outputs and P2PKH unlockers, matched to inputs
// by position, and signs the transaction.
func signInputs(sdkTx *transaction.Transaction, utxos []*UTXO) error {
	for i, u := range utxos {
		if u.PrivateKey == nil {
			return fmt.Errorf("%w: input %d has no private key", ErrSigningFailed, i)
		}
		if len(u.ScriptPubKey) == 0 {
			return fmt.Errorf("%w: input %d has no locking script", ErrSigningFailed, i)
		}
		unlocker, err := p2pkh.Unlock(u.PrivateKey, nil)
		if err != nil {
			return fmt.Errorf("%w: unlocker for input %d: %w", ErrSigningFailed, i, err)
		}
		sdkTx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      u.Amount,
			LockingScript: script.NewFromBytes(u.ScriptPubKey),
		})
		sdkTx.Inputs[i].UnlockingScriptTemplate = unlocker
	}
	if err := sdkTx.Sign(); err != nil {
		return fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return nil
}

// LockingScriptForPKH returns the P2PKH locking script bytes for pkh.
func LockingScriptForPKH(pkh []byte, mainnet bool) ([]byte, error) {
	out, err := p2pkhOutput(pkh, 0, mainnet)
	if err != nil {
		return nil, err
	}
	return []byte(*out.LockingScript), nil
}
