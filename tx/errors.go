package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInsufficientFunds indicates the pool cannot cover the payouts or the
	// fee inputs cannot cover the fee.
	ErrInsufficientFunds = errors.New("tx: insufficient funds")

	// ErrDustOutput indicates an output would fall below the dust limit.
	ErrDustOutput = errors.New("tx: output below dust limit")

	// ErrInvalidTxID indicates a UTXO carries a malformed transaction id.
	ErrInvalidTxID = errors.New("tx: invalid TxID")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")

	// ErrNoPayments indicates a payout transaction with nothing to pay.
	ErrNoPayments = errors.New("tx: no payments")
)
