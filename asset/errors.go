package asset

import "errors"

var (
	// ErrInvalidAsset indicates an asset failed its sanity check.
	ErrInvalidAsset = errors.New("asset: invalid asset")

	// ErrTransferRejected indicates the underlying primitive refused a transfer.
	ErrTransferRejected = errors.New("asset: transfer rejected")

	// ErrInsufficientBalance indicates staged transfers exceed the available balance.
	ErrInsufficientBalance = errors.New("asset: insufficient balance")

	// ErrBatchClosed indicates use of a batch after Commit or Discard.
	ErrBatchClosed = errors.New("asset: batch already closed")

	// ErrInvalidAmount indicates a zero or otherwise unpayable amount.
	ErrInvalidAmount = errors.New("asset: invalid amount")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("asset: required parameter is nil")
)
