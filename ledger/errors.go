package ledger

import "errors"

var (
	// ErrArithmeticFault indicates a division by zero total shares or an
	// amount that does not fit in 64 bits.
	ErrArithmeticFault = errors.New("ledger: arithmetic fault")

	// ErrTransferFailed indicates the asset transfer primitive reported failure.
	ErrTransferFailed = errors.New("ledger: transfer failed")

	// ErrInconsistentState indicates a snapshot whose totals do not match its entries.
	ErrInconsistentState = errors.New("ledger: inconsistent state")

	// ErrInvalidAsset indicates an empty or malformed asset identifier.
	ErrInvalidAsset = errors.New("ledger: invalid asset")
)
