package distribution

import "errors"

var (
	// ErrZeroBalance indicates there is nothing to distribute.
	ErrZeroBalance = errors.New("distribution: zero balance")

	// ErrInsufficientRecipients indicates fewer than two registered recipients.
	ErrInsufficientRecipients = errors.New("distribution: fewer than two recipients")

	// ErrPersistFailed indicates a committed change could not be saved.
	ErrPersistFailed = errors.New("distribution: state not persisted")

	// ErrOwnershipUnsupported indicates the engine's guard has no owner to transfer.
	ErrOwnershipUnsupported = errors.New("distribution: guard does not support ownership transfer")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("distribution: required parameter is nil")
)
