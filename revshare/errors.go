package revshare

import "errors"

var (
	// ErrInvalidRecipient indicates the null identifier was used as a recipient.
	ErrInvalidRecipient = errors.New("revshare: invalid recipient")

	// ErrInvalidShare indicates a share of zero or above MaxShares.
	ErrInvalidShare = errors.New("revshare: invalid share")

	// ErrShareCapExceeded indicates the resulting total would exceed MaxShares.
	ErrShareCapExceeded = errors.New("revshare: share cap exceeded")

	// ErrNotRegistered indicates the address is not a current recipient.
	ErrNotRegistered = errors.New("revshare: recipient not registered")

	// ErrInvalidRegistryData indicates serialized registry data is malformed.
	ErrInvalidRegistryData = errors.New("revshare: invalid registry data")

	// ErrShareConservationViolation indicates the total does not match the entries.
	ErrShareConservationViolation = errors.New("revshare: share conservation violated")

	// ErrDuplicateRecipient indicates a snapshot lists the same address twice.
	ErrDuplicateRecipient = errors.New("revshare: duplicate recipient")

	// ErrTooManyEntries indicates a registry too large to serialize.
	ErrTooManyEntries = errors.New("revshare: too many entries")

	// ErrInvalidAddress indicates a recipient address string could not be parsed.
	ErrInvalidAddress = errors.New("revshare: invalid address")
)
