package revshare

import (
	"encoding/hex"

	"github.com/bsv-blockchain/go-sdk/script"
)

// MaxShares is the cap on the summed allocation across all recipients.
// One share is one percentage point of every inflow.
const MaxShares uint64 = 100

// AddressSize is the length of a P2PKH public key hash.
const AddressSize = 20

// Address identifies a recipient by its P2PKH public key hash.
// The zero value is the null identifier and is never a valid recipient.
type Address [AddressSize]byte

// IsZero reports whether a is the null identifier.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String renders a as a mainnet base58 address, falling back to hex.
func (a Address) String() string {
	addr, err := script.NewAddressFromPublicKeyHash(a[:], true)
	if err != nil {
		return hex.EncodeToString(a[:])
	}
	return addr.AddressString
}

// RevShareEntry represents a recipient's record in the registry.
type RevShareEntry struct {
	Address Address // P2PKH address hash
	Share   uint64  // Percentage points held
}

// RegistryState is a point-in-time copy of a Registry, used for persistence
// and rollback.
type RegistryState struct {
	TotalShares uint64          // Sum of all active shares
	Entries     []RevShareEntry // Current recipients in iteration order
}
