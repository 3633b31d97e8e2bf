package revshare

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/script"
)

// ParseAddress accepts a base58 P2PKH address (mainnet or testnet) or the
// 40-character hex encoding of a public key hash.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if s == "" {
		return a, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	if len(s) == 2*AddressSize {
		if raw, err := hex.DecodeString(s); err == nil {
			copy(a[:], raw)
			return a, nil
		}
	}

	addr, err := script.NewAddressFromString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	pkh := []byte(addr.PublicKeyHash)
	if len(pkh) != AddressSize {
		return a, fmt.Errorf("%w: %q: public key hash is %d bytes", ErrInvalidAddress, s, len(pkh))
	}
	copy(a[:], pkh)
	return a, nil
}

// AddressFromPublicKeyHash copies a 20-byte hash into an Address.
func AddressFromPublicKeyHash(pkh []byte) (Address, error) {
	var a Address
	if len(pkh) != AddressSize {
		return a, fmt.Errorf("%w: public key hash is %d bytes", ErrInvalidAddress, len(pkh))
	}
	copy(a[:], pkh)
	return a, nil
}
