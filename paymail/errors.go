package paymail

import "errors"

var (
	// ErrInvalidIdentity indicates a recipient string is none of the accepted forms.
	ErrInvalidIdentity = errors.New("paymail: invalid recipient identity")

	// ErrDNSLookupFailed indicates a DNS SRV lookup failed.
	ErrDNSLookupFailed = errors.New("paymail: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not
	// authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("paymail: DNSSEC validation failed")

	// ErrNoEndpoints indicates no SRV records were found for the domain.
	ErrNoEndpoints = errors.New("paymail: no endpoints found")

	// ErrPaymailDiscovery indicates .well-known/bsvalias could not be fetched or parsed.
	ErrPaymailDiscovery = errors.New("paymail: capability discovery failed")

	// ErrPKIResolution indicates the PKI endpoint did not yield a key.
	ErrPKIResolution = errors.New("paymail: PKI resolution failed")

	// ErrInvalidPubKey indicates a public key is not a valid compressed secp256k1 key.
	ErrInvalidPubKey = errors.New("paymail: invalid compressed public key")
)
