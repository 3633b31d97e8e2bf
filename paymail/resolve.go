// Package paymail turns operator-supplied recipient identities into
// payout addresses. An identity is a base58 P2PKH address, 40 hex chars of
// public-key hash, a 66-hex compressed public key, or a paymail handle
// (alias@domain) resolved through the handle's PKI capability.
package paymail

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/revsplit/revshare"
)

// MaxResponseSize bounds every paymail HTTP response body.
const MaxResponseSize = 1 << 20

const compressedPubKeyHexLen = 66

// HTTPClient performs GET requests. Tests substitute their own.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// Capabilities holds the capability URL templates a paymail host advertises.
type Capabilities struct {
	PKI           string
	PublicProfile string
}

// PKIResponse is the body returned by a PKI endpoint.
type PKIResponse struct {
	BSVAlias string `json:"bsvalias"`
	Handle   string `json:"handle"`
	PubKey   string `json:"pubkey"`
}

type wellKnownResponse struct {
	BSVAlias     string                 `json:"bsvalias"`
	Capabilities map[string]interface{} `json:"capabilities"`
}

// Capability keys. Hosts use either the short name or the BRFC id.
const (
	capPKI           = "pki"
	capPKIBRFC       = "6745385c3fc0"
	capPublicProfile = "f12f968c92d6"
)

// Resolver resolves recipient identities.
type Resolver struct {
	HTTP HTTPClient
	DNS  DNSResolver
	// Scheme is used for .well-known discovery; "https" unless set.
	Scheme string
}

// NewResolver creates a Resolver using dns for SRV discovery and a plain
// HTTP client with timeout.
func NewResolver(dns DNSResolver, timeout time.Duration) *Resolver {
	if dns == nil {
		dns = SystemResolver
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{HTTP: &http.Client{Timeout: timeout}, DNS: dns, Scheme: "https"}
}

// Resolve returns the payout address for identity.
func (r *Resolver) Resolve(identity string) (revshare.Address, error) {
	identity = strings.TrimSpace(identity)
	if alias, domain, ok := SplitHandle(identity); ok {
		pub, err := r.ResolvePKI(alias, domain)
		if err != nil {
			return revshare.Address{}, err
		}
		return revshare.AddressFromPublicKeyHash(pub.Hash())
	}
	if isPubKeyHex(identity) {
		pub, err := parsePubKeyHex(identity)
		if err != nil {
			return revshare.Address{}, err
		}
		return revshare.AddressFromPublicKeyHash(pub.Hash())
	}
	a, err := revshare.ParseAddress(identity)
	if err != nil {
		return revshare.Address{}, fmt.Errorf("%w: %q: %w", ErrInvalidIdentity, identity, err)
	}
	return a, nil
}

// SplitHandle splits alias@domain. Both parts must be non-empty and the
// domain may not contain '/'.
func SplitHandle(s string) (alias, domain string, ok bool) {
	i := strings.LastIndexByte(s, '@')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	alias, domain = s[:i], strings.ToLower(s[i+1:])
	if strings.ContainsAny(domain, "/@ ") || strings.ContainsAny(alias, "/ ") {
		return "", "", false
	}
	return alias, domain, true
}

// host returns the host:port serving domain's paymail API. Without SRV
// records the domain itself on the default port is used.
func (r *Resolver) host(domain string) string {
	if r.DNS != nil {
		if endpoints, err := ResolveEndpoints(domain, r.DNS); err == nil {
			return endpoints[0]
		}
	}
	return domain
}

// DiscoverCapabilities fetches domain's .well-known/bsvalias document.
func (r *Resolver) DiscoverCapabilities(domain string) (*Capabilities, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrPaymailDiscovery)
	}
	scheme := r.Scheme
	if scheme == "" {
		scheme = "https"
	}
	wellKnown := scheme + "://" + r.host(domain) + "/.well-known/bsvalias"

	var wk wellKnownResponse
	if err := r.getJSON(wellKnown, &wk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymailDiscovery, err)
	}

	caps := &Capabilities{}
	for key, val := range wk.Capabilities {
		s, ok := val.(string)
		if !ok {
			continue
		}
		switch key {
		case capPKI, capPKIBRFC:
			caps.PKI = s
		case capPublicProfile:
			caps.PublicProfile = s
		}
	}
	return caps, nil
}

// ResolvePKI returns the identity public key of alias@domain.
func (r *Resolver) ResolvePKI(alias, domain string) (*ec.PublicKey, error) {
	if alias == "" || domain == "" {
		return nil, fmt.Errorf("%w: alias and domain are required", ErrPKIResolution)
	}
	caps, err := r.DiscoverCapabilities(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	if caps.PKI == "" {
		return nil, fmt.Errorf("%w: %s advertises no PKI capability", ErrPKIResolution, domain)
	}

	pkiURL := strings.ReplaceAll(caps.PKI, "{alias}", url.PathEscape(alias))
	pkiURL = strings.ReplaceAll(pkiURL, "{domain.tld}", url.PathEscape(domain))

	var pki PKIResponse
	if err := r.getJSON(pkiURL, &pki); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	if pki.PubKey == "" {
		return nil, fmt.Errorf("%w: empty public key", ErrPKIResolution)
	}
	return parsePubKeyHex(pki.PubKey)
}

func (r *Resolver) getJSON(rawURL string, v interface{}) error {
	resp, err := r.HTTP.Get(rawURL)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", rawURL, err)
	}
	return nil
}

func isPubKeyHex(s string) bool {
	return len(s) == compressedPubKeyHexLen && (strings.HasPrefix(s, "02") || strings.HasPrefix(s, "03"))
}

// parsePubKeyHex decodes and curve-checks a compressed public key.
func parsePubKeyHex(s string) (*ec.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	if len(raw) != 33 || (raw[0] != 0x02 && raw[0] != 0x03) {
		return nil, fmt.Errorf("%w: want 33-byte compressed key", ErrInvalidPubKey)
	}
	pub, err := ec.PublicKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	return pub, nil
}
