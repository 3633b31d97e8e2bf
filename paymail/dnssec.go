package paymail

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	defaultUpstream = "8.8.8.8:53"
	dnssecTimeout   = 10 * time.Second
	edns0BufSize    = 4096
)

// DNSSECResolver asks a validating recursive resolver for SRV records and
// accepts only answers carrying the AD (Authenticated Data) flag.
type DNSSECResolver struct {
	Upstream string
}

// Compile-time interface check.
var _ DNSResolver = (*DNSSECResolver)(nil)

// NewDNSSECResolver creates a resolver querying upstream, or 8.8.8.8:53 if empty.
func NewDNSSECResolver(upstream string) *DNSSECResolver {
	if upstream == "" {
		upstream = defaultUpstream
	}
	return &DNSSECResolver{Upstream: upstream}
}

// LookupSRV looks up _service._proto.name. The canonical name is always empty.
func (r *DNSSECResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	qname := dns.Fqdn(fmt.Sprintf("_%s._%s.%s", service, proto, name))

	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeSRV)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true)

	client := &dns.Client{Timeout: dnssecTimeout}
	resp, _, err := client.Exchange(msg, r.Upstream)
	if err != nil {
		return "", nil, fmt.Errorf("%w: SRV %s: %w", ErrDNSLookupFailed, qname, err)
	}
	srvs, err := srvFromMsg(qname, resp)
	return "", srvs, err
}

// srvFromMsg validates resp and extracts its SRV answers.
func srvFromMsg(qname string, resp *dns.Msg) ([]*net.SRV, error) {
	if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
		return nil, fmt.Errorf("%w: SRV %s: rcode %s", ErrDNSLookupFailed, qname, dns.RcodeToString[resp.Rcode])
	}
	if !resp.AuthenticatedData {
		return nil, fmt.Errorf("%w: SRV %s", ErrDNSSECValidationFailed, qname)
	}

	var srvs []*net.SRV
	for _, rr := range resp.Answer {
		if srv, ok := rr.(*dns.SRV); ok {
			srvs = append(srvs, &net.SRV{
				Target:   strings.TrimSuffix(srv.Target, "."),
				Port:     srv.Port,
				Priority: srv.Priority,
				Weight:   srv.Weight,
			})
		}
	}
	if len(srvs) == 0 {
		return nil, fmt.Errorf("%w: SRV %s", ErrNoEndpoints, qname)
	}
	return srvs, nil
}
