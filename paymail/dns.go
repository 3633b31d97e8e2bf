package paymail

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// DNSResolver performs SRV lookups. Tests substitute their own.
type DNSResolver interface {
	LookupSRV(service, proto, name string) (string, []*net.SRV, error)
}

type systemResolver struct{}

func (systemResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return net.LookupSRV(service, proto, name)
}

// SystemResolver uses the operating system's resolver without DNSSEC checks.
var SystemResolver DNSResolver = systemResolver{}

// SRVService is the paymail service label: _bsvalias._tcp.{domain}.
const SRVService = "bsvalias"

// ResolveEndpoints returns the host:port pairs advertised for domain's
// paymail service, ordered by ascending priority then descending weight.
func ResolveEndpoints(domain string, resolver DNSResolver) ([]string, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}

	_, addrs, err := resolver.LookupSRV(SRVService, "tcp", domain)
	if err != nil {
		return nil, fmt.Errorf("%w: _%s._tcp.%s: %w", ErrDNSLookupFailed, SRVService, domain, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: _%s._tcp.%s", ErrNoEndpoints, SRVService, domain)
	}

	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})

	endpoints := make([]string, len(addrs))
	for i, srv := range addrs {
		endpoints[i] = net.JoinHostPort(strings.TrimSuffix(srv.Target, "."), fmt.Sprint(srv.Port))
	}
	return endpoints, nil
}
