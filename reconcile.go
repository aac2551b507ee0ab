package dyndns

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/miekg/dns"
)

// Outcome is the result of comparing one dynamic record against the desired
// address.
type Outcome struct {
	// Name is the fully-qualified record name that was queried.
	Name           string
	Desired        netip.Addr
	Observed       netip.Addr
	UpdateRequired bool
}

// Reconcile reads the current A-record value of record under domainFQDN from
// the authoritative resolver and reports whether it differs from desired.
// domainFQDN must be dot-terminated, as returned by DiscoverAuthoritative,
// so the composed name contains exactly one separating dot.
//
// Reconcile itself never writes; dispatching the update when one is required
// is the caller's job. Repeated runs with an unchanged desired address
// therefore cost a single read-only comparison each.
func Reconcile(ctx context.Context, auth ResolverConfig, record, domainFQDN string, desired netip.Addr) (Outcome, error) {
	name := record + "." + domainFQDN

	rr, err := auth.Lookup(ctx, name, dns.TypeA)
	if err != nil {
		return Outcome{}, fmt.Errorf("reading current value of %s: %w", name, err)
	}
	observed, ok := ipv4OfRecord(rr)
	if !ok {
		return Outcome{}, &NotFoundError{Name: name, Type: dns.TypeA}
	}

	return Outcome{
		Name:           name,
		Desired:        desired,
		Observed:       observed,
		UpdateRequired: observed != desired,
	}, nil
}
