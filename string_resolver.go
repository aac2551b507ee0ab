package dyndns

import (
	"context"
	"fmt"
	"net/netip"
)

// FromString constructs a resolver that always returns the IPv4 address
// parsed from addr. It backs the static-IP configuration override.
func FromString(addr string) (Resolver, error) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse IP: %w", err)
	}
	a = a.Unmap()
	if !a.Is4() {
		return nil, fmt.Errorf("%s is not an IPv4 address", a)
	}
	return staticResolver(a), nil
}

type staticResolver netip.Addr

func (s staticResolver) Resolve(context.Context) (netip.Addr, error) {
	return netip.Addr(s), nil
}
