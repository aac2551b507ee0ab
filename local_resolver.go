package dyndns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceResolver constructs a resolver that returns the first usable IPv4
// address reported by the given interfaces, for split-horizon setups where
// the records should track a local address rather than the public one. If no
// interfaces are named then all interfaces are considered, skipping loopback
// and link-local addresses.
func InterfaceResolver(iface ...string) Resolver {
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

func (r interfaceResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	var raw []net.Addr
	var errs []error
	if len(r.ifaces) == 0 {
		adds, err := net.InterfaceAddrs()
		if err != nil {
			return netip.Addr{}, fmt.Errorf("error getting interface addresses: %w", err)
		}
		raw = adds
	} else {
		for _, name := range r.ifaces {
			iface, err := net.InterfaceByName(name)
			if err != nil {
				errs = append(errs, fmt.Errorf("error getting interface %s by name: %w", name, err))
				continue
			}
			adds, err := iface.Addrs()
			if err != nil {
				errs = append(errs, fmt.Errorf("error looking up addresses for interface %s: %w", name, err))
				continue
			}
			raw = append(raw, adds...)
		}
	}

	// addr: ip+net:192.168.86.253/24
	// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
	for _, addr := range raw {
		prefix, err := netip.ParsePrefix(addr.String())
		if err != nil {
			errs = append(errs, fmt.Errorf("error parsing local ip %s: %w", addr.String(), err))
			continue
		}
		ip := prefix.Addr().Unmap()
		if !ip.Is4() || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		return ip, nil
	}

	errs = append(errs, errors.New("no usable IPv4 interface address found"))
	return netip.Addr{}, errors.Join(errs...)
}
