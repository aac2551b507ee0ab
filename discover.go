package dyndns

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/miekg/dns"
)

// The OpenDNS echo convention: resolver1.opendns.com hosts a server which
// answers queries for myip.opendns.com with the IP of whoever is asking.
const (
	echoResolverHost = "resolver1.opendns.com."
	echoHost         = "myip.opendns.com"
)

// ServerEndpoint is a resolved authoritative name server: its host name and
// IPv4 address. Port 53 over UDP is implied. An endpoint is scoped to one
// reconciliation pass and never reused across domains.
type ServerEndpoint struct {
	Name string
	Addr netip.Addr
}

// DiscoverPublicIP learns the caller's public IPv4 address with a fixed
// two-hop lookup: first the echo server's own address is resolved through
// bootstrap, then that server is asked directly for the echo name, which it
// answers with the querying client's address. Any failure at either hop
// aborts discovery; there is no fallback source.
func DiscoverPublicIP(ctx context.Context, bootstrap ResolverConfig) (netip.Addr, error) {
	rr, err := bootstrap.Lookup(ctx, echoResolverHost, dns.TypeA)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("locating echo resolver: %w", err)
	}
	echoServer, ok := ipv4OfRecord(rr)
	if !ok {
		return netip.Addr{}, &NotFoundError{Name: echoResolverHost, Type: dns.TypeA}
	}

	echo := ResolverConfig{
		Servers: []netip.Addr{echoServer},
		Port:    bootstrap.Port,
		Zone:    rr.Header().Name,
		Timeout: bootstrap.Timeout,
	}
	rr, err = echo.Lookup(ctx, echoHost, dns.TypeA)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("querying echo server %s: %w", echoServer, err)
	}
	ip, ok := ipv4OfRecord(rr)
	if !ok {
		return netip.Addr{}, &NotFoundError{Name: echoHost, Type: dns.TypeA}
	}
	return ip, nil
}

// DiscoverAuthoritative walks the NS delegation for domain through bootstrap
// and returns the first listed name server together with a resolver config
// bound exclusively to it. The config's Zone carries the canonical
// dot-terminated owner name from the NS response, which callers should use
// in place of the configured domain from then on.
//
// Delegation is resolved fresh on every call. The authoritative server for a
// domain can change between runs, and querying it directly avoids reading
// stale cached values for the record being checked.
func DiscoverAuthoritative(ctx context.Context, bootstrap ResolverConfig, domain string) (ServerEndpoint, ResolverConfig, error) {
	rr, err := bootstrap.Lookup(ctx, domain, dns.TypeNS)
	if err != nil {
		return ServerEndpoint{}, ResolverConfig{}, fmt.Errorf("looking up name server for %s: %w", domain, err)
	}
	canonical := rr.Header().Name
	nsHost, ok := nsOfRecord(rr)
	if !ok {
		return ServerEndpoint{}, ResolverConfig{}, &NotFoundError{Name: canonical, Type: dns.TypeNS}
	}

	rr, err = bootstrap.Lookup(ctx, nsHost, dns.TypeA)
	if err != nil {
		return ServerEndpoint{}, ResolverConfig{}, fmt.Errorf("resolving name server %s: %w", nsHost, err)
	}
	addr, ok := ipv4OfRecord(rr)
	if !ok {
		return ServerEndpoint{}, ResolverConfig{}, &NotFoundError{Name: nsHost, Type: dns.TypeA}
	}

	endpoint := ServerEndpoint{Name: nsHost, Addr: addr}
	auth := AuthoritativeResolver(endpoint, canonical)
	auth.Port = bootstrap.Port
	auth.Timeout = bootstrap.Timeout
	return endpoint, auth, nil
}
