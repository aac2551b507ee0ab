package dyndns

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/miekg/dns"
)

// queryTimeout bounds every individual DNS query.
const queryTimeout = 15 * time.Second

const dnsPort = 53

// defaultBootstrapServers are the recursive resolvers used for delegation
// walking when the caller does not supply their own.
var defaultBootstrapServers = []netip.Addr{
	netip.MustParseAddr("8.8.8.8"),
	netip.MustParseAddr("8.8.4.4"),
}

// ResolverConfig binds a query scope to a set of DNS servers. It is a plain
// value: construct one, use it for the handful of queries it was built for,
// and discard it. Local hosts files are never consulted.
type ResolverConfig struct {
	// Servers are queried in declaration order; only the first is used for
	// any single lookup since no retries are performed at this layer.
	Servers []netip.Addr
	// Port is the server port; zero means 53. It exists so nonstandard
	// deployments (and tests) can target a different port.
	Port uint16
	// Zone pins the scope to the owner name that produced this config,
	// preserving the dot-terminated form returned by the upstream query.
	Zone string
	// Timeout bounds each query; zero means 15 seconds.
	Timeout time.Duration
}

// RecursiveResolver returns a config pointed at general-purpose recursive
// resolvers, defaulting to Google public DNS when none are given.
func RecursiveResolver(servers ...netip.Addr) ResolverConfig {
	if len(servers) == 0 {
		servers = defaultBootstrapServers
	}
	return ResolverConfig{Servers: servers, Timeout: queryTimeout}
}

// AuthoritativeResolver returns a config bound exclusively to one resolved
// name server, with the scope pinned to the zone it is authoritative for.
func AuthoritativeResolver(endpoint ServerEndpoint, zone string) ResolverConfig {
	return ResolverConfig{
		Servers: []netip.Addr{endpoint.Addr},
		Zone:    zone,
		Timeout: queryTimeout,
	}
}

func (rc ResolverConfig) addr() string {
	port := int(rc.Port)
	if port == 0 {
		port = dnsPort
	}
	server := defaultBootstrapServers[0]
	if len(rc.Servers) > 0 {
		server = rc.Servers[0]
	}
	return net.JoinHostPort(server.String(), strconv.Itoa(port))
}

// Lookup issues one DNS query for name against the configured servers and
// returns the first answer record whose type matches qtype. Records of other
// types (CNAME chains and the like) are skipped. It fails with
// *NotFoundError when a successful response carries no matching record and
// with *TransportError when the exchange itself fails. No retries are made;
// a single failed attempt is surfaced immediately.
func (rc ResolverConfig) Lookup(ctx context.Context, name string, qtype uint16) (dns.RR, error) {
	fqdn := dns.Fqdn(name)
	server := rc.addr()

	timeout := rc.Timeout
	if timeout == 0 {
		timeout = queryTimeout
	}
	c := &dns.Client{Net: "udp", Timeout: timeout}

	m := new(dns.Msg)
	m.SetQuestion(fqdn, qtype)
	m.RecursionDesired = true

	in, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, &TransportError{Server: server, Name: fqdn, Err: err}
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &NotFoundError{Name: fqdn, Type: qtype}
	default:
		return nil, &TransportError{
			Server: server,
			Name:   fqdn,
			Err:    fmt.Errorf("server returned %s", dns.RcodeToString[in.Rcode]),
		}
	}

	for _, rr := range in.Answer {
		if rr.Header().Rrtype == qtype {
			return rr, nil
		}
	}
	return nil, &NotFoundError{Name: fqdn, Type: qtype}
}

// ipv4OfRecord extracts the IPv4 payload from an A record.
func ipv4OfRecord(rr dns.RR) (netip.Addr, bool) {
	a, ok := rr.(*dns.A)
	if !ok {
		return netip.Addr{}, false
	}
	return netip.AddrFromSlice(a.A.To4())
}

// nsOfRecord extracts the name-server target from an NS record.
func nsOfRecord(rr dns.RR) (string, bool) {
	ns, ok := rr.(*dns.NS)
	if !ok {
		return "", false
	}
	return ns.Ns, true
}
