package dyndns

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// defaultTTL is applied to records written by the update provider.
const defaultTTL = 300

// Resolver determines the caller's current public IPv4 address.
type Resolver interface {
	Resolve(ctx context.Context) (netip.Addr, error)
}

// Provider performs the authenticated write when a record needs updating.
// domain must not end with a dot and record must not contain one;
// implementations reject violations with *ValidationError before any network
// call.
type Provider interface {
	UpdateARecord(ctx context.Context, domain, record, value string, ttl int) error
}

// Client keeps a set of dynamic A records pointed at the caller's public IP.
// Construct it with New.
type Client struct {
	resolver  Resolver
	provider  Provider
	bootstrap ResolverConfig
	domain    string
	records   []string
	ttl       int
	logger    zerolog.Logger
}

// Option configures a Client during New.
type Option func(*Client) error

// New builds a Client that keeps the given record names under domainFQDN in
// sync. domainFQDN must be dot-terminated and record names must be bare
// labels without dots. A provider must be registered with UsingGandi,
// UsingCloudflare or UsingProvider. The default IP source is DNS echo
// discovery; override it with UsingResolver or WithStaticIP.
func New(domainFQDN string, records []string, options ...Option) (*Client, error) {
	if domainFQDN == "" {
		return nil, fmt.Errorf("dyndns.New: domain cannot be empty")
	}
	if !strings.HasSuffix(domainFQDN, ".") {
		return nil, fmt.Errorf("dyndns.New: domain %q must end with '.'", domainFQDN)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dyndns.New: at least one record name is required")
	}
	for _, r := range records {
		if r == "" || strings.Contains(r, ".") {
			return nil, fmt.Errorf("dyndns.New: record name %q must be a bare label without dots", r)
		}
	}

	c := &Client{
		bootstrap: RecursiveResolver(),
		domain:    domainFQDN,
		records:   records,
		ttl:       defaultTTL,
		logger:    zerolog.Nop(),
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("dyndns.New: option %d returned an error: %w", i, err)
		}
	}
	if c.resolver == nil {
		c.resolver = DNSResolver{Bootstrap: c.bootstrap}
	}
	if c.provider == nil {
		return nil, fmt.Errorf("dyndns.New: no update provider was registered and there is no default - use dyndns.UsingGandi or similar")
	}

	// propagate the logger to dependencies in case WithLogger came before
	// the options that registered them
	withLogger(c.logger)(c)
	return c, nil
}

// UsingProvider registers an update provider directly.
func UsingProvider(p Provider) Option {
	return func(c *Client) error {
		if p == nil {
			return fmt.Errorf("provider cannot be nil")
		}
		c.provider = p
		return nil
	}
}

// UsingResolver overrides the source of the desired public IP.
func UsingResolver(r Resolver) Option {
	return func(c *Client) error {
		if r == nil {
			r = DNSResolver{Bootstrap: c.bootstrap}
		}
		c.resolver = r
		return nil
	}
}

// WithStaticIP skips IP discovery entirely and uses addr as the desired
// address.
func WithStaticIP(addr netip.Addr) Option {
	return func(c *Client) error {
		if !addr.Unmap().Is4() {
			return fmt.Errorf("static IP %s is not an IPv4 address", addr)
		}
		c.resolver = staticResolver(addr.Unmap())
		return nil
	}
}

// UsingBootstrapResolver overrides the recursive resolver used for echo
// discovery and delegation walking.
func UsingBootstrapResolver(cfg ResolverConfig) Option {
	return func(c *Client) error {
		c.bootstrap = cfg
		return nil
	}
}

// WithTTL overrides the TTL applied to written records.
func WithTTL(seconds int) Option {
	return func(c *Client) error {
		if seconds <= 0 {
			return fmt.Errorf("ttl must be positive, got %d", seconds)
		}
		c.ttl = seconds
		return nil
	}
}

// WithLogger directs the client's progress logging to logger. The default
// discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

func withLogger(logger zerolog.Logger) Option {
	return func(c *Client) error {
		type setLogger interface {
			SetLogger(zerolog.Logger)
		}
		switch p := c.provider.(type) {
		case *gandiProvider:
			p.logger = logger
		case *cloudflareProvider:
			p.logger = logger
		case setLogger:
			p.SetLogger(logger)
		}
		if r, ok := c.resolver.(setLogger); ok {
			r.SetLogger(logger)
		}
		return nil
	}
}

// UsingHTTPClient overrides the HTTP client used by providers and resolvers
// that talk HTTP.
func UsingHTTPClient(httpclient *http.Client) Option {
	return func(c *Client) error {
		if httpclient == nil {
			httpclient = http.DefaultClient
		}
		type setHTTPClient interface {
			SetHTTPClient(*http.Client)
		}
		switch r := c.resolver.(type) {
		case *webResolver:
			r.httpClient = httpclient
		case setHTTPClient:
			r.SetHTTPClient(httpclient)
		}
		switch p := c.provider.(type) {
		case *gandiProvider:
			p.httpClient = httpclient
		case setHTTPClient:
			p.SetHTTPClient(httpclient)
		}
		return nil
	}
}

// Run performs one synchronization pass: it determines the desired public
// IP, then for each configured record discovers the domain's authoritative
// server, reads the record's current value from it, and writes through the
// provider when the values differ. Records are processed sequentially in
// the configured order; the first failure aborts the pass.
func (c *Client) Run(ctx context.Context) error {
	desired, err := c.resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("determining public IP: %w", err)
	}
	desired = desired.Unmap()
	if !desired.Is4() {
		return fmt.Errorf("resolved address %s is not IPv4", desired)
	}
	c.logger.Info().Stringer("ip", desired).Msg("desired address")

	for _, record := range c.records {
		if err := c.reconcileRecord(ctx, record, desired); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) reconcileRecord(ctx context.Context, record string, desired netip.Addr) error {
	c.logger.Info().Str("domain", c.domain).Str("record", record).Msg("processing record")

	endpoint, auth, err := DiscoverAuthoritative(ctx, c.bootstrap, c.domain)
	if err != nil {
		return err
	}
	c.logger.Debug().
		Str("domain", auth.Zone).
		Str("ns", endpoint.Name).
		Stringer("ns_ip", endpoint.Addr).
		Msg("discovered authoritative server")

	outcome, err := Reconcile(ctx, auth, record, auth.Zone, desired)
	if err != nil {
		return err
	}
	if !outcome.UpdateRequired {
		c.logger.Info().
			Str("name", outcome.Name).
			Stringer("ip", outcome.Observed).
			Msg("record is up to date")
		return nil
	}

	c.logger.Info().
		Str("name", outcome.Name).
		Stringer("observed", outcome.Observed).
		Stringer("desired", outcome.Desired).
		Msg("record needs update")

	domain := strings.TrimSuffix(auth.Zone, ".")
	if err := c.provider.UpdateARecord(ctx, domain, record, desired.String(), c.ttl); err != nil {
		return fmt.Errorf("updating %s: %w", outcome.Name, err)
	}
	return nil
}

// RunDaemon calls Run immediately and then on every tick of interval until
// ctx is done. Failed passes are logged and the loop keeps going; a pass
// that failed this time usually succeeds the next. Intervals under one
// minute are raised to one minute.
func (c *Client) RunDaemon(ctx context.Context, interval time.Duration) {
	if interval < 1*time.Minute {
		interval = 1 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.Run(ctx); err != nil {
			c.logger.Error().Err(err).Msg("synchronization pass failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DNSResolver discovers the public IP through the DNS echo convention. The
// zero value uses the default bootstrap servers.
type DNSResolver struct {
	Bootstrap ResolverConfig
}

// Resolve implements dyndns.Resolver.
func (r DNSResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	return DiscoverPublicIP(ctx, r.Bootstrap)
}
