package dyndns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const gandiBaseURL = "https://dns.api.gandi.net/api/v5"

// httpTimeout bounds each update call, mirroring the DNS query timeout.
const httpTimeout = 15 * time.Second

// UsingGandi registers a Gandi LiveDNS v5 provider authenticated with apiKey.
func UsingGandi(apiKey string) Option {
	return func(c *Client) error {
		if apiKey == "" {
			return fmt.Errorf("gandi api key cannot be empty")
		}
		c.provider = &gandiProvider{
			apiKey:  apiKey,
			baseURL: gandiBaseURL,
			logger:  zerolog.Nop(),
		}
		return nil
	}
}

type gandiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// gandiRRSet is the request body of the LiveDNS record PUT. Type and name
// are implied by the URL and omitted from the body.
type gandiRRSet struct {
	Type   string   `json:"rrset_type,omitempty"`
	TTL    int      `json:"rrset_ttl"`
	Name   string   `json:"rrset_name,omitempty"`
	Values []string `json:"rrset_values"`
}

// UpdateARecord implements dyndns.Provider with a single authenticated PUT:
//
//	PUT {base}/domains/{domain}/records/{record}/A
//	X-Api-Key: {key}
//	{"rrset_ttl":300,"rrset_values":["203.0.113.5"]}
func (g *gandiProvider) UpdateARecord(ctx context.Context, domain, record, value string, ttl int) error {
	if strings.HasSuffix(domain, ".") {
		return &ValidationError{msg: fmt.Sprintf("domain %q must not end with '.'", domain)}
	}
	if strings.Contains(record, ".") {
		return &ValidationError{msg: fmt.Sprintf("record name %q must not contain '.'", record)}
	}

	uri := fmt.Sprintf("%s/domains/%s/records/%s/A", g.baseURL, domain, record)
	body, err := json.Marshal(gandiRRSet{TTL: ttl, Values: []string{value}})
	if err != nil {
		return fmt.Errorf("encoding rrset: %w", err)
	}
	g.logger.Debug().Str("uri", uri).RawJSON("body", body).Msg("sending update")

	ctx, cancel := context.WithTimeout(ctx, httpTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", g.apiKey)

	httpclient := g.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}
	resp, err := httpclient.Do(req)
	if err != nil {
		return &SinkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return &SinkError{Status: resp.StatusCode, Body: string(text)}
	}
	g.logger.Info().Str("domain", domain).Str("record", record).Str("value", value).Msg("gandi update successful")
	return nil
}
