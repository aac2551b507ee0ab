package dyndns

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/rs/zerolog"
)

// UsingCloudflare registers a Cloudflare provider authenticated with an API
// token scoped to the zone being updated.
func UsingCloudflare(token string) Option {
	return func(c *Client) (err error) {
		if c.provider, err = newCloudflareProvider(token); err != nil {
			return fmt.Errorf("error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

func newCloudflareProvider(token string) (cf *cloudflareProvider, err error) {
	cf = new(cloudflareProvider)
	cf.api, err = cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.logger = zerolog.Nop()
	cf.comment = "managed by dyndns"
	return cf, nil
}

// cloudflareProvider implements dyndns.Provider.
type cloudflareProvider struct {
	api     *cloudflare.API
	logger  zerolog.Logger
	comment string // attached to each record this provider creates
}

func (cf *cloudflareProvider) UpdateARecord(ctx context.Context, domain, record, value string, ttl int) error {
	if cf.api == nil {
		return fmt.Errorf("cloudflare provider must be constructed with dyndns.UsingCloudflare")
	}
	if strings.HasSuffix(domain, ".") {
		return &ValidationError{msg: fmt.Sprintf("domain %q must not end with '.'", domain)}
	}
	if strings.Contains(record, ".") {
		return &ValidationError{msg: fmt.Sprintf("record name %q must not contain '.'", record)}
	}

	name := record + "." + domain
	zid, err := cf.getZoneIDFromDomain(ctx, domain)
	if err != nil {
		return &SinkError{Err: fmt.Errorf("unable to get zone ID for %s: %w", domain, err)}
	}
	cf.logger.Debug().Str("zone", zid).Str("name", name).Msg("looking up existing A records")

	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.ListDNSRecordsParams{
		Type: "A",
		Name: name,
	})
	if err != nil {
		return &SinkError{Err: fmt.Errorf("unable to list DNS records for %s: %w", name, err)}
	}

	for _, r := range records {
		if r.Content == value {
			cf.logger.Debug().Str("name", name).Str("value", value).Msg("record already set")
			return nil
		}
		cf.logger.Debug().Str("id", r.ID).Str("content", r.Content).Msg("deleting stale record")
		if err := cf.api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), r.ID); err != nil {
			return &SinkError{Err: fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)}
		}
	}

	created, err := cf.api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.CreateDNSRecordParams{
		Type:    "A",
		Name:    name,
		Content: value,
		ZoneID:  zid,
		TTL:     ttl,
		Comment: cf.comment,
	})
	if err != nil {
		return &SinkError{Err: fmt.Errorf("error creating DNS record: %w", err)}
	}
	cf.logger.Info().Str("name", name).Str("value", value).Interface("record", created).Msg("cloudflare update successful")
	return nil
}

func (cf *cloudflareProvider) getZoneIDFromDomain(ctx context.Context, domain string) (zid string, err error) {
	zones, err := cf.api.ListZones(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing zones: %w", err)
	}

	max := 0
	for _, z := range zones {
		if strings.HasSuffix(domain, z.Name) && len(z.Name) > max {
			max, zid = len(z.Name), z.ID
		}
	}
	if max == 0 {
		return "", fmt.Errorf("unable to find a zone matching \"%s\"", domain)
	}
	return zid, nil
}
