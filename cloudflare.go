package dnscf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
)

// recordPageSize is large enough that a single hostname's A records always fit on one page.
const recordPageSize = 100

// DefaultAPITimeout bounds each call to the Cloudflare API.
const DefaultAPITimeout = 15 * time.Second

// NewCloudflareProvider constructs a Provider for the Cloudflare account that token has access to.
//
// Extra cloudflare.Options are applied after the defaults,
// so they may override the base URL, HTTP client, retry policy or rate limit.
func NewCloudflareProvider(token string, opts ...cloudflare.Option) (Provider, error) {
	return newCloudflareProvider(token, opts...)
}

func newCloudflareProvider(token string, opts ...cloudflare.Option) (cf *cloudflareProvider, err error) {
	if token == "" {
		return nil, errors.New("cloudflare API token cannot be empty")
	}
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = DefaultAPITimeout
	// a failed call is reported once instead of being retried with backoff
	defaults := []cloudflare.Option{
		cloudflare.HTTPClient(hc),
		cloudflare.UsingRetryPolicy(0, 0, 0),
	}
	opts = append(defaults, opts...)

	cf = new(cloudflareProvider)
	cf.api, err = cloudflare.NewWithAPIToken(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.logger = logr.Discard()
	return cf, nil
}

// cloudflareProvider implements dnscf.Provider.
//
// It should be constructed using NewCloudflareProvider.
type cloudflareProvider struct {
	api    *cloudflare.API
	logger logr.Logger
}

func (cf *cloudflareProvider) SetLogger(l logr.Logger) { cf.logger = l }

func (cf *cloudflareProvider) SetHTTPClient(hc *http.Client) {
	// cloudflare.HTTPClient never fails
	_ = cloudflare.HTTPClient(hc)(cf.api)
}

// ListZones fetches a single page of zones.
// ListZonesContext paginates on its own and refuses page options, so the page is requested directly.
func (cf *cloudflareProvider) ListZones(ctx context.Context, page, perPage int) (ZonePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	raw, err := cf.api.Raw(ctx, http.MethodGet, "/zones?"+q.Encode(), nil, nil)
	if err != nil {
		return ZonePage{}, err
	}
	var zones []cloudflare.Zone
	if err := json.Unmarshal(raw.Result, &zones); err != nil {
		return ZonePage{}, fmt.Errorf("error decoding zones page %d: %w", page, err)
	}
	zp := ZonePage{Zones: make([]Zone, 0, len(zones))}
	if raw.ResultInfo != nil {
		zp.TotalPages = raw.ResultInfo.TotalPages
	}
	for _, z := range zones {
		zp.Zones = append(zp.Zones, Zone{ID: z.ID, Name: z.Name})
	}
	return zp, nil
}

func (cf *cloudflareProvider) ZoneDetails(ctx context.Context, zoneID string) (Zone, error) {
	z, err := cf.api.ZoneDetails(ctx, zoneID)
	if err != nil {
		return Zone{}, fmt.Errorf("error fetching zone %s: %w", zoneID, err)
	}
	return Zone{ID: z.ID, Name: z.Name}, nil
}

func (cf *cloudflareProvider) ListAddressRecords(ctx context.Context, zoneID, name string) ([]AddressRecord, error) {
	cf.logger.V(1).Info("looking up A records", "zoneID", zoneID, "name", name)
	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.ListDNSRecordsParams{
		Type:       recordTypeA,
		Name:       name,
		ResultInfo: cloudflare.ResultInfo{PerPage: recordPageSize},
	})
	if err != nil {
		return nil, err
	}
	cf.logger.V(1).Info("found existing records", "name", name, "count", len(records))
	out := make([]AddressRecord, 0, len(records))
	for _, r := range records {
		out = append(out, AddressRecord{ID: r.ID, Name: r.Name, Type: r.Type, Content: r.Content})
	}
	return out, nil
}

type recordUpdate struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// UpdateAddressRecord overwrites the record with PUT, keeping its name and type.
func (cf *cloudflareProvider) UpdateAddressRecord(ctx context.Context, zoneID string, record AddressRecord) error {
	if zoneID == "" || record.ID == "" {
		return errors.New("zone ID and record ID are required")
	}
	endpoint := fmt.Sprintf("/zones/%s/dns_records/%s", url.PathEscape(zoneID), url.PathEscape(record.ID))
	_, err := cf.api.Raw(ctx, http.MethodPut, endpoint, recordUpdate{
		Type:    recordTypeA,
		Name:    record.Name,
		Content: record.Content,
	}, nil)
	return err
}
