package dnscf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/go-logr/logr"
)

// DefaultNotifyTitle is the title given to report notifications.
const DefaultNotifyTitle = "DNSCF candidate IP update"

// New constructs a Client which keeps each of hostnames pointed at the current candidate addresses.
//
// Hostnames are processed in the order given.
// They are lowercased and a trailing dot is removed.
// A Provider must be registered, e.g. with UsingCloudflare.
// Without UsingResolver or UsingWebResolver the candidates are fetched from DefaultCandidateURL with DefaultRetryPolicy.
func New(hostnames []string, options ...ClientOption) (Client, error) {
	if len(hostnames) == 0 {
		return nil, fmt.Errorf("dnscf.New: at least one hostname is required")
	}
	normalized := make([]string, 0, len(hostnames))
	for _, h := range hostnames {
		h = normalizeHostname(h)
		if h == "" {
			return nil, fmt.Errorf("dnscf.New: hostname cannot be empty")
		}
		normalized = append(normalized, h)
	}
	c := &client{
		hostnames:   normalized,
		logger:      logr.Discard(),
		notifyTitle: DefaultNotifyTitle,
	}
	// the default URL always parses
	c.Resolver, _ = WebResolver(DefaultCandidateURL, DefaultRetryPolicy)
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("dnscf.New: option %d returned an error: %s", i, err)
		}
	}

	if c.Provider == nil {
		return nil, fmt.Errorf("dnscf.New: no DNS provider was registered and there is no default option - use dnscf.UsingCloudflare or similar")
	}
	if c.Resolver == nil {
		return nil, fmt.Errorf("dnscf.New: candidate resolver cannot be nil")
	}

	// propagate the logger to dependencies registered after WithLogger was called
	c.propagate()
	return c, nil
}

// normalizeHostname lowercases h and strips surrounding space and a trailing dot,
// matching the form in which record names are returned by providers.
func normalizeHostname(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}

// ClientOption configures a Client. See New.
type ClientOption func(*client) error

// UsingCloudflare registers Cloudflare as the DNS provider.
func UsingCloudflare(token string, opts ...cloudflare.Option) ClientOption {
	return func(c *client) (err error) {
		if c.Provider, err = newCloudflareProvider(token, opts...); err != nil {
			return fmt.Errorf("dnscf.UsingCloudflare: error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

// UsingProvider registers an arbitrary DNS provider.
func UsingProvider(p Provider) ClientOption {
	return func(c *client) error {
		if p == nil {
			return errors.New("provider cannot be nil")
		}
		c.Provider = p
		return nil
	}
}

// UsingResolver sets the source of candidate addresses.
func UsingResolver(resolver Resolver) ClientOption {
	return func(c *client) error {
		c.Resolver = resolver
		return nil
	}
}

// UsingWebResolver fetches candidate addresses from serviceURL. See WebResolver.
func UsingWebResolver(serviceURL string, policy RetryPolicy) ClientOption {
	return func(c *client) (err error) {
		c.Resolver, err = WebResolver(serviceURL, policy)
		return err
	}
}

// WithDefaultZone names a zone that is tried before listing every zone in the account.
// Hostnames it does not own fall back to the full zone listing.
func WithDefaultZone(zoneID string) ClientOption {
	return func(c *client) error {
		c.defaultZoneID = zoneID
		return nil
	}
}

// WithNotifier sends each run's report to n under title.
// An empty title uses DefaultNotifyTitle.
func WithNotifier(n Notifier, title string) ClientOption {
	return func(c *client) error {
		c.notifier = n
		if title != "" {
			c.notifyTitle = title
		}
		return nil
	}
}

// WithStrictZoneMatch requires a zone name to match hostnames on a label boundary,
// so that a zone named "example.com" does not own "evilexample.com".
func WithStrictZoneMatch() ClientOption {
	return func(c *client) error {
		c.strictZones = true
		return nil
	}
}

// WithZonePaging sets the zone listing page size and the maximum number of pages fetched.
// Zero values keep the defaults.
func WithZonePaging(perPage, maxPages int) ClientOption {
	return func(c *client) error {
		if perPage < 0 || maxPages < 0 {
			return errors.New("zone paging values cannot be negative")
		}
		c.zonePageSize, c.maxZonePages = perPage, maxPages
		return nil
	}
}

func WithLogger(logger logr.Logger) ClientOption {
	return func(c *client) error {
		c.logger = logger
		return nil
	}
}

// UsingHTTPClient sets the HTTP client of every registered dependency which makes HTTP requests.
// It only applies to dependencies registered before it.
func UsingHTTPClient(httpclient *http.Client) ClientOption {
	return func(c *client) error {
		if httpclient == nil {
			httpclient = http.DefaultClient
		}
		type setHTTPClient interface {
			SetHTTPClient(*http.Client)
		}
		for _, dep := range []any{c.Resolver, c.Provider, c.notifier} {
			if hc, ok := dep.(setHTTPClient); ok {
				hc.SetHTTPClient(httpclient)
			}
		}
		return nil
	}
}

func (c *client) propagate() {
	type setLogger interface {
		SetLogger(logr.Logger)
	}
	if l, ok := c.Resolver.(setLogger); ok {
		l.SetLogger(c.logger.WithName("candidates"))
	}
	if l, ok := c.Provider.(setLogger); ok {
		l.SetLogger(c.logger.WithName("provider"))
	}
	if l, ok := c.notifier.(setLogger); ok {
		l.SetLogger(c.logger.WithName("notify"))
	}
}

type Client interface {
	RunDDNS(ctx context.Context) (*Report, error)
}

type client struct {
	Resolver
	Provider
	notifier    Notifier
	notifyTitle string
	logger      logr.Logger

	hostnames     []string
	defaultZoneID string
	strictZones   bool
	zonePageSize  int
	maxZonePages  int
}

// RunDDNS performs one reconciliation run.
//
// Hostnames are processed one at a time, in order.
// A hostname without a matching zone or without existing A records is skipped and the run continues.
// The only error returned wraps ErrNoCandidates, in which case nothing was changed and no notification was sent.
// The report of a completed run is sent to the notifier; a notification failure is only logged.
func (c *client) RunDDNS(ctx context.Context) (*Report, error) {
	report := &Report{}

	candidates, err := c.Resolve(ctx)
	if err != nil || len(candidates) == 0 {
		if err == nil {
			err = ErrNoCandidates
		}
		if !errors.Is(err, ErrNoCandidates) {
			err = fmt.Errorf("%w: %w", ErrNoCandidates, err)
		}
		report.addLine("no candidate addresses available, nothing to do")
		return report, err
	}
	c.logger.Info("got candidate addresses", "count", len(candidates), "best", candidates[0])

	zones := &zoneCache{
		provider:  c.Provider,
		perPage:   c.zonePageSize,
		maxPages:  c.maxZonePages,
		defaultID: c.defaultZoneID,
		logger:    c.logger,
	}

	for _, hostname := range c.hostnames {
		c.logger.Info("updating hostname", "hostname", hostname)
		zone, err := zones.resolve(ctx, hostname, c.strictZones)
		if err != nil {
			c.logger.Info("skipping hostname without a matching zone", "hostname", hostname)
			report.skip(hostname, "no matching zone")
			continue
		}
		c.logger.V(1).Info("resolved zone", "hostname", hostname, "zone", zone.Name, "zoneID", zone.ID)

		records, err := existingRecords(ctx, c.Provider, zone.ID, hostname)
		if err != nil {
			c.logger.Error(err, "unable to list existing records", "hostname", hostname, "zoneID", zone.ID)
			report.skip(hostname, "unable to list A records")
			continue
		}
		if len(records) == 0 {
			c.logger.Info("no existing A record to update", "hostname", hostname, "zone", zone.Name)
			report.skip(hostname, "no existing A record to update")
			continue
		}

		outcomes := reconcile(ctx, c.Provider, zone.ID, hostname, records, candidates, c.logger)
		report.addOutcomes(hostname, outcomes)
		c.logger.Info("finished hostname", "hostname", hostname, "records", len(records), "updated", len(outcomes))
	}

	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, c.notifyTitle, report.String()); err != nil {
			c.logger.Error(err, "notification failed")
		}
	}
	return report, nil
}

// RunDaemon starts dnscfClient as a goroutine, performing a run every interval until ctx is done.
// Intervals shorter than one minute are raised to one minute.
//
// Each run looks up zones afresh. Runs that find no candidates are logged and retried on the next tick.
func RunDaemon(dnscfClient Client, ctx context.Context, interval time.Duration, logger logr.Logger) {
	if interval < 1*time.Minute {
		interval = 1 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report, err := dnscfClient.RunDDNS(ctx)
				if err != nil {
					logger.Error(err, "dnscf.RunDaemon: run did not complete")
					continue
				}
				logger.Info("run complete", "updated", len(report.Outcomes)-report.Failed(), "failed", report.Failed(), "skipped", len(report.Skipped))
			}
		}
	}()
}
