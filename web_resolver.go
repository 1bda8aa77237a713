package dnscf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
)

// DefaultCandidateURL serves a comma-separated list of recommended Cloudflare edge IPs, best first.
const DefaultCandidateURL = "https://ip.164746.xyz/ipTop10.html"

// maxCandidateBody caps how much of a candidate response is read.
const maxCandidateBody = 1 << 20

// ErrNoCandidates is returned when no candidate addresses could be obtained.
// There is nothing to reconcile without candidates, so callers should treat it as a no-op run.
var ErrNoCandidates = errors.New("no candidate addresses available")

// WebResolver constructs a resolver which downloads the candidate list from serviceURL.
//
// The service must return status "200 OK" with a non-empty body of comma-separated IPv4 addresses.
// Any other response counts as a failed attempt, and the next attempt is made according to policy.
// If every attempt fails, Resolve returns an error wrapping ErrNoCandidates.
func WebResolver(serviceURL string, policy RetryPolicy) (Resolver, error) {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return &webResolver{serviceURL: u, policy: policy, logger: logr.Discard()}, nil
}

type webResolver struct {
	httpClient *http.Client
	serviceURL *url.URL
	policy     RetryPolicy
	logger     logr.Logger
}

func (wr *webResolver) SetLogger(l logr.Logger) { wr.logger = l }
func (wr *webResolver) SetHTTPClient(hc *http.Client) { wr.httpClient = hc }

// Resolve implements dnscf.Resolver.
func (wr *webResolver) Resolve(ctx context.Context) ([]netip.Addr, error) {
	attempts := wr.policy.attempts()
	var errs []error
	for i := 1; i <= attempts; i++ {
		body, err := wr.fetch(ctx)
		if err == nil {
			addrs := ParseCandidates(body, wr.logger)
			if len(addrs) > 0 {
				wr.logger.V(1).Info("fetched candidate list", "attempt", i, "count", len(addrs))
				return addrs, nil
			}
			err = errors.New("response contained no usable IPv4 addresses")
		}
		wr.logger.Error(err, "candidate request failed", "attempt", i, "maxAttempts", attempts, "url", wr.serviceURL.String())
		errs = append(errs, fmt.Errorf("attempt %d: %w", i, err))

		if ctx.Err() != nil {
			break
		}
		if i < attempts && wr.policy.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(wr.policy.Delay):
			}
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrNoCandidates, errors.Join(errs...))
}

func (wr *webResolver) fetch(ctx context.Context) (string, error) {
	if wr.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wr.policy.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wr.serviceURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := wr.httpClient
	if httpclient == nil {
		httpclient = cleanhttp.DefaultClient()
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http request returned %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxCandidateBody))
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", errors.New("http response body was empty")
	}
	return string(b), nil
}

// ParseCandidates decodes a comma-separated candidate list.
// Whitespace is trimmed and empty entries are dropped.
// Entries which are not IPv4 addresses are logged and dropped.
// Order is preserved.
func ParseCandidates(s string, logger logr.Logger) []netip.Addr {
	var addrs []netip.Addr
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		a, err := netip.ParseAddr(field)
		if err != nil || !a.Is4() {
			logger.Info("ignoring candidate which is not an IPv4 address", "entry", field)
			continue
		}
		addrs = append(addrs, a)
	}
	return addrs
}
