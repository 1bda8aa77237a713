package dnscf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

const (
	// DefaultZonePageSize is the number of zones requested per page.
	DefaultZonePageSize = 50
	// DefaultMaxZonePages stops pagination on responses that never report a last page.
	DefaultMaxZonePages = 100
)

// ErrZoneNotFound is returned when no zone name is a suffix of the hostname.
var ErrZoneNotFound = errors.New("no matching zone")

// listAllZones collects every zone of the account, page by page.
//
// A failed page is not retried.
// The zones gathered before the failure are returned together with the error,
// so callers may continue with a partial list.
func listAllZones(ctx context.Context, p Provider, perPage, maxPages int, logger logr.Logger) ([]Zone, error) {
	if perPage < 1 {
		perPage = DefaultZonePageSize
	}
	if maxPages < 1 {
		maxPages = DefaultMaxZonePages
	}
	var zones []Zone
	for page := 1; page <= maxPages; page++ {
		zp, err := p.ListZones(ctx, page, perPage)
		if err != nil {
			return zones, fmt.Errorf("error listing zones page %d: %w", page, err)
		}
		zones = append(zones, zp.Zones...)
		logger.V(1).Info("fetched zone page", "page", page, "totalPages", zp.TotalPages, "zones", len(zp.Zones))
		if page >= zp.TotalPages || len(zp.Zones) == 0 {
			return zones, nil
		}
	}
	logger.Info("zone listing stopped at page ceiling", "maxPages", maxPages, "zones", len(zones))
	return zones, nil
}

// MatchZone returns the zone which owns hostname:
// the zone with the longest name that is a case-insensitive suffix of hostname.
// When several zones share that length, the first one in zones wins.
//
// Note that this is a plain string suffix test,
// so "evilexample.com" is owned by a zone named "example.com".
// Use MatchZoneStrict to require a label boundary.
func MatchZone(hostname string, zones []Zone) (Zone, bool) {
	return matchZone(hostname, zones, false)
}

// MatchZoneStrict is like MatchZone,
// but the zone name must equal hostname or be preceded by a "." in hostname.
func MatchZoneStrict(hostname string, zones []Zone) (Zone, bool) {
	return matchZone(hostname, zones, true)
}

func matchZone(hostname string, zones []Zone, strict bool) (zone Zone, found bool) {
	max := 0
	for _, z := range zones {
		if z.Name == "" || !ownsHost(z.Name, hostname, strict) {
			continue
		}
		if len(z.Name) > max {
			max, zone, found = len(z.Name), z, true
		}
	}
	return zone, found
}

func ownsHost(zoneName, hostname string, strict bool) bool {
	zn, h := strings.ToLower(zoneName), strings.ToLower(hostname)
	if !strings.HasSuffix(h, zn) {
		return false
	}
	if !strict || len(h) == len(zn) {
		return true
	}
	return h[len(h)-len(zn)-1] == '.'
}

// zoneCache holds the zone lookups made during one run.
// Each lookup happens at most once, on first use.
type zoneCache struct {
	provider Provider
	perPage  int
	maxPages int
	logger   logr.Logger

	defaultID     string
	defaultZone   Zone
	defaultLoaded bool

	zones  []Zone
	loaded bool
}

// resolve returns the zone which owns hostname.
//
// A configured default zone is tried first and used without listing the account's zones when its name matches.
// If the default zone cannot be fetched or does not match, the full zone list is consulted.
func (zc *zoneCache) resolve(ctx context.Context, hostname string, strict bool) (Zone, error) {
	if zc.defaultID != "" {
		if !zc.defaultLoaded {
			zc.defaultLoaded = true
			z, err := zc.provider.ZoneDetails(ctx, zc.defaultID)
			if err != nil {
				zc.logger.Error(err, "unable to look up default zone, falling back to zone listing", "zoneID", zc.defaultID)
			} else {
				zc.defaultZone = z
			}
		}
		if zc.defaultZone.Name != "" && ownsHost(zc.defaultZone.Name, hostname, strict) {
			return zc.defaultZone, nil
		}
	}

	if !zc.loaded {
		zc.loaded = true
		zones, err := listAllZones(ctx, zc.provider, zc.perPage, zc.maxPages, zc.logger)
		if err != nil {
			zc.logger.Error(err, "zone listing is incomplete", "zones", len(zones))
		}
		zc.zones = zones
	}

	z, found := matchZone(hostname, zc.zones, strict)
	if !found {
		return Zone{}, fmt.Errorf("%w for %q", ErrZoneNotFound, hostname)
	}
	return z, nil
}
