package dnscf

import (
	"context"
	"net/netip"
)

// Resolver produces the ranked candidate addresses for a run.
// Index 0 is the most preferred address.
type Resolver interface {
	Resolve(context.Context) ([]netip.Addr, error)
}

// ResolverFunc adapts an ordinary function to a Resolver.
type ResolverFunc func(context.Context) ([]netip.Addr, error)

func (f ResolverFunc) Resolve(ctx context.Context) ([]netip.Addr, error) { return f(ctx) }

// Zone is a DNS zone registered to the account.
type Zone struct {
	ID   string
	Name string
}

// AddressRecord is an existing type "A" record within a zone.
type AddressRecord struct {
	ID      string
	Name    string
	Type    string
	Content string
}

// ZonePage is one page of a zone listing.
type ZonePage struct {
	Zones      []Zone
	TotalPages int
}

// Provider is a DNS hosting account which can list zones and rewrite existing address records.
// It never needs to create or delete records.
type Provider interface {
	ListZones(ctx context.Context, page, perPage int) (ZonePage, error)
	ZoneDetails(ctx context.Context, zoneID string) (Zone, error)
	ListAddressRecords(ctx context.Context, zoneID, name string) ([]AddressRecord, error)
	UpdateAddressRecord(ctx context.Context, zoneID string, record AddressRecord) error
}

// Notifier receives the finished report of a run.
type Notifier interface {
	Notify(ctx context.Context, title, content string) error
}
