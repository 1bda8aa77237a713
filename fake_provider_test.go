package dnscf

import (
	"context"
	"errors"
	"net/netip"
	"sync"
)

type recordedUpdate struct {
	zoneID string
	record AddressRecord
}

// fakeProvider is an in-memory Provider which records every call.
type fakeProvider struct {
	mu sync.Mutex

	zones        []Zone
	failZonePage int
	totalPages   int // overrides the computed page count when non-zero
	details      map[string]Zone
	detailsErr   error

	records     map[string][]AddressRecord // keyed by hostname
	listErr     error
	failUpdates map[string]bool // keyed by record ID

	listZoneCalls   int
	detailCalls     int
	listRecordCalls int
	updates         []recordedUpdate
}

func (p *fakeProvider) ListZones(_ context.Context, page, perPage int) (ZonePage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listZoneCalls++
	if page == p.failZonePage {
		return ZonePage{}, errors.New("zone listing unavailable")
	}
	total := (len(p.zones) + perPage - 1) / perPage
	if total == 0 {
		total = 1
	}
	if p.totalPages != 0 {
		total = p.totalPages
	}
	start := min((page-1)*perPage, len(p.zones))
	end := min(start+perPage, len(p.zones))
	return ZonePage{Zones: p.zones[start:end], TotalPages: total}, nil
}

func (p *fakeProvider) ZoneDetails(_ context.Context, zoneID string) (Zone, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detailCalls++
	if p.detailsErr != nil {
		return Zone{}, p.detailsErr
	}
	z, ok := p.details[zoneID]
	if !ok {
		return Zone{}, errors.New("zone not found")
	}
	return z, nil
}

func (p *fakeProvider) ListAddressRecords(_ context.Context, _ string, name string) ([]AddressRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listRecordCalls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	return append([]AddressRecord(nil), p.records[name]...), nil
}

func (p *fakeProvider) UpdateAddressRecord(_ context.Context, zoneID string, record AddressRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, recordedUpdate{zoneID: zoneID, record: record})
	if p.failUpdates[record.ID] {
		return errors.New("400 Bad Request: record is locked")
	}
	return nil
}

type fakeNotifier struct {
	calls   int
	title   string
	content string
	err     error
}

func (n *fakeNotifier) Notify(_ context.Context, title, content string) error {
	n.calls++
	n.title, n.content = title, content
	return n.err
}

func staticCandidates(ips ...string) Resolver {
	var addrs []netip.Addr
	for _, ip := range ips {
		addrs = append(addrs, netip.MustParseAddr(ip))
	}
	return ResolverFunc(func(context.Context) ([]netip.Addr, error) { return addrs, nil })
}

func aRecord(id, name, content string) AddressRecord {
	return AddressRecord{ID: id, Name: name, Type: "A", Content: content}
}
