package dnscf

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/go-logr/logr"
)

const recordTypeA = "A"

type assignment struct {
	record AddressRecord
	addr   netip.Addr
}

// pairRecords pairs records with candidates by position.
// The result has min(len(records), len(candidates)) entries;
// records and candidates past that count are left out.
func pairRecords(records []AddressRecord, candidates []netip.Addr) []assignment {
	n := min(len(records), len(candidates))
	pairs := make([]assignment, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, assignment{record: records[i], addr: candidates[i]})
	}
	return pairs
}

// existingRecords lists the A records named exactly hostname in the zone.
// The provider is asked to filter by name and type,
// but the response is filtered again in case the provider matched loosely.
func existingRecords(ctx context.Context, p Provider, zoneID, hostname string) ([]AddressRecord, error) {
	records, err := p.ListAddressRecords(ctx, zoneID, hostname)
	if err != nil {
		return nil, fmt.Errorf("error listing A records for %s: %w", hostname, err)
	}
	filtered := records[:0:0]
	for _, r := range records {
		if r.Name == hostname && r.Type == recordTypeA {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// reconcile overwrites the existing A records of hostname with candidates.
//
// Every pair is attempted even if earlier updates failed, and every pair yields exactly one outcome.
// No records are created; zero existing records yields zero outcomes.
func reconcile(ctx context.Context, p Provider, zoneID, hostname string, records []AddressRecord, candidates []netip.Addr, logger logr.Logger) []UpdateOutcome {
	var outcomes []UpdateOutcome
	for _, a := range pairRecords(records, candidates) {
		o := UpdateOutcome{
			Hostname:  hostname,
			RecordID:  a.record.ID,
			AppliedIP: a.addr,
		}
		updated := AddressRecord{
			ID:      a.record.ID,
			Name:    a.record.Name,
			Type:    recordTypeA,
			Content: a.addr.String(),
		}
		if err := p.UpdateAddressRecord(ctx, zoneID, updated); err != nil {
			o.Detail = err.Error()
			logger.Error(err, "record update failed", "hostname", hostname, "recordID", a.record.ID, "ip", a.addr)
		} else {
			o.Success = true
			logger.Info("record updated", "hostname", hostname, "recordID", a.record.ID, "previous", a.record.Content, "ip", a.addr)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}
