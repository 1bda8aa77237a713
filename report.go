package dnscf

import (
	"fmt"
	"net/netip"
	"strings"
)

// UpdateOutcome is the result of rewriting one existing record with one candidate address.
type UpdateOutcome struct {
	Hostname  string
	RecordID  string
	AppliedIP netip.Addr
	Success   bool
	Detail    string
}

func (o UpdateOutcome) String() string {
	if o.Success {
		return fmt.Sprintf("%s -> %s: success", o.Hostname, o.AppliedIP)
	}
	return fmt.Sprintf("%s -> %s: failed (%s)", o.Hostname, o.AppliedIP, o.Detail)
}

// Report collects the lines of a run in the order hostnames were processed.
type Report struct {
	lines    []string
	Outcomes []UpdateOutcome
	// Skipped lists hostnames for which no update was attempted.
	Skipped []string
}

func (r *Report) addLine(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *Report) skip(hostname, reason string) {
	r.Skipped = append(r.Skipped, hostname)
	r.addLine("%s: %s, skipped", hostname, reason)
}

func (r *Report) addOutcomes(hostname string, outcomes []UpdateOutcome) {
	succeeded := 0
	for _, o := range outcomes {
		r.Outcomes = append(r.Outcomes, o)
		r.lines = append(r.lines, o.String())
		if o.Success {
			succeeded++
		}
	}
	r.addLine("%s: updated %d of %d A records", hostname, succeeded, len(outcomes))
}

// Lines returns a copy of the report lines.
func (r *Report) Lines() []string {
	return append([]string(nil), r.lines...)
}

// Failed counts the outcomes which were not applied.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Success {
			n++
		}
	}
	return n
}

// String joins the report lines with newlines.
func (r *Report) String() string {
	return strings.Join(r.lines, "\n")
}
