package dnscf

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/go-logr/logr"
)

// FromString constructs a resolver that always returns the comma-separated addresses in addrs.
func FromString(addrs string) (Resolver, error) {
	if len(ParseCandidates(addrs, logr.Discard())) == 0 {
		return nil, fmt.Errorf("%q contains no IPv4 addresses", addrs)
	}
	return stringResolver(addrs), nil
}

type stringResolver string

func (s stringResolver) Resolve(context.Context) ([]netip.Addr, error) {
	addrs := ParseCandidates(string(s), logr.Discard())
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: unable to parse %q", ErrNoCandidates, string(s))
	}
	return addrs, nil
}
