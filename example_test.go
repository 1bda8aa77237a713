package dnscf_test

import (
	"context"
	"fmt"
	"log"
	"net/netip"
	"os"
	"time"

	"github.com/Travis-Britz/dnscf"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

func staticAddrs(ips ...string) func(context.Context) ([]netip.Addr, error) {
	return func(context.Context) ([]netip.Addr, error) {
		var addrs []netip.Addr
		for _, ip := range ips {
			addrs = append(addrs, netip.MustParseAddr(ip))
		}
		return addrs, nil
	}
}

func ExampleNew() {
	c, err := dnscf.New(
		[]string{"edge.example.com", "cdn.example.net"},
		dnscf.UsingCloudflare(os.Getenv("CF_API_TOKEN")),
		dnscf.WithDefaultZone(os.Getenv("CF_ZONE_ID")),
		dnscf.WithNotifier(&dnscf.PushPlus{Token: os.Getenv("PUSHPLUS_TOKEN")}, ""),
		dnscf.WithLogger(stdr.New(log.New(os.Stderr, "", log.LstdFlags))),
	)
	if err != nil {
		log.Fatalf("error creating dnscf client: %s", err)
	}
	// run once:
	report, err := c.RunDDNS(context.Background())
	if err != nil {
		log.Fatalf("dnscf update failed: %s", err)
	}
	fmt.Println(report)
}

func ExampleRunDaemon() {
	c, err := dnscf.New([]string{"edge.example.com"},
		dnscf.UsingCloudflare(os.Getenv("CF_API_TOKEN")),
		dnscf.UsingWebResolver(dnscf.DefaultCandidateURL, dnscf.RetryPolicy{MaxAttempts: 3, Timeout: 5 * time.Second}),
	)
	if err != nil {
		log.Fatalf("error creating dnscf client: %s", err)
	}

	// run every 15 minutes and stop after a day:
	ctx, cancel := context.WithTimeout(context.Background(), 24*time.Hour)
	defer cancel()
	dnscf.RunDaemon(c, ctx, 15*time.Minute, logr.Discard())
}

func ExampleMatchZone() {
	zones := []dnscf.Zone{
		{ID: "Z1", Name: "example.com"},
		{ID: "Z2", Name: "sub.example.com"},
	}
	for _, h := range []string{"x.sub.example.com", "www.example.com", "example.org"} {
		z, ok := dnscf.MatchZone(h, zones)
		fmt.Println(h, z.ID, ok)
	}
	// Output:
	// x.sub.example.com Z2 true
	// www.example.com Z1 true
	// example.org  false
}
