package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Travis-Britz/dnscf"
	"github.com/Travis-Britz/dnscf/internal/config"
	"github.com/cloudflare/cloudflare-go"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/spf13/cobra"
)

type flags struct {
	configFile string
	envFile    string
	hostnames  []string
	zoneID     string
	keyFile    string
	ip         string
	url        string
	attempts   int
	interval   time.Duration
	strict     bool
	noNotify   bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&flags{})
}

func newRootCmdWith(f *flags) *cobra.Command {
	root := &cobra.Command{
		Use:   "dnscf",
		Short: "Point Cloudflare A records at the current recommended edge IPs",
		Long: `dnscf fetches a ranked list of recommended IPv4 addresses,
finds the zone owning each configured hostname,
and overwrites the hostname's existing A records with those addresses.
Records are never created or deleted.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&f.envFile, "env-file", ".env", "Path to a .env file; ignored when missing")
	pf.StringVarP(&f.keyFile, "key-file", "k", filepath.Join(os.Getenv("HOME"), ".cloudflare"), "Path to cloudflare API credentials file, used when no token is configured")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose logging")

	fl := root.Flags()
	fl.StringSliceVarP(&f.hostnames, "hostname", "d", nil, "DNS entries to update (repeatable or comma-separated)")
	fl.StringVarP(&f.zoneID, "zone", "z", "", "Zone ID to try before listing all zones")
	fl.StringVar(&f.ip, "ip", "", "Comma-separated candidate IPs to use instead of fetching them")
	fl.StringVar(&f.url, "candidate-url", "", "URL serving the comma-separated candidate IP list")
	fl.IntVar(&f.attempts, "attempts", 0, "Maximum attempts to fetch the candidate list")
	fl.DurationVarP(&f.interval, "interval", "i", 0, "Repeat the update on this interval instead of running once (minimum 1m)")
	fl.BoolVar(&f.strict, "strict-zone-match", false, "Require zone names to match hostnames on a label boundary")
	fl.BoolVar(&f.noNotify, "no-notify", false, "Do not send the report notification")

	root.AddCommand(newSetupCmd(f))
	return root
}

func newLogger(verbose bool) logr.Logger {
	if verbose {
		stdr.SetVerbosity(1)
	}
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags))
}

func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(f.configFile, os.LookupEnv)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("hostname") {
		cfg.Hostnames = config.NormalizeHostnames(f.hostnames)
	}
	if changed("zone") {
		cfg.ZoneID = f.zoneID
	}
	if changed("key-file") || cfg.KeyFile == "" {
		cfg.KeyFile = f.keyFile
	}
	if changed("candidate-url") {
		cfg.CandidateURL = f.url
	}
	if changed("attempts") {
		cfg.Attempts = f.attempts
	}
	if changed("interval") {
		cfg.Interval = f.interval
	}
	if changed("strict-zone-match") {
		cfg.StrictZoneMatch = f.strict
	}
	if f.noNotify {
		cfg.Notify.Token = ""
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, f *flags) error {
	logger := newLogger(f.verbose)

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.V(1).Info("config is valid", "hostnames", cfg.Hostnames, "zoneID", cfg.ZoneID, "candidateURL", cfg.CandidateURL)

	token := cfg.Token
	if token == "" {
		if token, err = config.ReadKey(cfg.KeyFile); err != nil {
			return fmt.Errorf("no %s set and unable to read key file (run \"dnscf setup\" to create one): %w", config.EnvToken, err)
		}
		logger.V(1).Info("successfully read key from key file", "path", cfg.KeyFile)
	}

	client, err := newClient(cfg, token, f.ip, logger)
	if err != nil {
		return fmt.Errorf("error creating dnscf.Client: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runOnce(ctx, client, logger); err != nil {
		return err
	}
	if cfg.Interval > 0 {
		logger.Info("running on an interval", "interval", cfg.Interval)
		dnscf.RunDaemon(client, ctx, cfg.Interval, logger)
		<-ctx.Done()
	}
	return nil
}

func newClient(cfg config.Config, token, staticIPs string, logger logr.Logger) (dnscf.Client, error) {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = cfg.APITimeout

	options := []dnscf.ClientOption{
		dnscf.WithLogger(logger),
		dnscf.UsingCloudflare(token, cloudflare.HTTPClient(hc)),
		dnscf.WithDefaultZone(cfg.ZoneID),
		dnscf.WithZonePaging(cfg.ZonePageSize, cfg.MaxZonePages),
	}
	if staticIPs != "" {
		r, err := dnscf.FromString(staticIPs)
		if err != nil {
			return nil, err
		}
		options = append(options, dnscf.UsingResolver(r))
	} else {
		options = append(options, dnscf.UsingWebResolver(cfg.CandidateURL, dnscf.RetryPolicy{
			MaxAttempts: cfg.Attempts,
			Timeout:     cfg.CandidateTimeout,
		}))
	}
	if cfg.StrictZoneMatch {
		options = append(options, dnscf.WithStrictZoneMatch())
	}
	if cfg.Notify.Token != "" {
		options = append(options, dnscf.WithNotifier(&dnscf.PushPlus{
			Token:    cfg.Notify.Token,
			Template: cfg.Notify.Template,
			Channel:  cfg.Notify.Channel,
			Retries:  2,
		}, cfg.Notify.Title))
	}
	return dnscf.New(cfg.Hostnames, options...)
}

// runOnce treats a run without candidates as a successful no-op.
func runOnce(ctx context.Context, client dnscf.Client, logger logr.Logger) error {
	report, err := client.RunDDNS(ctx)
	if errors.Is(err, dnscf.ErrNoCandidates) {
		logger.Error(err, "nothing to do this run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	fmt.Println(report)
	return nil
}
