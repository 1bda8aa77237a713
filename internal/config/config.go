package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Travis-Britz/dnscf"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

// Environment variables read by Load.
const (
	EnvToken        = "CF_API_TOKEN"
	EnvZoneID       = "CF_ZONE_ID"
	EnvHostnames    = "CF_DNS_NAME"
	EnvNotifyToken  = "PUSHPLUS_TOKEN"
	EnvCandidateURL = "DNSCF_CANDIDATE_URL"
	EnvStrictZones  = "DNSCF_STRICT_ZONE_MATCH"
)

// Config is everything a run needs, assembled once at startup.
type Config struct {
	Token   string `yaml:"token"`
	KeyFile string `yaml:"key_file"`
	// ZoneID is tried before listing all zones of the account.
	ZoneID    string   `yaml:"zone_id"`
	Hostnames []string `yaml:"hostnames"`

	CandidateURL     string        `yaml:"candidate_url"`
	Attempts         int           `yaml:"attempts"`
	CandidateTimeout time.Duration `yaml:"candidate_timeout"`
	APITimeout       time.Duration `yaml:"api_timeout"`

	ZonePageSize    int  `yaml:"zone_page_size"`
	MaxZonePages    int  `yaml:"max_zone_pages"`
	StrictZoneMatch bool `yaml:"strict_zone_match"`

	Notify Notify `yaml:"notify"`

	// Interval repeats the run when non-zero.
	Interval time.Duration `yaml:"interval"`
}

// Notify configures report delivery. Notifications are disabled without a token.
type Notify struct {
	Token    string `yaml:"token"`
	Title    string `yaml:"title"`
	Template string `yaml:"template"`
	Channel  string `yaml:"channel"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		CandidateURL:     dnscf.DefaultCandidateURL,
		Attempts:         dnscf.DefaultRetryPolicy.MaxAttempts,
		CandidateTimeout: dnscf.DefaultRetryPolicy.Timeout,
		APITimeout:       dnscf.DefaultAPITimeout,
		ZonePageSize:     dnscf.DefaultZonePageSize,
		MaxZonePages:     dnscf.DefaultMaxZonePages,
		Notify: Notify{
			Title:    dnscf.DefaultNotifyTitle,
			Template: "markdown",
			Channel:  "wechat",
		},
	}
}

// Load builds a Config from the defaults, the YAML file at path (if path is not empty),
// and then the environment as reported by lookup.
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}
	cfg.Hostnames = NormalizeHostnames(cfg.Hostnames)
	return cfg, nil
}

// LoadDotEnv sets environment variables from a .env file.
// A missing file is not an error. Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvToken, &c.Token)
	set(EnvZoneID, &c.ZoneID)
	set(EnvNotifyToken, &c.Notify.Token)
	set(EnvCandidateURL, &c.CandidateURL)
	if v, ok := lookup(EnvHostnames); ok && strings.TrimSpace(v) != "" {
		c.Hostnames = SplitList(v)
	}
	if v, ok := lookup(EnvStrictZones); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvStrictZones, err)
		}
		c.StrictZoneMatch = b
	}
	return nil
}

// SplitList splits a comma-separated list, trimming whitespace and dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// NormalizeHostnames lowercases hostnames and strips a trailing dot.
// Empty entries are dropped; order is kept.
func NormalizeHostnames(hostnames []string) []string {
	var out []string
	for _, h := range hostnames {
		h = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Validate reports the first problem which would prevent a run.
// It does not require a token, which may still come from the key file.
func (c Config) Validate() error {
	if len(c.Hostnames) == 0 {
		return fmt.Errorf("no hostnames configured; set %s (comma-separated) or hostnames in the config file", EnvHostnames)
	}
	for _, h := range c.Hostnames {
		if !strings.Contains(h, ".") {
			return fmt.Errorf("hostname %q must have at least one dot", h)
		}
	}
	if c.CandidateURL == "" {
		return errors.New("candidate URL cannot be empty")
	}
	if c.Attempts < 1 {
		return fmt.Errorf("attempts must be at least 1; got %d", c.Attempts)
	}
	if c.ZonePageSize < 0 || c.MaxZonePages < 0 {
		return errors.New("zone paging values cannot be negative")
	}
	return nil
}
