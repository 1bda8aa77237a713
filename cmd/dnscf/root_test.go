package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Travis-Britz/dnscf/internal/config"
)

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvToken, "env-token")
	t.Setenv(config.EnvHostnames, "a.example.com")
	t.Setenv(config.EnvZoneID, "Z-env")
	t.Setenv(config.EnvNotifyToken, "push")

	f := &flags{}
	cmd := newRootCmdWith(f)
	args := []string{
		"--env-file", filepath.Join(dir, ".env"),
		"-d", "B.example.com,c.example.net",
		"--attempts", "2",
		"--no-notify",
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"b.example.com", "c.example.net"}; !reflect.DeepEqual(cfg.Hostnames, want) {
		t.Fatalf("expected hostnames %q, got %q", want, cfg.Hostnames)
	}
	if cfg.ZoneID != "Z-env" || cfg.Token != "env-token" {
		t.Fatalf("expected zone and token from environment, got %q and %q", cfg.ZoneID, cfg.Token)
	}
	if cfg.Attempts != 2 {
		t.Fatalf("expected attempts from flag, got %d", cfg.Attempts)
	}
	if cfg.Notify.Token != "" {
		t.Fatalf("expected --no-notify to disable notifications")
	}
}

func TestLoadConfigRequiresHostnames(t *testing.T) {
	t.Setenv(config.EnvHostnames, "")
	f := &flags{}
	cmd := newRootCmdWith(f)
	if err := cmd.ParseFlags([]string{"--env-file", filepath.Join(t.TempDir(), ".env")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := loadConfig(cmd, f); err == nil {
		t.Fatal("expected an error without hostnames")
	}
}
