package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Travis-Britz/dnscf/internal/config"
	"github.com/cloudflare/cloudflare-go"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newSetupCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Verify a Cloudflare API token and save it to the key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd.Context(), f)
		},
	}
}

func runSetup(ctx context.Context, f *flags) error {
	logger := newLogger(f.verbose)
	logger.V(1).Info("running setup")

	if _, err := os.Stat(f.keyFile); err == nil {
		return fmt.Errorf("key file \"%s\" already exists", f.keyFile)
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("setup must be run from a terminal")
	}
	fmt.Printf("Enter Cloudflare API Token: \n")
	bytekey, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("runSetup: error reading from stdin: %w", err)
	}
	key := strings.TrimSpace(string(bytekey))

	api, err := cloudflare.NewWithAPIToken(key)
	if err != nil {
		return fmt.Errorf("error creating api client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	logger.Info("verifying token...")
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	logger.Info("token verified successfully")

	if err := config.WriteKey(f.keyFile, key); err != nil {
		return err
	}
	logger.Info("token written", "path", f.keyFile)
	return nil
}
