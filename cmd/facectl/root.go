package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/client"
)

// Version is the CLI version.
const Version = "1.0.0"

var (
	baseURL string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "facectl",
	Short:         "Command line client for the facegate enrollment and verification API",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newClient() *client.Client {
	return client.New(baseURL, timeout)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("FACEGATE_URL")
	if defaultURL == "" {
		defaultURL = client.DefaultBaseURL
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", defaultURL, "facegate base URL (env FACEGATE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")
}
