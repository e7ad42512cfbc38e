package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/config"
	"github.com/rawjoystick/joymap/internal/discovery"
	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/store"
)

// Global flags
var (
	storeFlag   string
	timeoutFlag int
	logLevel    string
	noDiscover  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Store address or remembered store name (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 0, "HTTP timeout in seconds (default from config, 10)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	rootCmd.PersistentFlags().BoolVar(&noDiscover, "no-discover", false, "Never search the network for a store")
}

// setupLogging sends logs to stderr, or to a file for the interactive
// editor so they do not draw over the screen
func setupLogging(cmd *cobra.Command) error {
	if cmd != rootCmd && cmd != editCmd {
		return logging.Initialize(logLevel)
	}
	if logLevel == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
		return logging.Initialize("")
	}

	dir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return logging.InitializeWithOutput(logLevel, filepath.Join(dir, "joymap-edit.log"))
}

// loadRegistry returns the user configuration, or the defaults when the file
// cannot be read
func loadRegistry() *config.Registry {
	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("Ignoring unreadable config file", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		return config.NewRegistry()
	}
	return reg
}

// resolveStoreURL picks the store to talk to: --store, then the configured
// default, then the first store found by mDNS
func resolveStoreURL(ctx context.Context, reg *config.Registry) (string, error) {
	if url, ok := reg.ResolveStore(storeFlag); ok {
		return store.NormalizeURL(url), nil
	}

	if noDiscover || !reg.Preferences.AutoDiscover {
		return "", fmt.Errorf("no store configured. Use --store or 'joymap-edit use <address>'")
	}

	scanner := discovery.NewScanner()
	if reg.Preferences.DiscoverTimeout > 0 {
		scanner.Timeout = time.Duration(reg.Preferences.DiscoverTimeout) * time.Second
	}

	fmt.Fprintln(os.Stderr, "No store specified, attempting auto-discovery...")
	found, err := scanner.FindFirst(ctx)
	if err != nil {
		return "", fmt.Errorf("%w. Use --store to specify the store address", err)
	}
	fmt.Fprintf(os.Stderr, "Found store: %s\n", found)

	reg.RememberStore(found.Instance, found.BaseURL())
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to remember discovered store", zap.Error(err))
	}
	return found.BaseURL(), nil
}

// newClient resolves the store and builds a client with the configured
// timeout and retries
func newClient(ctx context.Context) (*store.Client, *config.Registry, error) {
	reg := loadRegistry()

	url, err := resolveStoreURL(ctx, reg)
	if err != nil {
		return nil, nil, err
	}

	client := store.NewClientWithURL(url)

	timeout := time.Duration(reg.Preferences.Timeout) * time.Second
	if timeoutFlag > 0 {
		timeout = time.Duration(timeoutFlag) * time.Second
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if reg.Preferences.Retries > 0 {
		client.SetRetry(reg.Preferences.Retries, store.DefaultRetryDelay)
	}

	logging.Debug("Using store", zap.String("url", client.BaseURL), zap.Duration("timeout", timeout))
	return client, reg, nil
}

// storeFailure prints the troubleshooting hint for err and returns a short
// error for cobra to report
func storeFailure(action string, err error) error {
	logging.Error(action, zap.Error(err))
	fmt.Fprintf(os.Stderr, "\n%s\n\n", store.GetTroubleshootingHint(err))
	return fmt.Errorf("%s: %s", action, store.GetShortErrorMessage(err))
}
