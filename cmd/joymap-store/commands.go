package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/mapping"
	"github.com/rawjoystick/joymap/internal/probe"
	"github.com/rawjoystick/joymap/internal/storeserver"
)

// Serve command flags
var (
	host          string
	port          int
	mappingFile   string
	staticDir     string
	reloadCmd     string
	reloadTimeout time.Duration
	noMDNS        bool
	instanceName  string
	watchFile     bool
	logLines      int
	logLevel      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mapping store",
	Long: `Start the HTTP mapping store.

GET /mapping returns the mapping file (created as {} when missing).
POST /mapping merges the posted mapping into the file: devices are matched
by path, axes by code and buttons by key, and anything not posted is kept.

With --reload-cmd the remapper runs under the store. After each save it is
sent SIGINT, killed if it has not exited after --reload-timeout, and started
again. Its output is kept for GET /api/logs.`,
	Example: `  # Serve ./mapping.json on port 3000
  joymap-store serve

  # Supervise the remapper
  joymap-store serve --file /etc/joymap/mapping.json --reload-cmd "/usr/local/bin/remapper /etc/joymap/mapping.json"

  # Also serve a web UI and push file changes to editors
  joymap-store serve --static ./public --watch --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 3000, "Listen port")
	serveCmd.Flags().StringVar(&mappingFile, "file", "mapping.json", "Path to the mapping file")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "Directory to serve at / (disabled if not specified)")
	serveCmd.Flags().StringVar(&reloadCmd, "reload-cmd", "", "Remapper command to supervise and restart after each save")
	serveCmd.Flags().DurationVar(&reloadTimeout, "reload-timeout", storeserver.DefaultReloadTimeout, "Time the remapper gets to exit after SIGINT before it is killed")
	serveCmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Do not advertise the store over mDNS")
	serveCmd.Flags().StringVar(&instanceName, "name", "", "mDNS instance name (default \"joymap on <hostname>\")")
	serveCmd.Flags().BoolVar(&watchFile, "watch", false, "Notify editors when the mapping file is changed by another program")
	serveCmd.Flags().IntVar(&logLines, "log-lines", storeserver.DefaultLogLines, "Remapper output lines kept for /api/logs")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if staticDir != "" {
		info, err := os.Stat(staticDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("static directory does not exist: %s", staticDir)
		}
		if err != nil {
			return fmt.Errorf("cannot access static directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("static path is not a directory: %s", staticDir)
		}
	}

	config := &storeserver.Config{
		Host:          host,
		Port:          port,
		MappingFile:   mappingFile,
		StaticDir:     staticDir,
		ReloadCmd:     strings.Fields(reloadCmd),
		ReloadTimeout: reloadTimeout,
		EnableMDNS:    !noMDNS,
		InstanceName:  instanceName,
		WatchFile:     watchFile,
		LogLines:      logLines,
		LogLevel:      logLevel,
	}

	srv, err := storeserver.New(config)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// Probe command flags
var (
	probeFile     string
	probePattern  string
	probeSkip     []string
	probeLogLevel string
	dryRun        bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Add the attached input devices to the mapping file",
	Long: `Enumerate the input devices attached to this host and reconcile them with
the mapping file.

Devices already in the file (same bus type, vendor, product and version)
keep their settings and take the current device path. New devices get one
axis entry per absolute axis, allocated from global_axis_index, and one
button entry per key. Devices that are no longer attached are reported and
dropped.`,
	Example: `  # Update ./mapping.json
  joymap-store probe

  # Show what would change
  joymap-store probe --file /etc/joymap/mapping.json --dry-run`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeFile, "file", "mapping.json", "Path to the mapping file")
	probeCmd.Flags().StringVar(&probePattern, "pattern", probe.DefaultPattern, "Glob of input device nodes")
	probeCmd.Flags().StringSliceVar(&probeSkip, "skip", probe.DefaultSkip, "Skip devices whose name contains any of these")
	probeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the changes without writing the file")
	probeCmd.Flags().StringVar(&probeLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func runProbe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(probeLogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	files := storeserver.NewFileStore(probeFile)
	saved := files.Load()

	found, err := probe.Devices(probe.Options{Pattern: probePattern, Skip: probeSkip})
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	logging.Info("Probed input devices", zap.Int("count", len(found)))

	doc, report := mapping.Reconcile(saved, found)

	fmt.Printf("Found %d input device(s)\n", len(found))
	printNames("Kept", report.Matched)
	printNames("Added", report.Added)
	printNames("No longer attached", report.Missing)
	fmt.Println()

	if dryRun {
		fmt.Print(mapping.FormatDiff(saved, doc))
		return nil
	}

	if err := files.Write(doc); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}
	fmt.Printf("✓ Wrote %s (%s)\n", files.Path(), doc.Summary())
	return nil
}

func printNames(heading string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Printf("%s:\n", heading)
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
}
