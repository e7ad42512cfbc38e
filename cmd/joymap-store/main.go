// Joymap-store serves the joystick mapping file to joymap-edit.
//
// It keeps mapping.json on the remapper host, merges saved mappings into it,
// restarts the remapper so it picks up the change and advertises itself over
// mDNS. It can also seed the mapping from the input devices attached to the
// host.
//
// Usage:
//
//	joymap-store serve [flags]
//	joymap-store probe [flags]
//
// See 'joymap-store --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rawjoystick/joymap/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "joymap-store",
	Short: "Joystick Mapping Store",
	Long: `The mapping store for a joymap remapper.

It serves the mapping file over HTTP, merges saves from joymap-edit into it
and restarts the remapper after each save.

Note: To edit the mapping, use the separate 'joymap-edit' utility.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(versionCmd)
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("joymap-store %s\n", version.Full())
	},
}
