// Joymap-edit edits the axis and button mapping of a joymap remapper.
//
// It fetches the mapping from a joymap-store, shows one tab per input device
// and writes the edited mapping back. The same operations are available as
// plain commands for scripting.
//
// Usage:
//
//	joymap-edit [command] [flags]
//
// Running without arguments launches the interactive editor.
// See 'joymap-edit --help' for available commands.
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
	Use:   "joymap-edit",
	Short: "Joystick Mapping Editor",
	Long: `Edit the mapping of physical joystick axes and buttons to virtual joysticks.

The mapping is fetched from a joymap-store. Without --store the default
store from the configuration file is used, and failing that the network is
searched for one.

If no command is specified, the interactive editor will launch automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the editor when no subcommand provided
		return runEdit(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Set here rather than in the literal: setupLogging refers to rootCmd
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	}

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("joymap-edit %s\n", version.Full())
	},
}
