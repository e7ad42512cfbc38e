package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rawjoystick/joymap/internal/config"
	"github.com/rawjoystick/joymap/internal/discovery"
	"github.com/rawjoystick/joymap/internal/editor"
	"github.com/rawjoystick/joymap/internal/mapping"
	"github.com/rawjoystick/joymap/internal/store"
)

// Command flags
var (
	outputFormat string
	deviceIndex  int
	strict       bool
	scanSeconds  int
)

func init() {
	editCmd.Flags().BoolVar(&strict, "strict", false, "Reject field text that is not a number instead of saving null")
	setAxisCmd.Flags().BoolVar(&strict, "strict", false, "Reject a value that is not a number instead of saving null")
	setButtonCmd.Flags().BoolVar(&strict, "strict", false, "Reject a value that is not a number instead of saving null")

	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")
	showCmd.Flags().IntVar(&deviceIndex, "device", -1, "Show only the device at this index")

	scanCmd.Flags().IntVar(&scanSeconds, "wait", 5, "Scan duration in seconds")

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(setAxisCmd)
	rootCmd.AddCommand(setButtonCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(useCmd)
}

// editCmd launches the interactive editor
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Launch the interactive mapping editor",
	Long: `Launch an interactive terminal editor for the mapping.

Each input device gets a tab. Axes and buttons of the selected device are
shown as a grid of fields; edited fields are marked until saved. Saving sends
the whole mapping to the store, which merges it into its file and restarts
the remapper.`,
	Example: `  # Edit with the configured or discovered store
  joymap-edit edit
  # Or simply (edit is default):
  joymap-edit

  # Edit a specific store
  joymap-edit --store raspberrypi.local:3000`,
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the editor needs a terminal; use 'show', 'set-axis' or 'set-button' instead")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, reg, err := newClient(ctx)
	if err != nil {
		return err
	}

	model := editor.New(ctx, client, editor.Options{
		StoreURL: client.BaseURL,
		Strict:   strict || reg.Preferences.Strict,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("editor error: %w", err)
	}

	if m, ok := final.(editor.Model); ok && m.Dirty() {
		fmt.Println("Unsaved field edits were discarded.")
	}
	return nil
}

// showCmd displays the mapping
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the mapping",
	Long: `Display the mapping held by the store: global indices, every device and
its axes and buttons. Device names are shortened the same way as the editor
tabs.`,
	Example: `  # Detailed view
  joymap-edit show

  # One line per device
  joymap-edit show --format compact

  # A single device
  joymap-edit show --device 1

  # The raw document for scripting
  joymap-edit show --format json`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	doc, err := client.Load(ctx)
	if err != nil {
		return storeFailure("failed to load mapping", err)
	}

	switch outputFormat {
	case "json":
		data, err := doc.MarshalIndent()
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil

	case "compact":
		fmt.Print(doc.FormatCompact())

	case "detailed":
		fallthrough
	default:
		fmt.Printf("Store: %s\n%s\n", client.BaseURL, rule())
		if deviceIndex >= 0 {
			dev, ok := doc.Device(deviceIndex)
			if !ok {
				return fmt.Errorf("no device at index %d (%d device(s))", deviceIndex, len(doc.Devices()))
			}
			labels := mapping.TabLabels(namesOf(doc))
			fmt.Print(dev.Format(deviceIndex, labels[deviceIndex]))
		} else {
			fmt.Print(doc.FormatDetailed())
		}
	}

	if warnings := mapping.CheckDocument(doc); len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "\n%s", mapping.FormatWarnings(warnings))
	}
	return nil
}

// labelsCmd prints the tab label of each device
var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Show the shortened device labels",
	Long: `Print each device name next to the label the editor uses for its tab.

Labels drop the leading words a device shares with other devices of the same
family, so "Logitech Extreme 3D Pro" next to "Logitech Gamepad F310" becomes
"Extreme 3D Pro".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		client, _, err := newClient(ctx)
		if err != nil {
			return err
		}
		doc, err := client.Load(ctx)
		if err != nil {
			return storeFailure("failed to load mapping", err)
		}

		names := namesOf(doc)
		if len(names) == 0 {
			fmt.Println(editor.NoDevicesText)
			return nil
		}
		for i, label := range mapping.TabLabels(names) {
			fmt.Printf("[%d] %-28s %q\n", i, label, names[i])
		}
		return nil
	},
}

// setAxisCmd writes one axis field
var setAxisCmd = &cobra.Command{
	Use:   "set-axis <device> <axis> <field> <value>",
	Short: "Set one axis field",
	Long: `Set one field of one axis and save the mapping.

Fields: dead_zone, invert, virtual_joystick, mapped_axis.

Numeric fields take any text; text that is not a number is saved as null,
as the editor does. Use --strict to reject it instead. The saved mapping is
read back to confirm the store kept the change.`,
	Example: `  # Dead zone of 12 on the second axis of the first device
  joymap-edit set-axis 0 1 dead_zone 12

  # Invert the throttle
  joymap-edit set-axis 0 2 invert true`,
	Args: cobra.ExactArgs(4),
	RunE: runSetAxis,
}

func runSetAxis(cmd *cobra.Command, args []string) error {
	device, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid device index: %w", err)
	}
	axis, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid axis index: %w", err)
	}
	field, err := mapping.ParseAxisField(args[2])
	if err != nil {
		return err
	}

	edit := mapping.AxisEdit(device, axis, field, args[3])
	return applyEdit(edit)
}

// setButtonCmd writes one button field
var setButtonCmd = &cobra.Command{
	Use:   "set-button <device> <button> <field> <value>",
	Short: "Set one button field",
	Long: `Set one field of one button and save the mapping.

The button is addressed by its key in the device's buttons object (the
button code). Fields: mapped_button, virtual_joystick.`,
	Example: `  # Map button 288 of the first device to virtual button 4
  joymap-edit set-button 0 288 mapped_button 4`,
	Args: cobra.ExactArgs(4),
	RunE: runSetButton,
}

func runSetButton(cmd *cobra.Command, args []string) error {
	device, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid device index: %w", err)
	}
	field, err := mapping.ParseButtonField(args[2])
	if err != nil {
		return err
	}

	edit := mapping.ButtonEdit(device, args[1], field, args[3])
	return applyEdit(edit)
}

// applyEdit loads the mapping, applies edit, saves and verifies
func applyEdit(edit mapping.Edit) error {
	ctx := context.Background()
	client, reg, err := newClient(ctx)
	if err != nil {
		return err
	}

	if strict || reg.Preferences.Strict {
		if err := mapping.ValidateFieldValue(edit.Field, *edit.Value); err != nil {
			return err
		}
	}

	doc, err := client.Load(ctx)
	if err != nil {
		return storeFailure("failed to load mapping", err)
	}

	model := mapping.NewModel()
	model.Load(doc)
	if err := model.Apply([]mapping.Edit{edit}); err != nil {
		return err
	}

	out := model.Serialize()
	if warnings := mapping.CheckDocument(out); len(warnings) > 0 {
		fmt.Fprint(os.Stderr, mapping.FormatWarnings(warnings))
	}

	fmt.Printf("Setting %s on %s...\n", edit, client.BaseURL)
	text, changes, err := client.SaveAndVerify(ctx, out)
	if err != nil {
		if text != "" {
			fmt.Printf("✗ %s\n", strings.TrimSpace(text))
		}
		return storeFailure("failed to save mapping", err)
	}

	fmt.Printf("✓ %s\n", text)
	if len(changes) > 0 {
		fmt.Println("\nThe store did not keep:")
		for _, c := range changes {
			fmt.Printf("  - %s\n", c)
		}
		return fmt.Errorf("verification failed: %d change(s) not stored", len(changes))
	}
	return nil
}

// queryCmd runs a JMESPath expression over the mapping
var queryCmd = &cobra.Command{
	Use:   "query <expression>",
	Short: "Query the mapping with JMESPath",
	Long: `Evaluate a JMESPath expression against the mapping and print the result
as JSON.`,
	Example: `  # Device names
  joymap-edit query 'devices[].name'

  # Inverted axes of the first device
  joymap-edit query 'devices[0].axes[?invert].code'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		client, _, err := newClient(ctx)
		if err != nil {
			return err
		}
		doc, err := client.Load(ctx)
		if err != nil {
			return storeFailure("failed to load mapping", err)
		}

		result, err := mapping.Query(doc, args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

// logsCmd prints the remapper output kept by the store
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent remapper output",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		client, _, err := newClient(ctx)
		if err != nil {
			return err
		}
		lines, err := client.Logs(ctx)
		if err != nil {
			return storeFailure("failed to fetch logs", err)
		}
		if len(lines) == 0 {
			fmt.Println("No remapper output.")
			return nil
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

// scanCmd discovers stores on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for mapping stores on the network",
	Long: `Scan for joymap-store instances using mDNS/DNS-SD discovery.

Every store found is remembered in the configuration file under its instance
name, so it can be passed to --store by name afterwards.`,
	Example: `  # Scan for 5 seconds (default)
  joymap-edit scan

  # Longer scan for slow networks
  joymap-edit scan --wait 15`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for mapping stores (%ds)...\n\n", scanSeconds)

	stores, err := discovery.ScanForStores(context.Background(), time.Duration(scanSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(stores) == 0 {
		fmt.Println("No stores found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Check that joymap-store is running (without --no-mdns)")
		fmt.Println("  - Multicast may be blocked on this network; use --store instead")
		fmt.Println("  - Try increasing --wait")
		return nil
	}

	reg := loadRegistry()
	fmt.Printf("Found %d store(s):\n\n", len(stores))
	for i, st := range stores {
		fmt.Printf("%d. %s\n", i+1, st.Instance)
		fmt.Printf("   URL:     %s\n", st.BaseURL())
		if file := st.GetMetadata("file"); file != "" {
			fmt.Printf("   File:    %s\n", file)
		}
		if v := st.GetMetadata("version"); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		fmt.Println()
		reg.RememberStore(st.Instance, st.BaseURL())
	}
	if err := reg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not remember stores: %v\n", err)
	}

	fmt.Println("Use 'joymap-edit use <name>' to make one the default")
	return nil
}

// useCmd sets the default store
var useCmd = &cobra.Command{
	Use:   "use <store>",
	Short: "Set the default store",
	Long: `Make a store the default for every command. The store is a remembered
name (see 'scan') or an address.`,
	Example: `  joymap-edit use raspberrypi.local:3000
  joymap-edit use "joymap on raspberrypi"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := loadRegistry()
		reg.Preferences.DefaultStore = args[0]
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		path, _ := config.GetConfigPath()
		url, _ := reg.ResolveStore("")
		fmt.Printf("Default store: %s (%s)\n", args[0], store.NormalizeURL(url))
		fmt.Printf("Saved to %s\n", path)
		return nil
	},
}

func namesOf(doc *mapping.Document) []string {
	devices := doc.Devices()
	names := make([]string, len(devices))
	for i, dev := range devices {
		names[i] = dev.Name()
	}
	return names
}

// rule returns a separator as wide as the terminal, capped at 80 columns
func rule() string {
	width := 60
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = min(w, 80)
	}
	return strings.Repeat("─", width)
}
