package mapping

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the document.
func (d *Document) Summary() string {
	axes, buttons := 0, 0
	for _, dev := range d.devices {
		axes += len(dev.Axes())
		buttons += dev.Buttons().Len()
	}
	return fmt.Sprintf("%d device(s), %d axes, %d buttons", len(d.devices), axes, buttons)
}

// FormatCompact returns one line per device, labelled for display.
func (d *Document) FormatCompact() string {
	if len(d.devices) == 0 {
		return "No devices available\n"
	}

	labels := TabLabels(namesOf(d.devices))
	var b strings.Builder
	for i, dev := range d.devices {
		path, _ := dev.Path()
		b.WriteString(fmt.Sprintf("[%d] %-24s %2d axes %3d buttons  %s\n",
			i, labels[i], len(dev.Axes()), dev.Buttons().Len(), path))
	}
	return b.String()
}

// FormatDetailed returns the full document: global indices followed by
// every device.
func (d *Document) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Mapping ===\n")
	if n, ok := d.GlobalAxisIndex(); ok {
		b.WriteString(fmt.Sprintf("Global Axis Index:   %d\n", n))
	} else {
		b.WriteString(fmt.Sprintf("Global Axis Index:   (unset, saved as %d)\n", DefaultGlobalAxisIndex))
	}
	if n, ok := d.GlobalButtonIndex(); ok {
		b.WriteString(fmt.Sprintf("Global Button Index: %d\n", n))
	} else {
		b.WriteString(fmt.Sprintf("Global Button Index: (unset, saved as %d)\n", DefaultGlobalButtonIndex))
	}
	b.WriteString(fmt.Sprintf("Devices:             %d\n", len(d.devices)))

	if len(d.devices) == 0 {
		b.WriteString("\nNo devices available\n")
		return b.String()
	}

	labels := TabLabels(namesOf(d.devices))
	for i, dev := range d.devices {
		b.WriteString("\n")
		b.WriteString(dev.Format(i, labels[i]))
	}
	return b.String()
}

// Format renders one device with its axes and buttons.
func (dev *Device) Format(index int, label string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("=== [%d] %s ===\n", index, label))
	b.WriteString(fmt.Sprintf("Name:    %s\n", dev.Name()))
	if path, ok := dev.Path(); ok {
		b.WriteString(fmt.Sprintf("Path:    %s\n", path))
	}
	if id, ok := dev.ID(); ok {
		b.WriteString(fmt.Sprintf("ID:      bus %04x vendor %04x product %04x version %04x\n",
			id.Bustype, id.Vendor, id.Product, id.Version))
	}

	b.WriteString(dev.FormatAxes())
	b.WriteString(dev.FormatButtons())
	return b.String()
}

// FormatAxes renders the axis table of dev.
func (dev *Device) FormatAxes() string {
	var b strings.Builder
	b.WriteString("Axes:\n")
	if len(dev.axes) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  %-6s %-10s %-7s %-17s %s\n", "Code", "Dead Zone", "Invert", "Virtual Joystick", "Virtual Axis"))
	for _, a := range dev.axes {
		b.WriteString(fmt.Sprintf("  %-6s %-10s %-7s %-17s %s\n",
			a.Code(),
			AxisFieldText(a, AxisDeadZone),
			AxisFieldText(a, AxisInvert),
			orDash(AxisFieldText(a, AxisVirtualJoystick)),
			AxisFieldText(a, AxisMappedAxis)))
	}
	return b.String()
}

// FormatButtons renders the button table of dev in numeric key order.
func (dev *Device) FormatButtons() string {
	var b strings.Builder
	b.WriteString("Buttons:\n")
	keys := dev.buttons.SortedKeys()
	if len(keys) == 0 {
		b.WriteString("  No buttons available\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  %-6s %-14s %s\n", "Key", "Mapped Button", "Virtual Joystick"))
	for _, key := range keys {
		btn, _ := dev.buttons.Get(key)
		b.WriteString(fmt.Sprintf("  %-6s %-14s %s\n",
			key,
			ButtonFieldText(btn, ButtonMappedButton),
			ButtonFieldText(btn, ButtonVirtualJoystick)))
	}
	return b.String()
}

// Change is one editable field whose value differs between two documents.
type Change struct {
	Edit Edit
	Old  string
	New  string
}

// String renders the change as "device 0 axis 2 dead_zone: 0 → 5".
func (c Change) String() string {
	return fmt.Sprintf("%s: %s → %s", c.Edit, orDash(c.Old), orDash(c.New))
}

// Diff lists the editable fields that differ between old and new. Devices
// are paired by path, or by position when a path is missing on either side
// or has no counterpart. Axes are compared by position and buttons by key;
// entries present on only one side are not reported. Edits carry the device
// index in new.
func Diff(old, new *Document) []Change {
	var changes []Change
	for di, nd := range new.devices {
		od, ok := counterpart(old.devices, nd, di)
		if !ok {
			continue
		}
		for ai, na := range nd.axes {
			oa, ok := od.Axis(ai)
			if !ok {
				continue
			}
			for _, f := range AxisFields {
				before, after := AxisFieldText(oa, f), AxisFieldText(na, f)
				if before != after {
					changes = append(changes, Change{Edit: AxisEdit(di, ai, f, after), Old: before, New: after})
				}
			}
		}
		for _, key := range nd.buttons.SortedKeys() {
			nb, _ := nd.buttons.Get(key)
			ob, ok := od.buttons.Get(key)
			if !ok {
				continue
			}
			for _, f := range ButtonFields {
				before, after := ButtonFieldText(ob, f), ButtonFieldText(nb, f)
				if before != after {
					changes = append(changes, Change{Edit: ButtonEdit(di, key, f, after), Old: before, New: after})
				}
			}
		}
	}
	return changes
}

// counterpart finds the device in devices that dev corresponds to
func counterpart(devices []*Device, dev *Device, position int) (*Device, bool) {
	if path, ok := dev.Path(); ok {
		for _, d := range devices {
			if p, ok := d.Path(); ok && p == path {
				return d, true
			}
		}
	}
	if position < len(devices) {
		return devices[position], true
	}
	return nil, false
}

// FormatDiff returns the changes between two documents, one per line.
func FormatDiff(old, new *Document) string {
	var b strings.Builder

	b.WriteString("=== Mapping Changes ===\n")
	changes := Diff(old, new)
	if len(changes) == 0 {
		b.WriteString("(no differences detected)\n")
		return b.String()
	}
	for _, c := range changes {
		b.WriteString("  " + c.String() + "\n")
	}
	return b.String()
}

func namesOf(devices []*Device) []string {
	names := make([]string, len(devices))
	for i, dev := range devices {
		names[i] = dev.Name()
	}
	return names
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
