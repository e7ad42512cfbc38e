package mapping

import (
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	m := loadFixture(t)
	before := m.Document().Clone()

	if err := m.WriteAxisField(0, 1, AxisDeadZone, "8"); err != nil {
		t.Fatalf("WriteAxisField() error = %v", err)
	}
	if err := m.WriteButtonField(0, "289", ButtonVirtualJoystick, "2"); err != nil {
		t.Fatalf("WriteButtonField() error = %v", err)
	}
	// Same value, no change.
	if err := m.WriteAxisField(0, 0, AxisMappedAxis, "0"); err != nil {
		t.Fatalf("WriteAxisField() error = %v", err)
	}

	changes := Diff(before, m.Document())
	if len(changes) != 2 {
		t.Fatalf("Diff() returned %d changes, want 2: %v", len(changes), changes)
	}

	want := []string{
		"device 0 axis 1 dead_zone: 5 → 8",
		"device 0 button 289 virtual_joystick: 0 → 2",
	}
	for i, c := range changes {
		if c.String() != want[i] {
			t.Errorf("changes[%d] = %q, want %q", i, c.String(), want[i])
		}
	}

	out := FormatDiff(before, m.Document())
	if !strings.Contains(out, "=== Mapping Changes ===") {
		t.Errorf("FormatDiff() missing header:\n%s", out)
	}
	if got := FormatDiff(before, before); !strings.Contains(got, "(no differences detected)") {
		t.Errorf("FormatDiff(same) = %q", got)
	}
}

func TestFormatCompact(t *testing.T) {
	doc := mustParse(t, fixture)
	out := doc.FormatCompact()

	for _, want := range []string{"[0] left", "[1] right", "/dev/input/event3"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatCompact() missing %q:\n%s", want, out)
		}
	}

	if got := EmptyDocument().FormatCompact(); got != "No devices available\n" {
		t.Errorf("FormatCompact() on empty = %q", got)
	}
}

func TestFormatDetailed(t *testing.T) {
	out := mustParse(t, fixture).FormatDetailed()

	for _, want := range []string{
		"Global Axis Index:   12",
		"=== [0] left ===",
		"Name:    Joystick A left",
		"ID:      bus 0003 vendor 044f product b684 version 0111",
		"Buttons:",
		"No buttons available",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatDetailed() missing %q:\n%s", want, out)
		}
	}

	// Numeric key order: 288 before 289.
	if strings.Index(out, "  288 ") > strings.Index(out, "  289 ") {
		t.Errorf("FormatDetailed() buttons not in numeric order:\n%s", out)
	}

	empty := EmptyDocument().FormatDetailed()
	if !strings.Contains(empty, "(unset, saved as 99)") {
		t.Errorf("FormatDetailed() on empty = %q", empty)
	}
}

func TestDiffPairsDevicesByPath(t *testing.T) {
	old := mustParse(t, `{"devices":[`+
		`{"path":"/dev/input/event3","axes":[{"code":0,"dead_zone":1}]},`+
		`{"path":"/dev/input/event4","axes":[{"code":0,"dead_zone":2}]}]}`)
	reordered := mustParse(t, `{"devices":[`+
		`{"path":"/dev/input/event4","axes":[{"code":0,"dead_zone":2}]},`+
		`{"path":"/dev/input/event3","axes":[{"code":0,"dead_zone":7}]}]}`)

	changes := Diff(old, reordered)
	if len(changes) != 1 {
		t.Fatalf("Diff() returned %d changes, want 1: %v", len(changes), changes)
	}
	if got, want := changes[0].String(), "device 1 axis 0 dead_zone: 1 → 7"; got != want {
		t.Errorf("change = %q, want %q", got, want)
	}
}

func TestDiffWithoutPathsUsesPosition(t *testing.T) {
	old := mustParse(t, `{"devices":[{"axes":[{"code":0,"dead_zone":1}]}]}`)
	edited := mustParse(t, `{"devices":[{"axes":[{"code":0,"dead_zone":3}]}]}`)

	if changes := Diff(old, edited); len(changes) != 1 {
		t.Errorf("Diff() = %v, want 1 change", changes)
	}
}
