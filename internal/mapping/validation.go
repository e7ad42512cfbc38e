package mapping

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateFieldValue checks edit text the way strict callers want it: numeric
// fields must hold a finite number and invert must be a boolean. The model
// itself accepts anything; this is for callers that opt in.
func ValidateFieldValue(field, value string) error {
	switch field {
	case KeyInvert:
		if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%w: %s must be true or false, got %q", ErrInvalidValue, field, value)
		}
		return nil
	case KeyDeadZone, KeyVirtualJoystick, KeyMappedAxis, KeyMappedButton:
		if !ParseNumber(value).IsFinite() {
			return fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidValue, field, value)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// CheckDocument returns warnings about values that will not survive a save
// as written: numeric fields holding NaN or an infinity are encoded as null.
// Every returned error starts with "warning:".
func CheckDocument(d *Document) []error {
	var warnings []error
	for di, dev := range d.devices {
		for ai, a := range dev.axes {
			for _, f := range []AxisField{AxisDeadZone, AxisVirtualJoystick, AxisMappedAxis} {
				if n, ok := a.fields.number(string(f)); ok && !n.IsFinite() {
					warnings = append(warnings, fmt.Errorf("warning: device %d axis %d %s is %s and will be saved as null", di, ai, f, n))
				}
			}
		}
		for _, key := range dev.buttons.SortedKeys() {
			b, _ := dev.buttons.Get(key)
			for _, f := range ButtonFields {
				if n, ok := b.fields.number(string(f)); ok && !n.IsFinite() {
					warnings = append(warnings, fmt.Errorf("warning: device %d button %s %s is %s and will be saved as null", di, key, f, n))
				}
			}
		}
	}
	return warnings
}

// FormatWarnings formats warnings as a numbered list.
func FormatWarnings(warnings []error) string {
	if len(warnings) == 0 {
		return "No warnings"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d warning(s):\n", len(warnings)))
	for i, w := range warnings {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, strings.TrimPrefix(w.Error(), "warning: ")))
	}
	return sb.String()
}
