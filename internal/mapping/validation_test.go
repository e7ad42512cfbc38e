package mapping

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateFieldValue(t *testing.T) {
	tests := []struct {
		field   string
		value   string
		wantErr error
	}{
		{KeyDeadZone, "12", nil},
		{KeyDeadZone, "", nil},
		{KeyDeadZone, "abc", ErrInvalidValue},
		{KeyMappedAxis, "Infinity", ErrInvalidValue},
		{KeyVirtualJoystick, "0x2", nil},
		{KeyMappedButton, "1.5", nil},
		{KeyInvert, "true", nil},
		{KeyInvert, "1", nil},
		{KeyInvert, "yes please", ErrInvalidValue},
		{KeyCode, "1", ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			err := ValidateFieldValue(tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFieldValue(%q, %q) = %v, want %v", tt.field, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCheckDocument(t *testing.T) {
	m := loadFixture(t)
	if warnings := CheckDocument(m.Document()); len(warnings) != 0 {
		t.Fatalf("CheckDocument() on fixture = %v, want none", warnings)
	}

	_ = m.WriteButtonField(0, "288", ButtonMappedButton, "x")
	_ = m.WriteAxisField(0, 2, AxisVirtualJoystick, "-Infinity")

	warnings := CheckDocument(m.Document())
	if len(warnings) != 2 {
		t.Fatalf("CheckDocument() returned %d warnings, want 2", len(warnings))
	}
	for _, w := range warnings {
		if !strings.HasPrefix(w.Error(), "warning:") {
			t.Errorf("warning %q lacks prefix", w)
		}
	}

	out := FormatWarnings(warnings)
	if !strings.Contains(out, "2 warning(s)") || !strings.Contains(out, "button 288 mapped_button is NaN") {
		t.Errorf("FormatWarnings() = %q", out)
	}
}
