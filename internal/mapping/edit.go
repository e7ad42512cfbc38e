package mapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when an edit targets a device, axis or button
	// that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownField is returned for a field the editor does not write.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidValue is returned when a boolean field gets text that is not
	// a boolean.
	ErrInvalidValue = errors.New("invalid value")
)

// AxisField names an editable axis member.
type AxisField string

const (
	AxisDeadZone        AxisField = KeyDeadZone
	AxisInvert          AxisField = KeyInvert
	AxisVirtualJoystick AxisField = KeyVirtualJoystick
	AxisMappedAxis      AxisField = KeyMappedAxis
)

// AxisFields lists the editable axis fields in form order.
var AxisFields = []AxisField{AxisDeadZone, AxisInvert, AxisVirtualJoystick, AxisMappedAxis}

// ButtonField names an editable button member.
type ButtonField string

const (
	ButtonMappedButton    ButtonField = KeyMappedButton
	ButtonVirtualJoystick ButtonField = KeyVirtualJoystick
)

// ButtonFields lists the editable button fields in form order.
var ButtonFields = []ButtonField{ButtonMappedButton, ButtonVirtualJoystick}

// Label returns the form label of f.
func (f AxisField) Label() string {
	switch f {
	case AxisDeadZone:
		return "Dead Zone"
	case AxisInvert:
		return "Invert"
	case AxisVirtualJoystick:
		return "Virtual Joystick"
	case AxisMappedAxis:
		return "Virtual Axis"
	default:
		return string(f)
	}
}

// Label returns the form label of f.
func (f ButtonField) Label() string {
	switch f {
	case ButtonMappedButton:
		return "Mapped Button"
	case ButtonVirtualJoystick:
		return "Virtual Joystick"
	default:
		return string(f)
	}
}

// ParseAxisField accepts a field name with either '_' or '-' separators.
func ParseAxisField(s string) (AxisField, error) {
	f := AxisField(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range AxisFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: axis field %q", ErrUnknownField, s)
}

// ParseButtonField accepts a field name with either '_' or '-' separators.
func ParseButtonField(s string) (ButtonField, error) {
	f := ButtonField(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range ButtonFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: button field %q", ErrUnknownField, s)
}

// AxisFieldText returns the text an edit form shows for field.
func AxisFieldText(a *Axis, field AxisField) string {
	switch field {
	case AxisDeadZone:
		return a.DeadZone().String()
	case AxisInvert:
		return strconv.FormatBool(a.Invert())
	case AxisVirtualJoystick:
		if n, ok := a.VirtualJoystick(); ok {
			return n.String()
		}
		return ""
	case AxisMappedAxis:
		return a.MappedAxis().String()
	default:
		return ""
	}
}

// ButtonFieldText returns the text an edit form shows for field.
func ButtonFieldText(b *Button, field ButtonField) string {
	switch field {
	case ButtonMappedButton:
		return b.MappedButton().String()
	case ButtonVirtualJoystick:
		return b.VirtualJoystick().String()
	default:
		return ""
	}
}

// EditTarget says whether an Edit addresses an axis or a button.
type EditTarget int

const (
	TargetAxis EditTarget = iota
	TargetButton
)

// Edit is one field write requested by a view.
//
// Value is the text the operator left in the field. A nil Value means the
// view did not render the field, and the model value is left alone.
type Edit struct {
	Target    EditTarget
	Device    int
	Axis      int
	ButtonKey string
	Field     string
	Value     *string
}

// AxisEdit builds an edit of an axis field.
func AxisEdit(device, axis int, field AxisField, value string) Edit {
	return Edit{Target: TargetAxis, Device: device, Axis: axis, Field: string(field), Value: &value}
}

// ButtonEdit builds an edit of a button field.
func ButtonEdit(device int, key string, field ButtonField, value string) Edit {
	return Edit{Target: TargetButton, Device: device, ButtonKey: key, Field: string(field), Value: &value}
}

// String describes the edit target, e.g. "device 0 axis 2 dead_zone".
func (e Edit) String() string {
	if e.Target == TargetButton {
		return fmt.Sprintf("device %d button %s %s", e.Device, e.ButtonKey, e.Field)
	}
	return fmt.Sprintf("device %d axis %d %s", e.Device, e.Axis, e.Field)
}

func writeAxis(a *Axis, field AxisField, value string) error {
	switch field {
	case AxisDeadZone:
		a.SetDeadZone(ParseNumber(value))
	case AxisVirtualJoystick:
		a.SetVirtualJoystick(ParseNumber(value))
	case AxisMappedAxis:
		a.SetMappedAxis(ParseNumber(value))
	case AxisInvert:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: invert %q", ErrInvalidValue, value)
		}
		a.SetInvert(b)
	default:
		return fmt.Errorf("%w: axis field %q", ErrUnknownField, field)
	}
	return nil
}

func writeButton(b *Button, field ButtonField, value string) error {
	switch field {
	case ButtonMappedButton:
		b.SetMappedButton(ParseNumber(value))
	case ButtonVirtualJoystick:
		b.SetVirtualJoystick(ParseNumber(value))
	default:
		return fmt.Errorf("%w: button field %q", ErrUnknownField, field)
	}
	return nil
}
