package editor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rawjoystick/joymap/internal/mapping"
)

// fieldKey addresses one editable field of the document
type fieldKey struct {
	device int
	target mapping.EditTarget
	axis   int
	button string
	field  string
}

func (k fieldKey) label() string {
	if k.target == mapping.TargetButton {
		return fmt.Sprintf("button %s %s", k.button, mapping.ButtonField(k.field).Label())
	}
	return fmt.Sprintf("axis %d %s", k.axis, mapping.AxisField(k.field).Label())
}

// formRow is one axis or button line of the form
type formRow struct {
	label string
	cells []fieldKey
}

// form is the field grid generated for one device: its axes in stored order,
// then its buttons in numeric key order
type form struct {
	axes    []formRow
	buttons []formRow
}

func buildForm(index int, dev *mapping.Device) form {
	var f form
	for i, a := range dev.Axes() {
		row := formRow{label: "axis " + a.Code()}
		for _, field := range mapping.AxisFields {
			row.cells = append(row.cells, fieldKey{
				device: index,
				target: mapping.TargetAxis,
				axis:   i,
				field:  string(field),
			})
		}
		f.axes = append(f.axes, row)
	}
	for _, k := range dev.Buttons().SortedKeys() {
		row := formRow{label: "button " + k}
		for _, field := range mapping.ButtonFields {
			row.cells = append(row.cells, fieldKey{
				device: index,
				target: mapping.TargetButton,
				button: k,
				field:  string(field),
			})
		}
		f.buttons = append(f.buttons, row)
	}
	return f
}

// rows returns axis rows followed by button rows
func (f form) rows() []formRow {
	out := make([]formRow, 0, len(f.axes)+len(f.buttons))
	out = append(out, f.axes...)
	return append(out, f.buttons...)
}

func (f form) empty() bool {
	return len(f.axes) == 0 && len(f.buttons) == 0
}

// storedText returns the text the model holds for key
func storedText(doc *mapping.Document, key fieldKey) (string, bool) {
	dev, ok := doc.Device(key.device)
	if !ok {
		return "", false
	}
	if key.target == mapping.TargetButton {
		b, ok := dev.Buttons().Get(key.button)
		if !ok {
			return "", false
		}
		return mapping.ButtonFieldText(b, mapping.ButtonField(key.field)), true
	}
	a, ok := dev.Axis(key.axis)
	if !ok {
		return "", false
	}
	return mapping.AxisFieldText(a, mapping.AxisField(key.field)), true
}

// editsFrom turns the pending field values into model edits, ordered by
// device and then by target
func editsFrom(pending map[fieldKey]string) []mapping.Edit {
	keys := make([]fieldKey, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.device != b.device {
			return a.device < b.device
		}
		if a.target != b.target {
			return a.target < b.target
		}
		if a.axis != b.axis {
			return a.axis < b.axis
		}
		if a.button != b.button {
			return a.button < b.button
		}
		return a.field < b.field
	})

	edits := make([]mapping.Edit, 0, len(keys))
	for _, k := range keys {
		value := pending[k]
		if k.target == mapping.TargetButton {
			edits = append(edits, mapping.ButtonEdit(k.device, k.button, mapping.ButtonField(k.field), value))
		} else {
			edits = append(edits, mapping.AxisEdit(k.device, k.axis, mapping.AxisField(k.field), value))
		}
	}
	return edits
}

// columnHeader renders the field names above a group of rows
func columnHeader(fields []string) string {
	var b strings.Builder
	b.WriteString(RowLabelStyle.Render(""))
	for _, f := range fields {
		b.WriteString(InfoStyle.Render(padCell(f)))
	}
	return b.String()
}

const cellWidth = 18

func padCell(s string) string {
	if len(s) >= cellWidth {
		return " " + s + " "
	}
	return " " + s + strings.Repeat(" ", cellWidth-len(s)) + " "
}
