package mapping

import (
	"errors"
	"fmt"
)

// Model owns the document being edited and the device selection.
//
// A Model has a single owner and is not safe for concurrent use; the editor
// mutates it only from its update loop.
type Model struct {
	doc      *Document
	selected int
}

// NewModel returns a model holding EmptyDocument.
func NewModel() *Model {
	return &Model{doc: EmptyDocument()}
}

// Load replaces the held document and selects the first device. A nil
// document is replaced by EmptyDocument.
func (m *Model) Load(doc *Document) {
	if doc == nil {
		doc = EmptyDocument()
	}
	m.doc = doc
	m.selected = 0
}

// LoadFrom loads the result of a store fetch. When err is non-nil or doc is
// nil the model falls back to EmptyDocument and LoadFrom returns true.
func (m *Model) LoadFrom(doc *Document, err error) (fallback bool) {
	if err != nil || doc == nil {
		m.Load(EmptyDocument())
		return true
	}
	m.Load(doc)
	return false
}

// Document returns the held document.
func (m *Model) Document() *Document {
	return m.doc
}

// DisplayNames returns the raw name of every device in roster order.
func (m *Model) DisplayNames() []string {
	devices := m.doc.Devices()
	names := make([]string, len(devices))
	for i, dev := range devices {
		names[i] = dev.Name()
	}
	return names
}

// TabLabels returns the disambiguated label of every device.
func (m *Model) TabLabels() []string {
	return TabLabels(m.DisplayNames())
}

// DeviceCount returns the number of devices.
func (m *Model) DeviceCount() int {
	return len(m.doc.Devices())
}

// SelectDevice changes the selected device. Any index is accepted; an out of
// range selection has no device.
func (m *Model) SelectDevice(index int) {
	m.selected = index
}

// Selected returns the selected index.
func (m *Model) Selected() int {
	return m.selected
}

// SelectedDevice returns the selected device, or false when the selection is
// out of range or the roster is empty.
func (m *Model) SelectedDevice() (*Device, bool) {
	return m.doc.Device(m.selected)
}

// WriteAxisField sets one field of one axis from its text form.
//
// Numeric fields never reject their input: text that is not a number is
// stored as NaN. Callers wanting strict input check it with
// ValidateFieldValue first.
func (m *Model) WriteAxisField(device, axis int, field AxisField, value string) error {
	dev, ok := m.doc.Device(device)
	if !ok {
		return fmt.Errorf("device %d: %w", device, ErrNotFound)
	}
	a, ok := dev.Axis(axis)
	if !ok {
		return fmt.Errorf("device %d axis %d: %w", device, axis, ErrNotFound)
	}
	return writeAxis(a, field, value)
}

// WriteButtonField sets one field of one button from its text form, with the
// same coercion as WriteAxisField.
func (m *Model) WriteButtonField(device int, key string, field ButtonField, value string) error {
	dev, ok := m.doc.Device(device)
	if !ok {
		return fmt.Errorf("device %d: %w", device, ErrNotFound)
	}
	b, ok := dev.Buttons().Get(key)
	if !ok {
		return fmt.Errorf("device %d button %q: %w", device, key, ErrNotFound)
	}
	return writeButton(b, field, value)
}

// Apply performs edits in order. Edits with a nil Value are skipped. A failed
// edit does not stop the others; all failures are returned joined.
func (m *Model) Apply(edits []Edit) error {
	var errs []error
	for _, e := range edits {
		if e.Value == nil {
			continue
		}
		var err error
		switch e.Target {
		case TargetAxis:
			err = m.WriteAxisField(e.Device, e.Axis, AxisField(e.Field), *e.Value)
		case TargetButton:
			err = m.WriteButtonField(e.Device, e.ButtonKey, ButtonField(e.Field), *e.Value)
		default:
			err = fmt.Errorf("edit target %d: %w", e.Target, ErrUnknownField)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Serialize returns a copy of the document ready to be saved.
//
// global_axis_index and global_button_index are added with their defaults
// when absent. Devices, axes and buttons keep their order, and every member
// the editor did not write is carried over unchanged.
func (m *Model) Serialize() *Document {
	out := m.doc.Clone()
	// Insert in reverse so the defaults lead in the usual order.
	out.fields.prepend(KeyGlobalButtonIndex, Number(DefaultGlobalButtonIndex))
	out.fields.prepend(KeyGlobalAxisIndex, Number(DefaultGlobalAxisIndex))
	return out
}
