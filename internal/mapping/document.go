package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Document keys written by the remapper and read by the editor.
const (
	KeyGlobalAxisIndex   = "global_axis_index"
	KeyGlobalButtonIndex = "global_button_index"
	KeyDevices           = "devices"
)

// Default values applied by Serialize when the loaded document lacks them.
const (
	DefaultGlobalAxisIndex   = 99
	DefaultGlobalButtonIndex = 0
)

// Document is the root of a mapping configuration.
//
// Members the editor does not understand are kept in their original encoding
// and position, so a document that is loaded and saved without edits encodes
// to the same JSON value it was decoded from.
type Document struct {
	fields  object
	devices []*Device
}

// EmptyDocument returns the document used when nothing could be loaded:
// {"devices": []}.
func EmptyDocument() *Document {
	d := &Document{devices: []*Device{}}
	d.fields.setRaw(KeyDevices, json.RawMessage("[]"))
	return d
}

// Parse decodes a mapping document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields object
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	if fields.null {
		return fmt.Errorf("mapping document is null")
	}

	devices, err := decodeList[Device](&fields, KeyDevices)
	if err != nil {
		return err
	}

	*d = Document{fields: fields, devices: devices}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	fields := d.fields.clone()
	if d.devices != nil {
		fields.set(KeyDevices, d.devices)
	}
	return fields.MarshalJSON()
}

// MarshalIndent encodes the document with two-space indentation, the format
// POSTed to the mapping store and written to mapping.json.
func (d *Document) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Keys returns the top-level member names in document order.
func (d *Document) Keys() []string {
	keys := d.fields.keys()
	if d.devices != nil && !d.fields.has(KeyDevices) {
		keys = append(keys, KeyDevices)
	}
	return keys
}

// Devices returns the devices in display order. The slice is shared with the
// document.
func (d *Document) Devices() []*Device {
	return d.devices
}

// Device returns the device at index, or false when index is out of range.
func (d *Document) Device(index int) (*Device, bool) {
	if index < 0 || index >= len(d.devices) {
		return nil, false
	}
	return d.devices[index], true
}

// AppendDevice adds a device at the end of the roster.
func (d *Document) AppendDevice(dev *Device) {
	if d.devices == nil {
		d.devices = []*Device{}
	}
	d.devices = append(d.devices, dev)
}

// SetDevices replaces the roster.
func (d *Document) SetDevices(devices []*Device) {
	if devices == nil {
		devices = []*Device{}
	}
	d.devices = devices
}

// GlobalAxisIndex returns global_axis_index when present and numeric.
func (d *Document) GlobalAxisIndex() (int, bool) {
	n, ok := d.fields.number(KeyGlobalAxisIndex)
	return n.Int(), ok
}

// GlobalButtonIndex returns global_button_index when present and numeric.
func (d *Document) GlobalButtonIndex() (int, bool) {
	n, ok := d.fields.number(KeyGlobalButtonIndex)
	return n.Int(), ok
}

// SetGlobalAxisIndex sets global_axis_index.
func (d *Document) SetGlobalAxisIndex(v int) {
	d.fields.set(KeyGlobalAxisIndex, Number(v))
}

// SetGlobalButtonIndex sets global_button_index.
func (d *Document) SetGlobalButtonIndex(v int) {
	d.fields.set(KeyGlobalButtonIndex, Number(v))
}

// Raw returns the encoded value of a top-level member.
func (d *Document) Raw(key string) (json.RawMessage, bool) {
	if key == KeyDevices && d.devices != nil {
		raw, err := encodeValue(d.devices)
		return raw, err == nil
	}
	return d.fields.rawValue(key)
}

// Clone returns a deep copy of d. Editor-written values, NaN included, are
// carried over unchanged.
func (d *Document) Clone() *Document {
	c := &Document{fields: d.fields.clone()}
	if d.devices != nil {
		c.devices = make([]*Device, len(d.devices))
		for i, dev := range d.devices {
			c.devices[i] = dev.Clone()
		}
	}
	return c
}

// Device keys.
const (
	KeyPath       = "path"
	KeyName       = "name"
	KeyBustype    = "bustype"
	KeyVendor     = "vendor"
	KeyProduct    = "product"
	KeyVersion    = "version"
	KeyNumAxes    = "num_axes"
	KeyNumButtons = "num_buttons"
	KeyAxes       = "axes"
	KeyButtons    = "buttons"
)

// Device is one physical input device.
type Device struct {
	fields  object
	axes    []*Axis
	buttons *Buttons
}

// NewDevice returns a device with no members.
func NewDevice() *Device {
	return &Device{}
}

// UnmarshalJSON implements json.Unmarshaler.
func (dev *Device) UnmarshalJSON(data []byte) error {
	var fields object
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	if fields.null {
		return fmt.Errorf("device is null")
	}

	axes, err := decodeList[Axis](&fields, KeyAxes)
	if err != nil {
		return err
	}

	var buttons *Buttons
	if raw, ok := fields.rawValue(KeyButtons); ok && !isNull(raw) {
		buttons = &Buttons{}
		if err := buttons.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("%s: %w", KeyButtons, err)
		}
	}

	*dev = Device{fields: fields, axes: axes, buttons: buttons}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (dev *Device) MarshalJSON() ([]byte, error) {
	fields := dev.fields.clone()
	if dev.axes != nil {
		fields.set(KeyAxes, dev.axes)
	}
	if dev.buttons != nil {
		fields.set(KeyButtons, dev.buttons)
	}
	return fields.MarshalJSON()
}

// Name returns the raw device name, or "" when the device has none.
func (dev *Device) Name() string {
	name, _ := dev.fields.str(KeyName)
	return name
}

// Path returns the evdev node the device was probed from.
func (dev *Device) Path() (string, bool) {
	return dev.fields.str(KeyPath)
}

// Int returns an integer member such as vendor or num_axes.
func (dev *Device) Int(key string) (int, bool) {
	n, ok := dev.fields.number(key)
	return n.Int(), ok
}

// Text returns a member rendered for display.
func (dev *Device) Text(key string) string {
	return dev.fields.text(key)
}

// Set writes a device member. It must not be used for axes or buttons.
func (dev *Device) Set(key string, v any) {
	dev.fields.set(key, v)
}

// Axes returns the axes in stored order. The slice is shared with the device.
func (dev *Device) Axes() []*Axis {
	return dev.axes
}

// Axis returns the axis at index, or false when index is out of range.
func (dev *Device) Axis(index int) (*Axis, bool) {
	if index < 0 || index >= len(dev.axes) {
		return nil, false
	}
	return dev.axes[index], true
}

// SetAxes replaces the axis list.
func (dev *Device) SetAxes(axes []*Axis) {
	if axes == nil {
		axes = []*Axis{}
	}
	dev.axes = axes
}

// Buttons returns the button table. It is nil when the device has none.
func (dev *Device) Buttons() *Buttons {
	return dev.buttons
}

// SetButtons replaces the button table.
func (dev *Device) SetButtons(b *Buttons) {
	dev.buttons = b
}

// Clone returns a deep copy of dev.
func (dev *Device) Clone() *Device {
	c := &Device{fields: dev.fields.clone()}
	if dev.axes != nil {
		c.axes = make([]*Axis, len(dev.axes))
		for i, a := range dev.axes {
			c.axes[i] = a.Clone()
		}
	}
	if dev.buttons != nil {
		c.buttons = dev.buttons.Clone()
	}
	return c
}

// Axis keys.
const (
	KeyCode            = "code"
	KeyDeadZone        = "dead_zone"
	KeyInvert          = "invert"
	KeyVirtualJoystick = "virtual_joystick"
	KeyMappedAxis      = "mapped_axis"
	KeyVirtualAxis     = "virtual_axis"
	KeyMappedButton    = "mapped_button"
)

// Axis is one absolute axis of a device.
type Axis struct {
	fields object
}

// NewAxis returns an axis with the given evdev code.
func NewAxis(code int) *Axis {
	a := &Axis{}
	a.fields.set(KeyCode, Number(code))
	return a
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Axis) UnmarshalJSON(data []byte) error {
	return a.fields.UnmarshalJSON(data)
}

// MarshalJSON implements json.Marshaler.
func (a *Axis) MarshalJSON() ([]byte, error) {
	return a.fields.MarshalJSON()
}

// Code returns the axis code as display text.
func (a *Axis) Code() string {
	return a.fields.text(KeyCode)
}

// CodeRaw returns the encoded code member.
func (a *Axis) CodeRaw() (json.RawMessage, bool) {
	return a.fields.rawValue(KeyCode)
}

// DeadZone returns dead_zone, 0 when absent.
func (a *Axis) DeadZone() Number {
	n, _ := a.fields.number(KeyDeadZone)
	return n
}

// Invert returns invert, false when absent.
func (a *Axis) Invert() bool {
	b, _ := a.fields.boolean(KeyInvert)
	return b
}

// VirtualJoystick returns virtual_joystick; false means it is unset.
func (a *Axis) VirtualJoystick() (Number, bool) {
	return a.fields.number(KeyVirtualJoystick)
}

// MappedAxis returns mapped_axis, 0 when absent.
func (a *Axis) MappedAxis() Number {
	n, _ := a.fields.number(KeyMappedAxis)
	return n
}

// VirtualAxis returns virtual_axis, which only the remapper writes.
func (a *Axis) VirtualAxis() (Number, bool) {
	return a.fields.number(KeyVirtualAxis)
}

// Has reports whether the axis has member key.
func (a *Axis) Has(key string) bool {
	return a.fields.has(key)
}

func (a *Axis) SetDeadZone(n Number)        { a.fields.set(KeyDeadZone, n) }
func (a *Axis) SetInvert(b bool)            { a.fields.set(KeyInvert, b) }
func (a *Axis) SetVirtualJoystick(n Number) { a.fields.set(KeyVirtualJoystick, n) }
func (a *Axis) SetMappedAxis(n Number)      { a.fields.set(KeyMappedAxis, n) }
func (a *Axis) SetVirtualAxis(n Number)     { a.fields.set(KeyVirtualAxis, n) }

// Clone returns a copy of a.
func (a *Axis) Clone() *Axis {
	return &Axis{fields: a.fields.clone()}
}

// Button is one key or button of a device.
type Button struct {
	fields object
}

// NewButton returns a button with no members.
func NewButton() *Button {
	return &Button{}
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Button) UnmarshalJSON(data []byte) error {
	return b.fields.UnmarshalJSON(data)
}

// MarshalJSON implements json.Marshaler.
func (b *Button) MarshalJSON() ([]byte, error) {
	return b.fields.MarshalJSON()
}

// MappedButton returns mapped_button, 0 when absent.
func (b *Button) MappedButton() Number {
	n, _ := b.fields.number(KeyMappedButton)
	return n
}

// VirtualJoystick returns virtual_joystick, 0 when absent.
func (b *Button) VirtualJoystick() Number {
	n, _ := b.fields.number(KeyVirtualJoystick)
	return n
}

// Has reports whether the button has member key.
func (b *Button) Has(key string) bool {
	return b.fields.has(key)
}

func (b *Button) SetMappedButton(n Number)    { b.fields.set(KeyMappedButton, n) }
func (b *Button) SetVirtualJoystick(n Number) { b.fields.set(KeyVirtualJoystick, n) }

// Clone returns a copy of b.
func (b *Button) Clone() *Button {
	return &Button{fields: b.fields.clone()}
}

// Buttons maps button keys to buttons. The stored key order is kept for
// encoding; SortedKeys gives the numeric order used for display.
type Buttons struct {
	keys  []string
	items map[string]*Button
}

// NewButtons returns an empty button table.
func NewButtons() *Buttons {
	return &Buttons{items: make(map[string]*Button)}
}

// UnmarshalJSON implements json.Unmarshaler.
func (bs *Buttons) UnmarshalJSON(data []byte) error {
	var fields object
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	table := NewButtons()
	for _, m := range fields.members {
		var b Button
		if err := b.UnmarshalJSON(m.raw); err != nil {
			return fmt.Errorf("button %q: %w", m.key, err)
		}
		table.Set(m.key, &b)
	}
	*bs = *table
	return nil
}

// MarshalJSON implements json.Marshaler.
func (bs *Buttons) MarshalJSON() ([]byte, error) {
	var fields object
	for _, k := range bs.keys {
		fields.set(k, bs.items[k])
	}
	return fields.MarshalJSON()
}

// Len returns the number of buttons.
func (bs *Buttons) Len() int {
	if bs == nil {
		return 0
	}
	return len(bs.keys)
}

// Keys returns the keys in stored order.
func (bs *Buttons) Keys() []string {
	if bs == nil {
		return nil
	}
	return append([]string(nil), bs.keys...)
}

// SortedKeys returns the keys ordered by numeric value. Keys that are not
// numbers follow the numeric ones in stored order.
func (bs *Buttons) SortedKeys() []string {
	keys := bs.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := ParseNumber(keys[i]), ParseNumber(keys[j])
		switch {
		case a.IsNaN():
			return false
		case b.IsNaN():
			return true
		default:
			return a < b
		}
	})
	return keys
}

// Get returns the button stored under key.
func (bs *Buttons) Get(key string) (*Button, bool) {
	if bs == nil {
		return nil, false
	}
	b, ok := bs.items[key]
	return b, ok
}

// Set stores b under key, keeping the position of an existing key.
func (bs *Buttons) Set(key string, b *Button) {
	if bs.items == nil {
		bs.items = make(map[string]*Button)
	}
	if _, ok := bs.items[key]; !ok {
		bs.keys = append(bs.keys, key)
	}
	bs.items[key] = b
}

// Clone returns a deep copy of bs.
func (bs *Buttons) Clone() *Buttons {
	c := NewButtons()
	for _, k := range bs.keys {
		c.Set(k, bs.items[k].Clone())
	}
	return c
}

// decodeList decodes the array member key into a slice. An absent or null
// member yields a nil slice and is left untouched on encode.
func decodeList[T any, PT interface {
	*T
	json.Unmarshaler
}](fields *object, key string) ([]*T, error) {
	raw, ok := fields.rawValue(key)
	if !ok || isNull(raw) {
		return nil, nil
	}
	if !isArray(raw) {
		return nil, fmt.Errorf("%s: expected array, got %s", key, describeRaw(raw))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	out := make([]*T, len(elems))
	for i, elem := range elems {
		v := new(T)
		if err := PT(v).UnmarshalJSON(elem); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out[i] = v
	}
	return out, nil
}
