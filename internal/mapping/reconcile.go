package mapping

import "strconv"

// DeviceID is the evdev identity a saved device is recognised by.
type DeviceID struct {
	Bustype int
	Vendor  int
	Product int
	Version int
}

// DeviceInfo describes an input device found on the host.
type DeviceInfo struct {
	Path        string
	Name        string
	ID          DeviceID
	AxisCodes   []int
	ButtonCodes []int
}

// VirtualAxesPerJoystick is the axis count of one virtual joystick. Probed
// axes are assigned virtual_axis slots round-robin over it.
const VirtualAxesPerJoystick = 8

// ReconcileReport lists what Reconcile did, by device name.
type ReconcileReport struct {
	Matched []string
	Added   []string
	Missing []string
}

// ID returns the identity of dev. ok is false when any id member is missing.
func (dev *Device) ID() (id DeviceID, ok bool) {
	var okB, okV, okP, okR bool
	id.Bustype, okB = dev.Int(KeyBustype)
	id.Vendor, okV = dev.Int(KeyVendor)
	id.Product, okP = dev.Int(KeyProduct)
	id.Version, okR = dev.Int(KeyVersion)
	return id, okB && okV && okP && okR
}

// Reconcile builds the document for the devices currently present.
//
// Every found device gets a fresh axis allocation from global_axis_index.
// When saved holds a device with the same DeviceID, its axis settings (by
// code), button settings (by key) and any extra members are kept. Saved
// devices that are no longer present are dropped and reported as missing.
// saved may be nil.
func Reconcile(saved *Document, found []DeviceInfo) (*Document, ReconcileReport) {
	var report ReconcileReport
	if saved == nil {
		saved = EmptyDocument()
	}
	out := saved.Clone()

	nextAxis, _ := out.GlobalAxisIndex()
	buttonIndex, hasButtonIndex := out.GlobalButtonIndex()

	savedDevices := saved.Devices()
	used := make([]bool, len(savedDevices))
	devices := make([]*Device, 0, len(found))

	for _, info := range found {
		fresh := newProbedDevice(info, &nextAxis)

		match := -1
		for j, dev := range savedDevices {
			if id, ok := dev.ID(); ok && id == info.ID && !used[j] {
				match = j
				break
			}
		}
		if match < 0 {
			report.Added = append(report.Added, info.Name)
			devices = append(devices, fresh)
			continue
		}

		used[match] = true
		report.Matched = append(report.Matched, info.Name)
		devices = append(devices, carryOver(savedDevices[match], fresh))
	}

	for j, dev := range savedDevices {
		if !used[j] {
			report.Missing = append(report.Missing, dev.Name())
		}
	}

	out.SetDevices(devices)
	out.SetGlobalAxisIndex(nextAxis)
	if !hasButtonIndex {
		buttonIndex = DefaultGlobalButtonIndex
	}
	out.SetGlobalButtonIndex(buttonIndex)
	return out, report
}

func newProbedDevice(info DeviceInfo, nextAxis *int) *Device {
	dev := NewDevice()
	dev.Set(KeyPath, info.Path)
	dev.Set(KeyName, info.Name)
	dev.Set(KeyBustype, Number(info.ID.Bustype))
	dev.Set(KeyVendor, Number(info.ID.Vendor))
	dev.Set(KeyProduct, Number(info.ID.Product))
	dev.Set(KeyVersion, Number(info.ID.Version))
	dev.Set(KeyNumAxes, Number(len(info.AxisCodes)))
	dev.Set(KeyNumButtons, Number(len(info.ButtonCodes)))

	axes := make([]*Axis, 0, len(info.AxisCodes))
	for i, code := range info.AxisCodes {
		a := NewAxis(code)
		a.SetMappedAxis(Number(*nextAxis))
		*nextAxis++
		a.SetDeadZone(0)
		a.SetInvert(false)
		a.SetVirtualJoystick(0)
		a.SetVirtualAxis(Number(i % VirtualAxesPerJoystick))
		axes = append(axes, a)
	}
	dev.SetAxes(axes)

	buttons := NewButtons()
	for _, code := range info.ButtonCodes {
		b := NewButton()
		b.SetMappedButton(-1)
		b.SetVirtualJoystick(0)
		buttons.Set(strconv.Itoa(code), b)
	}
	dev.SetButtons(buttons)
	return dev
}

// carryOver returns fresh with the settings of saved applied.
func carryOver(saved, fresh *Device) *Device {
	out := saved.Clone()
	for _, m := range fresh.fields.members {
		out.fields.set(m.key, m.val)
	}

	axes := make([]*Axis, 0, len(fresh.axes))
	for _, fa := range fresh.axes {
		code, _ := fa.CodeRaw()
		kept := fa
		for _, sa := range saved.axes {
			if c, ok := sa.CodeRaw(); ok && sameScalar(c, code) {
				kept = sa.Clone()
				break
			}
		}
		axes = append(axes, kept)
	}
	out.SetAxes(axes)

	buttons := NewButtons()
	for _, key := range fresh.buttons.Keys() {
		fb, _ := fresh.buttons.Get(key)
		if sb, ok := saved.buttons.Get(key); ok {
			fb = sb.Clone()
		}
		buttons.Set(key, fb)
	}
	out.SetButtons(buttons)
	return out
}
