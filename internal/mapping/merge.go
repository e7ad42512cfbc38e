package mapping

import (
	"bytes"
	"encoding/json"
)

// Merge folds patch into dst, the way the store applies a POSTed document to
// the file on disk.
//
// Top-level members other than devices are overwritten. Devices are matched
// by path when both sides have one and by position otherwise; a matched
// device has its scalar members overwritten, its axes merged by code and its
// buttons merged by key. Nested objects are merged recursively. Patch
// entries without a counterpart are appended.
func Merge(dst, patch *Document) {
	for _, m := range patch.fields.members {
		if m.key == KeyDevices {
			continue
		}
		enc, err := m.encoded()
		if err != nil {
			continue
		}
		dst.fields.setRaw(m.key, enc)
	}

	if patch.devices == nil {
		return
	}
	if dst.devices == nil {
		dst.devices = make([]*Device, 0, len(patch.devices))
		for _, dev := range patch.devices {
			dst.devices = append(dst.devices, dev.Clone())
		}
		return
	}

	for i, pd := range patch.devices {
		if target := matchDevice(dst.devices, pd, i); target != nil {
			mergeDevice(target, pd)
			continue
		}
		dst.devices = append(dst.devices, pd.Clone())
	}
}

func matchDevice(devices []*Device, patch *Device, position int) *Device {
	if path, ok := patch.Path(); ok {
		for _, dev := range devices {
			if p, ok := dev.Path(); ok && p == path {
				return dev
			}
		}
		// A device identified by path that no stored device has is new.
		for _, dev := range devices {
			if _, ok := dev.Path(); ok {
				return nil
			}
		}
	}
	if position < len(devices) {
		return devices[position]
	}
	return nil
}

func mergeDevice(dst, patch *Device) {
	for _, m := range patch.fields.members {
		if m.key == KeyAxes || m.key == KeyButtons {
			continue
		}
		if enc, err := m.encoded(); err == nil {
			dst.fields.setRaw(m.key, enc)
		}
	}

	if patch.axes != nil {
		if dst.axes == nil {
			dst.axes = make([]*Axis, 0, len(patch.axes))
		}
		for i, pa := range patch.axes {
			if target := matchAxis(dst.axes, pa, i); target != nil {
				target.fields = mergeObjects(target.fields, pa.fields)
				continue
			}
			dst.axes = append(dst.axes, pa.Clone())
		}
	}

	if patch.buttons != nil {
		if dst.buttons == nil {
			dst.buttons = NewButtons()
		}
		for _, key := range patch.buttons.keys {
			pb := patch.buttons.items[key]
			if target, ok := dst.buttons.Get(key); ok {
				target.fields = mergeObjects(target.fields, pb.fields)
				continue
			}
			dst.buttons.Set(key, pb.Clone())
		}
	}
}

func matchAxis(axes []*Axis, patch *Axis, position int) *Axis {
	code, ok := patch.CodeRaw()
	if !ok {
		if position < len(axes) {
			return axes[position]
		}
		return nil
	}
	for _, a := range axes {
		if c, ok := a.CodeRaw(); ok && sameScalar(c, code) {
			return a
		}
	}
	return nil
}

// mergeObjects overwrites dst members with patch members, recursing where
// both sides hold an object.
func mergeObjects(dst, patch object) object {
	out := dst.clone()
	for _, m := range patch.members {
		penc, err := m.encoded()
		if err != nil {
			continue
		}
		if denc, ok := out.rawValue(m.key); ok && isObject(denc) && isObject(penc) {
			var do, po object
			if do.UnmarshalJSON(denc) == nil && po.UnmarshalJSON(penc) == nil {
				merged, err := mergeObjects(do, po).MarshalJSON()
				if err == nil {
					out.setRaw(m.key, merged)
					continue
				}
			}
		}
		if m.val != nil {
			out.set(m.key, m.val)
		} else {
			out.setRaw(m.key, m.raw)
		}
	}
	return out
}

// sameScalar compares two encoded JSON scalars by value, so 1 and 1.0 match.
func sameScalar(a, b json.RawMessage) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}
	switch va.(type) {
	case float64, string, bool, nil:
		return va == vb
	default:
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}
}
