//go:build linux

package probe

import (
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"
	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/mapping"
)

// Devices opens every node matching opts.Pattern and describes the usable
// ones. Nodes that cannot be opened are skipped.
func Devices(opts Options) ([]mapping.DeviceInfo, error) {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}

	devices, err := evdev.ListInputDevices(opts.Pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	raw := make([]rawDevice, 0, len(devices))
	for _, dev := range devices {
		r := rawDevice{
			path: dev.Fn,
			name: dev.Name,
			id: mapping.DeviceID{
				Bustype: int(dev.Bustype),
				Vendor:  int(dev.Vendor),
				Product: int(dev.Product),
				Version: int(dev.Version),
			},
		}
		for capType, codes := range dev.Capabilities {
			switch capType.Type {
			case evdev.EV_ABS:
				r.absCodes = appendCodes(r.absCodes, codes)
			case evdev.EV_KEY:
				r.keyCodes = appendCodes(r.keyCodes, codes)
			}
		}
		if dev.File != nil {
			_ = dev.File.Close()
		}

		logging.Debug("Found input device",
			zap.String("path", r.path),
			zap.String("name", r.name),
			zap.Int("axes", len(r.absCodes)),
			zap.Int("buttons", len(r.keyCodes)),
		)
		raw = append(raw, r)
	}

	return describe(raw, opts.Skip), nil
}

func appendCodes(dst []int, codes []evdev.CapabilityCode) []int {
	for _, c := range codes {
		dst = append(dst, c.Code)
	}
	return dst
}
