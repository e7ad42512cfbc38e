//go:build !linux

package probe

import "github.com/rawjoystick/joymap/internal/mapping"

// Devices is unavailable off linux
func Devices(opts Options) ([]mapping.DeviceInfo, error) {
	return nil, ErrUnsupported
}
