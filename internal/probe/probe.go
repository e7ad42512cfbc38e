// Package probe finds the input devices attached to this host and describes
// them for mapping.Reconcile.
package probe

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/rawjoystick/joymap/internal/mapping"
)

// DefaultPattern matches the evdev nodes the remapper reads
const DefaultPattern = "/dev/input/event*"

// DefaultSkip lists name fragments of devices that are never remapped
var DefaultSkip = []string{"vc4-hdmi"}

// ErrUnsupported is returned on platforms without evdev
var ErrUnsupported = errors.New("input device probing is only supported on linux")

// Options controls which devices Devices returns
type Options struct {
	// Pattern is the glob of device nodes to open
	Pattern string
	// Skip drops devices whose name contains any of these fragments
	Skip []string
}

// DefaultOptions returns the options the remapper uses
func DefaultOptions() Options {
	return Options{Pattern: DefaultPattern, Skip: DefaultSkip}
}

// rawDevice is what the platform layer reads from one device node
type rawDevice struct {
	path     string
	name     string
	id       mapping.DeviceID
	absCodes []int
	keyCodes []int
}

// describe filters raw devices and converts them, ordered by node number so
// event2 comes before event10.
func describe(raw []rawDevice, skip []string) []mapping.DeviceInfo {
	out := make([]mapping.DeviceInfo, 0, len(raw))
	for _, r := range raw {
		if skipped(r.name, skip) {
			continue
		}
		axes := append([]int(nil), r.absCodes...)
		buttons := append([]int(nil), r.keyCodes...)
		sort.Ints(axes)
		sort.Ints(buttons)
		out = append(out, mapping.DeviceInfo{
			Path:        r.path,
			Name:        r.name,
			ID:          r.id,
			AxisCodes:   axes,
			ButtonCodes: buttons,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessNode(out[i].Path, out[j].Path)
	})
	return out
}

func skipped(name string, skip []string) bool {
	for _, s := range skip {
		if s != "" && strings.Contains(name, s) {
			return true
		}
	}
	return false
}

func lessNode(a, b string) bool {
	pa, na, okA := splitNode(a)
	pb, nb, okB := splitNode(b)
	if okA && okB && pa == pb {
		return na < nb
	}
	return a < b
}

// splitNode splits "/dev/input/event12" into "/dev/input/event" and 12
func splitNode(path string) (string, int, bool) {
	i := len(path)
	for i > 0 && path[i-1] >= '0' && path[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(path[i:])
	return path[:i], n, err == nil
}
