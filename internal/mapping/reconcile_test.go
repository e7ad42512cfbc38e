package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileNewDevices(t *testing.T) {
	found := []DeviceInfo{
		{
			Path:        "/dev/input/event3",
			Name:        "Pad",
			ID:          DeviceID{Bustype: 3, Vendor: 0x45e, Product: 0x28e, Version: 0x110},
			AxisCodes:   []int{0, 1, 2, 3, 4, 5, 16, 17, 40},
			ButtonCodes: []int{304, 305},
		},
	}

	doc, report := Reconcile(nil, found)

	assert.Equal(t, []string{"Pad"}, report.Added)
	assert.Empty(t, report.Matched)
	assert.Empty(t, report.Missing)

	n, ok := doc.GlobalAxisIndex()
	require.True(t, ok)
	assert.Equal(t, 9, n)

	dev := doc.Devices()[0]
	id, ok := dev.ID()
	require.True(t, ok)
	assert.Equal(t, found[0].ID, id)
	num, _ := dev.Int(KeyNumAxes)
	assert.Equal(t, 9, num)

	axes := dev.Axes()
	require.Len(t, axes, 9)
	assert.Equal(t, "40", axes[8].Code())
	assert.Equal(t, Number(8), axes[8].MappedAxis())
	va, ok := axes[8].VirtualAxis()
	require.True(t, ok)
	assert.Equal(t, Number(0), va)

	assert.Equal(t, []string{"304", "305"}, dev.Buttons().Keys())
	b, _ := dev.Buttons().Get("304")
	assert.Equal(t, Number(-1), b.MappedButton())
}

func TestReconcileKeepsSavedSettings(t *testing.T) {
	saved := mustParse(t, `{"global_axis_index":2,"global_button_index":4,"note":"x","devices":[`+
		`{"path":"/dev/input/event1","name":"Old Pad","bustype":3,"vendor":1,"product":2,"version":3,"color":"red",`+
		`"axes":[{"code":1,"mapped_axis":0,"dead_zone":12,"invert":true,"virtual_joystick":1,"virtual_axis":5}],`+
		`"buttons":{"304":{"mapped_button":7,"virtual_joystick":1}}},`+
		`{"path":"/dev/input/event2","name":"Gone","bustype":3,"vendor":9,"product":9,"version":9}]}`)

	found := []DeviceInfo{
		{
			Path:        "/dev/input/event5",
			Name:        "Old Pad",
			ID:          DeviceID{Bustype: 3, Vendor: 1, Product: 2, Version: 3},
			AxisCodes:   []int{0, 1},
			ButtonCodes: []int{304, 305},
		},
	}

	doc, report := Reconcile(saved, found)

	assert.Equal(t, []string{"Old Pad"}, report.Matched)
	assert.Equal(t, []string{"Gone"}, report.Missing)
	assert.Empty(t, report.Added)

	require.Len(t, doc.Devices(), 1)
	dev := doc.Devices()[0]
	path, _ := dev.Path()
	assert.Equal(t, "/dev/input/event5", path)
	assert.Equal(t, "red", dev.Text("color"))

	a0, _ := dev.Axis(0)
	assert.Equal(t, Number(2), a0.MappedAxis())
	a1, _ := dev.Axis(1)
	assert.Equal(t, Number(12), a1.DeadZone())
	assert.True(t, a1.Invert())
	assert.Equal(t, Number(0), a1.MappedAxis())

	b304, _ := dev.Buttons().Get("304")
	assert.Equal(t, Number(7), b304.MappedButton())
	b305, _ := dev.Buttons().Get("305")
	assert.Equal(t, Number(-1), b305.MappedButton())

	n, _ := doc.GlobalAxisIndex()
	assert.Equal(t, 4, n)
	n, _ = doc.GlobalButtonIndex()
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"global_axis_index", "global_button_index", "note", "devices"}, doc.Keys())

	// The saved document is not modified.
	assert.Len(t, saved.Devices(), 2)
}
