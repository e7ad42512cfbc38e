// Package mapping holds the input remapping document and the operations the
// editor performs on it.
//
// A mapping document is the JSON file shared with the remapper: a roster of
// physical devices, each with absolute axes and buttons, and the virtual
// joystick axis or button each one drives.
//
//	{
//	  "global_axis_index": 12,
//	  "global_button_index": 0,
//	  "devices": [
//	    {
//	      "path": "/dev/input/event3",
//	      "name": "Thrustmaster T.16000M",
//	      "bustype": 3, "vendor": 1103, "product": 46724, "version": 273,
//	      "axes": [
//	        {"code": 0, "mapped_axis": 0, "dead_zone": 0, "invert": false,
//	         "virtual_joystick": 0, "virtual_axis": 0}
//	      ],
//	      "buttons": {"288": {"mapped_button": 0, "virtual_joystick": 0}}
//	    }
//	  ]
//	}
//
// # Round trip
//
// The editor only writes dead_zone, invert, virtual_joystick and mapped_axis
// on axes, and mapped_button and virtual_joystick on buttons. Every other
// member, including ones this package has never heard of, is kept in its
// original encoding and position. Loading a document and serializing it
// without edits yields the same JSON value, apart from the global indices
// that Serialize fills in when absent.
//
// # Numeric input
//
// Field writes take the text an operator typed. ParseNumber converts it
// permissively: text that is not a number becomes NaN rather than an error.
// NaN stays NaN in memory and is written as null. Use ValidateFieldValue
// before writing when strict input is wanted.
//
// # Labels
//
// ComputeTrimmedName shortens device names that share leading words with
// other devices in the roster, so "Joystick A left" and "Joystick A right"
// are shown as "left" and "right".
//
// # Usage Example
//
//	doc, err := client.Load(ctx)
//	m := mapping.NewModel()
//	if m.LoadFrom(doc, err) {
//	    log.Printf("using empty mapping: %v", err)
//	}
//	labels := m.TabLabels()
//	_ = m.WriteAxisField(0, 2, mapping.AxisDeadZone, "12")
//	text, err := client.Save(ctx, m.Serialize())
package mapping
