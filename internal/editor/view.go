package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rawjoystick/joymap/internal/mapping"
)

// Placeholders shown instead of the form
const (
	NoDevicesText     = "No devices available"
	NoDeviceFoundText = "No device found"
)

// View renders the editor
func (m Model) View() string {
	content := m.buildContent()
	return renderContainer(buildHeader(m.opts.StoreURL), content, m.help.View(m.keys), m.Width, m.Height)
}

func (m Model) buildContent() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	if m.changedOnStore != "" {
		b.WriteString(BannerStyle.Render(fmt.Sprintf("Mapping changed on the store (%s). Press r to reload.", m.changedOnStore)))
		b.WriteString("\n")
	}

	b.WriteString(m.renderDevice())
	b.WriteString("\n")

	if m.editing {
		if k, ok := m.focused(); ok {
			b.WriteString(inputStyle().Render(k.label() + ": " + m.input.View()))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Model) renderTabs() string {
	labels := m.doc.TabLabels()
	if len(labels) == 0 {
		return TitleStyle.Render("Devices")
	}
	tabs := make([]string, len(labels))
	for i, label := range labels {
		if label == "" {
			label = fmt.Sprintf("device %d", i)
		}
		if i == m.doc.Selected() {
			tabs[i] = ActiveTabStyle.Render(label)
		} else {
			tabs[i] = TabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderDevice() string {
	if m.doc.DeviceCount() == 0 {
		return PlaceholderStyle.Render(NoDevicesText)
	}
	dev, ok := m.doc.SelectedDevice()
	if !ok {
		return PlaceholderStyle.Render(NoDeviceFoundText)
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(mapping.NormalizeName(dev.Name())))
	if path, ok := dev.Path(); ok {
		b.WriteString("  ")
		b.WriteString(SubtitleStyle.Render(path))
	}
	b.WriteString("\n")

	if m.form.empty() {
		b.WriteString(PlaceholderStyle.Render("This device has no axes or buttons"))
		return b.String()
	}

	row := 0
	if len(m.form.axes) > 0 {
		b.WriteString(SectionStyle.Render(fmt.Sprintf("Axes (%d)", len(m.form.axes))))
		b.WriteString("\n")
		b.WriteString(columnHeader(axisLabels()))
		b.WriteString("\n")
		for _, r := range m.form.axes {
			b.WriteString(m.renderRow(r, row))
			b.WriteString("\n")
			row++
		}
	}
	if len(m.form.buttons) > 0 {
		b.WriteString(SectionStyle.Render(fmt.Sprintf("Buttons (%d)", len(m.form.buttons))))
		b.WriteString("\n")
		b.WriteString(columnHeader(buttonLabels()))
		b.WriteString("\n")
		for _, r := range m.form.buttons {
			b.WriteString(m.renderRow(r, row))
			b.WriteString("\n")
			row++
		}
	}
	return b.String()
}

func (m Model) renderRow(r formRow, index int) string {
	var b strings.Builder
	b.WriteString(RowLabelStyle.Render(r.label))
	for col, k := range r.cells {
		text := m.fieldText(k)
		_, dirty := m.pending[k]
		if dirty {
			text += " *"
		}
		cell := padCell(text)
		switch {
		case index == m.row && col == m.col:
			b.WriteString(FocusedCellStyle.Render(cell))
		case dirty:
			b.WriteString(DirtyCellStyle.Render(cell))
		default:
			b.WriteString(CellStyle.Render(cell))
		}
	}
	return b.String()
}

func (m Model) renderStatus() string {
	if m.busy() {
		return m.spinner.View() + " " + InfoStyle.Render(m.status.text)
	}

	text := m.status.text
	if n := len(m.pending); n > 0 {
		text = strings.TrimSpace(fmt.Sprintf("%s  (%d unsaved field(s))", text, n))
	}
	switch m.status.kind {
	case statusSuccess:
		return SuccessStyle.Render("✓ " + text)
	case statusError:
		return ErrorStyle.Render("✗ " + text)
	default:
		return InfoStyle.Render(text)
	}
}

func axisLabels() []string {
	labels := make([]string, len(mapping.AxisFields))
	for i, f := range mapping.AxisFields {
		labels[i] = f.Label()
	}
	return labels
}

func buttonLabels() []string {
	labels := make([]string, len(mapping.ButtonFields))
	for i, f := range mapping.ButtonFields {
		labels[i] = f.Label()
	}
	return labels
}
