package editor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rawjoystick/joymap/internal/version"
)

// AppName is shown in the header of every screen
const AppName = "JOYMAP EDITOR"

// MinTerminalWidth is the narrowest terminal the layout is designed for
const MinTerminalWidth = 72

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#7D56F4") // Purple (same as primary)
	DirtyColor  = lipgloss.Color("#FFD75F") // Yellow, unsaved field
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	// Device tabs
	TabStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginTop(1)

	RowLabelStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Width(14)

	// Field cells
	CellStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1)

	FocusedCellStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(lipgloss.Color("236")).
				Bold(true).
				Padding(0, 1)

	DirtyCellStyle = lipgloss.NewStyle().
			Foreground(DirtyColor).
			Padding(0, 1)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Italic(true).
				Padding(1, 2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	InfoStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	BannerStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarningColor).
			Padding(0, 1)
)

// inputStyle frames the field being edited
func inputStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.Border{
			Top:    "━",
			Bottom: "━",
			Left:   "┃",
			Right:  "┃",
		}).
		BorderForeground(PrimaryColor).
		Padding(0, 1)
}

// buildHeader returns the app name and version on the left and the store
// address on the right
func buildHeader(storeURL string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + version.Version)

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(storeURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// renderContainer frames content with the header and a help footer, filling
// the terminal. Before the first WindowSizeMsg the parts are simply stacked.
func renderContainer(header, content, footer string, width, height int) string {
	if width <= 0 || height <= 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", content, "", footer)
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Foreground(SubtleColor).
		Width(width-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(width-4).
		Padding(0, 1)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(header),
		contentStyle.Render(content),
		footerStyle.Render(footer),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Height(height - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, bordered)
}
