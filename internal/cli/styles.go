// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette, taken from the flag plus a few status tones.
var (
	Green  = lipgloss.Color("#009C3B")
	Yellow = lipgloss.Color("#FFDF00")
	Teal   = lipgloss.Color("#4ECDC4")
	Amber  = lipgloss.Color("#FFE66D")
	Mint   = lipgloss.Color("#95E1D3")
	Gray   = lipgloss.Color("#666666")
)

var (
	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Green).MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(Teal)
	WarningStyle = lipgloss.NewStyle().Foreground(Amber)
	InfoStyle    = lipgloss.NewStyle().Foreground(Mint)
	SubtleStyle  = lipgloss.NewStyle().Foreground(Gray)

	// FigureStyle makes a headline number stand out.
	FigureStyle = lipgloss.NewStyle().Bold(true).Foreground(Yellow)

	// Boxes frame the dashboard and status panels.
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Green).
			Padding(1, 2)

	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(Green).Padding(0, 1)
	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

const (
	SuccessIcon = "✓"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ShopIcon    = "🛒"
	ChartIcon   = "📊"
	FolderIcon  = "🗄️"
)

func withIcon(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess prefixes a check mark.
func FormatSuccess(message string) string { return withIcon(SuccessStyle, SuccessIcon, message) }

// FormatWarning prefixes a warning sign.
func FormatWarning(message string) string { return withIcon(WarningStyle, WarningIcon, message) }

// FormatInfo prefixes an info sign.
func FormatInfo(message string) string { return withIcon(InfoStyle, InfoIcon, message) }

// FormatTitle renders a section title behind the shop icon.
func FormatTitle(title string) string { return withIcon(TitleStyle, ShopIcon, title) }

// RenderBox draws content in a rounded box under a title line.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
