package ui

import "github.com/charmbracelet/lipgloss"

// Design centralizes the terminal color palette and common styles.
//
// Palette is based on Vitesse Dark Soft:
// https://github.com/antfu/vscode-theme-vitesse/blob/main/themes/vitesse-dark-soft.json
type designTheme struct {
	Primary lipgloss.Color // #4d9375
	Blue    lipgloss.Color // #6394bf
	Yellow  lipgloss.Color // #e6cc77
	Magenta lipgloss.Color // #d9739f
	Red     lipgloss.Color // #cb7676

	Text      lipgloss.Color // #dbd7caee
	Secondary lipgloss.Color // #bfbaaa
	Muted     lipgloss.Color // #dedcd590

	Bg     lipgloss.Color // #181818
	BgSoft lipgloss.Color // #292929
}

// Vitesse is the palette used by every table and rendered document.
var Vitesse = designTheme{
	Primary: lipgloss.Color("#4d9375"),
	Blue:    lipgloss.Color("#6394bf"),
	Yellow:  lipgloss.Color("#e6cc77"),
	Magenta: lipgloss.Color("#d9739f"),
	Red:     lipgloss.Color("#cb7676"),

	Text:      lipgloss.Color("#dbd7caee"),
	Secondary: lipgloss.Color("#bfbaaa"),
	Muted:     lipgloss.Color("#dedcd590"),

	Bg:     lipgloss.Color("#181818"),
	BgSoft: lipgloss.Color("#292929"),
}

// AccentBold returns a bold style using the primary accent color.
func AccentBold() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(Vitesse.Primary)
}

// HeaderStyle is used for table headers.
func HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(Vitesse.Blue)
}

// Dim renders secondary information.
func Dim(s string) string {
	return lipgloss.NewStyle().Foreground(Vitesse.Secondary).Render(s)
}

// OK renders s in the success color.
func OK(s string) string {
	return lipgloss.NewStyle().Foreground(Vitesse.Primary).Render(s)
}

// Warn renders s in the warning color.
func Warn(s string) string {
	return lipgloss.NewStyle().Foreground(Vitesse.Yellow).Render(s)
}

// Bad renders s in the error color.
func Bad(s string) string {
	return lipgloss.NewStyle().Foreground(Vitesse.Red).Render(s)
}
