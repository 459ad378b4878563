// Package settings is the interactive editor for config.yaml.
package settings

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"clirouter/internal/config"
)

// Values are the editable fields bound to the form.
type Values struct {
	Enabled      []string
	LogLevel     string
	ExecTimeout  string
	ProbeTimeout string
	ServerAddr   string
	Refresh      string
}

// FromFile seeds form values from f; every tool not disabled is enabled.
func FromFile(f config.File, tools []string) Values {
	disabled := map[string]bool{}
	for _, n := range f.DisabledTools {
		disabled[strings.ToLower(strings.TrimSpace(n))] = true
	}
	v := Values{
		LogLevel:   f.LogLevel,
		ServerAddr: f.Server.Addr,
		Refresh:    f.Server.Refresh,
	}
	for _, t := range tools {
		if !disabled[t] {
			v.Enabled = append(v.Enabled, t)
		}
	}
	if f.ExecTimeout != 0 {
		v.ExecTimeout = time.Duration(f.ExecTimeout).String()
	}
	if f.ProbeTimeout != 0 {
		v.ProbeTimeout = time.Duration(f.ProbeTimeout).String()
	}
	if v.LogLevel == "" {
		v.LogLevel = "info"
	}
	return v
}

// Apply writes v back onto f. tools is the full tool list, so anything not
// enabled becomes disabled.
func (v Values) Apply(f config.File, tools []string) (config.File, error) {
	enabled := map[string]bool{}
	for _, t := range v.Enabled {
		enabled[t] = true
	}
	f.DisabledTools = nil
	for _, t := range tools {
		if !enabled[t] {
			f.DisabledTools = append(f.DisabledTools, t)
		}
	}
	var err error
	if f.ExecTimeout, err = parseDuration(v.ExecTimeout); err != nil {
		return f, fmt.Errorf("exec timeout: %w", err)
	}
	if f.ProbeTimeout, err = parseDuration(v.ProbeTimeout); err != nil {
		return f, fmt.Errorf("probe timeout: %w", err)
	}
	f.LogLevel = strings.TrimSpace(v.LogLevel)
	f.Server.Addr = strings.TrimSpace(v.ServerAddr)
	f.Server.Refresh = strings.TrimSpace(v.Refresh)
	return f, nil
}

func parseDuration(s string) (config.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return config.Duration(d), nil
}

func validDuration(s string) error {
	_, err := parseDuration(s)
	return err
}

// Run launches the interactive form over f and returns the edited file.
func Run(f config.File, tools []string) (config.File, error) {
	v := FromFile(f, tools)

	// Light theme tweaks inspired by freeze/interactive.go
	green := lipgloss.Color("#03BF87")
	theme := huh.ThemeCharm()
	theme.FieldSeparator = lipgloss.NewStyle()
	theme.Blurred.Title = theme.Blurred.Title.Width(18).Foreground(lipgloss.Color("7"))
	theme.Focused.Title = theme.Focused.Title.Width(18).Foreground(green).Bold(true)
	theme.Blurred.SelectedOption = theme.Blurred.SelectedOption.Foreground(lipgloss.Color("243"))
	theme.Focused.SelectedOption = lipgloss.NewStyle().Foreground(green)
	theme.Focused.Base.BorderForeground(green)

	opts := make([]huh.Option[string], 0, len(tools))
	for _, t := range tools {
		opts = append(opts, huh.NewOption(t, t))
	}
	height := len(opts)
	if height > 12 {
		height = 12
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Settings").Description("选择参与路由的工具并保存到 config.yaml"),
			huh.NewMultiSelect[string]().
				Title("Tools").
				Options(opts...).
				Height(height).
				Value(&v.Enabled),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&v.LogLevel),
		),
		huh.NewGroup(
			huh.NewInput().Title("Exec timeout").Placeholder("使用各工具默认值").Validate(validDuration).Value(&v.ExecTimeout),
			huh.NewInput().Title("Probe timeout").Placeholder(config.DefaultProbeTimeout.String()).Validate(validDuration).Value(&v.ProbeTimeout),
			huh.NewInput().Title("Server addr").Placeholder(config.DefaultServerAddr).Value(&v.ServerAddr),
			huh.NewInput().Title("Refresh").Placeholder(config.DefaultRefresh).Value(&v.Refresh),
		),
	).WithTheme(theme).WithWidth(60)

	if err := form.Run(); err != nil {
		return f, err // form canceled or failed
	}
	return v.Apply(f, tools)
}
