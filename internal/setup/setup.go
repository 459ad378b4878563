// Package setup renders installer scripts for the registered tools.
package setup

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"clirouter/internal/command"
	"clirouter/internal/registry"
	appver "clirouter/internal/version"
)

// Shell selects the script dialect.
type Shell string

const (
	Bash       Shell = "bash"
	PowerShell Shell = "powershell"
	Batch      Shell = "batch"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var scripts = template.Must(template.New("").ParseFS(templatesFS, "templates/*.tmpl"))

var templateFor = map[Shell]string{
	Bash:       "setup.sh.tmpl",
	PowerShell: "setup.ps1.tmpl",
	Batch:      "setup.bat.tmpl",
}

// Shells lists the supported dialects.
func Shells() []Shell { return []Shell{Bash, PowerShell, Batch} }

// ParseShell accepts a dialect name or a common alias (sh, pwsh, ps1, cmd, bat).
func ParseShell(s string) (Shell, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bash", "sh", "zsh":
		return Bash, nil
	case "powershell", "pwsh", "ps1":
		return PowerShell, nil
	case "batch", "cmd", "bat":
		return Batch, nil
	}
	return "", fmt.Errorf("unsupported shell %q (want bash, powershell or batch)", s)
}

// Tool is the per-tool data the templates see.
type Tool struct {
	Name          string
	DisplayName   string
	Install       string
	Verify        string
	CredentialEnv string
}

type scriptData struct {
	Version string
	Tools   []Tool
}

func toolsFrom(ds []registry.Descriptor, sh Shell) []Tool {
	out := make([]Tool, 0, len(ds))
	for _, d := range ds {
		t := Tool{
			Name:          d.Name,
			DisplayName:   d.DisplayName,
			Install:       d.InstallCommand(),
			CredentialEnv: d.CredentialEnv,
		}
		args := []string{"--version"}
		if len(d.VersionArgs) > 0 {
			args = d.VersionArgs[0]
		}
		// the first candidate is the plain binary for every builtin tool
		if sh == Bash {
			t.Verify = d.Candidates[0] + " " + command.Quote(args...)
		} else {
			t.Verify = d.Candidates[0] + " " + strings.Join(args, " ")
		}
		out = append(out, t)
	}
	return out
}

// Render writes the script for sh covering ds.
func Render(w io.Writer, sh Shell, ds []registry.Descriptor) error {
	name, ok := templateFor[sh]
	if !ok {
		return fmt.Errorf("unsupported shell %q", sh)
	}
	return scripts.ExecuteTemplate(w, name, scriptData{Version: appver.AppVersion, Tools: toolsFrom(ds, sh)})
}
