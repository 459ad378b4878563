package dispatch

import (
	"fmt"
	"strings"

	"clirouter/internal/command"
	"clirouter/internal/probe"
	"clirouter/internal/registry"
)

// maxAlternativeCandidates bounds the extra invocations listed in a guide.
const maxAlternativeCandidates = 2

// GuideInput is what Guide renders.
type GuideInput struct {
	Tool      registry.Descriptor
	Probe     probe.Result
	Candidate string
	// Command is the rendered direct command, empty when none could be built.
	Command       string
	CredentialSet bool
}

// Guide renders the manual-usage Markdown document for a tool: how to install
// it, how to verify the install, the direct command and alternatives.
func Guide(in GuideInput) string {
	d := in.Tool
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n\n", d.DisplayName, d.Name)
	if in.Probe.Exists {
		fmt.Fprintf(&b, "Installed: `%s`", in.Probe.WorkingCandidate)
		if in.Probe.Version != "" {
			fmt.Fprintf(&b, " (%s)", in.Probe.Version)
		}
		b.WriteString("\n\n")
	} else {
		b.WriteString("Not detected on this machine.\n\n")
	}

	b.WriteString("## Install\n\n")
	if ic := d.InstallCommand(); ic != "" {
		codeBlock(&b, ic)
	} else {
		b.WriteString("No install command is known; follow the vendor instructions.\n\n")
	}

	b.WriteString("## Verify\n\n")
	codeBlock(&b, verifyCommand(d, in.Candidate))

	b.WriteString("## Run\n\n")
	if in.Command != "" {
		codeBlock(&b, in.Command)
	} else {
		fmt.Fprintf(&b, "Pass the request as described by `%s --help`.\n\n", command.Base(in.Candidate))
	}

	if alts := alternativeCandidates(d, in.Candidate); len(alts) > 0 {
		b.WriteString("## Alternative invocations\n\n")
		for _, a := range alts {
			fmt.Fprintf(&b, "- `%s`\n", a)
		}
		b.WriteString("\n")
	}

	if d.CredentialEnv != "" {
		b.WriteString("## Credentials\n\n")
		state := "not set"
		if in.CredentialSet {
			state = "set"
		}
		fmt.Fprintf(&b, "Export `%s` before running (currently %s).\n", d.CredentialEnv, state)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func codeBlock(b *strings.Builder, line string) {
	fmt.Fprintf(b, "```sh\n%s\n```\n\n", line)
}

func verifyCommand(d registry.Descriptor, candidate string) string {
	if candidate == "" && len(d.Candidates) > 0 {
		candidate = d.Candidates[0]
	}
	args := []string{"--version"}
	if len(d.VersionArgs) > 0 {
		args = d.VersionArgs[0]
	}
	return strings.TrimSpace(candidate + " " + strings.Join(args, " "))
}

func alternativeCandidates(d registry.Descriptor, used string) []string {
	var out []string
	for _, c := range d.Candidates {
		if c == used {
			continue
		}
		out = append(out, c)
		if len(out) == maxAlternativeCandidates {
			break
		}
	}
	return out
}
