// Package probe decides whether a tool can be run on this machine and which
// invocation candidate to use.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clirouter/internal/command"
	"clirouter/internal/config"
	"clirouter/internal/registry"
	"clirouter/internal/runner"
	"clirouter/internal/store"
	"clirouter/internal/system"
)

// Method names the signal that confirmed a tool.
type Method string

const (
	MethodPackageManager Method = "package_manager"
	MethodDirectCommand  Method = "direct_command"
)

// Attempt records what happened to one candidate.
type Attempt struct {
	Candidate string `json:"candidate"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
}

// Result is a read-only snapshot of one probe.
type Result struct {
	Tool             string    `json:"tool"`
	Exists           bool      `json:"exists"`
	WorkingCandidate string    `json:"working_candidate,omitempty"`
	Version          string    `json:"version,omitempty"`
	SemVer           string    `json:"semver,omitempty"`
	Method           Method    `json:"detection_method,omitempty"`
	Path             string    `json:"path,omitempty"`
	CredentialEnv    string    `json:"credential_env,omitempty"`
	CredentialSet    bool      `json:"credential_set"`
	CheckedAt        time.Time `json:"checked_at"`
	Attempts         []Attempt `json:"attempts,omitempty"`
}

// Reason summarizes why the tool was not found.
func (r Result) Reason() string {
	if r.Exists {
		return ""
	}
	if len(r.Attempts) == 0 {
		return "no candidates tried"
	}
	parts := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Candidate, a.Detail))
	}
	return strings.Join(parts, "; ")
}

// Prober probes descriptors. It holds no cache; every call is fresh apart from
// the persisted candidate preferences.
type Prober struct {
	runner runner.Runner
	prefs  store.PreferenceStore
	status string
	cfg    config.Runtime
}

// New builds a prober persisting under cfg.Dir.
func New(rn runner.Runner, cfg config.Runtime) *Prober {
	return &Prober{
		runner: rn,
		prefs:  store.PreferenceStore{Path: cfg.Path(config.PreferencesFile)},
		status: cfg.Path(config.StatusFile),
		cfg:    cfg,
	}
}

// Preferences exposes the preference store (used after successful executions).
func (p *Prober) Preferences() store.PreferenceStore { return p.prefs }

// Order puts remembered candidates first (most recent first) and keeps the
// declared order for the rest. Remembered entries no longer declared are ignored.
func Order(candidates, remembered []string) []string {
	declared := map[string]bool{}
	for _, c := range candidates {
		declared[c] = true
	}
	out := make([]string, 0, len(candidates))
	used := map[string]bool{}
	for _, c := range remembered {
		if declared[c] && !used[c] {
			out = append(out, c)
			used[c] = true
		}
	}
	for _, c := range candidates {
		if !used[c] {
			out = append(out, c)
			used[c] = true
		}
	}
	return out
}

// Probe tests d's candidates and returns the first that works.
// It never returns an error: every subprocess failure marks the candidate as failed.
func (p *Prober) Probe(ctx context.Context, d registry.Descriptor) Result {
	res := Result{
		Tool:          d.Name,
		CredentialEnv: d.CredentialEnv,
		CredentialSet: p.cfg.HasCredential(d.CredentialEnv),
		CheckedAt:     p.cfg.Clock().UTC(),
	}
	remembered, err := p.prefs.Get(d.Name)
	if err != nil {
		system.Logger.Debug("reading preferences failed", "tool", d.Name, "err", err)
	}
	timeout := p.cfg.ProbeTimeout
	if timeout <= 0 || timeout > config.DefaultProbeTimeout {
		timeout = config.DefaultProbeTimeout
	}

	var pkgs map[string]string
	pkgQueried := false
	for _, cand := range Order(d.Candidates, remembered) {
		if d.Package != nil {
			if !pkgQueried {
				pkgQueried = true
				pkgs, err = GlobalPackages(ctx, p.runner, d.Package.Ecosystem, timeout)
				if err != nil && !errors.Is(err, ErrPackageManagerMissing) {
					system.Logger.Debug("package manager query failed", "tool", d.Name, "err", err)
				}
			}
			if name, ver, ok := MatchPackage(pkgs, d.Package.Name); ok {
				res.Exists = true
				res.WorkingCandidate = cand
				res.Version = ver
				res.SemVer = ParseVersion(ver)
				res.Method = MethodPackageManager
				res.Attempts = append(res.Attempts, Attempt{Candidate: cand, OK: true, Detail: fmt.Sprintf("%s package %s", d.Package.Ecosystem, name)})
				if path, err := p.runner.LookPath(command.Base(cand)); err == nil {
					res.Path = path
				}
				break
			}
		}
		att, version, path := p.tryDirect(ctx, d, cand, timeout)
		res.Attempts = append(res.Attempts, att)
		if att.OK {
			res.Exists = true
			res.WorkingCandidate = cand
			res.Version = version
			res.SemVer = ParseVersion(version)
			res.Method = MethodDirectCommand
			res.Path = path
			break
		}
	}

	if res.Exists {
		if err := p.prefs.Remember(d.Name, res.WorkingCandidate); err != nil {
			system.Logger.Warn("saving preference failed", "tool", d.Name, "err", err)
		}
	}
	if err := p.snapshot(res); err != nil {
		system.Logger.Warn("saving status snapshot failed", "tool", d.Name, "err", err)
	}
	system.Logger.Debug("probe finished", "tool", d.Name, "exists", res.Exists, "candidate", res.WorkingCandidate, "method", res.Method)
	return res
}

// tryDirect resolves the candidate's executable on PATH and runs it with the
// descriptor's version arguments to confirm it actually starts.
func (p *Prober) tryDirect(ctx context.Context, d registry.Descriptor, cand string, timeout time.Duration) (Attempt, string, string) {
	att := Attempt{Candidate: cand}
	base := command.Base(cand)
	if base == "" {
		att.Detail = "empty candidate"
		return att, "", ""
	}
	path, err := p.runner.LookPath(base)
	if err != nil {
		att.Detail = fmt.Sprintf("%s not found in PATH", base)
		return att, "", ""
	}
	var last string
	for _, va := range d.VersionArgs {
		spec := runner.Spec{Timeout: timeout}
		if command.NeedsShell(cand) {
			spec.Shell = true
			spec.Line = cand + " " + strings.Join(va, " ")
		} else {
			toks, err := command.Split(cand)
			if err != nil {
				att.Detail = err.Error()
				return att, "", path
			}
			spec.Argv = append(toks, va...)
		}
		out := p.runner.Run(ctx, spec)
		switch {
		case out.TimedOut:
			last = fmt.Sprintf("version check timed out after %s", timeout)
			continue
		case !out.OK():
			last = fmt.Sprintf("version check exited %d", out.ExitCode)
			if out.Err != nil && out.ExitCode < 0 {
				last = out.Err.Error()
			}
			continue
		}
		version := FirstLine(out.Stdout)
		if version == "" {
			version = FirstLine(out.Stderr)
		}
		att.OK = true
		att.Detail = strings.TrimSpace(base + " " + strings.Join(va, " "))
		return att, version, path
	}
	att.Detail = last
	return att, "", path
}

func (p *Prober) snapshot(res Result) error {
	return store.Update(p.status, func(m *map[string]Result) error {
		if *m == nil {
			*m = map[string]Result{}
		}
		(*m)[res.Tool] = res
		return nil
	})
}

// ProbeAll probes each descriptor in order.
func (p *Prober) ProbeAll(ctx context.Context, ds []registry.Descriptor) []Result {
	out := make([]Result, 0, len(ds))
	for _, d := range ds {
		out = append(out, p.Probe(ctx, d))
	}
	return out
}

// LastStatus returns the persisted snapshot from cli_status.json.
func LastStatus(cfg config.Runtime) (map[string]Result, error) {
	m, err := store.Load[map[string]Result](cfg.Path(config.StatusFile))
	if m == nil {
		m = map[string]Result{}
	}
	return m, err
}
