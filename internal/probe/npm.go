package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"clirouter/internal/registry"
	"clirouter/internal/runner"
)

// ErrPackageManagerMissing is returned when npm/pip is not on PATH.
var ErrPackageManagerMissing = errors.New("package manager not found")

// GlobalPackages lists globally installed packages (name -> version) for eco.
func GlobalPackages(ctx context.Context, rn runner.Runner, eco registry.Ecosystem, timeout time.Duration) (map[string]string, error) {
	switch eco {
	case registry.EcosystemNPM:
		return npmGlobal(ctx, rn, timeout)
	case registry.EcosystemPip:
		return pipList(ctx, rn, timeout)
	}
	return nil, fmt.Errorf("unsupported ecosystem %q", eco)
}

// npmGlobal queries `npm ls -g --depth=0 --json`.
func npmGlobal(ctx context.Context, rn runner.Runner, timeout time.Duration) (map[string]string, error) {
	if _, err := rn.LookPath("npm"); err != nil {
		return nil, ErrPackageManagerMissing
	}
	out := rn.Run(ctx, runner.Spec{Argv: []string{"npm", "ls", "-g", "--depth=0", "--json"}, Timeout: timeout})
	// npm exits non-zero on peer-dependency problems but still prints the tree
	if strings.TrimSpace(out.Stdout) == "" {
		if out.Err != nil {
			return nil, out.Err
		}
		return nil, fmt.Errorf("npm ls: exit %d", out.ExitCode)
	}
	var data struct {
		Dependencies map[string]struct {
			Version string `json:"version"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal([]byte(out.Stdout), &data); err != nil {
		return nil, err
	}
	pkgs := make(map[string]string, len(data.Dependencies))
	for name, d := range data.Dependencies {
		pkgs[name] = d.Version
	}
	return pkgs, nil
}

// pipList queries `pip3 list --format=json`, falling back to pip.
func pipList(ctx context.Context, rn runner.Runner, timeout time.Duration) (map[string]string, error) {
	bin := ""
	for _, b := range []string{"pip3", "pip"} {
		if _, err := rn.LookPath(b); err == nil {
			bin = b
			break
		}
	}
	if bin == "" {
		return nil, ErrPackageManagerMissing
	}
	out := rn.Run(ctx, runner.Spec{Argv: []string{bin, "list", "--format=json"}, Timeout: timeout})
	if !out.OK() && strings.TrimSpace(out.Stdout) == "" {
		if out.Err != nil {
			return nil, out.Err
		}
		return nil, fmt.Errorf("%s list: exit %d", bin, out.ExitCode)
	}
	var rows []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.Stdout)), &rows); err != nil {
		return nil, err
	}
	pkgs := make(map[string]string, len(rows))
	for _, r := range rows {
		pkgs[strings.ToLower(r.Name)] = r.Version
	}
	return pkgs, nil
}

// MatchPackage finds name in pkgs: exact match first, then substring on the
// unscoped name as a secondary heuristic.
func MatchPackage(pkgs map[string]string, name string) (string, string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", "", false
	}
	for k, v := range pkgs {
		if strings.ToLower(k) == name {
			return k, v, true
		}
	}
	bare := name
	if i := strings.LastIndex(bare, "/"); i >= 0 {
		bare = bare[i+1:]
	}
	best := ""
	for k := range pkgs {
		if strings.Contains(strings.ToLower(k), bare) && (best == "" || k < best) {
			best = k
		}
	}
	if best != "" {
		return best, pkgs[best], true
	}
	return "", "", false
}

// NpmLatestVersion queries npm registry for latest dist-tag ("version").
func NpmLatestVersion(ctx context.Context, rn runner.Runner, pkg string) (string, error) {
	out := rn.Run(ctx, runner.Spec{Argv: []string{"npm", "view", pkg, "version", "--json"}, Timeout: 6 * time.Second})
	if !out.OK() && out.Stdout == "" {
		if out.Err != nil {
			return "", out.Err
		}
		return "", fmt.Errorf("npm view: exit %d", out.ExitCode)
	}
	s := strings.TrimSpace(out.Stdout)
	// npm may return a bare JSON string like "1.2.3" or plain 1.2.3
	var v string
	if json.Unmarshal([]byte(s), &v) == nil && v != "" {
		return v, nil
	}
	// Fallback: first line
	return strings.Trim(strings.Split(s, "\n")[0], "\""), nil
}

// InstallLatest installs pkg globally with its package manager.
func InstallLatest(ctx context.Context, rn runner.Runner, p registry.Package) error {
	var argv []string
	switch p.Ecosystem {
	case registry.EcosystemNPM:
		// Use --no-fund and --no-audit to speed up and reduce noise
		argv = []string{"npm", "install", "-g", p.Name + "@latest", "--no-fund", "--no-audit"}
	case registry.EcosystemPip:
		argv = []string{"pip3", "install", "--upgrade", p.Name}
		if _, err := rn.LookPath("pip3"); err != nil {
			argv[0] = "pip"
		}
	default:
		return fmt.Errorf("unsupported ecosystem %q", p.Ecosystem)
	}
	out := rn.Run(ctx, runner.Spec{Argv: argv, Timeout: 5 * time.Minute})
	if !out.OK() {
		msg := strings.TrimSpace(out.Stderr)
		if msg == "" && out.Err != nil {
			msg = out.Err.Error()
		}
		return fmt.Errorf("%s: %s", strings.Join(argv[:3], " "), msg)
	}
	return nil
}

// Uninstall removes pkg from the global package manager install.
func Uninstall(ctx context.Context, rn runner.Runner, p registry.Package) error {
	var argv []string
	switch p.Ecosystem {
	case registry.EcosystemNPM:
		argv = []string{"npm", "uninstall", "-g", p.Name}
	case registry.EcosystemPip:
		argv = []string{"pip3", "uninstall", "-y", p.Name}
		if _, err := rn.LookPath("pip3"); err != nil {
			argv[0] = "pip"
		}
	default:
		return fmt.Errorf("unsupported ecosystem %q", p.Ecosystem)
	}
	out := rn.Run(ctx, runner.Spec{Argv: argv, Timeout: 3 * time.Minute})
	if !out.OK() {
		msg := strings.TrimSpace(out.Stderr)
		if msg == "" && out.Err != nil {
			msg = out.Err.Error()
		}
		return fmt.Errorf("%s: %s", strings.Join(argv[:3], " "), msg)
	}
	return nil
}
