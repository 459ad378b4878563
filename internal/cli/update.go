package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clirouter/internal/command"
	"clirouter/internal/probe"
	"clirouter/internal/registry"
	"clirouter/internal/runner"
)

func init() {
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [tool|all]...",
	Short: "升级受支持的 CLI 工具到最新版本",
	Long:  "为指定或全部已安装工具执行全局升级。npm 包会先与 Registry 最新版本比较。",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := env()
		if err != nil {
			return err
		}
		selected, err := selectTools(e.Registry(), args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		prober := e.Dispatcher.Prober()
		for i, d := range selected {
			fmt.Fprintf(out, "[%d/%d] %s 升级检查…\n", i+1, len(selected), d.DisplayName)
			res := prober.Probe(cmd.Context(), d)
			if !res.Exists {
				fmt.Fprintln(out, "  • 未安装，跳过（请使用 install）")
				continue
			}
			if d.Package == nil {
				fmt.Fprintf(out, "  • 无包管理信息，请手动升级：%s\n", d.InstallCommand())
				continue
			}
			current := res.SemVer
			if current == "" {
				current = res.Version
			}
			if d.Package.Ecosystem == registry.EcosystemNPM {
				latest, err := probe.NpmLatestVersion(cmd.Context(), e.Runner, d.Package.Name)
				// If latest unknown, still attempt upgrade
				if err == nil && latest != "" && current != "" && !probe.VersionLess(current, latest) {
					fmt.Fprintf(out, "  ✓ 已是最新 %s\n", current)
					continue
				}
			}
			fmt.Fprintln(out, "  → 执行升级…")
			ctx, cancel := context.WithTimeout(cmd.Context(), installTimeout)
			// Prefer the tool's own updater when applicable
			if d.Name == "claude" && command.Base(res.WorkingCandidate) == "claude" {
				err = runSelfUpdater(ctx, out, e.Runner, "claude", "update")
			} else {
				err = probe.InstallLatest(ctx, e.Runner, *d.Package)
			}
			cancel()
			if err != nil {
				fmt.Fprintf(out, "  × 升级失败：%v\n", err)
				continue
			}
			res = prober.Probe(cmd.Context(), d)
			ver := strings.TrimSpace(res.Version)
			if ver == "" {
				ver = "latest"
			}
			fmt.Fprintf(out, "  ✓ 升级成功 → %s\n", ver)
		}
		return nil
	},
}

// runSelfUpdater runs a tool's self-update command and echoes its output.
func runSelfUpdater(ctx context.Context, w io.Writer, rn runner.Runner, argv ...string) error {
	res := rn.Run(ctx, runner.Spec{Argv: argv, Env: []string{"NO_COLOR=1"}, Timeout: installTimeout})
	s := strings.TrimSpace(res.Stdout + "\n" + res.Stderr)
	if s != "" {
		for _, line := range strings.Split(s, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	if !res.OK() {
		if res.Err != nil {
			return res.Err
		}
		return fmt.Errorf("%s exited with code %d", strings.Join(argv, " "), res.ExitCode)
	}
	return nil
}
