package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clirouter/internal/probe"
	"clirouter/internal/registry"
)

const installTimeout = 5 * time.Minute

func init() {
	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install [tool|all]...",
	Short: "安装受支持的 CLI 工具",
	Long:  "为指定或全部工具执行全局安装（npm -g / pip）。已安装的工具会被跳过；没有包的工具打印手动安装命令。",
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
			fmt.Fprintf(out, "[%d/%d] %s 安装中…\n", i+1, len(selected), d.DisplayName)
			res := prober.Probe(cmd.Context(), d)
			if res.Exists {
				ver := res.Version
				if ver == "" {
					ver = "已安装"
				}
				fmt.Fprintf(out, "  • 跳过：%s\n", ver)
				continue
			}
			if d.Package == nil {
				fmt.Fprintf(out, "  • 无法自动安装，请手动执行：%s\n", d.InstallCommand())
				continue
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), installTimeout)
			err := probe.InstallLatest(ctx, e.Runner, *d.Package)
			cancel()
			if err != nil {
				fmt.Fprintf(out, "  × 安装失败：%v\n", err)
				continue
			}
			res = prober.Probe(cmd.Context(), d)
			ver := strings.TrimSpace(res.Version)
			if ver == "" {
				ver = "latest"
			}
			fmt.Fprintf(out, "  ✓ 安装成功 → %s\n", ver)
		}
		return nil
	},
}

// selectTools resolves args to descriptors. No args or "all" selects every tool.
func selectTools(reg *registry.Registry, args []string) ([]registry.Descriptor, error) {
	seen := map[string]bool{}
	var out []registry.Descriptor
	for _, a := range args {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if a == "all" {
			return reg.All(), nil
		}
		d, err := reg.Describe(a)
		if err != nil {
			return nil, err
		}
		if !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return reg.All(), nil
	}
	return out, nil
}
