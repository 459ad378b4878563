package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clirouter/internal/probe"
)

func init() {
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:   "remove <tool|all>...",
	Short: "卸载受支持的 CLI 工具",
	Long:  "为指定工具执行全局卸载（npm -g uninstall / pip uninstall），并清除记住的调用方式。",
	Args:  cobra.MinimumNArgs(1),
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
			fmt.Fprintf(out, "[%d/%d] %s 卸载中…\n", i+1, len(selected), d.DisplayName)
			res := prober.Probe(cmd.Context(), d)
			if !res.Exists {
				fmt.Fprintln(out, "  • 未安装，跳过")
				continue
			}
			if d.Package == nil {
				fmt.Fprintln(out, "  • 未配置包名，无法通过包管理器卸载，跳过")
				continue
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
			err := probe.Uninstall(ctx, e.Runner, *d.Package)
			cancel()
			if err != nil {
				fmt.Fprintf(out, "  × 卸载失败：%v\n", err)
				continue
			}
			if err := prober.Preferences().Forget(d.Name); err != nil {
				fmt.Fprintf(out, "  • 清除调用偏好失败：%v\n", err)
			}
			if res2 := prober.Probe(cmd.Context(), d); res2.Exists {
				fmt.Fprintf(out, "  • 仍检测到已安装（%s）\n", res2.WorkingCandidate)
			} else {
				fmt.Fprintln(out, "  ✓ 卸载成功")
			}
		}
		return nil
	},
}
