package cli

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"clirouter/internal/setup"
)

var (
	setupShell string
	setupOut   string
)

func init() {
	rootCmd.AddCommand(setupScriptCmd)
	setupScriptCmd.Flags().StringVar(&setupShell, "shell", "", "脚本类型：bash、powershell、batch（默认按当前系统）")
	setupScriptCmd.Flags().StringVarP(&setupOut, "output", "o", "", "写入文件而不是标准输出")
}

var setupScriptCmd = &cobra.Command{
	Use:   "setup-script [tool|all]...",
	Short: "生成安装与验证脚本",
	Long:  "为选定工具生成安装脚本：通过包管理器安装、用版本参数验证，并提示需要设置的凭据环境变量。",
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
		name := setupShell
		if name == "" {
			name = "bash"
			if runtime.GOOS == "windows" {
				name = "powershell"
			}
		}
		sh, err := setup.ParseShell(name)
		if err != nil {
			return err
		}
		if setupOut == "" {
			return setup.Render(cmd.OutOrStdout(), sh, selected)
		}
		f, err := os.OpenFile(setupOut, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
		if err != nil {
			return err
		}
		if err := setup.Render(f, sh, selected); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	},
}
