package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cfg "clirouter/internal/config"
	"clirouter/internal/registry"
	"clirouter/internal/settings"
)

var configWizard bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVarP(&configWizard, "wizard", "w", false, "运行交互式配置向导")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "初始化并显示配置位置",
	Long:  "创建 clirouter 配置目录与 config.yaml，并列出偏好、状态快照与历史记录文件的位置。",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cfg.Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dir, cfg.ConfigFile)
		f, err := cfg.LoadFile(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if configWizard {
			f, err = settings.Run(f, registry.Builtin().Names())
			if err != nil {
				return err
			}
			if err := cfg.SaveFile(path, f); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n✓ 已保存 config.yaml：%s\n", path)
		} else if fileExists(path) {
			fmt.Fprintf(out, "• 保持现有 config.yaml：%s\n", path)
		} else {
			if err := cfg.SaveFile(path, f); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ 已创建 config.yaml：%s\n", path)
		}

		rt := cfg.FromFile(dir, f)
		for _, name := range []string{cfg.PreferencesFile, cfg.StatusFile, cfg.HistoryFile} {
			state := "尚未生成"
			if fileExists(rt.Path(name)) {
				state = "已存在"
			}
			fmt.Fprintf(out, "• %s（%s）\n", rt.Path(name), state)
		}
		if rt.ToolsFile != "" {
			fmt.Fprintf(out, "• 工具覆盖文件：%s\n", rt.ToolsFile)
		} else {
			fmt.Fprintf(out, "• 工具覆盖文件：未配置（可创建 %s 或 %s）\n", cfg.ToolsFileYAML, cfg.ToolsFileTOML)
		}
		fmt.Fprintf(out, "\n配置目录：%s\n", dir)
		return nil
	},
}

func fileExists(path string) bool {
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		return true
	}
	return false
}
