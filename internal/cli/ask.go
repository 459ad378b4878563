package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clirouter/internal/dispatch"
	"clirouter/internal/errs"
)

var (
	askOutput     string
	askNoFallback bool
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askOutput, "output_file", "", "将 JSON 结果写入文件")
	askCmd.Flags().BoolVar(&askNoFallback, "no-fallback", false, "执行失败时不再降级")
}

var askCmd = &cobra.Command{
	Use:   `ask "<自然语言请求>"`,
	Short: "从自然语言中识别目标工具并路由",
	Long:  `识别如 "让 gemini 翻译这段话" 或 "用claude帮我写测试" 的请求，提取工具与任务后执行 route。`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := env()
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		in, ok := dispatch.ParseIntent(e.Registry(), text)
		if !ok {
			return errs.New(errs.KindInvalidRequest, "", "no known tool mentioned in the request")
		}
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		res, err := e.Dispatcher.Dispatch(cmd.Context(), dispatch.Request{
			Target:     in.Tool,
			Text:       in.Task,
			Workdir:    wd,
			NoFallback: askNoFallback,
		})
		if err != nil {
			return err
		}
		return emitResult(cmd, res, askOutput, wd)
	},
}
