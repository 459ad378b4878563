package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"clirouter/internal/command"
	"clirouter/internal/dispatch"
	"clirouter/internal/ui"
)

var (
	guideRaw     bool
	guideRequest string
)

func init() {
	rootCmd.AddCommand(guideCmd)
	guideCmd.Flags().BoolVar(&guideRaw, "raw", false, "输出原始 Markdown")
	guideCmd.Flags().StringVarP(&guideRequest, "request", "r", "<your request>", "示例命令中使用的请求文本")
}

var guideCmd = &cobra.Command{
	Use:   "guide <tool>",
	Short: "显示工具的安装与使用指南",
	Long:  "探测工具后生成指南：安装命令、验证命令、直接调用命令、备选调用方式与所需凭据。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := env()
		if err != nil {
			return err
		}
		d, err := e.Registry().Describe(args[0])
		if err != nil {
			return err
		}
		res := e.Dispatcher.Prober().Probe(cmd.Context(), d)
		cand := res.WorkingCandidate
		if cand == "" {
			cand = d.Candidates[0]
		}
		in := dispatch.GuideInput{
			Tool:          d,
			Probe:         res,
			Candidate:     cand,
			CredentialSet: e.Config.HasCredential(d.CredentialEnv),
		}
		if c, err := command.Build(d, cand, guideRequest, nil, ""); err == nil {
			in.Command = c.String()
		}
		md := dispatch.Guide(in)
		if guideRaw {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderMarkdown(md, termWidth()))
		return nil
	},
}

// termWidth reads $COLUMNS, defaulting to 100.
func termWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 100
}
