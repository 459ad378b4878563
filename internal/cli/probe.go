package cli

import (
	"github.com/spf13/cobra"
)

func init() { rootCmd.AddCommand(probeCmd) }

var probeCmd = &cobra.Command{
	Use:   "probe <tool>",
	Short: "探测单个工具并输出 JSON 结果",
	Long:  "依次尝试工具的各个调用方式（优先上次成功的方式），记录成功的调用方式并输出探测结果。",
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
		return printJSON(cmd, e.Dispatcher.Prober().Probe(cmd.Context(), d))
	},
}
