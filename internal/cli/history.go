package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clirouter/internal/store"
	"clirouter/internal/ui"
)

var (
	historyLimit int
	historyJSON  bool
	statsJSON    bool
)

func init() {
	rootCmd.AddCommand(historyCmd, statsCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "显示最近的记录数")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "以 JSON 输出")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "以 JSON 输出")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "显示最近的路由记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := env()
		if err != nil {
			return err
		}
		recs, err := e.Dispatcher.History().Recent(historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			return printJSON(cmd, recs)
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "暂无记录")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), historyTable(recs))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "按 来源->目标 汇总成功率与平均耗时",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := env()
		if err != nil {
			return err
		}
		f, err := e.Dispatcher.History().Read()
		if err != nil {
			return err
		}
		if statsJSON {
			return printJSON(cmd, f.Patterns)
		}
		if len(f.Patterns) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "暂无统计")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), statsTable(f))
		return nil
	},
}

func historyTable(recs []store.Record) string {
	t := ui.Table{Headers: []string{"时间", "来源", "目标", "类型", "级别", "结果", "耗时"}}
	for _, r := range recs {
		result := ui.OK("成功")
		if !r.Success {
			result = ui.Bad("失败")
			if r.ErrorKind != "" {
				result += ui.Dim(" " + r.ErrorKind)
			}
		}
		t.Rows = append(t.Rows, []string{
			r.Timestamp.Local().Format("01-02 15:04:05"),
			r.SourceTool,
			r.TargetTool,
			r.RequestClass,
			strconv.Itoa(r.FallbackLevel),
			result,
			fmt.Sprintf("%.2fs", r.ExecutionTime),
		})
	}
	return t.String()
}

func statsTable(f store.HistoryFile) string {
	t := ui.Table{Headers: []string{"模式", "次数", "成功率", "平均耗时", "最近使用"}}
	for _, k := range f.PatternKeys() {
		p := f.Patterns[k]
		t.Rows = append(t.Rows, []string{
			k,
			strconv.Itoa(p.UsageCount),
			fmt.Sprintf("%.0f%%", p.SuccessRate*100),
			fmt.Sprintf("%.2fs", p.AvgExecutionTime),
			p.LastUsed.Local().Format("2006-01-02 15:04"),
		})
	}
	return t.String()
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
