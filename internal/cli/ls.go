package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clirouter/internal/probe"
	"clirouter/internal/ui"
)

var (
	lsJSON   bool
	lsCached bool
)

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "以 JSON 输出")
	lsCmd.Flags().BoolVar(&lsCached, "cached", false, "仅读取上次探测快照，不重新探测")
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "列出受支持工具的当前状态",
	Long:  "探测每个受支持工具的安装状态、版本、可用调用方式与凭据环境变量。",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := env()
		if err != nil {
			return err
		}
		all := e.Registry().All()
		var results []probe.Result
		if lsCached {
			snap, err := probe.LastStatus(e.Config)
			if err != nil {
				return err
			}
			for _, d := range all {
				if r, ok := snap[d.Name]; ok {
					results = append(results, r)
				} else {
					results = append(results, probe.Result{Tool: d.Name})
				}
			}
		} else {
			results = e.Dispatcher.Prober().ProbeAll(cmd.Context(), all)
		}

		if lsJSON {
			return printJSON(cmd, results)
		}
		fmt.Fprint(cmd.OutOrStdout(), statusTable(results, e.Config.HasCredential))
		return nil
	},
}

func statusTable(results []probe.Result, hasCred func(string) bool) string {
	t := ui.Table{Headers: []string{"工具", "状态", "版本", "调用方式", "凭据"}}
	installed := 0
	for _, r := range results {
		status := ui.Bad(ui.IconMissing() + " 未安装")
		ver, via := "-", "-"
		if r.Exists {
			installed++
			status = ui.OK(ui.IconInstalled() + " 已安装")
			ver = r.Version
			if strings.TrimSpace(ver) == "" {
				ver = "?"
			}
			via = r.WorkingCandidate
		}
		cred := ui.Dim("-")
		if r.CredentialEnv != "" {
			if hasCred(r.CredentialEnv) {
				cred = ui.OK(r.CredentialEnv)
			} else {
				cred = ui.Warn(ui.IconKey() + " " + r.CredentialEnv + " 未设置")
			}
		}
		t.Rows = append(t.Rows, []string{r.Tool, status, ver, via, cred})
	}
	return t.String() + ui.Dim(fmt.Sprintf("\n%d/%d 可用\n", installed, len(results)))
}
