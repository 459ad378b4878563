package cli

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"clirouter/internal/app"
	"clirouter/internal/command"
	"clirouter/internal/errs"
	"clirouter/internal/runner"
)

func init() { rootCmd.AddCommand(openCmd) }

var openCmd = &cobra.Command{
	Use:                "open <tool> [args...]",
	Short:              "以交互模式启动工具",
	Long:               "使用探测到的调用方式启动工具，其余参数原样传递。",
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true, // pass through all flags/args to the underlying tool
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
		if !res.Exists {
			return errs.New(errs.KindProbeFailure, d.Name, "not installed; run `clirouter install "+d.Name+"` or `clirouter guide "+d.Name+"`")
		}
		c, err := interactiveCmd(res.WorkingCandidate, args[1:])
		if err != nil {
			return err
		}
		return app.Open(d.DisplayName, c)
	},
}

// interactiveCmd turns a candidate plus extra arguments into a command
// attached to the terminal.
func interactiveCmd(candidate string, extra []string) (*exec.Cmd, error) {
	if command.NeedsShell(candidate) {
		line := candidate
		if len(extra) > 0 {
			line += " " + command.QuoteFor(runtime.GOOS, extra...)
		}
		return runner.ShellCommand(context.Background(), line), nil
	}
	toks, err := command.Split(candidate)
	if err != nil {
		return nil, err
	}
	toks = append(toks, extra...)
	return exec.Command(toks[0], toks[1:]...), nil //nolint:gosec
}
