package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clirouter/internal/app"
	"clirouter/internal/errs"
	"clirouter/internal/system"
	"clirouter/internal/telemetry"
)

var (
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "clirouter",
	Short: "clirouter – 在多个 AI 编程 CLI 之间探测、路由与降级",
	Long: "clirouter 探测本机可用的 AI 编程 CLI（Claude Code、Gemini、Qwen、Codex 等），" +
		"把请求路由到指定工具，并在失败时逐级降级为命令、安装指南或替代工具建议。",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyLogFlags()
		shutdown, err := telemetry.Setup(cmd.Context(), os.Getenv)
		if err != nil {
			system.Logger.Warn("telemetry disabled", "err", err)
			return
		}
		flushTelemetry = shutdown
	},
}

// flushTelemetry is set once the trace pipeline is installed.
var flushTelemetry telemetry.Shutdown

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别：debug、info、warn、error")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errs.Wrap(errs.KindInvalidRequest, "", "invalid flags", err)
	})
}

func applyLogFlags() {
	switch {
	case verbose:
		system.SetLevel("debug")
	case logLevel != "":
		system.SetLevel(logLevel)
	}
}

// loadEnv builds the application environment; tests replace it.
var loadEnv = func() (*app.Env, error) { return app.Load() }

// env loads the environment and re-applies the command-line log level over
// the one from config.yaml.
func env() (*app.Env, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, err
	}
	applyLogFlags()
	return e, nil
}

// Execute runs the CLI and exits with the code mapped from the error.
func Execute() {
	err := rootCmd.Execute()
	if flushTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if ferr := flushTelemetry(ctx); ferr != nil {
			system.Logger.Debug("flushing traces failed", "err", ferr)
		}
		cancel()
	}
	if err != nil {
		var ee *errs.ExitError
		if !errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(errs.ExitCode(err))
	}
}
