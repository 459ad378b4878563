package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clirouter/internal/server"
	"clirouter/internal/system"
)

var (
	serveAddr    string
	serveRefresh string
	serveWatch   bool
	serveLogJSON bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.StringVar(&serveAddr, "addr", "", "监听地址（默认取 config.yaml 的 server.addr）")
	f.StringVar(&serveRefresh, "refresh", "", "重新探测的 cron 表达式，off 表示关闭")
	f.BoolVar(&serveWatch, "watch", true, "tools.yaml / tools.toml 变化时自动重载")
	f.BoolVar(&serveLogJSON, "log-json", false, "以 JSON 输出日志")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP API 服务",
	Long:  "提供 /api/tools、/api/dispatch、/api/history 等接口，并按计划刷新工具状态快照。",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveLogJSON {
			system.SetOutput(os.Stderr, true)
		}
		e, err := env()
		if err != nil {
			return err
		}
		s := &server.Server{
			Addr:    e.Config.Server.Addr,
			Env:     e,
			Refresh: e.Config.Server.Refresh,
			Watch:   serveWatch,
		}
		if serveAddr != "" {
			s.Addr = serveAddr
		}
		switch serveRefresh {
		case "":
		case "off", "none":
			s.Refresh = ""
		default:
			s.Refresh = serveRefresh
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return s.Start(ctx)
	},
}

