package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/spf13/cobra"

	"clirouter/internal/dispatch"
	"clirouter/internal/errs"
)

// routeContext is the JSON document accepted by --context / --context_file.
type routeContext struct {
	// Task is the free-text request; "request" and "prompt" are accepted too.
	Task       string            `json:"task,omitempty" jsonschema:"description=Free-text request handed to the target tool"`
	Request    string            `json:"request,omitempty"`
	Prompt     string            `json:"prompt,omitempty"`
	Source     string            `json:"source,omitempty" jsonschema:"description=Tool that delegated the request; defaults to user"`
	Files      []string          `json:"files,omitempty" jsonschema:"description=Context files; missing files are skipped"`
	Cwd        string            `json:"cwd,omitempty" jsonschema:"description=Working directory for the tool"`
	Params     map[string]string `json:"params,omitempty"`
	NoFallback bool              `json:"no_fallback,omitempty"`
}

func (c routeContext) text() string {
	for _, s := range []string{c.Task, c.Request, c.Prompt} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

type routeOptions struct {
	Context     string
	ContextFile string
	OutputFile  string
	Source      string
	Request     string
	Files       []string
	Cwd         string
	NoFallback  bool
}

var routeOpts routeOptions

func init() {
	rootCmd.AddCommand(routeCmd)
	f := routeCmd.Flags()
	f.StringVar(&routeOpts.Context, "context", "", "描述请求的 JSON（task、files、cwd）")
	f.StringVar(&routeOpts.ContextFile, "context_file", "", "从文件读取请求 JSON")
	f.StringVar(&routeOpts.OutputFile, "output_file", "", "将 JSON 结果写入文件而不是标准输出")
	f.StringVar(&routeOpts.Source, "source", "", "委托该请求的来源工具（默认 user）")
	f.StringVarP(&routeOpts.Request, "request", "r", "", "请求文本（覆盖 context 中的 task）")
	f.StringArrayVarP(&routeOpts.Files, "file", "f", nil, "附加上下文文件，可重复")
	f.StringVar(&routeOpts.Cwd, "cwd", "", "目标工具的工作目录")
	f.BoolVar(&routeOpts.NoFallback, "no-fallback", false, "执行失败时不再降级")
}

var routeCmd = &cobra.Command{
	Use:   "route <tool> [request...]",
	Short: "将请求路由到指定 AI CLI，失败时逐级降级",
	Long: "探测目标工具并执行请求。失败时依次降级为：可手动执行的命令、安装与使用指南、" +
		"按请求类型推荐的替代工具。结果以 JSON 输出。",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		req, err := buildRouteRequest(args[0], strings.Join(args[1:], " "), routeOpts, wd)
		if err != nil {
			return err
		}
		e, err := env()
		if err != nil {
			return err
		}
		res, err := e.Dispatcher.Dispatch(cmd.Context(), req)
		if err != nil {
			return err
		}
		return emitResult(cmd, res, routeOpts.OutputFile, wd)
	},
}

// buildRouteRequest merges the context document with flags and positional
// request words; flags win over the document.
func buildRouteRequest(target, positional string, o routeOptions, wd string) (dispatch.Request, error) {
	var rc routeContext
	raw := strings.TrimSpace(o.Context)
	if raw != "" && o.ContextFile != "" {
		return dispatch.Request{}, errs.New(errs.KindInvalidRequest, "", "use either --context or --context_file, not both")
	}
	if o.ContextFile != "" {
		p, err := resolvePath(wd, o.ContextFile)
		if err != nil {
			return dispatch.Request{}, errs.Wrap(errs.KindInvalidRequest, "", "context file", err)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return dispatch.Request{}, errs.Wrap(errs.KindInvalidRequest, "", "read context file", err)
		}
		raw = string(b)
	}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &rc); err != nil {
			return dispatch.Request{}, errs.Wrap(errs.KindInvalidRequest, "", "malformed context JSON", err)
		}
	}

	req := dispatch.Request{
		Source:     rc.Source,
		Target:     target,
		Text:       rc.text(),
		Files:      rc.Files,
		Workdir:    rc.Cwd,
		Params:     rc.Params,
		NoFallback: rc.NoFallback || o.NoFallback,
	}
	if strings.TrimSpace(positional) != "" {
		req.Text = positional
	}
	if strings.TrimSpace(o.Request) != "" {
		req.Text = o.Request
	}
	if o.Source != "" {
		req.Source = o.Source
	}
	req.Files = append(req.Files, o.Files...)
	if o.Cwd != "" {
		req.Workdir = o.Cwd
	}
	if req.Workdir != "" && !filepath.IsAbs(req.Workdir) {
		req.Workdir = filepath.Join(wd, req.Workdir)
	}
	// Relative files stay relative to the workdir, where the command
	// builder confines them. Without a workdir they are confined to wd here.
	if req.Workdir == "" {
		for i, f := range req.Files {
			if filepath.IsAbs(f) {
				continue
			}
			p, err := resolvePath(wd, f)
			if err != nil {
				return dispatch.Request{}, errs.Wrap(errs.KindInvalidRequest, "", "context file", err)
			}
			req.Files[i] = p
		}
	}
	return req, nil
}

// resolvePath keeps relative paths inside base; absolute paths are taken as given.
func resolvePath(base, p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return securejoin.SecureJoin(base, p)
}

// emitResult prints res as JSON (or writes it to outputFile) and turns an
// unsuccessful result into exit status 1.
func emitResult(cmd *cobra.Command, res dispatch.Result, outputFile, wd string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if outputFile != "" {
		p, err := resolvePath(wd, outputFile)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, b, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "结果已写入 %s\n", p)
	} else {
		_, _ = cmd.OutOrStdout().Write(b)
	}
	if !res.Success {
		return &errs.ExitError{Code: errs.ExitFailure}
	}
	return nil
}
