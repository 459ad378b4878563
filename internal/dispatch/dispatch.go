// Package dispatch routes a request to a tool and degrades gracefully when the
// tool cannot run it: direct execution, then a command to run manually, then
// a manual guide, then an error with alternative tools. Every dispatch is
// recorded in the call history.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"clirouter/internal/command"
	"clirouter/internal/config"
	"clirouter/internal/errs"
	"clirouter/internal/mapper"
	"clirouter/internal/probe"
	"clirouter/internal/registry"
	"clirouter/internal/runner"
	"clirouter/internal/store"
	"clirouter/internal/system"
)

// Level is the rung of the fallback ladder that produced a result.
type Level int

const (
	// LevelDirect means the tool was executed.
	LevelDirect Level = iota
	// LevelCommand returns the built command for manual execution.
	LevelCommand
	// LevelGuide returns the manual-usage guide.
	LevelGuide
	// LevelError returns the error with alternative tools.
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDirect:
		return "direct"
	case LevelCommand:
		return "command"
	case LevelGuide:
		return "guide"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// DefaultSource names the caller when a request has no source tool.
const DefaultSource = "user"

// maxAlternatives bounds the alternative tools listed at the error level.
const maxAlternatives = 3

// Request is one routing request.
type Request struct {
	// Source is the tool handing the work over; empty means a human caller.
	Source string   `json:"source,omitempty"`
	Target string   `json:"target"`
	Text   string   `json:"request"`
	Files  []string `json:"files,omitempty"`
	// Workdir is where relative files resolve and the tool runs.
	Workdir string `json:"cwd,omitempty"`
	// Params are extra inputs for cross-tool parameter mapping (e.g. "model", "context").
	Params map[string]string `json:"params,omitempty"`
	// NoFallback returns the execution failure instead of descending the ladder.
	NoFallback bool `json:"no_fallback,omitempty"`
}

// Alternative is another available tool suited to the request.
type Alternative struct {
	Tool        string `json:"tool"`
	DisplayName string `json:"display_name"`
	Command     string `json:"command"`
}

// Result is the structured outcome of a dispatch. Response is never empty.
type Result struct {
	ID            string         `json:"id"`
	Success       bool           `json:"success"`
	Response      string         `json:"response"`
	Command       string         `json:"command_used"`
	FallbackLevel int            `json:"fallback_level"`
	ExecutionTime float64        `json:"execution_time"`
	Tool          string         `json:"tool"`
	Source        string         `json:"source_tool"`
	Class         registry.Class `json:"request_class"`
	ErrorKind     errs.Kind      `json:"error_kind,omitempty"`
	Error         string         `json:"error,omitempty"`
	Alternatives  []Alternative  `json:"alternatives,omitempty"`
}

// Level returns FallbackLevel as a Level.
func (r Result) Level() Level { return Level(r.FallbackLevel) }

type options struct {
	mapper *mapper.Mapper
	tp     trace.TracerProvider
	mp     metric.MeterProvider
}

// Option configures a Dispatcher.
type Option func(*options)

// WithMapper replaces the builtin collaboration patterns.
func WithMapper(m *mapper.Mapper) Option { return func(o *options) { o.mapper = m } }

// WithTracerProvider sets the trace provider (default: the global one).
func WithTracerProvider(tp trace.TracerProvider) Option { return func(o *options) { o.tp = tp } }

// WithMeterProvider sets the meter provider (default: the global one).
func WithMeterProvider(mp metric.MeterProvider) Option { return func(o *options) { o.mp = mp } }

// Dispatcher is safe for concurrent use. The registry can be swapped at run
// time; everything else is fixed at construction.
type Dispatcher struct {
	reg     atomic.Pointer[registry.Registry]
	runner  runner.Runner
	prober  *probe.Prober
	mapper  *mapper.Mapper
	history store.History
	cfg     config.Runtime
	inst    instruments
}

// New builds a dispatcher over reg that executes through rn and persists
// under cfg.Dir.
func New(reg *registry.Registry, rn runner.Runner, cfg config.Runtime, opts ...Option) (*Dispatcher, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.mapper == nil {
		o.mapper = mapper.Default()
	}
	inst, err := newInstruments(o.tp, o.mp)
	if err != nil {
		return nil, fmt.Errorf("telemetry instruments: %w", err)
	}
	d := &Dispatcher{
		runner:  rn,
		prober:  probe.New(rn, cfg),
		mapper:  o.mapper,
		history: store.History{Path: cfg.Path(config.HistoryFile), Limit: cfg.HistoryLimit},
		cfg:     cfg,
		inst:    inst,
	}
	d.reg.Store(reg)
	return d, nil
}

// Registry returns the current registry.
func (d *Dispatcher) Registry() *registry.Registry { return d.reg.Load() }

// SetRegistry swaps the registry used by later dispatches.
func (d *Dispatcher) SetRegistry(r *registry.Registry) { d.reg.Store(r) }

// Prober returns the prober used for availability checks.
func (d *Dispatcher) Prober() *probe.Prober { return d.prober }

// Mapper returns the collaboration pattern table.
func (d *Dispatcher) Mapper() *mapper.Mapper { return d.mapper }

// History returns the call-history store.
func (d *Dispatcher) History() store.History { return d.history }

// attempt carries the state of one dispatch down the ladder.
type attempt struct {
	desc          registry.Descriptor
	req           Request
	source        string
	class         registry.Class
	credentialSet bool

	pattern *mapper.Pattern
	params  map[string]string

	probe     probe.Result
	candidate string
	cmd       command.Command
	buildErr  error

	failure error
	stderr  string
	// carried holds guidance produced by levels that could not resolve.
	carried []string
}

// Dispatch runs req down the fallback ladder. The only error it returns is an
// unknown_tool error for a target missing from the registry; every other
// failure is reported in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	start := d.cfg.Clock()
	reg := d.Registry()
	desc, err := reg.Describe(req.Target)
	if err != nil {
		return Result{}, err
	}

	a := &attempt{
		desc:          desc,
		req:           req,
		source:        d.canonicalSource(reg, req.Source),
		class:         Classify(req.Text),
		credentialSet: d.cfg.HasCredential(desc.CredentialEnv),
	}
	ctx, span := d.inst.tracer.Start(ctx, "clirouter.dispatch", trace.WithAttributes(
		attribute.String("clirouter.tool", desc.Name),
		attribute.String("clirouter.source", a.source),
		attribute.String("clirouter.request_class", string(a.class)),
	))
	defer span.End()

	res := d.ladder(ctx, span, a)
	res.ID = uuid.NewString()
	res.Tool = desc.Name
	res.Source = a.source
	res.Class = a.class
	res.ExecutionTime = d.cfg.Clock().Sub(start).Seconds()
	if strings.TrimSpace(res.Response) == "" {
		res.Response = fmt.Sprintf("%s produced no response (fallback level %d).", desc.Name, res.FallbackLevel)
	}

	span.SetAttributes(
		attribute.Int("clirouter.fallback_level", res.FallbackLevel),
		attribute.Bool("clirouter.success", res.Success),
	)
	if !res.Success {
		span.SetStatus(codes.Error, res.Error)
	}
	d.inst.record(ctx, res)
	d.record(start, res)
	system.Logger.Debug("dispatch finished", "tool", res.Tool, "level", res.Level(), "success", res.Success, "kind", res.ErrorKind)
	return res, nil
}

func (d *Dispatcher) canonicalSource(reg *registry.Registry, src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return DefaultSource
	}
	if s, err := reg.Describe(src); err == nil {
		return s.Name
	}
	return strings.ToLower(src)
}

func (d *Dispatcher) ladder(ctx context.Context, span trace.Span, a *attempt) Result {
	// translation runs before probing so a missing parameter never spawns a process
	if err := d.translate(a); err != nil {
		span.AddEvent("missing_parameter")
		return Result{
			FallbackLevel: int(LevelError),
			ErrorKind:     errs.KindOf(err),
			Error:         err.Error(),
			Response: fmt.Sprintf("Cannot hand this request from %s to %s: %v.\nNo command was run; supply the parameter and retry.",
				a.source, a.desc.Name, err),
		}
	}

	a.probe = d.prober.Probe(ctx, a.desc)
	a.candidate = a.probe.WorkingCandidate
	if a.candidate == "" {
		a.candidate = d.preferredCandidate(a.desc)
	}
	a.cmd, a.buildErr = d.build(a)

	span.AddEvent("level.direct")
	if res, ok := d.direct(ctx, a); ok {
		return res
	}
	if a.req.NoFallback {
		return Result{
			FallbackLevel: int(LevelError),
			Command:       a.commandLine(),
			ErrorKind:     errs.KindOf(a.failure),
			Error:         a.failure.Error(),
			Response:      a.failureText(),
		}
	}
	span.AddEvent("level.command")
	if res, ok := d.commandGuidance(a); ok {
		return res
	}
	span.AddEvent("level.guide")
	if res, ok := d.manualGuide(a); ok {
		return res
	}
	span.AddEvent("level.error")
	return d.errorFallback(a)
}

// translate maps the request through the collaboration pattern for
// source->target, when one exists.
func (d *Dispatcher) translate(a *attempt) error {
	if a.source == DefaultSource || a.source == a.desc.Name {
		return nil
	}
	p, ok := d.mapper.Lookup(a.source, a.desc.Name)
	if !ok {
		return nil
	}
	params := make(map[string]string, len(a.req.Params)+4)
	for k, v := range a.req.Params {
		params[k] = v
	}
	params["prompt"] = a.req.Text
	params["source"] = a.source
	if len(a.req.Files) > 0 {
		params["files"] = strings.Join(a.req.Files, "\n")
	}
	if a.req.Workdir != "" {
		params["workdir"] = a.req.Workdir
	}
	out, err := d.mapper.Translate(p, params)
	if err != nil {
		return err
	}
	a.pattern = &p
	a.params = out
	return nil
}

func (d *Dispatcher) preferredCandidate(desc registry.Descriptor) string {
	prefs, _ := d.prober.Preferences().Get(desc.Name)
	return probe.Order(desc.Candidates, prefs)[0]
}

func (d *Dispatcher) build(a *attempt) (command.Command, error) {
	var (
		c   command.Command
		err error
	)
	if a.pattern != nil {
		c, err = command.BuildFromTemplate(a.desc, a.pattern.Template, a.candidate, a.params, a.req.Files, a.req.Workdir)
	} else {
		c, err = command.Build(a.desc, a.candidate, a.req.Text, a.req.Files, a.req.Workdir)
	}
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, command.ErrEmptyRequest):
		return c, errs.Wrap(errs.KindInvalidRequest, a.desc.Name, "cannot build a command", err)
	default:
		return c, errs.Wrap(errs.KindInternal, a.desc.Name, "cannot build a command", err)
	}
}

func (d *Dispatcher) timeout(desc registry.Descriptor) time.Duration {
	if d.cfg.ExecTimeout > 0 {
		return d.cfg.ExecTimeout
	}
	return desc.Timeout
}

// direct executes the built command. It resolves only on a zero exit.
func (d *Dispatcher) direct(ctx context.Context, a *attempt) (Result, bool) {
	name := a.desc.Name
	if !a.probe.Exists {
		a.failure = errs.New(errs.KindProbeFailure, name, "not installed ("+a.probe.Reason()+")")
		return Result{}, false
	}
	if a.buildErr != nil {
		a.failure = a.buildErr
		return Result{}, false
	}
	timeout := d.timeout(a.desc)
	out := d.runner.Run(ctx, a.cmd.Spec(timeout))
	if out.OK() {
		if err := d.prober.Preferences().Remember(name, a.candidate); err != nil {
			system.Logger.Warn("saving preference failed", "tool", name, "err", err)
		}
		resp := strings.TrimSpace(ansi.Strip(out.Stdout))
		if resp == "" {
			resp = fmt.Sprintf("%s finished successfully with no output.", name)
		}
		return Result{Success: true, FallbackLevel: int(LevelDirect), Response: resp, Command: a.cmd.String()}, true
	}

	a.stderr = strings.TrimSpace(ansi.Strip(out.Stderr))
	switch {
	case out.TimedOut:
		a.failure = errs.New(errs.KindExecutionTimeout, name, fmt.Sprintf("timed out after %s", timeout))
	case out.Err != nil && out.ExitCode < 0:
		a.failure = errs.Wrap(errs.KindExecutionFailure, name, "could not start", out.Err)
	default:
		msg := fmt.Sprintf("exited with code %d", out.ExitCode)
		if line := probe.FirstLine(a.stderr); line != "" {
			msg += ": " + line
		}
		kind := errs.KindExecutionFailure
		if a.desc.CredentialEnv != "" && !a.credentialSet {
			kind = errs.KindCredentialsMissing
			msg += fmt.Sprintf(" (%s is not set)", a.desc.CredentialEnv)
		}
		a.failure = errs.New(kind, name, msg)
	}
	system.Logger.Debug("direct execution failed", "tool", name, "err", a.failure)
	return Result{}, false
}

// commandGuidance hands back the built command for manual execution. It
// resolves when the tool is installed; otherwise its text is carried on.
func (d *Dispatcher) commandGuidance(a *attempt) (Result, bool) {
	if a.buildErr != nil {
		return Result{}, false
	}
	var b strings.Builder
	if a.failure != nil {
		b.WriteString(a.failureText())
		b.WriteString("\n\n")
	}
	b.WriteString("Run this manually:\n\n")
	if a.cmd.Dir != "" {
		fmt.Fprintf(&b, "    cd %s && %s\n", command.Quote(a.cmd.Dir), a.cmd.String())
	} else {
		fmt.Fprintf(&b, "    %s\n", a.cmd.String())
	}
	text := b.String()
	if !a.probe.Exists {
		a.carried = append(a.carried, text)
		return Result{}, false
	}
	return Result{
		Success:       true,
		FallbackLevel: int(LevelCommand),
		Response:      text,
		Command:       a.cmd.String(),
		ErrorKind:     errs.KindOf(a.failure),
		Error:         a.failure.Error(),
	}, true
}

// manualGuide renders the how-to document. It resolves when the tool is
// installed but no command could be built.
func (d *Dispatcher) manualGuide(a *attempt) (Result, bool) {
	text := Guide(GuideInput{
		Tool:          a.desc,
		Probe:         a.probe,
		Candidate:     a.candidate,
		Command:       a.commandLine(),
		CredentialSet: a.credentialSet,
	})
	if !a.probe.Exists {
		a.carried = append(a.carried, text)
		return Result{}, false
	}
	return Result{
		Success:       true,
		FallbackLevel: int(LevelGuide),
		Response:      a.failureText() + "\n\n" + text,
		ErrorKind:     errs.KindOf(a.failure),
		Error:         a.failure.Error(),
	}, true
}

// errorFallback is the last rung: the error, a class hint, available
// alternatives and everything earlier levels produced.
func (d *Dispatcher) errorFallback(a *attempt) Result {
	alts := d.alternatives(a)
	var b strings.Builder
	fmt.Fprintf(&b, "%s could not handle this request.\n\n", a.desc.DisplayName)
	fmt.Fprintf(&b, "Error: %s\n\n", a.failureText())
	fmt.Fprintf(&b, "Request type: %s. %s\n\n", a.class, hint(a.class)(a.desc.Name))
	if len(alts) > 0 {
		b.WriteString("Available alternatives:\n")
		for _, alt := range alts {
			fmt.Fprintf(&b, "- %s: %s\n", alt.Tool, alt.Command)
		}
	} else {
		b.WriteString("No alternative tool for this request type is available on this machine.\n")
	}
	for _, c := range a.carried {
		b.WriteString("\n---\n\n")
		b.WriteString(strings.TrimRight(c, "\n"))
		b.WriteString("\n")
	}
	return Result{
		FallbackLevel: int(LevelError),
		Response:      b.String(),
		Command:       a.commandLine(),
		ErrorKind:     errs.KindOf(a.failure),
		Error:         a.failure.Error(),
		Alternatives:  alts,
	}
}

// alternatives lists other tools whose strengths match the request class and
// that are available now: present in the last probe snapshot or resolvable on
// PATH by their first candidate.
func (d *Dispatcher) alternatives(a *attempt) []Alternative {
	status, err := probe.LastStatus(d.cfg)
	if err != nil {
		system.Logger.Debug("reading status snapshot failed", "err", err)
	}
	var out []Alternative
	for _, alt := range d.Registry().All() {
		if alt.Name == a.desc.Name {
			continue
		}
		if a.class != registry.ClassGeneral && !alt.HasStrength(a.class) {
			continue
		}
		cand := ""
		if s, ok := status[alt.Name]; ok && s.Exists {
			cand = s.WorkingCandidate
		} else if _, err := d.runner.LookPath(command.Base(alt.Candidates[0])); err == nil {
			cand = alt.Candidates[0]
		}
		if cand == "" {
			continue
		}
		line := fmt.Sprintf("clirouter route %s", alt.Name)
		if c, err := command.Build(alt, cand, a.req.Text, nil, ""); err == nil {
			line = c.String()
		}
		out = append(out, Alternative{Tool: alt.Name, DisplayName: alt.DisplayName, Command: line})
		if len(out) == maxAlternatives {
			break
		}
	}
	return out
}

func (a *attempt) commandLine() string {
	if a.buildErr != nil {
		return ""
	}
	return a.cmd.String()
}

// failureText describes why the direct level did not resolve, including the
// captured stderr.
func (a *attempt) failureText() string {
	if a.failure == nil {
		return ""
	}
	s := a.failure.Error()
	if a.stderr != "" {
		s += "\n\nstderr:\n" + a.stderr
	}
	return s
}

func (d *Dispatcher) record(start time.Time, res Result) {
	var reason *string
	if res.Error != "" {
		s := res.Error
		reason = &s
	}
	rec := store.Record{
		ID:            res.ID,
		Timestamp:     start.UTC(),
		SourceTool:    res.Source,
		TargetTool:    res.Tool,
		RequestClass:  string(res.Class),
		Success:       res.Success,
		ExecutionTime: res.ExecutionTime,
		CommandUsed:   res.Command,
		FallbackLevel: res.FallbackLevel,
		ErrorKind:     string(res.ErrorKind),
		ErrorReason:   reason,
	}
	if err := d.history.Append(rec); err != nil {
		system.Logger.Warn("appending history failed", "tool", res.Tool, "err", err)
	}
}
