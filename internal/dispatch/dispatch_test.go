package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"clirouter/internal/config"
	"clirouter/internal/errs"
	"clirouter/internal/registry"
	"clirouter/internal/runner"
	tu "clirouter/internal/testutil"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.New(
		registry.Descriptor{
			Name:       "alpha",
			Candidates: []string{"alpha-cli", "npx @org/alpha"},
			Package:    &registry.Package{Ecosystem: registry.EcosystemNPM, Name: "@org/alpha"},
			Timeout:    time.Minute,
			ArgStyle:   registry.ArgFlag,
			PromptFlag: "--prompt",
			Strengths:  []registry.Class{registry.ClassDebugging},
		},
		registry.Descriptor{
			Name:       "beta",
			Candidates: []string{"beta"},
			Timeout:    30 * time.Second,
			ArgStyle:   registry.ArgPositional,
			Strengths:  []registry.Class{registry.ClassDebugging, registry.ClassGeneration},
		},
		registry.Descriptor{
			Name:          "gamma",
			Candidates:    []string{"gamma"},
			CredentialEnv: "GAMMA_KEY",
			Timeout:       30 * time.Second,
			ArgStyle:      registry.ArgPositional,
		},
	)
	if err != nil {
		t.Fatalf("registry.New error: %v", err)
	}
	return r
}

func testRuntime(t *testing.T, env map[string]string) config.Runtime {
	t.Helper()
	rt := config.FromFile(t.TempDir(), config.File{})
	rt.Getenv = tu.MapEnv(env)
	return rt
}

func newDispatcher(t *testing.T, reg *registry.Registry, rn runner.Runner, rt config.Runtime, opts ...Option) *Dispatcher {
	t.Helper()
	d, err := New(reg, rn, rt, opts...)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return d
}

func historyLen(t *testing.T, d *Dispatcher) int {
	t.Helper()
	f, err := d.History().Read()
	if err != nil {
		t.Fatalf("reading history: %v", err)
	}
	return len(f.Records)
}

func TestDispatch_NotInstalledDescendsToErrorLevel(t *testing.T) {
	rn := tu.NewFakeRunner()
	d := newDispatcher(t, testRegistry(t), rn, testRuntime(t, nil))

	res, err := d.Dispatch(context.Background(), Request{Target: "alpha", Text: "do X"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if res.Success || res.Level() != LevelError {
		t.Fatalf("expected failure at error level, got success=%v level=%d", res.Success, res.FallbackLevel)
	}
	if res.ErrorKind != errs.KindProbeFailure {
		t.Fatalf("error kind = %q", res.ErrorKind)
	}
	for _, want := range []string{"Run this manually", "alpha-cli --prompt 'do X'", "## Install", "npm install -g @org/alpha", "npx @org/alpha"} {
		if !strings.Contains(res.Response, want) {
			t.Fatalf("response lacks %q:\n%s", want, res.Response)
		}
	}
	if len(rn.Calls()) != 0 {
		t.Fatalf("nothing should run for an absent tool, got %v", rn.Lines())
	}
	f, _ := d.History().Read()
	if len(f.Records) != 1 || f.Records[0].FallbackLevel != 3 || f.Records[0].Success || f.Records[0].SourceTool != DefaultSource {
		t.Fatalf("history = %+v", f.Records)
	}
	if f.Records[0].ErrorReason == nil || f.Records[0].ID != res.ID {
		t.Fatalf("record = %+v", f.Records[0])
	}
}

func TestDispatch_CrossToolDirect(t *testing.T) {
	rn := tu.NewFakeRunner("gemini").
		On("gemini --version", runner.Output{Stdout: "0.9.0\n"}).
		On("gemini --prompt", runner.Output{Stdout: "\x1b[1mtranslated\x1b[0m\n"})
	d := newDispatcher(t, registry.Builtin(), rn, testRuntime(t, nil))

	res, err := d.Dispatch(context.Background(), Request{Source: "claude", Target: "gemini", Text: "translate this paragraph"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if !res.Success || res.Level() != LevelDirect || res.Response != "translated" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Command != "gemini --prompt 'translate this paragraph'" {
		t.Fatalf("command = %q", res.Command)
	}
	calls := rn.Calls()
	last := calls[len(calls)-1]
	if !reflect.DeepEqual(last.Argv, []string{"gemini", "--prompt", "translate this paragraph"}) {
		t.Fatalf("argv = %q", last.Argv)
	}
	if last.Timeout != 120*time.Second {
		t.Fatalf("timeout = %s", last.Timeout)
	}
	if res.Source != "claude" || res.Class != registry.ClassDocumentation {
		t.Fatalf("source/class = %q/%q", res.Source, res.Class)
	}
	prefs, _ := d.Prober().Preferences().Get("gemini")
	if len(prefs) == 0 || prefs[0] != "gemini" {
		t.Fatalf("preferences = %v", prefs)
	}
}

func TestDispatch_ExecutionFailureResolvesAtCommandLevel(t *testing.T) {
	rn := tu.NewFakeRunner("beta").
		On("beta --version", runner.Output{Stdout: "beta 2.1.0"}).
		On("beta ", runner.Output{ExitCode: 3, Stderr: "boom: quota exceeded\n"})
	d := newDispatcher(t, testRegistry(t), rn, testRuntime(t, nil))

	res, _ := d.Dispatch(context.Background(), Request{Target: "beta", Text: "write a parser"})
	if !res.Success || res.Level() != LevelCommand {
		t.Fatalf("expected command level success, got %+v", res)
	}
	if res.ErrorKind != errs.KindExecutionFailure || !strings.Contains(res.Error, "exited with code 3") {
		t.Fatalf("error = %q (%s)", res.Error, res.ErrorKind)
	}
	if !strings.Contains(res.Response, "boom: quota exceeded") || !strings.Contains(res.Response, "beta 'write a parser'") {
		t.Fatalf("response:\n%s", res.Response)
	}
	if last := rn.Calls()[len(rn.Calls())-1]; last.Timeout != 30*time.Second {
		t.Fatalf("timeout = %s", last.Timeout)
	}
}

func TestDispatch_TimeoutSaysTimedOut(t *testing.T) {
	rn := tu.NewFakeRunner("beta").
		On("beta --version", runner.Output{Stdout: "beta 2.1.0"}).
		On("beta ", runner.Output{ExitCode: -1, TimedOut: true, Err: context.DeadlineExceeded})
	d := newDispatcher(t, testRegistry(t), rn, testRuntime(t, nil))

	res, _ := d.Dispatch(context.Background(), Request{Target: "beta", Text: "write a parser"})
	if res.ErrorKind != errs.KindExecutionTimeout || res.Level() < LevelCommand {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Response, "timed out") {
		t.Fatalf("response does not say timed out:\n%s", res.Response)
	}
}

func TestDispatch_NoFallback(t *testing.T) {
	rn := tu.NewFakeRunner("beta").
		On("beta --version", runner.Output{Stdout: "beta 2.1.0"}).
		On("beta ", runner.Output{ExitCode: 1, Stderr: "bad input"})
	d := newDispatcher(t, testRegistry(t), rn, testRuntime(t, nil))

	res, _ := d.Dispatch(context.Background(), Request{Target: "beta", Text: "x", NoFallback: true})
	if res.Success || res.Level() != LevelError {
		t.Fatalf("expected immediate failure, got %+v", res)
	}
	if !strings.Contains(res.Response, "bad input") || strings.Contains(res.Response, "Run this manually") {
		t.Fatalf("response:\n%s", res.Response)
	}
}

func TestDispatch_CredentialsMissingKind(t *testing.T) {
	rn := tu.NewFakeRunner("gamma").
		On("gamma --version", runner.Output{Stdout: "1.0.0"}).
		On("gamma ", runner.Output{ExitCode: 1, Stderr: "unauthorized"})
	reg := testRegistry(t)

	res, _ := newDispatcher(t, reg, rn, testRuntime(t, nil)).Dispatch(context.Background(), Request{Target: "gamma", Text: "hi"})
	if res.ErrorKind != errs.KindCredentialsMissing || !strings.Contains(res.Error, "GAMMA_KEY") {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Level() != LevelCommand {
		t.Fatalf("credential annotation must not change the ladder, level = %d", res.FallbackLevel)
	}

	res, _ = newDispatcher(t, reg, rn, testRuntime(t, map[string]string{"GAMMA_KEY": "k"})).Dispatch(context.Background(), Request{Target: "gamma", Text: "hi"})
	if res.ErrorKind != errs.KindExecutionFailure {
		t.Fatalf("with credential set, kind = %q", res.ErrorKind)
	}
}

func TestDispatch_EmptyRequestResolvesAtGuideLevel(t *testing.T) {
	rn := tu.NewFakeRunner("beta").On("beta --version", runner.Output{Stdout: "beta 2.1.0"})
	d := newDispatcher(t, testRegistry(t), rn, testRuntime(t, nil))

	res, _ := d.Dispatch(context.Background(), Request{Target: "beta", Text: "   "})
	if !res.Success || res.Level() != LevelGuide || res.ErrorKind != errs.KindInvalidRequest {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Response, "# beta (beta)") || res.Command != "" {
		t.Fatalf("unexpected guide result: %+v", res)
	}
	if n := len(rn.Calls()); n != 1 {
		t.Fatalf("only the version probe should run, got %v", rn.Lines())
	}
}

func TestDispatch_MissingParameterSpawnsNothing(t *testing.T) {
	rn := tu.NewFakeRunner("codex", "npm")
	d := newDispatcher(t, registry.Builtin(), rn, testRuntime(t, nil))

	res, err := d.Dispatch(context.Background(), Request{Source: "claude", Target: "codex", Text: ""})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if res.Success || res.Level() != LevelError || res.ErrorKind != errs.KindMissingParameter {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(rn.Calls()) != 0 {
		t.Fatalf("subprocess spawned: %v", rn.Lines())
	}
	if historyLen(t, d) != 1 {
		t.Fatalf("missing parameter dispatch must still be recorded")
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	d := newDispatcher(t, registry.Builtin(), tu.NewFakeRunner(), testRuntime(t, nil))
	_, err := d.Dispatch(context.Background(), Request{Target: "gemni", Text: "hi"})
	if !errs.IsKind(err, errs.KindUnknownTool) {
		t.Fatalf("expected unknown_tool, got %v", err)
	}
	if !strings.Contains(err.Error(), "gemini") {
		t.Fatalf("expected suggestion in %q", err)
	}
	if errs.ExitCode(err) != errs.ExitMalformed {
		t.Fatalf("exit code = %d", errs.ExitCode(err))
	}
	if historyLen(t, d) != 0 {
		t.Fatalf("unknown tool must not be recorded")
	}
}

func TestDispatch_AlternativesMatchClass(t *testing.T) {
	rn := tu.NewFakeRunner("beta")
	d := newDispatcher(t, testRegistry(t), rn, testRuntime(t, nil))

	res, _ := d.Dispatch(context.Background(), Request{Target: "alpha", Text: "fix the crash in main.go"})
	if res.Class != registry.ClassDebugging {
		t.Fatalf("class = %q", res.Class)
	}
	if len(res.Alternatives) != 1 || res.Alternatives[0].Tool != "beta" {
		t.Fatalf("alternatives = %+v", res.Alternatives)
	}
	if res.Alternatives[0].Command != "beta 'fix the crash in main.go'" || !strings.Contains(res.Response, "- beta: ") {
		t.Fatalf("alternative command = %q\n%s", res.Alternatives[0].Command, res.Response)
	}
}

func TestDispatch_NeverEmptyAndMonotonic(t *testing.T) {
	reqs := []Request{
		{Target: "alpha", Text: ""},
		{Target: "alpha", Text: "x", NoFallback: true},
		{Target: "beta", Text: ""},
		{Target: "beta", Text: "x"},
		{Target: "beta", Text: "x", NoFallback: true},
		{Target: "gamma", Text: "\"; rm -rf / #", Files: []string{"../../etc/passwd"}, Workdir: "/nonexistent"},
		{Source: "nobody", Target: "gamma", Text: "hi"},
	}
	rn := tu.NewFakeRunner("beta", "gamma").
		On("beta --version", runner.Output{Stdout: "1"}).
		On("gamma --version", runner.Output{ExitCode: 127})
	d := newDispatcher(t, testRegistry(t), rn, testRuntime(t, nil))
	for _, req := range reqs {
		res, err := d.Dispatch(context.Background(), req)
		if err != nil {
			t.Fatalf("%+v: unexpected error %v", req, err)
		}
		if strings.TrimSpace(res.Response) == "" {
			t.Fatalf("%+v: empty response", req)
		}
		if res.FallbackLevel < 0 || res.FallbackLevel > 3 {
			t.Fatalf("%+v: level %d out of range", req, res.FallbackLevel)
		}
		if res.FallbackLevel == 0 && !res.Success {
			t.Fatalf("%+v: level 0 failure", req)
		}
	}
	if historyLen(t, d) != len(reqs) {
		t.Fatalf("history has %d records, want %d", historyLen(t, d), len(reqs))
	}
}

func TestDispatch_ConcurrentRecordsAll(t *testing.T) {
	rn := tu.NewFakeRunner("beta", "gamma").
		On("--version", runner.Output{Stdout: "1.0.0"}).
		On("beta ", runner.Output{Stdout: "ok beta"}).
		On("gamma ", runner.Output{Stdout: "ok gamma"})
	d := newDispatcher(t, testRegistry(t), rn, testRuntime(t, map[string]string{"GAMMA_KEY": "k"}))

	const n = 20
	var wg sync.WaitGroup
	errc := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := "beta"
			if i%2 == 1 {
				target = "gamma"
			}
			res, err := d.Dispatch(context.Background(), Request{Target: target, Text: fmt.Sprintf("task %d", i)})
			if err != nil || !res.Success || res.Level() != LevelDirect {
				errc <- fmt.Errorf("dispatch %d: %+v %v", i, res, err)
			}
		}(i)
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Fatal(err)
	}
	f, _ := d.History().Read()
	if len(f.Records) != n {
		t.Fatalf("history has %d records, want %d", len(f.Records), n)
	}
	ids := map[string]bool{}
	for _, r := range f.Records {
		ids[r.ID] = true
	}
	if len(ids) != n {
		t.Fatalf("duplicate record ids")
	}
	if st := f.Patterns["user->beta"]; st.UsageCount != n/2 || st.SuccessRate != 1 {
		t.Fatalf("beta stats = %+v", st)
	}
}

func TestDispatch_Telemetry(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	d := newDispatcher(t, testRegistry(t), tu.NewFakeRunner(), testRuntime(t, nil),
		WithTracerProvider(tp), WithMeterProvider(mp))
	if _, err := d.Dispatch(context.Background(), Request{Target: "alpha", Text: "do X"}); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "clirouter.dispatch" {
		t.Fatalf("spans = %+v", spans)
	}
	var events []string
	for _, e := range spans[0].Events {
		events = append(events, e.Name)
	}
	want := []string{"level.direct", "level.command", "level.guide", "level.error"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "clirouter.dispatch.count" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
				t.Fatalf("count data = %+v", m.Data)
			}
			if v, ok := sum.DataPoints[0].Attributes.Value("level"); !ok || v.AsInt64() != 3 {
				t.Fatalf("level attribute = %v", v)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("clirouter.dispatch.count not recorded")
	}
}
