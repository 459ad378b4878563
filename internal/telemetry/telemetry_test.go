package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"

	tu "clirouter/internal/testutil"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	beforeTP, beforeMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	shutdown, err := Setup(context.Background(), tu.MapEnv(nil))
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if otel.GetTracerProvider() != beforeTP || otel.GetMeterProvider() != beforeMP {
		t.Fatalf("providers replaced without endpoint")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_WithEndpointExportsMetrics(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	t.Setenv(EnvEndpoint, srv.URL)

	beforeTP, beforeMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer otel.SetTracerProvider(beforeTP)
	defer otel.SetMeterProvider(beforeMP)

	env := tu.MapEnv(map[string]string{EnvEndpoint: srv.URL})
	shutdown, err := Setup(context.Background(), env)
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if otel.GetTracerProvider() == beforeTP {
		t.Fatalf("tracer provider not installed")
	}
	if otel.GetMeterProvider() == beforeMP {
		t.Fatalf("meter provider not installed")
	}

	counter, err := otel.Meter("clirouter/test").Int64Counter("clirouter.dispatch.count")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 1)

	// shutdown runs a final collection and export
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	found := false
	for _, p := range paths {
		if p == "/v1/metrics" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no metric export, requests = %v", paths)
	}
}
