package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs an in-memory provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exp
}

func attr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	if cfg.ServiceName != "ontograph" {
		t.Fatalf("expected service name 'ontograph', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{ServiceName: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracing_NilConfig(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("rate %.2f: expected %s, got %s", tt.rate, tt.want, got)
		}
	}
}

func TestStartAnalysisSpan(t *testing.T) {
	exp := recordSpans(t)

	_, span := StartAnalysisSpan(context.Background(), "boundary")
	RecordAnalysisResult(span, 3)
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "analysis.boundary" {
		t.Errorf("expected span name analysis.boundary, got %s", spans[0].Name)
	}
	if v, ok := attr(spans[0], "analysis.findings"); !ok || v.AsInt64() != 3 {
		t.Errorf("expected analysis.findings=3, got %v", v)
	}
}

func TestNestedSpans(t *testing.T) {
	exp := recordSpans(t)

	ctx, reportSpan := StartReportSpan(context.Background(), 10, 12)
	_, loadSpan := StartLoadSpan(ctx, "data.yaml")
	RecordLoadResult(loadSpan, 10, 12, 1)
	loadSpan.End()
	_, analysisSpan := StartAnalysisSpan(ctx, "cycles")
	analysisSpan.End()
	reportSpan.End()

	spans := exp.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	parent := spans[2].SpanContext.SpanID()
	for _, s := range spans[:2] {
		if s.Parent.SpanID() != parent {
			t.Errorf("span %s should be a child of report.build", s.Name)
		}
	}
	if v, ok := attr(spans[0], "dataset.skipped_edges"); !ok || v.AsInt64() != 1 {
		t.Errorf("expected dataset.skipped_edges=1, got %v", v)
	}
}

func TestRecordError(t *testing.T) {
	exp := recordSpans(t)

	_, span := StartAnalysisSpan(context.Background(), "overlap")
	RecordError(span, nil)
	span.End()
	_, failed := StartAnalysisSpan(context.Background(), "overlap")
	RecordError(failed, errors.New("boom"))
	failed.End()

	spans := exp.GetSpans()
	if spans[0].Status.Code != codes.Unset {
		t.Errorf("nil error should leave status unset, got %v", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != "boom" {
		t.Errorf("expected error status 'boom', got %v %q", spans[1].Status.Code, spans[1].Status.Description)
	}
}

func TestTracerProvider_Shutdown_NilProvider(t *testing.T) {
	tp := &TracerProvider{}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil error for nil provider, got: %v", err)
	}
}
