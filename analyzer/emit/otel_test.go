package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*tracetest.InMemoryExporter, *OTelEmitter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, NewOTelEmitter(otel.Tracer("test"))
}

func attributeMap(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestOTelEmitterCreatesSpan(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	emitter.Emit(NewEvent("ingest-001", "AAPL", ChunksIndexed, map[string]any{
		"chunks": 42,
		"form":   "10-K",
	}))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != ChunksIndexed {
		t.Errorf("span name = %q, want %q", span.Name, ChunksIndexed)
	}

	attrs := attributeMap(span.Attributes)
	if attrs["secfiling.run_id"] != "ingest-001" {
		t.Errorf("run_id = %v", attrs["secfiling.run_id"])
	}
	if attrs["secfiling.ticker"] != "AAPL" {
		t.Errorf("ticker = %v", attrs["secfiling.ticker"])
	}
	if attrs["secfiling.chunks"] != int64(42) {
		t.Errorf("chunks = %v, want 42", attrs["secfiling.chunks"])
	}
	if attrs["secfiling.form"] != "10-K" {
		t.Errorf("form = %v", attrs["secfiling.form"])
	}
}

func TestOTelEmitterErrorStatus(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	emitter.Emit(NewEvent("ingest-001", "MSFT", TickerError, map[string]any{
		"error": "submissions fetch failed",
	}))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "submissions fetch failed" {
		t.Errorf("description = %q", spans[0].Status.Description)
	}
}

func TestOTelEmitterFlush(t *testing.T) {
	_, emitter := newTestTracer(t)

	if err := emitter.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
