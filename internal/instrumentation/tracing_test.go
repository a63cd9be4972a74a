package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartSpans(t *testing.T) {
	rec := withRecorder(t)
	ctx := context.Background()

	ctx, tool := StartToolSpan(ctx, "campaigns_send", false)
	if GetTraceID(ctx) == "" || GetSpanID(ctx) == "" {
		t.Error("expected a valid span context")
	}
	_, dispatch := StartDispatchSpan(ctx, 3)
	SetSpanError(dispatch, errors.New("quota exceeded"))
	dispatch.End()
	SetSpanSuccess(tool)
	tool.End()

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "gmail.send" || spans[0].Status().Code != codes.Error {
		t.Errorf("dispatch span = %s/%v", spans[0].Name(), spans[0].Status().Code)
	}
	if spans[1].Name() != "tool.campaigns_send" || spans[1].Status().Code != codes.Ok {
		t.Errorf("tool span = %s/%v", spans[1].Name(), spans[1].Status().Code)
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("dispatch span should be a child of the tool span")
	}
}

func TestTraceIDWithoutSpan(t *testing.T) {
	if GetTraceID(context.Background()) != "" {
		t.Error("expected empty trace id without a span")
	}
	if GetSpanID(context.Background()) != "" {
		t.Error("expected empty span id without a span")
	}
}

func TestToolInvocationCarriesSpanContext(t *testing.T) {
	withRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "groups_list", true)
	defer span.End()

	ti := NewToolInvocation("groups_list").WithSpanContext(ctx)
	if ti.TraceID != GetTraceID(ctx) || ti.TraceID == "" {
		t.Errorf("TraceID = %q, want %q", ti.TraceID, GetTraceID(ctx))
	}
	if ti.SpanID != GetSpanID(ctx) || ti.SpanID == "" {
		t.Errorf("SpanID = %q, want %q", ti.SpanID, GetSpanID(ctx))
	}

	if got := NewToolInvocation("groups_list").WithSpanContext(context.Background()); got.TraceID != "" || got.SpanID != "" {
		t.Errorf("expected empty ids without a span, got %q/%q", got.TraceID, got.SpanID)
	}
}
