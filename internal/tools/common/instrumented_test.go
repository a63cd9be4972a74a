package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/mailcampaign/internal/config"
	"github.com/teemow/mailcampaign/internal/instrumentation"
	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/store"
)

func newServerContext(t *testing.T, metrics *instrumentation.Metrics) *server.ServerContext {
	t.Helper()
	return newServerContextWithLogger(t, metrics, nil)
}

func newServerContextWithLogger(t *testing.T, metrics *instrumentation.Metrics, logger *slog.Logger) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), config.Default(), server.Options{
		KV:      store.NewMemoryKV(),
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func toolCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				status, _ := dp.Attributes.Value("status")
				counts[status.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestInstrumentedToolHandler_WithoutMetrics(t *testing.T) {
	sc := newServerContext(t, nil)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("contacts_list", true, sc, handler)(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil || result.IsError {
		t.Errorf("expected success result, got %+v", result)
	}
}

func TestInstrumentedToolHandler_RecordsStatus(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	sc := newServerContext(t, metrics)
	ctx := context.Background()

	ok := func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}
	toolErr := func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("group not found"), nil
	}
	expectedErr := errors.New("boom")
	goErr := func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	if _, err := InstrumentedToolHandler("groups_list", true, sc, ok)(ctx, mcp.CallToolRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := InstrumentedToolHandler("groups_delete", false, sc, toolErr)(ctx, mcp.CallToolRequest{})
	if err != nil || result == nil || !result.IsError {
		t.Fatalf("expected error result, got %+v, %v", result, err)
	}
	if _, err := InstrumentedToolHandler("campaigns_send", false, sc, goErr)(ctx, mcp.CallToolRequest{}); err != expectedErr {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}

	counts := toolCounts(t, reader)
	if counts["success"] != 1 {
		t.Errorf("success invocations = %d, want 1", counts["success"])
	}
	if counts["error"] != 2 {
		t.Errorf("error invocations = %d, want 2", counts["error"])
	}
}

func TestInstrumentedToolHandler_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sc := newServerContextWithLogger(t, nil, logger)

	failing := func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("store unavailable")
	}
	_, _ = InstrumentedToolHandler("contacts_add", false, sc, failing)(context.Background(), mcp.CallToolRequest{})

	out := buf.String()
	if !strings.Contains(out, "tool=contacts_add") || !strings.Contains(out, "store unavailable") {
		t.Errorf("expected tool failure log line, got %q", out)
	}

	buf.Reset()
	ok := func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}
	_, _ = InstrumentedToolHandler("contacts_list", true, sc, ok)(context.Background(), mcp.CallToolRequest{})
	if strings.Contains(buf.String(), "tool call failed") {
		t.Errorf("unexpected failure log for a successful call: %q", buf.String())
	}
}
