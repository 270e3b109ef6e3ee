package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/aftershock/internal/config"
)

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		records = append(records, r)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(config.TracingConfig{})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), SpanRun)
	require.False(t, span.SpanContext().IsValid(), "disabled tracer must not record")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporterWritesRunTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")
	p, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "file", FilePath: path, SampleRate: 1})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	ctx, run := p.Tracer().Start(context.Background(), SpanRun)
	run.SetAttributes(attribute.String(AttrRunName, "Fetch catalog"))
	_, step := p.Tracer().Start(ctx, SpanStep)
	step.RecordError(errors.New("network unreachable"))
	step.SetStatus(codes.Error, "network unreachable")
	step.End()
	run.End()

	require.NoError(t, p.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 2)

	byName := map[string]SpanRecord{}
	for _, r := range records {
		byName[r.Name] = r
	}
	require.Equal(t, byName[SpanRun].SpanID, byName[SpanStep].ParentSpanID)
	require.Equal(t, byName[SpanRun].TraceID, byName[SpanStep].TraceID)
	require.Equal(t, "Fetch catalog", byName[SpanRun].Attributes[AttrRunName])
	require.Equal(t, "ERROR", byName[SpanStep].Status)
	require.Equal(t, []string{"network unreachable"}, byName[SpanStep].Errors)
}

func TestNewProvider_NoneExporter(t *testing.T) {
	p, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "none"})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), SpanRun)
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.ErrorContains(t, err, "unsupported exporter type: zipkin")
}

func TestFileExporter_AppendsAndShutsDownOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"earlier"}`+"\n"), 0o600))

	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	start := time.Now()
	stub := tracetest.SpanStub{
		Name:      SpanStep,
		StartTime: start,
		EndTime:   start.Add(250 * time.Millisecond),
		Status:    sdktrace.Status{Code: codes.Ok},
	}
	require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	require.Equal(t, "earlier", records[0].Name)
	require.Equal(t, SpanStep, records[1].Name)
	require.Equal(t, "OK", records[1].Status)
	require.InDelta(t, 250.0, records[1].DurationMs, 0.001)

	err = exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()})
	require.ErrorContains(t, err, "shut down")
}
