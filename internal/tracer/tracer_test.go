package tracer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"clinic-booking-api/internal/config"
)

func TestStdoutExporterFlushesOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	tp, err := newProvider(context.Background(), config.TracingConfig{
		Exporter:    config.TracingStdout,
		ServiceName: "clinic-test",
		SampleRate:  1,
	}, &buf)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "scheduler.Book")
	span.End()
	assert.Empty(t, buf.String(), "batched spans are not written before flush")

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "scheduler.Book")
	assert.Contains(t, buf.String(), "clinic-test")
}

func TestZeroSampleRateDropsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := newProvider(context.Background(), config.TracingConfig{
		Exporter:   config.TracingStdout,
		SampleRate: 0,
	}, &buf)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "scheduler.Cancel")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, buf.String())
}

func TestInitRegistersGlobalProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tp, err := Init(context.Background(), config.TracingConfig{Exporter: config.TracingNone, SampleRate: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.Same(t, tp, otel.GetTracerProvider())
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestUnknownExporter(t *testing.T) {
	_, err := newProvider(context.Background(), config.TracingConfig{Exporter: "zipkin"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}
