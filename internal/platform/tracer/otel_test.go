package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewOTelDefaultsToGlobalProvider(t *testing.T) {
	tr := NewOTel()
	require.NotNil(t, tr)

	ctx, span := tr.Start(context.Background(), SpanRenderDocument,
		String(AttrContractID, "c-1"),
		Int64(AttrVersion, 1),
	)
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.SetAttributes(Int64(AttrPageCount, 3))
	span.AddEvent("file_written", String("path", "contracts/c-1/contract_v1.pdf"))
	span.End(nil)
}

func TestOTelSpanRecordsError(t *testing.T) {
	tr := NewOTel(WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	_, span := tr.Start(context.Background(), SpanContractSign)
	span.End(errors.New("attestation render failed"))
}

func TestToOTelAttributes(t *testing.T) {
	attrs := toOTelAttributes([]Attribute{
		String("s", "v"),
		Bool("b", true),
		Int64("i", 7),
		{Key: "n", Value: 9},
		{Key: "f", Value: 1.5},
		{Key: "skipped", Value: struct{}{}},
	})

	require.Len(t, attrs, 5)
	assert.Equal(t, attribute.String("s", "v"), attrs[0])
	assert.Equal(t, attribute.Bool("b", true), attrs[1])
	assert.Equal(t, attribute.Int64("i", 7), attrs[2])
	assert.Equal(t, attribute.Int64("n", 9), attrs[3])
	assert.Equal(t, attribute.Float64("f", 1.5), attrs[4])
}

func TestNoopTracerSatisfiesInterface(t *testing.T) {
	var tr Tracer = NewNoop()
	_, span := tr.Start(context.Background(), SpanRenderAttestation)
	span.SetAttributes(Duration("elapsed", 0))
	span.End(nil)
}
