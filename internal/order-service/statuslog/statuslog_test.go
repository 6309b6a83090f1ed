package statuslog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewEntryWithoutSpan(t *testing.T) {
	e := NewEntry(context.Background(), "o-1", "", "PENDING", "alice", "r-1", time.Now())

	assert.Equal(t, "o-1", e.OrderID)
	assert.Empty(t, e.TraceID)
	assert.Empty(t, e.SpanID)
	assert.Equal(t, time.UTC, e.At.Location())
}

func TestNewEntryCarriesTrace(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "cancel")
	defer span.End()

	e := NewEntry(ctx, "o-1", "PENDING", "CANCELLED", "alice", "", time.Now())

	assert.Equal(t, span.SpanContext().TraceID().String(), e.TraceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), e.SpanID)
	assert.Len(t, e.TraceID, 32)
}
