// Package statuslog is the append-only audit trail of order status changes.
//
// Every row carries the trace and span ids active when the change was made,
// so a row can be followed straight to its distributed trace.
package statuslog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Entry is one row of the order_status_log table. From is empty for the row
// written when the order is created.
type Entry struct {
	OrderID string `json:"orderId"`
	From    string `json:"from"`
	To      string `json:"to"`
	// Actor is the user id that caused the change.
	Actor     string    `json:"actor"`
	RequestID string    `json:"requestId,omitempty"`
	TraceID   string    `json:"traceId,omitempty"`
	SpanID    string    `json:"spanId,omitempty"`
	At        time.Time `json:"at"`
}

type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo returns the ids of the span active in ctx, or zero values
// when there is none.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

func NewEntry(ctx context.Context, orderID, from, to, actor, requestID string, at time.Time) Entry {
	ti := ExtractTraceInfo(ctx)
	return Entry{
		OrderID:   orderID,
		From:      from,
		To:        to,
		Actor:     actor,
		RequestID: requestID,
		TraceID:   ti.TraceID,
		SpanID:    ti.SpanID,
		At:        at.UTC(),
	}
}
