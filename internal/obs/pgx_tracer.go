package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const pgxTracerName = "backend-stock/db"

type (
	querySpanKey struct{}
	batchSpanKey struct{}
)

// PGXTracer implements pgx.QueryTracer and pgx.BatchTracer. Order item writes
// go through batches, so each batch gets one span with an event per statement.
type PGXTracer struct{}

var (
	_ pgx.QueryTracer = PGXTracer{}
	_ pgx.BatchTracer = PGXTracer{}
)

// TraceQueryStart starts a span named after the SQL verb.
func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	op := sqlOperation(data.SQL)
	ctx, span := otel.Tracer(pgxTracerName).Start(ctx, "db."+strings.ToLower(op), trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
		attribute.String("db.statement", truncateSQL(data.SQL)),
	)
	return context.WithValue(ctx, querySpanKey{}, span)
}

// TraceQueryEnd ends the query span.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if span, ok := ctx.Value(querySpanKey{}).(trace.Span); ok {
		finishSpan(span, data.Err)
	}
}

// TraceBatchStart opens a span covering the whole batch.
func (PGXTracer) TraceBatchStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchStartData) context.Context {
	ctx, span := otel.Tracer(pgxTracerName).Start(ctx, "db.batch", trace.WithSpanKind(trace.SpanKindClient))
	size := 0
	if data.Batch != nil {
		size = data.Batch.Len()
	}
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.Int("db.batch.size", size),
	)
	return context.WithValue(ctx, batchSpanKey{}, span)
}

// TraceBatchQuery records one statement of the batch as a span event.
func (PGXTracer) TraceBatchQuery(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchQueryData) {
	span, ok := ctx.Value(batchSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("db.operation", sqlOperation(data.SQL))}
	if data.Err != nil {
		attrs = append(attrs, attribute.String("error", data.Err.Error()))
	}
	span.AddEvent("db.batch.query", trace.WithAttributes(attrs...))
}

// TraceBatchEnd closes the batch span.
func (PGXTracer) TraceBatchEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchEndData) {
	if span, ok := ctx.Value(batchSpanKey{}).(trace.Span); ok {
		finishSpan(span, data.Err)
	}
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func sqlOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "QUERY"
	}
	return strings.ToUpper(fields[0])
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > 300 {
		return trimmed[:300] + "..."
	}
	return trimmed
}
