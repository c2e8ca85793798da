package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OperationLogger logs the phases of one operation with its trace ids attached
type OperationLogger struct {
	logger    *zap.Logger
	operation string
	startTime time.Time
}

// NewOperationLogger returns a logger for operation. When ctx carries a valid
// span its trace and span ids are added to every entry.
func NewOperationLogger(ctx context.Context, base *zap.Logger, operation string) *OperationLogger {
	fields := []zap.Field{zap.String("operation", operation)}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		fields = append(fields,
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.String("span_id", span.SpanContext().SpanID().String()),
		)
	}

	return &OperationLogger{
		logger:    base.With(fields...),
		operation: operation,
		startTime: time.Now(),
	}
}

// Logger returns the underlying zap logger
func (ol *OperationLogger) Logger() *zap.Logger {
	return ol.logger
}

// LogStart logs the start of the operation
func (ol *OperationLogger) LogStart(msg string, fields ...zap.Field) {
	ol.logger.Debug(msg, append(fields, zap.String("phase", "start"))...)
}

// LogComplete logs the completion of the operation
func (ol *OperationLogger) LogComplete(msg string, fields ...zap.Field) {
	ol.logger.Debug(msg, append(fields,
		zap.String("phase", "complete"),
		zap.Duration("elapsed", time.Since(ol.startTime)),
	)...)
}

// LogError logs an operation error
func (ol *OperationLogger) LogError(msg string, err error, fields ...zap.Field) {
	ol.logger.Error(msg, append(fields,
		zap.String("phase", "error"),
		zap.Duration("elapsed", time.Since(ol.startTime)),
		zap.Error(err),
	)...)
}
