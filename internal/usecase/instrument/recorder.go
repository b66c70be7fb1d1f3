// Package instrument records spans, counters and logs for use case calls.
package instrument

import (
	"context"
	"errors"

	"catalog/backend/internal/usecase/apperror"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const scope = "catalog/backend/usecase"

// Result labels used on the operations counter.
const (
	ResultSuccess   = "success"
	ResultNotFound  = "not_found"
	ResultIntegrity = "integrity_violation"
	ResultFailure   = "failure"
)

// Recorder instruments the operations of one entity's use cases.
type Recorder struct {
	entity     string
	tracer     trace.Tracer
	operations metric.Int64Counter
	logger     *zap.Logger
}

// New builds a recorder on the global OTel providers.
func New(entity string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	ops, err := otel.Meter(scope).Int64Counter(
		"catalog.operations",
		metric.WithDescription("Use case invocations by entity, operation and result"),
	)
	if err != nil {
		logger.Warn("operations counter unavailable", zap.Error(err))
	}
	return &Recorder{
		entity:     entity,
		tracer:     otel.Tracer(scope),
		operations: ops,
		logger:     logger.With(zap.String("entity", entity)),
	}
}

// Start opens a span for operation. The returned func must be called with the
// operation's final error.
func (r *Recorder) Start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := r.tracer.Start(ctx, r.entity+"."+operation, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		defer span.End()

		result := Classify(err)
		if r.operations != nil {
			r.operations.Add(ctx, 1, metric.WithAttributes(
				attribute.String("entity", r.entity),
				attribute.String("operation", operation),
				attribute.String("result", result),
			))
		}

		fields := []zap.Field{zap.String("operation", operation), zap.String("result", result)}
		switch result {
		case ResultSuccess:
			span.SetStatus(codes.Ok, "")
			r.logger.Debug("use case completed", fields...)
		case ResultFailure:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Error("use case failed", append(fields, zap.Error(err))...)
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
			r.logger.Info("use case rejected", append(fields, zap.Error(err))...)
		}
	}
}

// Classify maps an operation error onto a result label.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, apperror.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, apperror.ErrDatabaseIntegrity):
		return ResultIntegrity
	default:
		return ResultFailure
	}
}
