package repository

import (
	"context"

	"jobtracker/internal/models"
	"jobtracker/internal/observability"
)

// instrument wraps each data layer call in a span, a latency sample and,
// on failure, an error log line and counter.
type instrument struct {
	system  string
	metrics *observability.DatabaseMetrics
}

func newInstrument(backend Backend) instrument {
	return instrument{
		system:  string(backend),
		metrics: observability.NewDatabaseMetrics(string(backend)),
	}
}

func (in instrument) start(ctx context.Context, op, table string) (context.Context, func(*error)) {
	ctx, span := observability.StartRepositorySpan(ctx, in.system, op, table)
	done := in.metrics.TrackQuery(op, table)
	return ctx, func(errp *error) {
		done()
		err := *errp
		if err != nil {
			in.metrics.RecordError(op, models.ErrorCode(err))
			observability.NewRepoLogger(in.system, table).LogError(ctx, err, op)
		}
		observability.EndSpan(span, err)
	}
}

func (in instrument) logWrite(ctx context.Context, table, op string, affected int64) {
	observability.NewRepoLogger(in.system, table).LogWrite(ctx, op, affected)
}
