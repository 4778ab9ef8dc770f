// Package adapter routes every graph read and write to the local store, the
// remote store or both, according to the DbMode passed with the call.
//
//	mode    read                         write / delete
//	local   local                        local
//	remote  remote                       remote
//	sync    pull dataset, then local     remote, then local
//
// Sync writes are not compensated: when the remote write succeeds and the
// local one fails, the error is returned and the remote change stays.
package adapter

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/ports"
	"github.com/thedub2001/skull01/internal/application/reconcile"
	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Puller refreshes the local copy of a dataset from the remote store.
type Puller interface {
	Pull(ctx context.Context, datasetID string) (*reconcile.Report, error)
}

// Metrics counts mutations.
type Metrics interface {
	ObserveMutation(kind, mode string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveMutation(string, string) {}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithMetrics records every mutation on m.
func WithMetrics(m Metrics) Option {
	return func(a *Adapter) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithPublisher publishes dataset.created events on p.
func WithPublisher(p ports.EventPublisher) Option {
	return func(a *Adapter) { a.publisher = p }
}

// Adapter is the single entry point of every graph operation.
type Adapter struct {
	local     ports.LocalStore
	remote    ports.RemoteStore
	puller    Puller
	publisher ports.EventPublisher
	metrics   Metrics
	tracer    trace.Tracer
	logger    *zap.Logger
}

// New builds an adapter over both stores. puller is used before every sync
// mode read.
func New(local ports.LocalStore, remote ports.RemoteStore, puller Puller, logger *zap.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		local:   local,
		remote:  remote,
		puller:  puller,
		metrics: noopMetrics{},
		tracer:  otel.Tracer("github.com/thedub2001/skull01/adapter"),
		logger:  logger.Named("adapter"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func unknownMode(mode graph.DbMode) error {
	return appErrors.NewValidationError("unknown db mode " + string(mode)).WithCode(appErrors.CodeUnknownMode)
}

func noDataset() error {
	return appErrors.NewValidationError("no dataset selected").WithCode(appErrors.CodeNoDataset)
}

func (a *Adapter) start(ctx context.Context, op string, mode graph.DbMode, datasetID string) (context.Context, trace.Span) {
	return a.tracer.Start(ctx, "adapter."+op, trace.WithAttributes(
		attribute.String("db.mode", string(mode)),
		attribute.String("dataset", datasetID),
	))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// pull refreshes datasetID before a sync mode read.
func (a *Adapter) pull(ctx context.Context, datasetID string) error {
	if datasetID == "" {
		return noDataset()
	}
	if _, err := a.puller.Pull(ctx, datasetID); err != nil {
		return err
	}
	return nil
}

// read resolves the store to read from. In sync mode the dataset is pulled
// first and the local store answers.
func read[T any](ctx context.Context, a *Adapter, op string, mode graph.DbMode, datasetID string, fn func(context.Context, ports.GraphStore) (T, error)) (result T, err error) {
	ctx, span := a.start(ctx, op, mode, datasetID)
	defer func() { end(span, err) }()

	switch mode {
	case graph.ModeLocal:
		return fn(ctx, a.local)
	case graph.ModeRemote:
		return fn(ctx, a.remote)
	case graph.ModeSync:
		if err = a.pull(ctx, datasetID); err != nil {
			return result, err
		}
		return fn(ctx, a.local)
	}
	return result, unknownMode(mode)
}

// write applies fn to the store(s) of mode. Sync mode writes remote first and
// only then local.
func (a *Adapter) write(ctx context.Context, op string, mode graph.DbMode, datasetID string, fn func(context.Context, ports.GraphStore) error) (err error) {
	ctx, span := a.start(ctx, op, mode, datasetID)
	defer func() { end(span, err) }()

	switch mode {
	case graph.ModeLocal:
		err = fn(ctx, a.local)
	case graph.ModeRemote:
		err = fn(ctx, a.remote)
	case graph.ModeSync:
		if err = fn(ctx, a.remote); err != nil {
			return err
		}
		if err = fn(ctx, a.local); err != nil {
			a.logger.Error("Local write failed after remote write succeeded",
				zap.String("operation", op),
				zap.String("dataset", datasetID),
				zap.Error(err),
			)
			return err
		}
	default:
		return unknownMode(mode)
	}

	if err == nil {
		a.metrics.ObserveMutation(op, string(mode))
	}
	return err
}
