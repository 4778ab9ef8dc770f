package remote

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Metrics records the outcome of every remote call.
type Metrics interface {
	ObserveRemoteCall(provider, operation, collection, outcome string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRemoteCall(string, string, string, string, time.Duration) {}

// Options tunes a Store.
type Options struct {
	// Timeout bounds each attempt. Zero means no bound beyond the caller's.
	Timeout time.Duration
	Breaker config.Breaker
	Retry   config.Retry
	Metrics Metrics
}

// OptionsFromConfig picks the store options out of the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout: cfg.Remote.Timeout,
		Breaker: cfg.Breaker,
		Retry:   cfg.Retry,
	}
}

// Store is the remote graph store. Every call goes through the circuit
// breaker and the retry loop, and comes back either decoded or as an
// AppError.
type Store struct {
	backend Backend
	breaker *gobreaker.CircuitBreaker
	retry   retrier
	timeout time.Duration
	metrics Metrics
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewStore wraps backend.
func NewStore(backend Backend, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("remote").With(zap.String("provider", backend.Name()))

	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &Store{
		backend: backend,
		breaker: newBreaker("remote-"+backend.Name(), opts.Breaker, logger),
		retry:   retrier{cfg: opts.Retry, logger: logger},
		timeout: opts.Timeout,
		metrics: metrics,
		tracer:  otel.Tracer("github.com/thedub2001/skull01/remote"),
		logger:  logger,
	}
}

// Provider names the backend in use.
func (s *Store) Provider() string { return s.backend.Name() }

// BreakerState reports the circuit breaker state (closed, half-open or open).
func (s *Store) BreakerState() string { return s.breaker.State().String() }

func (s *Store) call(ctx context.Context, op string, c graph.Collection, idempotent bool, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "remote."+op, trace.WithAttributes(
		attribute.String("remote.provider", s.backend.Name()),
		attribute.String("remote.collection", c.String()),
	))
	defer span.End()

	start := time.Now()
	err := s.retry.do(ctx, op, idempotent, func() error {
		attemptCtx, cancel := s.attemptContext(ctx)
		defer cancel()

		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, fn(attemptCtx)
		})
		return s.classify(op, c, err)
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
		if appErr := appErrors.GetAppError(err); appErr != nil {
			outcome = strings.ToLower(string(appErr.Type))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.ObserveRemoteCall(s.backend.Name(), op, c.String(), outcome, time.Since(start))
	return err
}

func (s *Store) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) classify(op string, c graph.Collection, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return appErrors.NewUnavailableError(s.backend.Name()).
			WithCode(appErrors.CodeCircuitOpen).
			WithCause(err)
	}
	if appErrors.GetAppError(err) != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.NewUnavailableError(s.backend.Name()).WithCause(err)
	}
	return appErrors.NewExternalError(s.backend.Name(), err).WithDetails(map[string]any{
		"operation":  op,
		"collection": c.String(),
	})
}

func selectAs[T any](ctx context.Context, s *Store, op string, c graph.Collection, filters ...Filter) ([]T, error) {
	var rows []json.RawMessage
	err := s.call(ctx, op, c, true, func(ctx context.Context) error {
		var err error
		rows, err = s.backend.Select(ctx, c, filters...)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, raw := range rows {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, appErrors.NewExternalError(s.backend.Name(), err).
				WithDetails(map[string]any{"operation": op, "collection": c.String(), "reason": "decode"})
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) insert(ctx context.Context, row graph.Record) error {
	if err := graph.Validate(row); err != nil {
		return err
	}
	return s.call(ctx, "insert", row.Collection(), false, func(ctx context.Context) error {
		return s.backend.Insert(ctx, row)
	})
}

func (s *Store) update(ctx context.Context, row graph.Record) error {
	if err := graph.Validate(row); err != nil {
		return err
	}
	return s.call(ctx, "update", row.Collection(), true, func(ctx context.Context) error {
		return s.backend.Update(ctx, row)
	})
}

func (s *Store) delete(ctx context.Context, c graph.Collection, id string) error {
	return s.call(ctx, "delete", c, true, func(ctx context.Context) error {
		return s.backend.Delete(ctx, c, id)
	})
}

func (s *Store) Nodes(ctx context.Context, datasetID string) ([]graph.Node, error) {
	return selectAs[graph.Node](ctx, s, "select", graph.CollectionNodes, Eq("dataset", datasetID))
}

func (s *Store) Links(ctx context.Context, datasetID string) ([]graph.Link, error) {
	return selectAs[graph.Link](ctx, s, "select", graph.CollectionLinks, Eq("dataset", datasetID))
}

// VisualLinks returns the visual links of a dataset, only those of linkType
// when it is set.
func (s *Store) VisualLinks(ctx context.Context, datasetID, linkType string) ([]graph.VisualLink, error) {
	filters := []Filter{Eq("dataset", datasetID)}
	if linkType != "" {
		filters = append(filters, Eq("type", linkType))
	}
	return selectAs[graph.VisualLink](ctx, s, "select", graph.CollectionVisualLinks, filters...)
}

// Dataset returns one dataset, NOT_FOUND when the backend has no such row.
func (s *Store) Dataset(ctx context.Context, id string) (graph.Dataset, error) {
	rows, err := selectAs[graph.Dataset](ctx, s, "select", graph.CollectionDatasets, Eq("id", id))
	if err != nil {
		return graph.Dataset{}, err
	}
	if len(rows) == 0 {
		return graph.Dataset{}, appErrors.NewNotFoundError("dataset", id)
	}
	return rows[0], nil
}

func (s *Store) Datasets(ctx context.Context) ([]graph.Dataset, error) {
	return selectAs[graph.Dataset](ctx, s, "select", graph.CollectionDatasets)
}

func (s *Store) AddNode(ctx context.Context, n graph.Node) error { return s.insert(ctx, n) }

func (s *Store) UpdateNode(ctx context.Context, n graph.Node) error { return s.update(ctx, n) }

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	return s.delete(ctx, graph.CollectionNodes, id)
}

func (s *Store) AddLink(ctx context.Context, l graph.Link) error { return s.insert(ctx, l) }

func (s *Store) UpdateLink(ctx context.Context, l graph.Link) error { return s.update(ctx, l) }

func (s *Store) DeleteLink(ctx context.Context, id string) error {
	return s.delete(ctx, graph.CollectionLinks, id)
}

func (s *Store) AddVisualLink(ctx context.Context, v graph.VisualLink) error {
	return s.insert(ctx, v)
}

func (s *Store) UpdateVisualLink(ctx context.Context, v graph.VisualLink) error {
	return s.update(ctx, v)
}

func (s *Store) DeleteVisualLink(ctx context.Context, id string) error {
	return s.delete(ctx, graph.CollectionVisualLinks, id)
}

func (s *Store) AddDataset(ctx context.Context, d graph.Dataset) error { return s.insert(ctx, d) }

func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	return s.delete(ctx, graph.CollectionDatasets, id)
}

// CreateRemoteDataset inserts a dataset and then its root node. The two
// inserts are not atomic: when the root fails the dataset is returned with
// the error and stays in place.
func (s *Store) CreateRemoteDataset(ctx context.Context, name, user string) (graph.Dataset, error) {
	ds := graph.NewDataset(name, user)
	if err := s.AddDataset(ctx, ds); err != nil {
		return graph.Dataset{}, err
	}

	root := graph.NewRootNode(ds.ID)
	if err := s.AddNode(ctx, root); err != nil {
		s.logger.Error("Root node insert failed, dataset left without root",
			zap.String("dataset", ds.ID),
			zap.Error(err),
		)
		return ds, err
	}

	s.logger.Info("Created remote dataset",
		zap.String("dataset", ds.ID),
		zap.String("name", name),
		zap.String("root_node", root.ID),
	)
	return ds, nil
}
