// Package reconcile implements full-replace synchronization of one dataset
// between the local and the remote store.
//
// Pull replaces the local rows of a dataset with the remote ones inside a
// single local transaction. Push deletes every remote row of the dataset and
// inserts the local ones, one call per row, fanned out with a bounded
// errgroup. Every row operation is tracked in a Report so that a partially
// failed push can be retried without redoing the rows that went through.
package reconcile

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thedub2001/skull01/internal/application/ports"
	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Metrics records reconciliation runs.
type Metrics interface {
	ObserveSync(direction, outcome string, rows map[string]int, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSync(string, string, map[string]int, time.Duration) {}

// Options tunes an Engine.
type Options struct {
	// Concurrency bounds the in-flight remote calls of a push phase.
	Concurrency int
	Metrics     Metrics
}

// Engine runs pulls and pushes.
type Engine struct {
	local       ports.LocalStore
	remote      ports.RemoteStore
	publisher   ports.EventPublisher
	metrics     Metrics
	concurrency int
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewEngine builds an engine. A nil publisher drops events.
func NewEngine(local ports.LocalStore, remote ports.RemoteStore, publisher ports.EventPublisher, opts Options, logger *zap.Logger) *Engine {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		local:       local,
		remote:      remote,
		publisher:   publisher,
		metrics:     opts.Metrics,
		concurrency: opts.Concurrency,
		tracer:      otel.Tracer("github.com/thedub2001/skull01/reconcile"),
		logger:      logger.Named("reconcile"),
	}
}

// Pull replaces every local row of datasetID, the dataset row included, with
// the remote rows. Remote rows are fetched before anything local is touched,
// so a failed fetch leaves the local copy intact.
func (e *Engine) Pull(ctx context.Context, datasetID string) (*Report, error) {
	ctx, span := e.startSpan(ctx, DirectionPull, datasetID)
	defer span.End()

	report := newReport(DirectionPull, datasetID)

	snap, err := e.fetchRemote(ctx, datasetID, true)
	if err != nil {
		return e.done(ctx, span, report, appErrors.Wrap(err, "pull "+datasetID))
	}

	if err := e.local.ReplaceDataset(ctx, datasetID, snap); err != nil {
		return e.done(ctx, span, report, appErrors.Wrap(err, "pull "+datasetID))
	}

	for _, n := range snap.Nodes {
		report.add(&RowOp{Phase: PhaseImport, Collection: graph.CollectionNodes, ID: n.ID})
	}
	for _, l := range snap.Links {
		report.add(&RowOp{Phase: PhaseImport, Collection: graph.CollectionLinks, ID: l.ID})
	}
	for _, v := range snap.VisualLinks {
		report.add(&RowOp{Phase: PhaseImport, Collection: graph.CollectionVisualLinks, ID: v.ID})
	}
	for _, d := range snap.Datasets {
		report.add(&RowOp{Phase: PhaseImport, Collection: graph.CollectionDatasets, ID: d.ID})
	}
	return e.done(ctx, span, report, nil)
}

// Push makes the remote rows of datasetID equal to the local ones: it
// creates the remote dataset row when missing, deletes every remote node,
// link and visual link of the dataset, then inserts every local one.
//
// When some row operations fail the report is returned together with a
// PARTIAL_SYNC error; the rows already written stay written.
func (e *Engine) Push(ctx context.Context, datasetID string) (*Report, error) {
	ctx, span := e.startSpan(ctx, DirectionPush, datasetID)
	defer span.End()

	report := newReport(DirectionPush, datasetID)

	local, err := e.local.Export(ctx, datasetID)
	if err != nil {
		return e.done(ctx, span, report, appErrors.Wrap(err, "push "+datasetID))
	}

	if err := e.ensureRemoteDataset(ctx, report, local); err != nil {
		return e.done(ctx, span, report, appErrors.Wrap(err, "push "+datasetID))
	}

	existing, err := e.fetchRemote(ctx, datasetID, false)
	if err != nil {
		return e.done(ctx, span, report, appErrors.Wrap(err, "push "+datasetID))
	}

	deletes := deleteOps(existing)
	report.add(deletes...)
	e.runPhase(ctx, deletes)

	inserts := insertOps(local)
	report.add(inserts...)
	e.runPhase(ctx, inserts)

	if len(report.Failed()) > 0 {
		return e.done(ctx, span, report, partialSyncError(report))
	}
	return e.done(ctx, span, report, nil)
}

// Retry replays the failed operations of a previous report, deletes before
// inserts, and returns a report of the replay. A failed pull is simply run
// again since pulls are transactional.
func (e *Engine) Retry(ctx context.Context, previous *Report) (*Report, error) {
	if previous == nil {
		return nil, appErrors.NewValidationError("no sync report to retry")
	}
	if previous.Direction == DirectionPull {
		return e.Pull(ctx, previous.DatasetID)
	}

	ctx, span := e.startSpan(ctx, DirectionPush, previous.DatasetID)
	defer span.End()
	span.SetAttributes(attribute.Bool("sync.retry", true))

	report := newReport(DirectionPush, previous.DatasetID)

	var deletes, inserts []*RowOp
	for _, op := range previous.Failed() {
		replay := &RowOp{Phase: op.Phase, Collection: op.Collection, ID: op.ID, row: op.row}
		switch op.Phase {
		case PhaseDelete:
			deletes = append(deletes, replay)
		case PhaseInsert, PhaseEnsureDataset:
			inserts = append(inserts, replay)
		}
	}

	report.add(deletes...)
	e.runPhase(ctx, deletes)
	report.add(inserts...)
	e.runPhase(ctx, inserts)

	if len(report.Failed()) > 0 {
		return e.done(ctx, span, report, partialSyncError(report))
	}
	return e.done(ctx, span, report, nil)
}

// fetchRemote reads the remote rows of a dataset concurrently. withDataset
// also fetches the dataset row; a missing one is not an error.
func (e *Engine) fetchRemote(ctx context.Context, datasetID string, withDataset bool) (graph.Snapshot, error) {
	var snap graph.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		snap.Nodes, err = e.remote.Nodes(gctx, datasetID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Links, err = e.remote.Links(gctx, datasetID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.VisualLinks, err = e.remote.VisualLinks(gctx, datasetID, "")
		return err
	})
	if withDataset {
		g.Go(func() error {
			ds, err := e.remote.Dataset(gctx, datasetID)
			if appErrors.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			snap.Datasets = []graph.Dataset{ds}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return graph.Snapshot{}, err
	}
	return snap, nil
}

func (e *Engine) ensureRemoteDataset(ctx context.Context, report *Report, local graph.Snapshot) error {
	var ds graph.Dataset
	found := false
	for _, d := range local.Datasets {
		if d.ID == report.DatasetID {
			ds, found = d, true
			break
		}
	}
	if !found {
		return nil
	}

	_, err := e.remote.Dataset(ctx, ds.ID)
	if err == nil {
		return nil
	}
	if !appErrors.IsNotFound(err) {
		return err
	}

	op := &RowOp{Phase: PhaseEnsureDataset, Collection: graph.CollectionDatasets, ID: ds.ID, row: ds}
	report.add(op)
	op.setErr(e.remote.AddDataset(ctx, ds))
	return op.Err
}

func deleteOps(snap graph.Snapshot) []*RowOp {
	ops := make([]*RowOp, 0, snap.Len())
	for _, n := range snap.Nodes {
		ops = append(ops, &RowOp{Phase: PhaseDelete, Collection: graph.CollectionNodes, ID: n.ID})
	}
	for _, l := range snap.Links {
		ops = append(ops, &RowOp{Phase: PhaseDelete, Collection: graph.CollectionLinks, ID: l.ID})
	}
	for _, v := range snap.VisualLinks {
		ops = append(ops, &RowOp{Phase: PhaseDelete, Collection: graph.CollectionVisualLinks, ID: v.ID})
	}
	return ops
}

func insertOps(snap graph.Snapshot) []*RowOp {
	ops := make([]*RowOp, 0, snap.Len())
	for _, n := range snap.Nodes {
		ops = append(ops, &RowOp{Phase: PhaseInsert, Collection: graph.CollectionNodes, ID: n.ID, row: n})
	}
	for _, l := range snap.Links {
		ops = append(ops, &RowOp{Phase: PhaseInsert, Collection: graph.CollectionLinks, ID: l.ID, row: l})
	}
	for _, v := range snap.VisualLinks {
		ops = append(ops, &RowOp{Phase: PhaseInsert, Collection: graph.CollectionVisualLinks, ID: v.ID, row: v})
	}
	return ops
}

// runPhase issues every operation concurrently, at most e.concurrency at a
// time, and waits for all of them. A failing row does not stop its siblings.
func (e *Engine) runPhase(ctx context.Context, ops []*RowOp) {
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, op := range ops {
		g.Go(func() error {
			op.setErr(e.apply(ctx, op))
			if op.Err != nil {
				e.logger.Warn("Row operation failed",
					zap.String("phase", string(op.Phase)),
					zap.String("collection", op.Collection.String()),
					zap.String("id", op.ID),
					zap.Error(op.Err),
				)
			}
			return nil
		})
	}
	g.Wait()
}

func (e *Engine) apply(ctx context.Context, op *RowOp) error {
	if op.Phase == PhaseDelete {
		switch op.Collection {
		case graph.CollectionNodes:
			return e.remote.DeleteNode(ctx, op.ID)
		case graph.CollectionLinks:
			return e.remote.DeleteLink(ctx, op.ID)
		case graph.CollectionVisualLinks:
			return e.remote.DeleteVisualLink(ctx, op.ID)
		case graph.CollectionDatasets:
			return e.remote.DeleteDataset(ctx, op.ID)
		}
		return appErrors.NewInternalError("unknown collection " + op.Collection.String())
	}

	switch row := op.row.(type) {
	case graph.Node:
		return e.remote.AddNode(ctx, row)
	case graph.Link:
		return e.remote.AddLink(ctx, row)
	case graph.VisualLink:
		return e.remote.AddVisualLink(ctx, row)
	case graph.Dataset:
		return e.remote.AddDataset(ctx, row)
	}
	return appErrors.NewInternalError("no row to insert for " + op.ID)
}

func (e *Engine) startSpan(ctx context.Context, dir Direction, datasetID string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "reconcile."+string(dir), trace.WithAttributes(
		attribute.String("dataset", datasetID),
	))
}

// done stamps the report, records metrics, logs and publishes the
// completion event.
func (e *Engine) done(ctx context.Context, span trace.Span, report *Report, err error) (*Report, error) {
	report.finish()

	outcome := "success"
	switch {
	case IsPartialSync(err):
		outcome = "partial"
	case err != nil:
		outcome = "error"
	}
	e.metrics.ObserveSync(string(report.Direction), outcome, report.Transferred(), report.FinishedAt.Sub(report.StartedAt))

	fields := []zap.Field{
		zap.String("direction", string(report.Direction)),
		zap.String("dataset", report.DatasetID),
		zap.Int("operations", len(report.Ops)),
		zap.Int("failed", len(report.Failed())),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("Sync run failed", append(fields, zap.Error(err))...)
		if outcome != "partial" {
			return report, err
		}
	} else {
		e.logger.Info("Sync run completed", fields...)
	}

	if e.publisher != nil {
		summary := report.Summary()
		summary["outcome"] = outcome
		event := ports.NewEvent(ports.EventSyncCompleted, report.DatasetID, summary)
		if perr := e.publisher.Publish(ctx, event); perr != nil {
			e.logger.Warn("Failed to publish sync event", zap.Error(perr))
		}
	}
	return report, err
}
