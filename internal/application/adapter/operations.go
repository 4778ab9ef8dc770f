package adapter

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thedub2001/skull01/internal/application/ports"
	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// FetchNodes returns the nodes of a dataset.
func (a *Adapter) FetchNodes(ctx context.Context, mode graph.DbMode, datasetID string) ([]graph.Node, error) {
	return read(ctx, a, "FetchNodes", mode, datasetID, func(ctx context.Context, s ports.GraphStore) ([]graph.Node, error) {
		return s.Nodes(ctx, datasetID)
	})
}

// FetchLinks returns the links of a dataset.
func (a *Adapter) FetchLinks(ctx context.Context, mode graph.DbMode, datasetID string) ([]graph.Link, error) {
	return read(ctx, a, "FetchLinks", mode, datasetID, func(ctx context.Context, s ports.GraphStore) ([]graph.Link, error) {
		return s.Links(ctx, datasetID)
	})
}

// FetchVisualLinks returns the visual links of a dataset, only those of
// linkType when it is set.
func (a *Adapter) FetchVisualLinks(ctx context.Context, mode graph.DbMode, datasetID, linkType string) ([]graph.VisualLink, error) {
	return read(ctx, a, "FetchVisualLinks", mode, datasetID, func(ctx context.Context, s ports.GraphStore) ([]graph.VisualLink, error) {
		return s.VisualLinks(ctx, datasetID, linkType)
	})
}

// FetchDataset returns one dataset.
func (a *Adapter) FetchDataset(ctx context.Context, mode graph.DbMode, id string) (graph.Dataset, error) {
	return read(ctx, a, "FetchDataset", mode, id, func(ctx context.Context, s ports.GraphStore) (graph.Dataset, error) {
		return s.Dataset(ctx, id)
	})
}

// FetchDatasets lists datasets. Sync mode copies every remote dataset row
// into the local store and then lists local, so local-only datasets stay
// visible.
func (a *Adapter) FetchDatasets(ctx context.Context, mode graph.DbMode) (datasets []graph.Dataset, err error) {
	ctx, span := a.start(ctx, "FetchDatasets", mode, "")
	defer func() { end(span, err) }()

	switch mode {
	case graph.ModeLocal:
		return a.local.Datasets(ctx)
	case graph.ModeRemote:
		return a.remote.Datasets(ctx)
	case graph.ModeSync:
		remote, err := a.remote.Datasets(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range remote {
			if err := a.local.AddDataset(ctx, d); err != nil {
				return nil, err
			}
		}
		return a.local.Datasets(ctx)
	}
	return nil, unknownMode(mode)
}

// FetchGraphData reads the nodes and links of a dataset concurrently. Sync
// mode pulls once before both reads.
func (a *Adapter) FetchGraphData(ctx context.Context, mode graph.DbMode, datasetID string) (graph.GraphData, error) {
	return read(ctx, a, "FetchGraphData", mode, datasetID, func(ctx context.Context, s ports.GraphStore) (graph.GraphData, error) {
		var data graph.GraphData
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			data.Nodes, err = s.Nodes(gctx, datasetID)
			return err
		})
		g.Go(func() error {
			var err error
			data.Links, err = s.Links(gctx, datasetID)
			return err
		})
		if err := g.Wait(); err != nil {
			return graph.GraphData{}, err
		}
		return data, nil
	})
}

// FetchSnapshot reads nodes, links and visual links of a dataset in one go,
// as the input of the graph mutation handlers.
func (a *Adapter) FetchSnapshot(ctx context.Context, mode graph.DbMode, datasetID string) (graph.Snapshot, error) {
	return read(ctx, a, "FetchSnapshot", mode, datasetID, func(ctx context.Context, s ports.GraphStore) (graph.Snapshot, error) {
		var snap graph.Snapshot
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			snap.Nodes, err = s.Nodes(gctx, datasetID)
			return err
		})
		g.Go(func() error {
			var err error
			snap.Links, err = s.Links(gctx, datasetID)
			return err
		})
		g.Go(func() error {
			var err error
			snap.VisualLinks, err = s.VisualLinks(gctx, datasetID, "")
			return err
		})
		if err := g.Wait(); err != nil {
			return graph.Snapshot{}, err
		}
		return snap, nil
	})
}

// AddNode validates n and writes it to the store(s) of mode. Sync mode writes
// remote first, then local.
func (a *Adapter) AddNode(ctx context.Context, mode graph.DbMode, n graph.Node) error {
	if err := graph.Validate(n); err != nil {
		return err
	}
	return a.write(ctx, "AddNode", mode, n.Dataset, func(ctx context.Context, s ports.GraphStore) error {
		return s.AddNode(ctx, n)
	})
}

// UpdateNode validates n and replaces the stored node.
func (a *Adapter) UpdateNode(ctx context.Context, mode graph.DbMode, n graph.Node) error {
	if err := graph.Validate(n); err != nil {
		return err
	}
	return a.write(ctx, "UpdateNode", mode, n.Dataset, func(ctx context.Context, s ports.GraphStore) error {
		return s.UpdateNode(ctx, n)
	})
}

// DeleteNode removes one node without touching its links.
func (a *Adapter) DeleteNode(ctx context.Context, mode graph.DbMode, id string) error {
	return a.write(ctx, "DeleteNode", mode, "", func(ctx context.Context, s ports.GraphStore) error {
		return s.DeleteNode(ctx, id)
	})
}

// AddLink validates l and writes it to the store(s) of mode.
func (a *Adapter) AddLink(ctx context.Context, mode graph.DbMode, l graph.Link) error {
	if err := graph.Validate(l); err != nil {
		return err
	}
	return a.write(ctx, "AddLink", mode, l.Dataset, func(ctx context.Context, s ports.GraphStore) error {
		return s.AddLink(ctx, l)
	})
}

// UpdateLink validates l and replaces the stored link.
func (a *Adapter) UpdateLink(ctx context.Context, mode graph.DbMode, l graph.Link) error {
	if err := graph.Validate(l); err != nil {
		return err
	}
	return a.write(ctx, "UpdateLink", mode, l.Dataset, func(ctx context.Context, s ports.GraphStore) error {
		return s.UpdateLink(ctx, l)
	})
}

// DeleteLink removes one link.
func (a *Adapter) DeleteLink(ctx context.Context, mode graph.DbMode, id string) error {
	return a.write(ctx, "DeleteLink", mode, "", func(ctx context.Context, s ports.GraphStore) error {
		return s.DeleteLink(ctx, id)
	})
}

// AddVisualLink validates v and writes it to the store(s) of mode.
func (a *Adapter) AddVisualLink(ctx context.Context, mode graph.DbMode, v graph.VisualLink) error {
	if err := graph.Validate(v); err != nil {
		return err
	}
	return a.write(ctx, "AddVisualLink", mode, v.Dataset, func(ctx context.Context, s ports.GraphStore) error {
		return s.AddVisualLink(ctx, v)
	})
}

// UpdateVisualLink validates v and replaces the stored visual link.
func (a *Adapter) UpdateVisualLink(ctx context.Context, mode graph.DbMode, v graph.VisualLink) error {
	if err := graph.Validate(v); err != nil {
		return err
	}
	return a.write(ctx, "UpdateVisualLink", mode, v.Dataset, func(ctx context.Context, s ports.GraphStore) error {
		return s.UpdateVisualLink(ctx, v)
	})
}

// DeleteVisualLink removes one visual link.
func (a *Adapter) DeleteVisualLink(ctx context.Context, mode graph.DbMode, id string) error {
	return a.write(ctx, "DeleteVisualLink", mode, "", func(ctx context.Context, s ports.GraphStore) error {
		return s.DeleteVisualLink(ctx, id)
	})
}

// CreateDataset creates a dataset seeded with a root node. In sync mode the
// dataset is created remotely and then pulled, so both stores hold the same
// ids.
func (a *Adapter) CreateDataset(ctx context.Context, mode graph.DbMode, name, user string) (ds graph.Dataset, err error) {
	if err := graph.Validate(struct {
		Name string `validate:"required,max=200"`
	}{name}); err != nil {
		return graph.Dataset{}, err
	}

	ctx, span := a.start(ctx, "CreateDataset", mode, "")
	defer func() { end(span, err) }()

	switch mode {
	case graph.ModeLocal:
		ds, err = a.local.CreateLocalDataset(ctx, name, user)
	case graph.ModeRemote:
		ds, err = a.remote.CreateRemoteDataset(ctx, name, user)
	case graph.ModeSync:
		ds, err = a.remote.CreateRemoteDataset(ctx, name, user)
		if ds.ID != "" {
			if perr := a.pull(ctx, ds.ID); perr != nil && err == nil {
				err = perr
			}
		}
	default:
		return graph.Dataset{}, unknownMode(mode)
	}
	if err != nil {
		return ds, err
	}

	a.metrics.ObserveMutation("CreateDataset", string(mode))
	a.logger.Info("Dataset created",
		zap.String("dataset", ds.ID),
		zap.String("mode", string(mode)),
	)
	if a.publisher != nil {
		event := ports.NewEvent(ports.EventDatasetCreated, ds.ID, map[string]any{
			"name": ds.Name,
			"mode": string(mode),
		})
		if perr := a.publisher.Publish(ctx, event); perr != nil {
			a.logger.Warn("Failed to publish dataset event", zap.Error(perr))
		}
	}
	return ds, nil
}

// LinkTypes returns the distinct link types used in a dataset.
func (a *Adapter) LinkTypes(ctx context.Context, mode graph.DbMode, datasetID string) ([]string, error) {
	links, err := a.FetchLinks(ctx, mode, datasetID)
	if err != nil {
		return nil, appErrors.Wrap(err, "link types")
	}
	return graph.LinkTypes(links), nil
}
