package adapter

import (
	"context"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

// Scoped binds the adapter to one (mode, dataset) pair. It builds new
// entities with fresh ids stamped with the dataset.
type Scoped struct {
	adapter *Adapter
	Mode    graph.DbMode
	Dataset string
}

// Scope returns the adapter bound to mode and datasetID.
func (a *Adapter) Scope(mode graph.DbMode, datasetID string) Scoped {
	return Scoped{adapter: a, Mode: mode, Dataset: datasetID}
}

func (s Scoped) AddNode(ctx context.Context, label string, level *int) (graph.Node, error) {
	n := graph.NewNode(s.Dataset, label, level)
	if err := s.adapter.AddNode(ctx, s.Mode, n); err != nil {
		return graph.Node{}, err
	}
	return n, nil
}

func (s Scoped) AddLink(ctx context.Context, source, target, linkType string) (graph.Link, error) {
	l := graph.NewLink(s.Dataset, source, target, linkType)
	if err := s.adapter.AddLink(ctx, s.Mode, l); err != nil {
		return graph.Link{}, err
	}
	return l, nil
}

func (s Scoped) AddVisualLink(ctx context.Context, source, target, linkType string, metadata map[string]any) (graph.VisualLink, error) {
	v := graph.NewVisualLink(s.Dataset, source, target, linkType, metadata)
	if err := s.adapter.AddVisualLink(ctx, s.Mode, v); err != nil {
		return graph.VisualLink{}, err
	}
	return v, nil
}

func (s Scoped) DeleteNode(ctx context.Context, id string) error {
	return s.adapter.DeleteNode(ctx, s.Mode, id)
}

func (s Scoped) DeleteLink(ctx context.Context, id string) error {
	return s.adapter.DeleteLink(ctx, s.Mode, id)
}

func (s Scoped) DeleteVisualLink(ctx context.Context, id string) error {
	return s.adapter.DeleteVisualLink(ctx, s.Mode, id)
}

// Snapshot reads the whole dataset.
func (s Scoped) Snapshot(ctx context.Context) (graph.Snapshot, error) {
	return s.adapter.FetchSnapshot(ctx, s.Mode, s.Dataset)
}
