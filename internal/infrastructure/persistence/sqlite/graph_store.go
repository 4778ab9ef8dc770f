package sqlite

import (
	"context"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

// Nodes returns the nodes of a dataset.
func (s *Store) Nodes(ctx context.Context, datasetID string) ([]graph.Node, error) {
	return ByDataset[graph.Node](ctx, s, datasetID)
}

// Links returns the links of a dataset.
func (s *Store) Links(ctx context.Context, datasetID string) ([]graph.Link, error) {
	return ByDataset[graph.Link](ctx, s, datasetID)
}

// VisualLinks returns the visual links of a dataset, optionally only those of
// linkType.
func (s *Store) VisualLinks(ctx context.Context, datasetID, linkType string) ([]graph.VisualLink, error) {
	all, err := ByDataset[graph.VisualLink](ctx, s, datasetID)
	if err != nil {
		return nil, err
	}
	return graph.FilterVisualLinks(all, linkType), nil
}

// Dataset returns one dataset row.
func (s *Store) Dataset(ctx context.Context, id string) (graph.Dataset, error) {
	return Get[graph.Dataset](ctx, s, id)
}

// Datasets returns every dataset row.
func (s *Store) Datasets(ctx context.Context) ([]graph.Dataset, error) {
	return All[graph.Dataset](ctx, s)
}

// AddNode stores a new node.
func (s *Store) AddNode(ctx context.Context, n graph.Node) error {
	return Put(ctx, s, n)
}

// UpdateNode replaces a node in place.
func (s *Store) UpdateNode(ctx context.Context, n graph.Node) error {
	return Put(ctx, s, n)
}

// DeleteNode removes one node row.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	return s.Delete(ctx, graph.CollectionNodes, id)
}

// AddLink stores a new link.
func (s *Store) AddLink(ctx context.Context, l graph.Link) error {
	return Put(ctx, s, l)
}

// UpdateLink replaces a link without moving it in the listing order.
func (s *Store) UpdateLink(ctx context.Context, l graph.Link) error {
	return Put(ctx, s, l)
}

// DeleteLink removes one link row.
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	return s.Delete(ctx, graph.CollectionLinks, id)
}

// AddVisualLink stores a new visual link.
func (s *Store) AddVisualLink(ctx context.Context, v graph.VisualLink) error {
	return Put(ctx, s, v)
}

// UpdateVisualLink replaces a visual link in place.
func (s *Store) UpdateVisualLink(ctx context.Context, v graph.VisualLink) error {
	return Put(ctx, s, v)
}

// DeleteVisualLink removes one visual link row.
func (s *Store) DeleteVisualLink(ctx context.Context, id string) error {
	return s.Delete(ctx, graph.CollectionVisualLinks, id)
}

// AddDataset stores a dataset row.
func (s *Store) AddDataset(ctx context.Context, d graph.Dataset) error {
	return Put(ctx, s, d)
}

// DeleteDataset removes the dataset row only; its entities are left alone.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	return s.Delete(ctx, graph.CollectionDatasets, id)
}
