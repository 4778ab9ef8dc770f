// Package ports declares the interfaces the application layer depends on and
// the infrastructure layer implements.
package ports

import (
	"context"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

// GraphStore is the per-backend CRUD surface over the four collections. Both
// the local and the remote store implement it, so the adapter can route any
// operation to either one.
type GraphStore interface {
	Nodes(ctx context.Context, datasetID string) ([]graph.Node, error)
	Links(ctx context.Context, datasetID string) ([]graph.Link, error)
	// VisualLinks returns every visual link of the dataset, or only those of
	// linkType when it is not empty.
	VisualLinks(ctx context.Context, datasetID, linkType string) ([]graph.VisualLink, error)
	Dataset(ctx context.Context, id string) (graph.Dataset, error)
	Datasets(ctx context.Context) ([]graph.Dataset, error)

	AddNode(ctx context.Context, n graph.Node) error
	UpdateNode(ctx context.Context, n graph.Node) error
	DeleteNode(ctx context.Context, id string) error

	AddLink(ctx context.Context, l graph.Link) error
	UpdateLink(ctx context.Context, l graph.Link) error
	DeleteLink(ctx context.Context, id string) error

	AddVisualLink(ctx context.Context, v graph.VisualLink) error
	UpdateVisualLink(ctx context.Context, v graph.VisualLink) error
	DeleteVisualLink(ctx context.Context, id string) error

	AddDataset(ctx context.Context, d graph.Dataset) error
	DeleteDataset(ctx context.Context, id string) error
}

// LocalStore is the embedded store. Add is an upsert and deletes are
// idempotent.
type LocalStore interface {
	GraphStore
	Export(ctx context.Context, datasetID string) (graph.Snapshot, error)
	Import(ctx context.Context, snap graph.Snapshot, datasetID string) error
	ReplaceDataset(ctx context.Context, datasetID string, snap graph.Snapshot) error
	CreateLocalDataset(ctx context.Context, name, user string) (graph.Dataset, error)
}

// RemoteStore is the hosted backend.
type RemoteStore interface {
	GraphStore
	// CreateRemoteDataset inserts the dataset, then its root node. When the
	// root insert fails the dataset is returned along with the error.
	CreateRemoteDataset(ctx context.Context, name, user string) (graph.Dataset, error)
}
