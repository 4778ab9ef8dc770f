// Package graphops implements the cascading graph mutations: child creation
// and node deletion, single or recursive over parent-child links.
//
// Handlers work on a snapshot of the dataset supplied by the caller and
// mutate through a Mutator, so the same logic runs against the mode adapter
// or the in-memory binding collections.
package graphops

import (
	"context"

	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Mutator creates and deletes entities in one (mode, dataset) scope.
type Mutator interface {
	AddNode(ctx context.Context, label string, level *int) (graph.Node, error)
	AddLink(ctx context.Context, source, target, linkType string) (graph.Link, error)
	DeleteNode(ctx context.Context, id string) error
	DeleteLink(ctx context.Context, id string) error
	DeleteVisualLink(ctx context.Context, id string) error
}

// ChildResult is what AddChildNode created.
type ChildResult struct {
	Node graph.Node `json:"node"`
	Link graph.Link `json:"link"`
}

// DeleteResult lists the ids removed by a deletion.
type DeleteResult struct {
	Nodes       []string `json:"nodes"`
	Links       []string `json:"links"`
	VisualLinks []string `json:"visual_links"`
}

// Handler runs the graph mutations.
type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger.Named("graphops")}
}

// AddChildNode creates a node one level below parentID, labelled after its
// parent, and the parent-child link to it. Either both are created or
// neither: when the link fails the new node is deleted again.
func (h *Handler) AddChildNode(ctx context.Context, m Mutator, parentID string, nodes []graph.Node) (ChildResult, error) {
	parent, ok := graph.FindNode(nodes, parentID)
	if !ok {
		h.logger.Warn("Parent node not found", zap.String("parent", parentID))
		return ChildResult{}, appErrors.NewNotFoundError("node", parentID).WithCode(appErrors.CodeParentMissing)
	}

	child, err := m.AddNode(ctx, graph.ChildLabelPrefix+parent.Label, graph.Level(graph.NodeLevel(parent)+1))
	if err != nil {
		return ChildResult{}, appErrors.Wrap(err, "add child node")
	}

	link, err := m.AddLink(ctx, parent.ID, child.ID, graph.LinkTypeParentChild)
	if err != nil {
		if rerr := m.DeleteNode(ctx, child.ID); rerr != nil {
			h.logger.Error("Failed to remove orphan child node",
				zap.String("node", child.ID),
				zap.Error(rerr),
			)
		}
		return ChildResult{}, appErrors.Wrap(err, "add parent-child link")
	}

	h.logger.Debug("Child node added",
		zap.String("parent", parent.ID),
		zap.String("node", child.ID),
		zap.Int("level", graph.NodeLevel(child)),
	)
	return ChildResult{Node: child, Link: link}, nil
}

// DeleteNode deletes every link touching nodeID, then every visual link
// touching it, then the node. It stops at the first failure.
func (h *Handler) DeleteNode(ctx context.Context, m Mutator, nodeID string, g graph.Snapshot) (DeleteResult, error) {
	run := newDeletion(m, g)
	err := run.deleteNode(ctx, nodeID)
	return run.result, err
}

// DeleteNodeRecursive deletes nodeID and every node reachable from it over
// parent-child links, children first, siblings in link order. A node is
// visited once, so cyclic data terminates.
func (h *Handler) DeleteNodeRecursive(ctx context.Context, m Mutator, nodeID string, g graph.Snapshot) (DeleteResult, error) {
	run := newDeletion(m, g)
	err := run.recurse(ctx, nodeID)
	if err != nil {
		h.logger.Warn("Recursive delete stopped",
			zap.String("node", nodeID),
			zap.Int("deleted_nodes", len(run.result.Nodes)),
			zap.Error(err),
		)
	}
	return run.result, err
}

// deletion tracks one delete run so no edge is deleted twice.
type deletion struct {
	m       Mutator
	g       graph.Snapshot
	visited map[string]bool
	gone    map[string]bool
	result  DeleteResult
}

func newDeletion(m Mutator, g graph.Snapshot) *deletion {
	return &deletion{
		m:       m,
		g:       g,
		visited: make(map[string]bool),
		gone:    make(map[string]bool),
		result: DeleteResult{
			Nodes:       []string{},
			Links:       []string{},
			VisualLinks: []string{},
		},
	}
}

func (d *deletion) recurse(ctx context.Context, nodeID string) error {
	if d.visited[nodeID] {
		return nil
	}
	d.visited[nodeID] = true

	for _, l := range d.g.Links {
		if l.Type != graph.LinkTypeParentChild || l.Source != nodeID {
			continue
		}
		if err := d.recurse(ctx, l.Target); err != nil {
			return err
		}
	}
	return d.deleteNode(ctx, nodeID)
}

func (d *deletion) deleteNode(ctx context.Context, nodeID string) error {
	for _, l := range d.g.Links {
		if !l.Touches(nodeID) || d.gone[l.ID] {
			continue
		}
		if err := d.m.DeleteLink(ctx, l.ID); err != nil {
			return appErrors.Wrapf(err, "delete link %s", l.ID)
		}
		d.gone[l.ID] = true
		d.result.Links = append(d.result.Links, l.ID)
	}

	for _, v := range d.g.VisualLinks {
		if !v.Touches(nodeID) || d.gone[v.ID] {
			continue
		}
		if err := d.m.DeleteVisualLink(ctx, v.ID); err != nil {
			return appErrors.Wrapf(err, "delete visual link %s", v.ID)
		}
		d.gone[v.ID] = true
		d.result.VisualLinks = append(d.result.VisualLinks, v.ID)
	}

	if err := d.m.DeleteNode(ctx, nodeID); err != nil {
		return appErrors.Wrapf(err, "delete node %s", nodeID)
	}
	d.result.Nodes = append(d.result.Nodes, nodeID)
	return nil
}
