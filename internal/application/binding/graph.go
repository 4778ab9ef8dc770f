package binding

import (
	"context"

	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

// Nodes mirrors the nodes of the selected dataset.
type Nodes struct {
	*collection[graph.Node]
}

func NewNodes(backend Backend, logger *zap.Logger) *Nodes {
	return &Nodes{newCollection[graph.Node](backend, "nodes", logger)}
}

// Fetch reloads the mirror.
func (n *Nodes) Fetch(ctx context.Context) ([]graph.Node, error) {
	return n.fetch(ctx, func(ctx context.Context, s Scope) ([]graph.Node, error) {
		return n.backend.FetchNodes(ctx, s.Mode, s.Dataset)
	})
}

// Add creates a node with a fresh id in the selected dataset.
func (n *Nodes) Add(ctx context.Context, label string, level *int) (graph.Node, error) {
	return n.add(ctx,
		func(ds string) graph.Node { return graph.NewNode(ds, label, level) },
		n.backend.AddNode,
	)
}

func (n *Nodes) Delete(ctx context.Context, id string) error {
	return n.remove(ctx, id, n.backend.DeleteNode)
}

// Links mirrors the links of the selected dataset.
type Links struct {
	*collection[graph.Link]
}

func NewLinks(backend Backend, logger *zap.Logger) *Links {
	return &Links{newCollection[graph.Link](backend, "links", logger)}
}

func (l *Links) Fetch(ctx context.Context) ([]graph.Link, error) {
	return l.fetch(ctx, func(ctx context.Context, s Scope) ([]graph.Link, error) {
		return l.backend.FetchLinks(ctx, s.Mode, s.Dataset)
	})
}

func (l *Links) Add(ctx context.Context, source, target, linkType string) (graph.Link, error) {
	return l.add(ctx,
		func(ds string) graph.Link { return graph.NewLink(ds, source, target, linkType) },
		l.backend.AddLink,
	)
}

func (l *Links) Delete(ctx context.Context, id string) error {
	return l.remove(ctx, id, l.backend.DeleteLink)
}

// LinkTypes returns the distinct types of the mirrored links.
func (l *Links) LinkTypes() []string {
	return graph.LinkTypes(l.Items())
}

// VisualLinks mirrors the visual links of the selected dataset.
type VisualLinks struct {
	*collection[graph.VisualLink]
}

func NewVisualLinks(backend Backend, logger *zap.Logger) *VisualLinks {
	return &VisualLinks{newCollection[graph.VisualLink](backend, "visual_links", logger)}
}

func (v *VisualLinks) Fetch(ctx context.Context) ([]graph.VisualLink, error) {
	return v.fetch(ctx, func(ctx context.Context, s Scope) ([]graph.VisualLink, error) {
		return v.backend.FetchVisualLinks(ctx, s.Mode, s.Dataset, "")
	})
}

func (v *VisualLinks) Add(ctx context.Context, source, target, linkType string, metadata map[string]any) (graph.VisualLink, error) {
	return v.add(ctx,
		func(ds string) graph.VisualLink { return graph.NewVisualLink(ds, source, target, linkType, metadata) },
		v.backend.AddVisualLink,
	)
}

func (v *VisualLinks) Delete(ctx context.Context, id string) error {
	return v.remove(ctx, id, v.backend.DeleteVisualLink)
}

// Graph bundles the three mirrors of one dataset. It is the Mutator the
// graph operations run against when working on mirrored state.
type Graph struct {
	Nodes       *Nodes
	Links       *Links
	VisualLinks *VisualLinks
}

func NewGraph(backend Backend, logger *zap.Logger) *Graph {
	return &Graph{
		Nodes:       NewNodes(backend, logger),
		Links:       NewLinks(backend, logger),
		VisualLinks: NewVisualLinks(backend, logger),
	}
}

func (g *Graph) SetScope(s Scope) {
	g.Nodes.SetScope(s)
	g.Links.SetScope(s)
	g.VisualLinks.SetScope(s)
}

func (g *Graph) Bind(settings SettingsSource) {
	g.Nodes.Bind(settings)
	g.Links.Bind(settings)
	g.VisualLinks.Bind(settings)
}

// Fetch reloads all three mirrors from a single snapshot, so sync mode pulls
// once per call.
func (g *Graph) Fetch(ctx context.Context) error {
	scope := g.Nodes.Scope()
	if scope.Dataset == "" {
		g.reset(scope)
		return nil
	}

	snap, err := g.Nodes.backend.FetchSnapshot(ctx, scope.Mode, scope.Dataset)
	if err != nil {
		g.Nodes.logger.Error("Graph fetch failed",
			zap.String("mode", string(scope.Mode)),
			zap.String("dataset", scope.Dataset),
			zap.Error(err),
		)
		g.reset(scope)
		return err
	}

	g.Nodes.fill(scope, snap.Nodes)
	g.Links.fill(scope, snap.Links)
	g.VisualLinks.fill(scope, snap.VisualLinks)
	return nil
}

func (g *Graph) reset(scope Scope) {
	g.Nodes.reset(scope)
	g.Links.reset(scope)
	g.VisualLinks.reset(scope)
}

// Snapshot copies the mirrored state.
func (g *Graph) Snapshot() graph.Snapshot {
	return graph.Snapshot{
		Nodes:       g.Nodes.Items(),
		Links:       g.Links.Items(),
		VisualLinks: g.VisualLinks.Items(),
	}
}

func (g *Graph) AddNode(ctx context.Context, label string, level *int) (graph.Node, error) {
	return g.Nodes.Add(ctx, label, level)
}

func (g *Graph) AddLink(ctx context.Context, source, target, linkType string) (graph.Link, error) {
	return g.Links.Add(ctx, source, target, linkType)
}

func (g *Graph) DeleteNode(ctx context.Context, id string) error {
	return g.Nodes.Delete(ctx, id)
}

func (g *Graph) DeleteLink(ctx context.Context, id string) error {
	return g.Links.Delete(ctx, id)
}

func (g *Graph) DeleteVisualLink(ctx context.Context, id string) error {
	return g.VisualLinks.Delete(ctx, id)
}
