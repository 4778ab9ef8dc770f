package graphops

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/adapter"
	"github.com/thedub2001/skull01/internal/domain/graph"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/sqlite"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// recorder wraps a Mutator, logs every delete and fails the ones listed in
// fail.
type recorder struct {
	Mutator
	deletes []string
	fail    map[string]error
}

func (r *recorder) record(kind, id string) error {
	key := kind + ":" + id
	if err, ok := r.fail[key]; ok {
		return err
	}
	r.deletes = append(r.deletes, key)
	return nil
}

func (r *recorder) DeleteNode(ctx context.Context, id string) error {
	if err := r.record("node", id); err != nil {
		return err
	}
	return r.Mutator.DeleteNode(ctx, id)
}

func (r *recorder) DeleteLink(ctx context.Context, id string) error {
	if err := r.record("link", id); err != nil {
		return err
	}
	return r.Mutator.DeleteLink(ctx, id)
}

func (r *recorder) DeleteVisualLink(ctx context.Context, id string) error {
	if err := r.record("visual", id); err != nil {
		return err
	}
	return r.Mutator.DeleteVisualLink(ctx, id)
}

// failingLinks refuses every AddLink.
type failingLinks struct {
	Mutator
}

func (failingLinks) AddLink(context.Context, string, string, string) (graph.Link, error) {
	return graph.Link{}, appErrors.NewDatabaseError("put", errors.New("locked"))
}

func newScope(t *testing.T) (adapter.Scoped, graph.Dataset) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.MemoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ds, err := store.CreateLocalDataset(ctx, "ds1", "tester")
	require.NoError(t, err)

	a := adapter.New(store, nil, nil, zap.NewNop())
	return a.Scope(graph.ModeLocal, ds.ID), ds
}

func snapshot(t *testing.T, s adapter.Scoped) graph.Snapshot {
	t.Helper()
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func rootOf(t *testing.T, snap graph.Snapshot) graph.Node {
	t.Helper()
	for _, n := range snap.Nodes {
		if n.Type == graph.RootNodeType {
			return n
		}
	}
	t.Fatal("no root node")
	return graph.Node{}
}

func TestAddChildNode(t *testing.T) {
	ctx := context.Background()
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())
	root := rootOf(t, snapshot(t, s))

	res, err := h.AddChildNode(ctx, s, root.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)

	assert.Equal(t, "Enfant de Root Node", res.Node.Label)
	assert.Equal(t, 1, graph.NodeLevel(res.Node))
	assert.Equal(t, root.ID, res.Link.Source)
	assert.Equal(t, res.Node.ID, res.Link.Target)
	assert.Equal(t, graph.LinkTypeParentChild, res.Link.Type)

	grand, err := h.AddChildNode(ctx, s, res.Node.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)
	assert.Equal(t, "Enfant de Enfant de Root Node", grand.Node.Label)
	assert.Equal(t, 2, graph.NodeLevel(grand.Node))

	snap := snapshot(t, s)
	assert.Len(t, snap.Nodes, 3)
	assert.Len(t, snap.Links, 2)
}

func TestAddChildNode_MissingParent(t *testing.T) {
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())

	_, err := h.AddChildNode(context.Background(), s, "ghost", snapshot(t, s).Nodes)

	assert.True(t, appErrors.IsNotFound(err))
	assert.True(t, appErrors.HasCode(err, appErrors.CodeParentMissing))
	assert.Len(t, snapshot(t, s).Nodes, 1, "nothing created")
}

func TestAddChildNode_LinkFailureRemovesChild(t *testing.T) {
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())
	root := rootOf(t, snapshot(t, s))

	_, err := h.AddChildNode(context.Background(), failingLinks{s}, root.ID, snapshot(t, s).Nodes)

	require.Error(t, err)
	snap := snapshot(t, s)
	assert.Len(t, snap.Nodes, 1)
	assert.Empty(t, snap.Links)
}

func TestDeleteNode_RemovesEdgesThenNode(t *testing.T) {
	ctx := context.Background()
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())
	root := rootOf(t, snapshot(t, s))
	child, err := h.AddChildNode(ctx, s, root.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)
	vl, err := s.AddVisualLink(ctx, child.Node.ID, root.ID, "see-also", nil)
	require.NoError(t, err)

	rec := &recorder{Mutator: s}
	res, err := h.DeleteNode(ctx, rec, child.Node.ID, snapshot(t, s))
	require.NoError(t, err)

	assert.Equal(t, []string{"link:" + child.Link.ID, "visual:" + vl.ID, "node:" + child.Node.ID}, rec.deletes)
	assert.Equal(t, []string{child.Node.ID}, res.Nodes)

	snap := snapshot(t, s)
	assert.Len(t, snap.Nodes, 1)
	assert.Empty(t, snap.Links)
	assert.Empty(t, snap.VisualLinks)
}

func TestDeleteNode_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())
	root := rootOf(t, snapshot(t, s))
	child, err := h.AddChildNode(ctx, s, root.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)

	boom := appErrors.NewUnavailableError("remote")
	rec := &recorder{Mutator: s, fail: map[string]error{"link:" + child.Link.ID: boom}}
	_, err = h.DeleteNode(ctx, rec, child.Node.ID, snapshot(t, s))

	assert.True(t, appErrors.IsUnavailable(err))
	assert.Empty(t, rec.deletes)
	assert.Len(t, snapshot(t, s).Nodes, 2, "node kept")
}

func TestDeleteNodeRecursive_EmptiesSubtree(t *testing.T) {
	ctx := context.Background()
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())
	root := rootOf(t, snapshot(t, s))

	child, err := h.AddChildNode(ctx, s, root.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)
	_, err = h.AddChildNode(ctx, s, child.Node.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)
	_, err = h.AddChildNode(ctx, s, root.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)

	rec := &recorder{Mutator: s}
	res, err := h.DeleteNodeRecursive(ctx, rec, root.ID, snapshot(t, s))
	require.NoError(t, err)

	snap := snapshot(t, s)
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Links)
	assert.Len(t, res.Nodes, 4)
	assert.Len(t, res.Links, 3)
	assert.Equal(t, root.ID, res.Nodes[len(res.Nodes)-1], "root goes last")

	seen := map[string]bool{}
	for _, d := range rec.deletes {
		assert.False(t, seen[d], "deleted twice: %s", d)
		seen[d] = true
	}
}

func TestDeleteNodeRecursive_KeepsSiblings(t *testing.T) {
	ctx := context.Background()
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())
	root := rootOf(t, snapshot(t, s))

	a, err := h.AddChildNode(ctx, s, root.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)
	b, err := h.AddChildNode(ctx, s, root.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)
	_, err = h.AddChildNode(ctx, s, a.Node.ID, snapshot(t, s).Nodes)
	require.NoError(t, err)

	_, err = h.DeleteNodeRecursive(ctx, s, a.Node.ID, snapshot(t, s))
	require.NoError(t, err)

	snap := snapshot(t, s)
	var ids []string
	for _, n := range snap.Nodes {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{root.ID, b.Node.ID}, ids)
	require.Len(t, snap.Links, 1)
	assert.Equal(t, b.Link.ID, snap.Links[0].ID)
}

func TestDeleteNodeRecursive_Cycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())

	x, err := s.AddNode(ctx, "x", nil)
	require.NoError(t, err)
	y, err := s.AddNode(ctx, "y", nil)
	require.NoError(t, err)
	_, err = s.AddLink(ctx, x.ID, y.ID, graph.LinkTypeParentChild)
	require.NoError(t, err)
	_, err = s.AddLink(ctx, y.ID, x.ID, graph.LinkTypeParentChild)
	require.NoError(t, err)

	res, err := h.DeleteNodeRecursive(ctx, s, x.ID, snapshot(t, s))
	require.NoError(t, err)

	assert.Equal(t, []string{y.ID, x.ID}, res.Nodes)
	assert.Len(t, res.Links, 2)
}

func TestDeleteNodeRecursive_IgnoresOtherLinkTypes(t *testing.T) {
	ctx := context.Background()
	s, _ := newScope(t)
	h := NewHandler(zap.NewNop())

	x, err := s.AddNode(ctx, "x", nil)
	require.NoError(t, err)
	y, err := s.AddNode(ctx, "y", nil)
	require.NoError(t, err)
	_, err = s.AddLink(ctx, x.ID, y.ID, "related")
	require.NoError(t, err)

	_, err = h.DeleteNodeRecursive(ctx, s, x.ID, snapshot(t, s))
	require.NoError(t, err)

	snap := snapshot(t, s)
	found := false
	for _, n := range snap.Nodes {
		found = found || n.ID == y.ID
	}
	assert.True(t, found, "y survives")
	assert.Empty(t, snap.Links, "edge touching x removed")
}
