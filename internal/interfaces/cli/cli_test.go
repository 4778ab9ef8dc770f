package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/adapter"
	"github.com/thedub2001/skull01/internal/application/graphops"
	"github.com/thedub2001/skull01/internal/application/reconcile"
	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/domain/graph"
	"github.com/thedub2001/skull01/internal/infrastructure/messaging"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/remote"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/sqlite"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

type harness struct {
	app     *App
	backend *remote.MemoryBackend
	remote  *remote.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	local, err := sqlite.Open(ctx, sqlite.MemoryPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	backend := remote.NewMemoryBackend()
	rs := remote.NewStore(backend, remote.Options{
		Breaker: config.Breaker{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureRatio: 1, MinimumRequests: 1000},
	}, logger)

	settings, err := config.OpenSettings(filepath.Join(t.TempDir(), "settings.yaml"), logger)
	require.NoError(t, err)

	engine := reconcile.NewEngine(local, rs, messaging.NopPublisher{}, reconcile.Options{Concurrency: 2}, logger)
	return &harness{
		app: &App{
			Adapter:  adapter.New(local, rs, engine, logger),
			Engine:   engine,
			GraphOps: graphops.NewHandler(logger),
			Local:    local,
			Settings: settings,
			Logger:   logger,
		},
		backend: backend,
		remote:  rs,
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	c := New(func(context.Context, string) (*App, func(), error) {
		return h.app, func() {}, nil
	})
	c.Command().SetOut(&buf)
	c.Command().SetErr(&buf)
	err := c.Execute(context.Background(), args)
	return buf.String(), err
}

func (h *harness) dataset(t *testing.T, name string) graph.Dataset {
	t.Helper()
	ds, err := h.app.Adapter.CreateDataset(context.Background(), graph.ModeLocal, name, "tester")
	require.NoError(t, err)
	return ds
}

func (h *harness) root(t *testing.T, datasetID string) graph.Node {
	t.Helper()
	nodes, err := h.app.Local.Nodes(context.Background(), datasetID)
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	return nodes[0]
}

func TestDatasets_CreateAndList(t *testing.T) {
	h := newHarness(t)

	output, err := h.run(t, "datasets", "create", "notes", "--user", "ada")
	require.NoError(t, err)
	assert.Contains(t, output, "Created dataset")

	output, err = h.run(t, "datasets", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "notes")
	assert.Contains(t, output, "ada")
}

func TestDatasets_ListEmpty(t *testing.T) {
	h := newHarness(t)

	output, err := h.run(t, "ds", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "No datasets")
}

func TestModeFlag_Unknown(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "--mode", "cloud", "datasets", "list")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.CodeUnknownMode))
}

func TestModeFlag_OverridesSettings(t *testing.T) {
	h := newHarness(t)
	h.dataset(t, "local-only")

	output, err := h.run(t, "--mode", "remote", "datasets", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "No datasets")
}

func TestPushThenReadRemote(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "shared")

	_, err := h.run(t, "nodes", "add-child", ds.ID, h.root(t, ds.ID).ID)
	require.NoError(t, err)

	output, err := h.run(t, "push", ds.ID)
	require.NoError(t, err)
	assert.Contains(t, output, "push "+ds.ID)
	assert.Equal(t, 2, h.backend.Len(graph.CollectionNodes))

	output, err = h.run(t, "--mode", "remote", "nodes", "list", ds.ID)
	require.NoError(t, err)
	assert.Contains(t, output, graph.ChildLabelPrefix+graph.RootNodeLabel)
}

func TestPush_PartialFailsWithoutRetry(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "flaky")
	victim := h.root(t, ds.ID).ID
	h.backend.SetFault(func(op string, _ graph.Collection, id string) error {
		if op == "insert" && id == victim {
			return appErrors.NewConflictError("rejected by backend")
		}
		return nil
	})

	output, err := h.run(t, "push", ds.ID)

	require.Error(t, err)
	assert.True(t, reconcile.IsPartialSync(err))
	assert.Contains(t, output, "failed insert nodes/"+victim)
}

func TestPush_RetryReplaysFailedOperations(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "flaky")
	victim := h.root(t, ds.ID).ID
	var failed atomic.Bool
	h.backend.SetFault(func(op string, _ graph.Collection, id string) error {
		if op == "insert" && id == victim && failed.CompareAndSwap(false, true) {
			return appErrors.NewConflictError("rejected by backend")
		}
		return nil
	})

	output, err := h.run(t, "push", ds.ID, "--retry")

	require.NoError(t, err)
	assert.Contains(t, output, "Retrying 1 failed operations")
	nodes, err := h.remote.Nodes(context.Background(), ds.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, victim, nodes[0].ID)
}

func TestPull_ReplacesLocalRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ds, err := h.remote.CreateRemoteDataset(ctx, "hosted", "u")
	require.NoError(t, err)

	output, err := h.run(t, "pull", ds.ID)
	require.NoError(t, err)
	assert.Contains(t, output, "pull "+ds.ID)

	nodes, err := h.app.Local.Nodes(ctx, ds.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestPull_RemoteUnavailable(t *testing.T) {
	h := newHarness(t)
	h.backend.SetFault(func(string, graph.Collection, string) error {
		return errors.New("connection refused")
	})

	_, err := h.run(t, "pull", "missing")
	assert.Error(t, err)
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "source")
	_, err := h.run(t, "nodes", "add-child", ds.ID, h.root(t, ds.ID).ID)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "snapshot.json")
	output, err := h.run(t, "export", ds.ID, "-o", file)
	require.NoError(t, err)
	assert.Contains(t, output, "Exported 3 rows")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"visual_links"`)

	output, err = h.run(t, "import", "copy", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, output, "Imported 3 rows into copy")

	nodes, err := h.app.Local.Nodes(context.Background(), "copy")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestExport_Stdout(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "printed")

	output, err := h.run(t, "export", ds.ID)
	require.NoError(t, err)
	assert.Contains(t, output, `"nodes"`)
	assert.Contains(t, output, graph.RootNodeLabel)
}

func TestImport_RequiresFile(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "import", "copy")
	assert.ErrorContains(t, err, `required flag(s) "file" not set`)
}

// failingCloser accepts writes and fails on Close, like a file whose buffered
// data cannot be flushed.
type failingCloser struct {
	bytes.Buffer
	err error
}

func (f *failingCloser) Close() error { return f.err }

func TestWriteSnapshot_ReportsCloseError(t *testing.T) {
	boom := errors.New("disk full")
	w := &failingCloser{err: boom}

	err := writeSnapshot(w, graph.Snapshot{Nodes: []graph.Node{graph.NewNode("ds", "a", nil)}})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, w.String(), `"nodes"`)
}

func TestExport_UnwritableTarget(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "nowhere")

	_, err := h.run(t, "export", ds.ID, "-o", t.TempDir())

	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	h.dataset(t, "doomed")

	_, err := h.run(t, "reset")
	require.ErrorContains(t, err, "--yes")
	_, err = h.app.Local.Datasets(context.Background())
	require.NoError(t, err)

	output, err := h.run(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted local store")
	_, err = h.app.Local.Datasets(context.Background())
	assert.True(t, appErrors.IsUnavailable(err))
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "counted")

	output, err := h.run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, output, "Schema version")
	assert.Contains(t, output, "datasets:")
	assert.Contains(t, output, ds.ID+"  1")
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	output, err := h.run(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, output, "Mode:    local")
	assert.Contains(t, output, "(none)")

	_, err = h.run(t, "settings", "set", "--mode", "sync", "--dataset", "ds-1")
	require.NoError(t, err)
	assert.Equal(t, config.Settings{DbMode: graph.ModeSync, Dataset: "ds-1"}, h.app.Settings.Get())

	_, err = h.run(t, "settings", "set", "--dataset", "")
	require.NoError(t, err)
	assert.Equal(t, config.Settings{DbMode: graph.ModeSync}, h.app.Settings.Get())

	_, err = h.run(t, "settings", "set")
	assert.ErrorContains(t, err, "nothing to set")

	_, err = h.run(t, "settings", "set", "--mode", "cloud")
	assert.True(t, appErrors.HasCode(err, appErrors.CodeUnknownMode))
}

func TestSettings_ModeDrivesCommands(t *testing.T) {
	h := newHarness(t)
	h.dataset(t, "local-only")

	_, err := h.run(t, "settings", "set", "--mode", "remote")
	require.NoError(t, err)

	output, err := h.run(t, "datasets", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "No datasets")
}

func TestNodes_DeleteRecursive(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "tree")
	root := h.root(t, ds.ID)

	ctx := context.Background()
	child, err := h.app.GraphOps.AddChildNode(ctx, h.app.Adapter.Scope(graph.ModeLocal, ds.ID), root.ID, []graph.Node{root})
	require.NoError(t, err)
	_, err = h.app.GraphOps.AddChildNode(ctx, h.app.Adapter.Scope(graph.ModeLocal, ds.ID), child.Node.ID, []graph.Node{root, child.Node})
	require.NoError(t, err)

	output, err := h.run(t, "nodes", "delete", ds.ID, root.ID, "--recursive")
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted 3 nodes, 2 links")

	nodes, err := h.app.Local.Nodes(ctx, ds.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestNodes_DeleteKeepsChildren(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "tree")
	root := h.root(t, ds.ID)
	_, err := h.run(t, "nodes", "add-child", ds.ID, root.ID)
	require.NoError(t, err)

	output, err := h.run(t, "nodes", "delete", ds.ID, root.ID)
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted 1 nodes, 1 links")

	nodes, err := h.app.Local.Nodes(context.Background(), ds.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestNodes_AddChildMissingParent(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "tree")

	_, err := h.run(t, "nodes", "add-child", ds.ID, "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.CodeParentMissing))
}

func TestNodes_List(t *testing.T) {
	h := newHarness(t)
	ds := h.dataset(t, "listed")

	output, err := h.run(t, "nodes", "list", ds.ID)
	require.NoError(t, err)
	assert.Contains(t, output, "LABEL")
	assert.Contains(t, output, graph.RootNodeLabel)
}

func TestOpenerFailure(t *testing.T) {
	c := New(func(context.Context, string) (*App, func(), error) {
		return nil, nil, errors.New("no config")
	})
	c.Command().SetOut(&bytes.Buffer{})
	c.Command().SetErr(&bytes.Buffer{})

	err := c.Execute(context.Background(), []string{"stats"})
	assert.ErrorContains(t, err, "initialize: no config")
}

func TestHelpSkipsInitialization(t *testing.T) {
	opened := false
	c := New(func(context.Context, string) (*App, func(), error) {
		opened = true
		return nil, nil, errors.New("unreachable")
	})
	var buf bytes.Buffer
	c.Command().SetOut(&buf)

	require.NoError(t, c.Execute(context.Background(), []string{"--help"}))
	assert.False(t, opened)
	assert.Contains(t, buf.String(), "meshctl")
}

func TestReleaseRunsAfterExecute(t *testing.T) {
	h := newHarness(t)
	released := false
	c := New(func(context.Context, string) (*App, func(), error) {
		return h.app, func() { released = true }, nil
	})
	c.Command().SetOut(&bytes.Buffer{})

	require.NoError(t, c.Execute(context.Background(), []string{"settings", "show"}))
	assert.True(t, released)
}
