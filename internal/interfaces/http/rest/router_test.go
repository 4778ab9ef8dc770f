package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
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
	"github.com/thedub2001/skull01/internal/infrastructure/observability"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/remote"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/sqlite"
	"github.com/thedub2001/skull01/pkg/auth"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

type testServer struct {
	server  *httptest.Server
	local   *sqlite.Store
	backend *remote.MemoryBackend
	metrics *observability.Collector
}

func newTestServer(t *testing.T, validator *auth.Validator) *testServer {
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

	metrics := observability.NewCollector("mesh_test")
	engine := reconcile.NewEngine(local, rs, messaging.NopPublisher{}, reconcile.Options{Concurrency: 2}, logger)
	a := adapter.New(local, rs, engine, logger, adapter.WithMetrics(metrics))

	router := NewRouter(Dependencies{
		Adapter:  a,
		Engine:   engine,
		GraphOps: graphops.NewHandler(logger),
		Settings: settings,
		Metrics:  metrics,
		Auth:     validator,
		Logger:   logger,
	})
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	return &testServer{server: srv, local: local, backend: backend, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) createDataset(t *testing.T, query string) graph.Dataset {
	t.Helper()
	var ds graph.Dataset
	status := s.do(t, http.MethodPost, "/api/v1/datasets"+query, CreateDatasetRequest{Name: "ds1", User: "tester"}, &ds)
	require.Equal(t, http.StatusCreated, status)
	return ds
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	var body map[string]string
	status := s.do(t, http.MethodGet, "/health", nil, &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestDatasets_CreateAndList(t *testing.T) {
	s := newTestServer(t, nil)
	ds := s.createDataset(t, "")

	var list []graph.Dataset
	status := s.do(t, http.MethodGet, "/api/v1/datasets", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, ds.ID, list[0].ID)

	var got graph.Dataset
	status = s.do(t, http.MethodGet, "/api/v1/datasets/"+ds.ID, nil, &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ds1", got.Name)

	var missing ErrorResponse
	status = s.do(t, http.MethodGet, "/api/v1/datasets/nope", nil, &missing)
	assert.Equal(t, http.StatusNotFound, status)
	assert.True(t, missing.Error)
}

func TestDatasets_CreateValidation(t *testing.T) {
	s := newTestServer(t, nil)

	var body ErrorResponse
	status := s.do(t, http.MethodPost, "/api/v1/datasets", CreateDatasetRequest{}, &body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(appErrors.ErrorTypeValidation), body.Type)
}

func TestModeOverride_Unknown(t *testing.T) {
	s := newTestServer(t, nil)

	var body ErrorResponse
	status := s.do(t, http.MethodGet, "/api/v1/datasets?mode=cloud", nil, &body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, appErrors.CodeUnknownMode, body.Code)
}

func TestNodes_Lifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	ds := s.createDataset(t, "")
	base := "/api/v1/datasets/" + ds.ID

	var nodes []graph.Node
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/nodes", nil, &nodes))
	require.Len(t, nodes, 1)
	root := nodes[0]

	var child graphops.ChildResult
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/nodes/"+root.ID+"/children", nil, &child))
	assert.Equal(t, "Enfant de Root Node", child.Node.Label)
	assert.Equal(t, 1, graph.NodeLevel(child.Node))

	var updated graph.Node
	status := s.do(t, http.MethodPut, base+"/nodes/"+child.Node.ID, NodeRequest{Label: "renamed", Level: graph.Level(1)}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "renamed", updated.Label)

	var data graph.GraphData
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/graph", nil, &data))
	assert.Len(t, data.Nodes, 2)
	assert.Len(t, data.Links, 1)

	var types []string
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/link-types", nil, &types))
	assert.Equal(t, []string{graph.LinkTypeParentChild}, types)

	var result graphops.DeleteResult
	status = s.do(t, http.MethodDelete, base+"/nodes/"+root.ID+"?recursive=true", nil, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, result.Nodes, 2)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/nodes", nil, &nodes))
	assert.Empty(t, nodes)
}

func TestNodes_AddChildMissingParent(t *testing.T) {
	s := newTestServer(t, nil)
	ds := s.createDataset(t, "")

	var body ErrorResponse
	status := s.do(t, http.MethodPost, "/api/v1/datasets/"+ds.ID+"/nodes/ghost/children", nil, &body)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, appErrors.CodeParentMissing, body.Code)
}

func TestLinksAndVisualLinks(t *testing.T) {
	s := newTestServer(t, nil)
	ds := s.createDataset(t, "")
	base := "/api/v1/datasets/" + ds.ID

	var a, b graph.Node
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/nodes", NodeRequest{Label: "a"}, &a))
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/nodes", NodeRequest{Label: "b"}, &b))

	var link graph.Link
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/links", LinkRequest{Source: a.ID, Target: b.ID, Type: "related"}, &link))

	var bad ErrorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, base+"/links", LinkRequest{Source: a.ID}, &bad))

	note := "note"
	var vl graph.VisualLink
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/visual-links",
		VisualLinkRequest{Source: a.ID, Target: b.ID, Type: &note, Metadata: map[string]any{"color": "red"}}, &vl))
	var untyped graph.VisualLink
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/visual-links",
		VisualLinkRequest{Source: b.ID, Target: a.ID}, &untyped))
	assert.Nil(t, untyped.Type)

	var filtered []graph.VisualLink
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/visual-links?type=note", nil, &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, vl.ID, filtered[0].ID)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, base+"/visual-links/"+vl.ID, nil, nil))
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, base+"/links/"+link.ID, nil, nil))

	var links []graph.Link
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/links", nil, &links))
	assert.Empty(t, links)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t, nil)

	var current config.Settings
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/settings", nil, &current))
	assert.Equal(t, graph.ModeLocal, current.DbMode)

	mode, ds := "REMOTE", "ds9"
	var updated config.Settings
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/settings", SettingsRequest{DbMode: &mode, Dataset: &ds}, &updated))
	assert.Equal(t, config.Settings{DbMode: graph.ModeRemote, Dataset: "ds9"}, updated)

	bogus := "cloud"
	var body ErrorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/v1/settings", SettingsRequest{DbMode: &bogus}, &body))
}

func TestSettingsModeDrivesRouting(t *testing.T) {
	s := newTestServer(t, nil)
	mode := "remote"
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/settings", SettingsRequest{DbMode: &mode}, nil))

	s.createDataset(t, "")

	assert.Equal(t, 1, s.backend.Len(graph.CollectionDatasets))
	var local []graph.Dataset
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/datasets?mode=local", nil, &local))
	assert.Empty(t, local)
}

func TestSync_PushPartialRetryAndPull(t *testing.T) {
	s := newTestServer(t, nil)
	ds := s.createDataset(t, "")
	base := "/api/v1/datasets/" + ds.ID

	var nodes []graph.Node
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/nodes", nil, &nodes))
	root := nodes[0]

	s.backend.SetFault(func(op string, _ graph.Collection, id string) error {
		if op == "insert" && id == root.ID {
			return appErrors.NewConflictError("rejected")
		}
		return nil
	})

	var partial SyncResponse
	require.Equal(t, http.StatusMultiStatus, s.do(t, http.MethodPost, base+"/sync/push", nil, &partial))
	assert.True(t, partial.Partial)
	assert.Equal(t, 0, s.backend.Len(graph.CollectionNodes))

	s.backend.SetFault(nil)
	var retried SyncResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, base+"/sync/push?retry=true", nil, &retried))
	assert.False(t, retried.Partial)
	assert.Equal(t, 1, s.backend.Len(graph.CollectionNodes))

	var none ErrorResponse
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, base+"/sync/push?retry=true", nil, &none))

	var created graph.Node
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/nodes?mode=remote", NodeRequest{Label: "remote only"}, &created))

	var pulled SyncResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, base+"/sync/pull", nil, &pulled))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/nodes", nil, &nodes))
	assert.Len(t, nodes, 2)
}

func TestSync_PullUnavailable(t *testing.T) {
	s := newTestServer(t, nil)
	s.backend.SetFault(func(string, graph.Collection, string) error {
		return appErrors.NewUnavailableError("memory")
	})

	var body ErrorResponse
	status := s.do(t, http.MethodPost, "/api/v1/datasets/ds1/sync/pull", nil, &body)

	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestAuthentication(t *testing.T) {
	validator, err := auth.NewValidator("secret", "")
	require.NoError(t, err)
	s := newTestServer(t, validator)

	resp, err := http.Get(s.server.URL + "/api/v1/datasets")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := auth.Sign("secret", "", "user-1", time.Minute)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/v1/datasets", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil, &health), "health stays open")
}

func TestSwaggerAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)
	s.createDataset(t, "")

	resp, err := http.Get(s.server.URL + "/swagger/doc.json")
	require.NoError(t, err)
	doc, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, json.Valid(doc))
	assert.Contains(t, string(doc), "/datasets/{datasetID}/sync/push")

	resp, err = http.Get(s.server.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "mesh_test_graph_mutations_total"))
}
