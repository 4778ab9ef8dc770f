package adapter

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/thedub2001/skull01/internal/application/reconcile"
	"github.com/thedub2001/skull01/internal/domain/graph"
)

// callLog records the order in which the stores were hit.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// mockStore implements both ports.LocalStore and ports.RemoteStore.
type mockStore struct {
	mock.Mock
	name string
	log  *callLog
}

func newMockStore(name string, log *callLog) *mockStore {
	return &mockStore{name: name, log: log}
}

func (m *mockStore) called(method string, args ...any) mock.Arguments {
	m.log.add(m.name + "." + method)
	return m.MethodCalled(method, args...)
}

// stubAll lets every method succeed with empty results unless a test set a
// more specific expectation first.
func (m *mockStore) stubAll() {
	any2 := []any{mock.Anything, mock.Anything}
	m.On("Nodes", any2...).Return([]graph.Node{}, nil).Maybe()
	m.On("Links", any2...).Return([]graph.Link{}, nil).Maybe()
	m.On("VisualLinks", mock.Anything, mock.Anything, mock.Anything).Return([]graph.VisualLink{}, nil).Maybe()
	m.On("Dataset", any2...).Return(graph.Dataset{}, nil).Maybe()
	m.On("Datasets", mock.Anything).Return([]graph.Dataset{}, nil).Maybe()
	for _, method := range []string{
		"AddNode", "UpdateNode", "DeleteNode",
		"AddLink", "UpdateLink", "DeleteLink",
		"AddVisualLink", "UpdateVisualLink", "DeleteVisualLink",
		"AddDataset", "DeleteDataset",
	} {
		m.On(method, any2...).Return(nil).Maybe()
	}
}

func (m *mockStore) Nodes(ctx context.Context, ds string) ([]graph.Node, error) {
	args := m.called("Nodes", ctx, ds)
	return args.Get(0).([]graph.Node), args.Error(1)
}

func (m *mockStore) Links(ctx context.Context, ds string) ([]graph.Link, error) {
	args := m.called("Links", ctx, ds)
	return args.Get(0).([]graph.Link), args.Error(1)
}

func (m *mockStore) VisualLinks(ctx context.Context, ds, linkType string) ([]graph.VisualLink, error) {
	args := m.called("VisualLinks", ctx, ds, linkType)
	return args.Get(0).([]graph.VisualLink), args.Error(1)
}

func (m *mockStore) Dataset(ctx context.Context, id string) (graph.Dataset, error) {
	args := m.called("Dataset", ctx, id)
	return args.Get(0).(graph.Dataset), args.Error(1)
}

func (m *mockStore) Datasets(ctx context.Context) ([]graph.Dataset, error) {
	args := m.called("Datasets", ctx)
	return args.Get(0).([]graph.Dataset), args.Error(1)
}

func (m *mockStore) AddNode(ctx context.Context, n graph.Node) error {
	return m.called("AddNode", ctx, n).Error(0)
}

func (m *mockStore) UpdateNode(ctx context.Context, n graph.Node) error {
	return m.called("UpdateNode", ctx, n).Error(0)
}

func (m *mockStore) DeleteNode(ctx context.Context, id string) error {
	return m.called("DeleteNode", ctx, id).Error(0)
}

func (m *mockStore) AddLink(ctx context.Context, l graph.Link) error {
	return m.called("AddLink", ctx, l).Error(0)
}

func (m *mockStore) UpdateLink(ctx context.Context, l graph.Link) error {
	return m.called("UpdateLink", ctx, l).Error(0)
}

func (m *mockStore) DeleteLink(ctx context.Context, id string) error {
	return m.called("DeleteLink", ctx, id).Error(0)
}

func (m *mockStore) AddVisualLink(ctx context.Context, v graph.VisualLink) error {
	return m.called("AddVisualLink", ctx, v).Error(0)
}

func (m *mockStore) UpdateVisualLink(ctx context.Context, v graph.VisualLink) error {
	return m.called("UpdateVisualLink", ctx, v).Error(0)
}

func (m *mockStore) DeleteVisualLink(ctx context.Context, id string) error {
	return m.called("DeleteVisualLink", ctx, id).Error(0)
}

func (m *mockStore) AddDataset(ctx context.Context, d graph.Dataset) error {
	return m.called("AddDataset", ctx, d).Error(0)
}

func (m *mockStore) DeleteDataset(ctx context.Context, id string) error {
	return m.called("DeleteDataset", ctx, id).Error(0)
}

func (m *mockStore) Export(ctx context.Context, ds string) (graph.Snapshot, error) {
	args := m.called("Export", ctx, ds)
	return args.Get(0).(graph.Snapshot), args.Error(1)
}

func (m *mockStore) Import(ctx context.Context, snap graph.Snapshot, ds string) error {
	return m.called("Import", ctx, snap, ds).Error(0)
}

func (m *mockStore) ReplaceDataset(ctx context.Context, ds string, snap graph.Snapshot) error {
	return m.called("ReplaceDataset", ctx, ds, snap).Error(0)
}

func (m *mockStore) CreateLocalDataset(ctx context.Context, name, user string) (graph.Dataset, error) {
	args := m.called("CreateLocalDataset", ctx, name, user)
	return args.Get(0).(graph.Dataset), args.Error(1)
}

func (m *mockStore) CreateRemoteDataset(ctx context.Context, name, user string) (graph.Dataset, error) {
	args := m.called("CreateRemoteDataset", ctx, name, user)
	return args.Get(0).(graph.Dataset), args.Error(1)
}

type mockPuller struct {
	mock.Mock
	log *callLog
}

func (m *mockPuller) Pull(ctx context.Context, ds string) (*reconcile.Report, error) {
	m.log.add("pull")
	args := m.Called(ctx, ds)
	report, _ := args.Get(0).(*reconcile.Report)
	return report, args.Error(1)
}
