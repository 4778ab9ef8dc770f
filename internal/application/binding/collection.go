// Package binding keeps in-memory mirrors of a dataset's nodes, links and
// visual links, scoped to the selected (mode, dataset) pair and written
// through the mode adapter.
package binding

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Backend is the part of the mode adapter the collections use.
type Backend interface {
	FetchNodes(ctx context.Context, mode graph.DbMode, datasetID string) ([]graph.Node, error)
	FetchLinks(ctx context.Context, mode graph.DbMode, datasetID string) ([]graph.Link, error)
	FetchVisualLinks(ctx context.Context, mode graph.DbMode, datasetID, linkType string) ([]graph.VisualLink, error)
	FetchSnapshot(ctx context.Context, mode graph.DbMode, datasetID string) (graph.Snapshot, error)
	AddNode(ctx context.Context, mode graph.DbMode, n graph.Node) error
	AddLink(ctx context.Context, mode graph.DbMode, l graph.Link) error
	AddVisualLink(ctx context.Context, mode graph.DbMode, v graph.VisualLink) error
	DeleteNode(ctx context.Context, mode graph.DbMode, id string) error
	DeleteLink(ctx context.Context, mode graph.DbMode, id string) error
	DeleteVisualLink(ctx context.Context, mode graph.DbMode, id string) error
}

// SettingsSource publishes the selected mode and dataset.
type SettingsSource interface {
	Get() config.Settings
	OnChange(callback func(config.Settings))
}

// Scope is the (mode, dataset) pair a collection mirrors.
type Scope struct {
	Mode    graph.DbMode
	Dataset string
}

// ScopeOf extracts the scope from settings.
func ScopeOf(s config.Settings) Scope {
	return Scope{Mode: s.DbMode, Dataset: s.Dataset}
}

// collection is the mirror shared by the three entity kinds.
type collection[T graph.Record] struct {
	mu      sync.RWMutex
	scope   Scope
	items   []T
	backend Backend
	logger  *zap.Logger
}

func newCollection[T graph.Record](backend Backend, name string, logger *zap.Logger) *collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &collection[T]{
		backend: backend,
		items:   []T{},
		logger:  logger.Named("binding").With(zap.String("collection", name)),
	}
}

// SetScope points the mirror at another mode or dataset. A new scope drops
// the current items.
func (c *collection[T]) SetScope(s Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope != s {
		c.scope = s
		c.items = []T{}
	}
}

// Scope returns the current scope.
func (c *collection[T]) Scope() Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scope
}

// Bind follows the settings: the scope is taken from settings now and on
// every change. The callback re-reads settings so a late notification never
// applies a stale value.
func (c *collection[T]) Bind(settings SettingsSource) {
	c.SetScope(ScopeOf(settings.Get()))
	settings.OnChange(func(config.Settings) {
		c.SetScope(ScopeOf(settings.Get()))
	})
}

// Items returns a copy of the mirror.
func (c *collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *collection[T]) reset(scope Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope == scope {
		c.items = []T{}
	}
}

// fetch replaces the mirror with the result of load. The result is dropped
// when the scope moved while loading.
func (c *collection[T]) fetch(ctx context.Context, load func(ctx context.Context, s Scope) ([]T, error)) ([]T, error) {
	scope := c.Scope()
	if scope.Dataset == "" {
		c.reset(scope)
		return []T{}, nil
	}

	items, err := load(ctx, scope)
	if err != nil {
		c.logger.Error("Fetch failed",
			zap.String("mode", string(scope.Mode)),
			zap.String("dataset", scope.Dataset),
			zap.Error(err),
		)
		c.reset(scope)
		return nil, err
	}
	return c.fill(scope, items), nil
}

// fill stores items loaded for scope unless the scope moved meanwhile.
func (c *collection[T]) fill(scope Scope, items []T) []T {
	if items == nil {
		items = []T{}
	}
	c.mu.Lock()
	if c.scope == scope {
		c.items = items
	}
	c.mu.Unlock()
	return slices.Clone(items)
}

// add builds an entity for the current scope, writes it and appends it.
func (c *collection[T]) add(ctx context.Context, build func(datasetID string) T, write func(ctx context.Context, mode graph.DbMode, item T) error) (T, error) {
	var zero T
	scope := c.Scope()
	if scope.Dataset == "" {
		return zero, appErrors.NewValidationError("no dataset selected").WithCode(appErrors.CodeNoDataset)
	}

	item := build(scope.Dataset)
	if err := write(ctx, scope.Mode, item); err != nil {
		c.logger.Warn("Add failed", zap.String("id", item.RecordID()), zap.Error(err))
		return zero, err
	}

	c.mu.Lock()
	if c.scope == scope {
		c.items = append(c.items, item)
	}
	c.mu.Unlock()
	return item, nil
}

// remove deletes id and drops it from the mirror.
func (c *collection[T]) remove(ctx context.Context, id string, del func(ctx context.Context, mode graph.DbMode, id string) error) error {
	scope := c.Scope()
	if err := del(ctx, scope.Mode, id); err != nil {
		c.logger.Warn("Delete failed", zap.String("id", id), zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.items = slices.DeleteFunc(c.items, func(item T) bool { return item.RecordID() == id })
	c.mu.Unlock()
	return nil
}
