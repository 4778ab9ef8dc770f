package remote

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Fault lets tests fail chosen backend calls. A nil result lets the call
// through.
type Fault func(op string, c graph.Collection, id string) error

type table struct {
	rows  map[string]json.RawMessage
	order []string
}

// MemoryBackend keeps rows in process. It backs development setups and
// tests. Rows are returned in insertion order.
type MemoryBackend struct {
	mu     sync.RWMutex
	tables map[graph.Collection]*table
	fault  Fault
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	m := &MemoryBackend{tables: make(map[graph.Collection]*table)}
	for _, c := range graph.Collections {
		m.tables[c] = &table{rows: make(map[string]json.RawMessage)}
	}
	return m
}

func (m *MemoryBackend) Name() string { return "memory" }

// SetFault installs f, replacing any previous one.
func (m *MemoryBackend) SetFault(f Fault) {
	m.mu.Lock()
	m.fault = f
	m.mu.Unlock()
}

func (m *MemoryBackend) inject(op string, c graph.Collection, id string) error {
	m.mu.RLock()
	f := m.fault
	m.mu.RUnlock()
	if f == nil {
		return nil
	}
	return f(op, c, id)
}

func (m *MemoryBackend) Select(ctx context.Context, c graph.Collection, filters ...Filter) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.inject("select", c, ""); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.tables[c]
	out := make([]json.RawMessage, 0, len(t.order))
	for _, id := range t.order {
		raw := t.rows[id]
		if len(filters) > 0 {
			var row map[string]any
			if err := json.Unmarshal(raw, &row); err != nil {
				return nil, err
			}
			if !matches(row, filters) {
				continue
			}
		}
		out = append(out, append(json.RawMessage(nil), raw...))
	}
	return out, nil
}

func (m *MemoryBackend) Insert(ctx context.Context, row graph.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.inject("insert", row.Collection(), row.RecordID()); err != nil {
		return err
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tables[row.Collection()]
	if _, ok := t.rows[row.RecordID()]; ok {
		return appErrors.NewConflictError("duplicate id " + row.RecordID() + " in " + row.Collection().String())
	}
	t.rows[row.RecordID()] = raw
	t.order = append(t.order, row.RecordID())
	return nil
}

func (m *MemoryBackend) Update(ctx context.Context, row graph.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.inject("update", row.Collection(), row.RecordID()); err != nil {
		return err
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tables[row.Collection()]
	if _, ok := t.rows[row.RecordID()]; !ok {
		return appErrors.NewNotFoundError(row.Collection().String(), row.RecordID())
	}
	t.rows[row.RecordID()] = raw
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, c graph.Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.inject("delete", c, id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tables[c]
	if _, ok := t.rows[id]; !ok {
		return nil
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of rows held for c.
func (m *MemoryBackend) Len(c graph.Collection) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[c].rows)
}
