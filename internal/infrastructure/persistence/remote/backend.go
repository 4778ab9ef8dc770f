// Package remote implements the hosted graph store.
//
// A Store speaks to one Backend (the hosted Postgres REST endpoint, a DynamoDB
// table or an in-process map) through a circuit breaker and a retry loop, and
// decodes the raw rows into graph entities.
package remote

import (
	"context"
	"encoding/json"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

// Backend is the row-level contract of a hosted provider. Rows travel as JSON
// documents so every provider shares one decoding path.
//
// Insert fails with a CONFLICT AppError when the id already exists. Update
// fails with NOT_FOUND when it matches no row. Delete of a missing row is not
// an error.
type Backend interface {
	Name() string
	Select(ctx context.Context, c graph.Collection, filters ...Filter) ([]json.RawMessage, error)
	Insert(ctx context.Context, row graph.Record) error
	Update(ctx context.Context, row graph.Record) error
	Delete(ctx context.Context, c graph.Collection, id string) error
}

// Filter is an equality predicate on one column.
type Filter struct {
	Column string
	Value  string
}

// Eq builds an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

// matches reports whether a decoded row satisfies every filter. Missing and
// null columns only match an empty value.
func matches(row map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, _ := row[f.Column].(string)
		if v != f.Value {
			return false
		}
	}
	return true
}
