package remote

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/supabase-community/supabase-go"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Postgres SQLSTATE for a unique violation, as echoed by the REST layer.
const uniqueViolation = "23505"

// SupabaseBackend talks to the hosted Postgres REST endpoint. Tables are named
// after the collections.
type SupabaseBackend struct {
	client *supabase.Client
}

// NewSupabaseBackend builds a client for url authenticated with key.
func NewSupabaseBackend(url, key string) (*SupabaseBackend, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, appErrors.NewExternalError("supabase", err)
	}
	return &SupabaseBackend{client: client}, nil
}

func (b *SupabaseBackend) Name() string { return "supabase" }

func (b *SupabaseBackend) Select(ctx context.Context, c graph.Collection, filters ...Filter) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := b.client.From(c.String()).Select("*", "", false)
	for _, f := range filters {
		q = q.Eq(f.Column, f.Value)
	}

	var rows []json.RawMessage
	if _, err := q.ExecuteTo(&rows); err != nil {
		return nil, classifyPostgrest(err)
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	return rows, nil
}

func (b *SupabaseBackend) Insert(ctx context.Context, row graph.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := b.client.From(row.Collection().String()).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return classifyPostgrest(err)
	}
	return nil
}

func (b *SupabaseBackend) Update(ctx context.Context, row graph.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, _, err := b.client.From(row.Collection().String()).
		Update(row, "representation", "").
		Eq("id", row.RecordID()).
		Execute()
	if err != nil {
		return classifyPostgrest(err)
	}

	var updated []json.RawMessage
	if err := json.Unmarshal(body, &updated); err != nil {
		return err
	}
	if len(updated) == 0 {
		return appErrors.NewNotFoundError(row.Collection().String(), row.RecordID())
	}
	return nil
}

func (b *SupabaseBackend) Delete(ctx context.Context, c graph.Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := b.client.From(c.String()).
		Delete("", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return classifyPostgrest(err)
	}
	return nil
}

// classifyPostgrest maps REST errors the caller can act on to AppErrors and
// passes the rest through untouched.
func classifyPostgrest(err error) error {
	if strings.Contains(err.Error(), uniqueViolation) {
		return appErrors.NewConflictError("duplicate key").WithCause(err)
	}
	return err
}
