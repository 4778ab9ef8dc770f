package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Entity constrains the generic collection helpers to the four persisted
// entity types.
type Entity interface {
	graph.Node | graph.Link | graph.VisualLink | graph.Dataset
	graph.Record
}

func collectionOf[T Entity]() graph.Collection {
	var zero T
	return zero.Collection()
}

// All returns every row of T's collection regardless of dataset.
func All[T Entity](ctx context.Context, s *Store) ([]T, error) {
	c := collectionOf[T]()
	db, release, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT data FROM %s ORDER BY rowid`, c))
	if err != nil {
		return nil, appErrors.NewDatabaseError("get all "+string(c), err)
	}
	out, err := scanRecords[T](rows)
	if err != nil {
		return nil, appErrors.NewDatabaseError("get all "+string(c), err)
	}
	return out, nil
}

// ByDataset returns the rows of T's collection that belong to datasetID. It
// reads through the by_dataset index; stores created before the index existed
// fall back to a full scan filtered on each row's dataset field.
func ByDataset[T Entity](ctx context.Context, s *Store, datasetID string) ([]T, error) {
	c := collectionOf[T]()
	if !c.DatasetScoped() {
		return nil, appErrors.NewValidationError(fmt.Sprintf("collection %s is not dataset scoped", c))
	}

	if !s.hasIndex(c) {
		s.logger.Warn("Index by_dataset missing, falling back to full scan",
			zap.String("collection", string(c)),
			zap.String("dataset", datasetID),
		)
		all, err := All[T](ctx, s)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(all))
		for _, v := range all {
			if v.DatasetID() == datasetID {
				out = append(out, v)
			}
		}
		return out, nil
	}

	db, release, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT data FROM %s INDEXED BY %s WHERE dataset = ? ORDER BY rowid`, c, indexName(c)),
		datasetID,
	)
	if err != nil {
		return nil, appErrors.NewDatabaseError("get by dataset "+string(c), err)
	}
	out, err := scanRecords[T](rows)
	if err != nil {
		return nil, appErrors.NewDatabaseError("get by dataset "+string(c), err)
	}
	return out, nil
}

// Put upserts v: a row with the same id is silently overwritten.
func Put[T Entity](ctx context.Context, s *Store, v T) error {
	db, release, err := s.conn()
	if err != nil {
		return err
	}
	defer release()

	if err := putRecord(ctx, db, v); err != nil {
		return appErrors.NewDatabaseError("put "+string(v.Collection()), err)
	}
	return nil
}

// Get returns one row by id.
func Get[T Entity](ctx context.Context, s *Store, id string) (T, error) {
	var zero T
	c := collectionOf[T]()
	db, release, err := s.conn()
	if err != nil {
		return zero, err
	}
	defer release()

	var data string
	err = db.QueryRowContext(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, c), id).Scan(&data)
	if err == sql.ErrNoRows {
		return zero, appErrors.NewNotFoundError(string(c), id)
	}
	if err != nil {
		return zero, appErrors.NewDatabaseError("get "+string(c), err)
	}

	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return zero, appErrors.NewDatabaseError("decode "+string(c), err)
	}
	return v, nil
}

// Delete removes the row with id from c. Deleting a missing id is a no-op.
func (s *Store) Delete(ctx context.Context, c graph.Collection, id string) error {
	db, release, err := s.conn()
	if err != nil {
		return err
	}
	defer release()

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c), id); err != nil {
		return appErrors.NewDatabaseError("delete "+string(c), err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// putRecord upserts in place, so an updated row keeps its rowid and with it
// its position in every ordered listing.
func putRecord[T Entity](ctx context.Context, q execer, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, dataset, data) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET dataset = excluded.dataset, data = excluded.data`, v.Collection()),
		v.RecordID(), v.DatasetID(), string(data),
	)
	return err
}

func putAll[T Entity](ctx context.Context, q execer, items []T) error {
	for _, v := range items {
		if err := putRecord(ctx, q, v); err != nil {
			return fmt.Errorf("%s %s: %w", v.Collection(), v.RecordID(), err)
		}
	}
	return nil
}

func scanRecords[T Entity](rows *sql.Rows) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
