package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Export snapshots one dataset. Datasets are exported globally.
func (s *Store) Export(ctx context.Context, datasetID string) (graph.Snapshot, error) {
	var snap graph.Snapshot
	var err error

	if snap.Nodes, err = s.Nodes(ctx, datasetID); err != nil {
		return graph.Snapshot{}, err
	}
	if snap.Links, err = s.Links(ctx, datasetID); err != nil {
		return graph.Snapshot{}, err
	}
	if snap.VisualLinks, err = ByDataset[graph.VisualLink](ctx, s, datasetID); err != nil {
		return graph.Snapshot{}, err
	}
	if snap.Datasets, err = s.Datasets(ctx); err != nil {
		return graph.Snapshot{}, err
	}
	return snap, nil
}

// Import stores every row of snap in one transaction, stamping datasetID on
// nodes, links and visual links first.
func (s *Store) Import(ctx context.Context, snap graph.Snapshot, datasetID string) error {
	snap = restamped(snap, datasetID)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return importRows(ctx, tx, snap)
	})
	if err != nil {
		return appErrors.NewDatabaseError("import", err)
	}

	s.logger.Info("Imported dataset",
		zap.String("dataset", datasetID),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("links", len(snap.Links)),
		zap.Int("visual_links", len(snap.VisualLinks)),
		zap.Int("datasets", len(snap.Datasets)),
	)
	return nil
}

// ReplaceDataset drops every local row of datasetID, the dataset row
// included, and imports snap in its place, all in one transaction.
func (s *Store) ReplaceDataset(ctx context.Context, datasetID string, snap graph.Snapshot) error {
	snap = restamped(snap, datasetID)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range graph.Collections {
			column := "dataset"
			if !c.DatasetScoped() {
				column = "id"
			}
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, c, column), datasetID,
			); err != nil {
				return fmt.Errorf("clear %s: %w", c, err)
			}
		}
		return importRows(ctx, tx, snap)
	})
	if err != nil {
		return appErrors.NewDatabaseError("replace dataset", err)
	}
	return nil
}

// CreateLocalDataset inserts a new dataset together with its root node.
func (s *Store) CreateLocalDataset(ctx context.Context, name, user string) (graph.Dataset, error) {
	ds := graph.NewDataset(name, user)
	root := graph.NewRootNode(ds.ID)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := putRecord(ctx, tx, ds); err != nil {
			return err
		}
		return putRecord(ctx, tx, root)
	})
	if err != nil {
		return graph.Dataset{}, appErrors.NewDatabaseError("create dataset", err)
	}

	s.logger.Info("Created local dataset",
		zap.String("dataset", ds.ID),
		zap.String("name", name),
		zap.String("root_node", root.ID),
	)
	return ds, nil
}

// Stats summarizes the store content.
type Stats struct {
	Path           string                   `json:"path"`
	SchemaVersion  int                      `json:"schema_version"`
	Counts         map[graph.Collection]int `json:"counts"`
	NodesByDataset map[string]int           `json:"nodes_by_dataset"`
}

// Stats counts the rows of every collection and the nodes of every dataset.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	db, release, err := s.conn()
	if err != nil {
		return Stats{}, err
	}
	defer release()

	stats := Stats{
		Path:           s.path,
		SchemaVersion:  s.version,
		Counts:         make(map[graph.Collection]int),
		NodesByDataset: make(map[string]int),
	}

	for _, c := range graph.Collections {
		var n int
		if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, c)).Scan(&n); err != nil {
			return Stats{}, appErrors.NewDatabaseError("stats", err)
		}
		stats.Counts[c] = n
	}

	rows, err := db.QueryContext(ctx, `SELECT dataset, COUNT(*) FROM nodes GROUP BY dataset`)
	if err != nil {
		return Stats{}, appErrors.NewDatabaseError("stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ds string
		var n int
		if err := rows.Scan(&ds, &n); err != nil {
			return Stats{}, appErrors.NewDatabaseError("stats", err)
		}
		stats.NodesByDataset[ds] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, appErrors.NewDatabaseError("stats", err)
	}

	return stats, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, release, err := s.conn()
	if err != nil {
		return err
	}
	defer release()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func importRows(ctx context.Context, tx *sql.Tx, snap graph.Snapshot) error {
	if err := putAll(ctx, tx, snap.Datasets); err != nil {
		return err
	}
	if err := putAll(ctx, tx, snap.Nodes); err != nil {
		return err
	}
	if err := putAll(ctx, tx, snap.Links); err != nil {
		return err
	}
	return putAll(ctx, tx, snap.VisualLinks)
}

// restamped returns a copy of snap with datasetID stamped on every dataset
// scoped row, leaving the caller's slices untouched.
func restamped(snap graph.Snapshot, datasetID string) graph.Snapshot {
	out := graph.Snapshot{
		Nodes:       append([]graph.Node(nil), snap.Nodes...),
		Links:       append([]graph.Link(nil), snap.Links...),
		VisualLinks: append([]graph.VisualLink(nil), snap.VisualLinks...),
		Datasets:    append([]graph.Dataset(nil), snap.Datasets...),
	}
	out.Restamp(datasetID)
	return out
}
