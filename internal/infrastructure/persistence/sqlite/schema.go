package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

// currentSchemaVersion is the version Open migrates to.
const currentSchemaVersion = 2

// migrations[i] upgrades a store from version i to version i+1. Row shape
// never changes between versions: every collection keeps (id, dataset, data).
var migrations = []func(ctx context.Context, tx *sql.Tx) error{
	createCollections,
	addDatasetIndexes,
}

func createCollections(ctx context.Context, tx *sql.Tx) error {
	for _, c := range graph.Collections {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id      TEXT PRIMARY KEY,
			dataset TEXT NOT NULL DEFAULT '',
			data    TEXT NOT NULL
		)`, c)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", c, err)
		}
	}
	return nil
}

func addDatasetIndexes(ctx context.Context, tx *sql.Tx) error {
	for _, c := range graph.Collections {
		if !c.DatasetScoped() {
			continue
		}
		stmt := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s(dataset)`, indexName(c), c)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("index %s: %w", c, err)
		}
	}
	return nil
}

func indexName(c graph.Collection) string {
	return string(c) + "_by_dataset"
}

// migrate brings the database up to target, one transaction per step.
func migrate(ctx context.Context, db *sql.DB, target int) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("create meta: %w", err)
	}

	version, err := schemaVersion(ctx, db)
	if err != nil {
		return 0, err
	}

	for version < target && version < len(migrations) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return version, err
		}
		if err := migrations[version](ctx, tx); err != nil {
			tx.Rollback()
			return version, fmt.Errorf("migration to v%d: %w", version+1, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`,
			strconv.Itoa(version+1),
		); err != nil {
			tx.Rollback()
			return version, err
		}
		if err := tx.Commit(); err != nil {
			return version, err
		}
		version++
	}

	return version, nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("bad schema version %q: %w", value, err)
	}
	return v, nil
}

// datasetIndexes reports which dataset-scoped collections carry the
// by_dataset index.
func datasetIndexes(ctx context.Context, db *sql.DB) (map[graph.Collection]bool, error) {
	indexed := make(map[graph.Collection]bool)
	for _, c := range graph.Collections {
		if !c.DatasetScoped() {
			continue
		}
		var n int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`,
			indexName(c),
		).Scan(&n)
		if err != nil {
			return nil, err
		}
		indexed[c] = n > 0
	}
	return indexed, nil
}
