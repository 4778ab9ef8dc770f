// Package sqlite is the local graph store: an embedded SQLite database with
// one table per collection, indexed by dataset.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is the local embedded graph store.
type Store struct {
	path    string
	logger  *zap.Logger
	mu      sync.RWMutex
	db      *sql.DB
	indexed map[graph.Collection]bool
	version int
}

// Open opens (creating if needed) the store at path and migrates it to the
// current schema.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	return open(ctx, path, currentSchemaVersion, logger)
}

func open(ctx context.Context, path string, target int, logger *zap.Logger) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, appErrors.NewDatabaseError("open", fmt.Errorf("failed to create store directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, appErrors.NewDatabaseError("open", err)
	}
	// One connection serializes every transaction and keeps :memory:
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)

	version, err := migrate(ctx, db, target)
	if err != nil {
		db.Close()
		return nil, appErrors.NewDatabaseError("migrate", err)
	}

	indexed, err := datasetIndexes(ctx, db)
	if err != nil {
		db.Close()
		return nil, appErrors.NewDatabaseError("inspect indexes", err)
	}

	logger.Info("Opened local store",
		zap.String("path", path),
		zap.Int("schema_version", version),
	)

	return &Store{
		path:    path,
		logger:  logger,
		db:      db,
		indexed: indexed,
		version: version,
	}, nil
}

func dsn(path string) string {
	if path == MemoryPath {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the version the store was migrated to.
func (s *Store) SchemaVersion() int {
	return s.version
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Reset closes the store and deletes the database files. The store cannot be
// used afterwards; open a new one.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return appErrors.NewDatabaseError("reset", err)
		}
		s.db = nil
	}

	if s.path != MemoryPath {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
				return appErrors.NewDatabaseError("reset", err)
			}
		}
	}

	s.logger.Warn("Local store reset", zap.String("path", s.path))
	return nil
}

// conn returns the open database, or an error once the store was closed or reset.
func (s *Store) conn() (*sql.DB, func(), error) {
	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		return nil, func() {}, appErrors.NewUnavailableError("local store").
			WithDetails(map[string]any{"path": s.path})
	}
	return s.db, s.mu.RUnlock, nil
}

func (s *Store) hasIndex(c graph.Collection) bool {
	return s.indexed[c]
}
