// Package store persists the projects table inside a single-file embedded database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"

	"github.com/data-desk-eco/notebook-index/internal/domain"
)

// TableName is the table the renderer queries.
const TableName = "projects"

// ErrTableMissing is returned by readers when the projects table was never created.
var ErrTableMissing = errors.New("projects table does not exist")

// dialect captures the differences between the supported engines.
type dialect struct {
	driver        string
	textType      string
	timestampType string

	// checkpoint flushes the write-ahead log into the main file; empty when not needed.
	checkpoint string
	// tableExists takes the table name as its only parameter.
	tableExists string
}

var (
	duckDB = dialect{
		driver:        "duckdb",
		textType:      "VARCHAR",
		timestampType: "TIMESTAMP",
		checkpoint:    "CHECKPOINT",
		tableExists:   "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?",
	}
	sqlite = dialect{
		driver:        "sqlite",
		textType:      "TEXT",
		timestampType: "TIMESTAMP",
		tableExists:   "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
	}
)

// dialectFor picks the engine from the file extension. DuckDB is the default.
func dialectFor(path string) dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return sqlite
	default:
		return duckDB
	}
}

// ProjectStore is an explicit handle on one database file.
type ProjectStore struct {
	db      *sql.DB
	path    string
	dialect dialect

	// beforeLoad runs inside the replace transaction after the old table is dropped.
	beforeLoad func() error
	// flush runs after commit; nil means the dialect checkpoint.
	flush func(ctx context.Context) error
}

// Open opens (or creates) the database file at path.
func Open(path string) (*ProjectStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db directory: %w", domain.ErrStorageWrite, err)
		}
	}

	d := dialectFor(path)
	db, err := sql.Open(d.driver, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrStorageWrite, err)
	}
	// A single writer per file; one connection keeps the transaction and checkpoint on the same session.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: open database %s: %w", domain.ErrStorageWrite, path, err)
	}

	return &ProjectStore{db: db, path: path, dialect: d}, nil
}

// Path returns the database file location.
func (s *ProjectStore) Path() string { return s.path }

// Driver returns the name of the engine backing the file.
func (s *ProjectStore) Driver() string { return s.dialect.driver }

// Close releases the handle.
func (s *ProjectStore) Close() error { return s.db.Close() }

func (s *ProjectStore) createTableSQL() string {
	d := s.dialect
	return fmt.Sprintf(`CREATE TABLE %s (
		name %s NOT NULL,
		description %s NOT NULL,
		url %s NOT NULL,
		repo_url %s NOT NULL,
		created_at %s
	)`, TableName, d.textType, d.textType, d.textType, d.textType, d.timestampType)
}

// Replace swaps the table contents for exactly records. The drop, create and load run in one
// transaction, so readers see either the previous table or the new one. An empty slice
// leaves an existing, empty table. A failure before commit wraps domain.ErrStorageWrite;
// a failed checkpoint after commit wraps domain.ErrFlushIncomplete.
func (s *ProjectStore) Replace(ctx context.Context, records []domain.ProjectRecord) error {
	if err := s.replace(ctx, records); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageWrite, err)
	}
	if err := s.checkpoint(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrFlushIncomplete, err)
	}
	return nil
}

func (s *ProjectStore) checkpoint(ctx context.Context) error {
	if s.flush != nil {
		return s.flush(ctx)
	}
	if s.dialect.checkpoint == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.checkpoint); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

func (s *ProjectStore) replace(ctx context.Context, records []domain.ProjectRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+TableName); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err = tx.ExecContext(ctx, s.createTableSQL()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if s.beforeLoad != nil {
		if err = s.beforeLoad(); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+TableName+
		" (name, description, url, repo_url, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, r.Name, r.Description, r.URL, r.RepoURL, r.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("insert %s: %w", r.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *ProjectStore) tableExists(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.tableExists, TableName).Scan(&n); err != nil {
		return false, fmt.Errorf("check table: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of rows in the projects table.
func (s *ProjectStore) Count(ctx context.Context) (int, error) {
	ok, err := s.tableExists(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrTableMissing
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

// List reads the table newest first, the order the index page displays.
func (s *ProjectStore) List(ctx context.Context) ([]domain.ProjectRecord, error) {
	ok, err := s.tableExists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTableMissing
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, description, url, repo_url, created_at FROM "+
		TableName+" ORDER BY created_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	records := []domain.ProjectRecord{}
	for rows.Next() {
		var r domain.ProjectRecord
		var created sql.NullTime
		if err := rows.Scan(&r.Name, &r.Description, &r.URL, &r.RepoURL, &created); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if created.Valid {
			r.CreatedAt = created.Time.UTC()
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
