// Package memory implements the offline memory store: SQLite-backed
// items with FTS5 lexical search, a per-model embedding cache, hybrid
// lexical+semantic retrieval, and a knowledge graph derived from
// subject-predicate-object facts.
package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/embeddings"
)

// Migration metadata keys.
const (
	metaFTSRebuilt = "fts_rebuilt_v1"
)

// fts5CreateTable is the DDL for the FTS5 virtual table, shared between
// createSchema() and RebuildFTS() to keep them in sync.
const fts5CreateTable = `CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
	text, title, tags, content='items'
)`

// fts5TriggerDDL defines the triggers that keep the FTS index in sync
// with the items table.
var fts5TriggerDDL = []string{
	`CREATE TRIGGER IF NOT EXISTS items_ai AFTER INSERT ON items BEGIN
		INSERT INTO items_fts(rowid, text, title, tags)
		VALUES (new.rowid, new.text, new.title, new.tags);
	END`,
	`CREATE TRIGGER IF NOT EXISTS items_ad AFTER DELETE ON items BEGIN
		INSERT INTO items_fts(items_fts, rowid, text, title, tags)
		VALUES ('delete', old.rowid, old.text, old.title, old.tags);
	END`,
	`CREATE TRIGGER IF NOT EXISTS items_au AFTER UPDATE ON items BEGIN
		INSERT INTO items_fts(items_fts, rowid, text, title, tags)
		VALUES ('delete', old.rowid, old.text, old.title, old.tags);
		INSERT INTO items_fts(rowid, text, title, tags)
		VALUES (new.rowid, new.text, new.title, new.tags);
	END`,
}

// DB manages the SQLite-backed memory store. A single process owns one
// store at a time; all operations are serialized by the connection.
type DB struct {
	db        *sql.DB
	workspace string
	dbPath    string
	embedder  embeddings.Provider
}

// Open creates or opens the memory database at workspace/memory/memory.db.
func Open(workspace string) (*DB, error) {
	memoryDir := filepath.Join(workspace, "memory")
	if err := os.MkdirAll(memoryDir, 0755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}

	dbPath := filepath.Join(memoryDir, "memory.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	m := &DB{
		db:        db,
		workspace: workspace,
		dbPath:    dbPath,
	}

	if err := m.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if err := m.migrateAddAttribution(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate attribution columns: %w", err)
	}

	// Rebuild FTS index to repair any corruption from out-of-sync triggers.
	if err := m.RebuildFTS(); err != nil {
		db.Close()
		return nil, fmt.Errorf("rebuild fts: %w", err)
	}

	return m, nil
}

// Close closes the database connection.
func (m *DB) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// DBPath returns the path to the database file.
func (m *DB) DBPath() string {
	return m.dbPath
}

// Workspace returns the workspace path.
func (m *DB) Workspace() string {
	return m.workspace
}

// SetEmbedder attaches the embedding provider used by hybrid search and
// the embedding cache. Without one, retrieval is lexical-only.
func (m *DB) SetEmbedder(e embeddings.Provider) {
	m.embedder = e
}

// HasEmbedder reports whether an embedding provider is attached.
func (m *DB) HasEmbedder() bool {
	return m.embedder != nil
}

func (m *DB) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id         TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		text       TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		tags       TEXT NOT NULL DEFAULT '',
		source     TEXT NOT NULL DEFAULT '',
		source_id  TEXT NOT NULL DEFAULT '',
		metadata   TEXT NOT NULL DEFAULT '',
		entity_id  TEXT NOT NULL DEFAULT '',
		process_id TEXT NOT NULL DEFAULT '',
		session_id TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);

	CREATE TABLE IF NOT EXISTS embeddings (
		item_id    TEXT NOT NULL,
		model      TEXT NOT NULL,
		dims       INTEGER NOT NULL,
		vector     BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (item_id, model)
	);

	CREATE TABLE IF NOT EXISTS facts (
		id             TEXT PRIMARY KEY,
		created_at     INTEGER NOT NULL,
		subject        TEXT NOT NULL,
		predicate      TEXT NOT NULL,
		object         TEXT NOT NULL DEFAULT '',
		confidence     REAL NOT NULL DEFAULT 1.0,
		source_item_id TEXT NOT NULL DEFAULT '',
		entity_id      TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_facts_subject ON facts(subject);
	CREATE INDEX IF NOT EXISTS idx_facts_object ON facts(object);
	CREATE INDEX IF NOT EXISTS idx_facts_source ON facts(source_item_id);

	CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := m.db.Exec(schema); err != nil {
		return err
	}
	if _, err := m.db.Exec(fts5CreateTable); err != nil {
		return err
	}
	for _, stmt := range fts5TriggerDDL {
		if _, err := m.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateAddAttribution adds the attribution columns to stores created
// before they existed.
func (m *DB) migrateAddAttribution() error {
	for _, col := range []string{"entity_id", "process_id", "session_id"} {
		if m.columnExists("items", col) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE items ADD COLUMN %s TEXT NOT NULL DEFAULT ''", col)
		if _, err := m.db.Exec(stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}
	return nil
}

func (m *DB) columnExists(table, column string) bool {
	rows, err := m.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// RebuildFTS drops and recreates the FTS index from the items table.
// Safe to run at any time; also invoked on open and by maintenance.
func (m *DB) RebuildFTS() error {
	if _, err := m.db.Exec("DROP TABLE IF EXISTS items_fts"); err != nil {
		return err
	}
	if _, err := m.db.Exec(fts5CreateTable); err != nil {
		return err
	}
	if _, err := m.db.Exec("INSERT INTO items_fts(items_fts) VALUES('rebuild')"); err != nil {
		return err
	}
	_, err := m.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, 'true')", metaFTSRebuilt,
	)
	return err
}
