// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists a log of tool invocations and makes it
// searchable. Nothing in the query path depends on it; a disabled or
// broken history store never blocks a tool call.
// See docs/ARCHITECTURE § Invocation History.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/entrez-mcp/pkg/types"
)

const dbFile = "history.db"

const defaultMaxResults = 20

// startedAtLayout is RFC 3339 with fixed-width nanoseconds, so that the
// stored text sorts lexicographically in time order. time.RFC3339Nano
// trims trailing zeros and does not.
const startedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the invocation history SQLite database.
type Store struct {
	db         *sql.DB
	historyDir string
	maxResults int
}

// NewStore opens or creates the history database at
// historyDir/history.db, creating the schema if needed.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.HistoryDir
	if dir == "" {
		dir = "history"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:         db,
		historyDir: dir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			tool TEXT NOT NULL,
			argument TEXT,
			status TEXT NOT NULL,
			detail TEXT,
			started_at TEXT NOT NULL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_started_at ON invocations(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='invocations_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE invocations_fts USING fts5(argument, detail, content=invocations, content_rowid=rowid)`,
			`CREATE TRIGGER invocations_ai AFTER INSERT ON invocations BEGIN
				INSERT INTO invocations_fts(rowid, argument, detail) VALUES (new.rowid, new.argument, new.detail);
			END`,
			`CREATE TRIGGER invocations_ad AFTER DELETE ON invocations BEGIN
				INSERT INTO invocations_fts(invocations_fts, rowid, argument, detail) VALUES('delete', old.rowid, old.argument, old.detail);
			END`,
			`CREATE TRIGGER invocations_au AFTER UPDATE ON invocations BEGIN
				INSERT INTO invocations_fts(invocations_fts, rowid, argument, detail) VALUES('delete', old.rowid, old.argument, old.detail);
				INSERT INTO invocations_fts(rowid, argument, detail) VALUES (new.rowid, new.argument, new.detail);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Record inserts one invocation. A missing ID gets a fresh UUID, a
// missing start time gets now; the filled-in record is returned.
func (s *Store) Record(ctx context.Context, inv types.Invocation) (types.Invocation, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.StartedAt.IsZero() {
		inv.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (id, tool, argument, status, detail, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Tool, inv.Argument, string(inv.Status), inv.Detail,
		inv.StartedAt.UTC().Format(startedAtLayout), inv.DurationMS,
	)
	if err != nil {
		return inv, fmt.Errorf("inserting invocation: %w", err)
	}
	return inv, nil
}

// QueryOptions holds parameters for history queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over argument and detail.
	Query string

	// Tool filters by tool name.
	Tool string

	// Status filters by invocation status.
	Status types.InvocationStatus

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Retrieve queries the log with optional full-text search and structured
// filters, most recent first.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.Invocation, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT i.id, i.tool, i.argument, i.status, i.detail, i.started_at, i.duration_ms
			FROM invocations_fts
			JOIN invocations i ON i.rowid = invocations_fts.rowid
			WHERE invocations_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT i.id, i.tool, i.argument, i.status, i.detail, i.started_at, i.duration_ms
			FROM invocations i
			WHERE 1=1`)
	}

	if opts.Tool != "" {
		qb.WriteString(` AND i.tool = ?`)
		args = append(args, opts.Tool)
	}
	if opts.Status != "" {
		qb.WriteString(` AND i.status = ?`)
		args = append(args, string(opts.Status))
	}

	qb.WriteString(` ORDER BY i.started_at DESC LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var invocations []types.Invocation
	for rows.Next() {
		var inv types.Invocation
		var status, startedAt string
		var detail sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(&inv.ID, &inv.Tool, &inv.Argument, &status, &detail, &startedAt, &duration); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		inv.Status = types.InvocationStatus(status)
		inv.Detail = detail.String
		inv.DurationMS = duration.Int64
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			inv.StartedAt = t
		}
		invocations = append(invocations, inv)
	}
	return invocations, rows.Err()
}
