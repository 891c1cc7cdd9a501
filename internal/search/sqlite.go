package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN keeps the SQLite database in memory.
const MemoryDSN = ":memory:"

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	slug        TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	body        TEXT NOT NULL DEFAULT '',
	date        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_date ON posts(date);
`

// SQLite is a search engine on SQLite. Built with the sqlite_fts5 tag it
// ranks with FTS5; otherwise it falls back to substring matching.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema. An empty
// dsn means MemoryDSN. The index is a rebuildable cache: Rebuild wipes it.
func OpenSQLite(dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	params := "?_busy_timeout=5000"
	if dsn != MemoryDSN {
		params += "&_journal_mode=WAL"
	}
	conn, err := sql.Open("sqlite3", dsn+params)
	if err != nil {
		return nil, fmt.Errorf("search: open db: %w", err)
	}
	// Every connection to :memory: is its own database.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply fts schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Rebuild implements Engine. The swap happens in one transaction.
func (s *SQLite) Rebuild(ctx context.Context, docs []Document) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("search: clear posts: %w", err)
	}
	if err := ftsClear(ctx, tx); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO posts (slug, title, description, tags, body, date)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("search: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		tags := d.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, _ := json.Marshal(tags)
		if _, err := stmt.ExecContext(ctx, d.Slug, d.Title, d.Description, string(tagsJSON), d.Body, d.Date.UTC()); err != nil {
			return fmt.Errorf("search: insert %s: %w", d.Slug, err)
		}
		if err := ftsInsert(ctx, tx, d); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Count implements Engine.
func (s *SQLite) Count() int {
	var n int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close implements Engine.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// scanResults reads (slug, title, description, text, score) rows. text is a
// highlighted snippet when highlighted is set, otherwise the plain body.
func scanResults(rows *sql.Rows, highlighted bool) ([]Result, error) {
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		var (
			r          Result
			desc, text string
		)
		if err := rows.Scan(&r.Slug, &r.Title, &desc, &text, &r.Score); err != nil {
			return nil, err
		}
		if highlighted && strings.TrimSpace(text) != "" {
			r.Snippet = text
		} else {
			r.Snippet = fallbackSnippet(desc, text)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// terms splits a query into lowercase words, dropping blanks.
func terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}
