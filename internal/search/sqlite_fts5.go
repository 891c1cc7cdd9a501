//go:build sqlite_fts5

package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			slug UNINDEXED,
			title,
			description,
			tags,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsClear(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts_fts`); err != nil {
		return fmt.Errorf("search: clear fts: %w", err)
	}
	return nil
}

func ftsInsert(ctx context.Context, tx *sql.Tx, d Document) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO posts_fts (slug, title, description, tags, body) VALUES (?, ?, ?, ?, ?)`,
		d.Slug, d.Title, d.Description, strings.Join(d.Tags, " "), d.Body)
	if err != nil {
		return fmt.Errorf("search: insert fts %s: %w", d.Slug, err)
	}
	return nil
}

// matchExpr quotes every word so user input never reaches the FTS5 query
// syntax. Quoted words are ANDed.
func matchExpr(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// Search implements Engine with FTS5 ranking (bm25, title weighted highest).
func (s *SQLite) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	words := terms(query)
	if len(words) == 0 {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT slug,
		       title,
		       description,
		       snippet(posts_fts, 4, '<mark>', '</mark>', '...', 32),
		       -bm25(posts_fts, 0.0, 5.0, 2.0, 3.0, 1.0)
		FROM posts_fts
		WHERE posts_fts MATCH ?
		ORDER BY bm25(posts_fts, 0.0, 5.0, 2.0, 3.0, 1.0)
		LIMIT ?
	`, matchExpr(words), limit)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	return scanResults(rows, true)
}
