//go:build !sqlite_fts5

package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the posts table.
	return nil
}

func ftsClear(_ context.Context, _ *sql.Tx) error { return nil }

func ftsInsert(_ context.Context, _ *sql.Tx, _ Document) error { return nil }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search implements Engine with case-insensitive substring matching. Every
// word must appear in the title, description, tags or body. Hits are ordered
// newest first and scored by how many fields the first word matched.
func (s *SQLite) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	words := terms(query)
	if len(words) == 0 {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		where []string
		args  []any
	)
	for _, w := range words {
		like := "%" + likeEscaper.Replace(w) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like)
	}
	first := "%" + likeEscaper.Replace(words[0]) + "%"
	args = append([]any{first, first, first, first}, args...)
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT slug, title, description, body,
		       (title LIKE ? ESCAPE '\') * 3.0 + (tags LIKE ? ESCAPE '\') * 2.0 +
		       (description LIKE ? ESCAPE '\') + (body LIKE ? ESCAPE '\') * 0.5
		FROM posts
		WHERE %s
		ORDER BY date DESC
		LIMIT ?
	`, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	return scanResults(rows, false)
}
