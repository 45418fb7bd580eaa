//go:build !sqlite_fts5

package history

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// Without FTS5 the turns table is searched with LIKE.
	return nil
}

func ftsInsert(_ *sql.Tx, _ int64, _, _ string) error { return nil }

// Search finds turns whose message or reply contains query, newest first.
func (db *DB) Search(query string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, session, user_text, reply, success, created_at
		FROM turns
		WHERE user_text LIKE ? OR reply LIKE ?
		ORDER BY id DESC
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}
