//go:build sqlite_fts5

package history

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS turns_fts USING fts5(
			user_text,
			reply,
			content = 'turns',
			content_rowid = 'id',
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, id int64, user, reply string) error {
	_, err := tx.Exec(`INSERT INTO turns_fts (rowid, user_text, reply) VALUES (?, ?, ?)`, id, user, reply)
	if err != nil {
		return fmt.Errorf("history: insert fts: %w", err)
	}
	return nil
}

// Search runs an FTS5 query over messages and replies, best match first.
func (db *DB) Search(query string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT t.id, t.session, t.user_text, t.reply, t.success, t.created_at
		FROM turns_fts f
		JOIN turns t ON t.id = f.rowid
		WHERE turns_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}
