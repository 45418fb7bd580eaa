package history

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultContextTurns is how many turns Recent returns when n is not positive.
const DefaultContextTurns = 5

// Turn is one user message and the reply it got.
type Turn struct {
	ID        int64     `json:"id"`
	Session   string    `json:"session"`
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrEmptyTurn is returned when appending a turn without a user message.
var ErrEmptyTurn = errors.New("history: empty turn")

// Append stores t and returns its id. A zero CreatedAt is set to now.
func (db *DB) Append(t Turn) (int64, error) {
	if strings.TrimSpace(t.User) == "" {
		return 0, ErrEmptyTurn
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`
		INSERT INTO turns (session, user_text, reply, success, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.Session, t.User, t.Assistant, t.Success, t.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("history: insert turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: last insert id: %w", err)
	}
	if err := ftsInsert(tx, id, t.User, t.Assistant); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	return id, nil
}

// Recent returns the last n turns of session, oldest first.
func (db *DB) Recent(session string, n int) ([]Turn, error) {
	if n <= 0 {
		n = DefaultContextTurns
	}
	rows, err := db.conn.Query(`
		SELECT id, session, user_text, reply, success, created_at
		FROM (
			SELECT * FROM turns WHERE session = ? ORDER BY id DESC LIMIT ?
		)
		ORDER BY id ASC
	`, session, n)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

type scanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTurns(rows scanner) ([]Turn, error) {
	var out []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.Session, &t.User, &t.Assistant, &t.Success, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		t.CreatedAt = t.CreatedAt.Local()
		out = append(out, t)
	}
	return out, rows.Err()
}
