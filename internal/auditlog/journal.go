// Package auditlog keeps a per-day JSON journal of executed actions.
package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one journal record.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params"`
	Result    string         `json:"result"`
	Success   bool           `json:"success"`
}

// Journal appends entries to dir/actions_YYYYMMDD.json. Each file holds a
// single JSON array that is rewritten on every append.
type Journal struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// New creates a journal writing into dir.
func New(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

// Path returns the journal file for day t.
func (j *Journal) Path(t time.Time) string {
	return filepath.Join(j.dir, "actions_"+t.Format("20060102")+".json")
}

// Append records one execution. Unreadable or corrupt prior content is
// replaced rather than failing the append.
func (j *Journal) Append(action string, params map[string]any, result string, success bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	if params == nil {
		params = map[string]any{}
	}
	entry, err := json.Marshal(Entry{
		ID:        uuid.NewString(),
		Timestamp: now.Format(time.RFC3339),
		Action:    action,
		Params:    params,
		Result:    result,
		Success:   success,
	})
	if err != nil {
		return fmt.Errorf("auditlog: encode entry: %w", err)
	}

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("auditlog: mkdir: %w", err)
	}
	path := j.Path(now)

	var entries []json.RawMessage
	if data, err := os.ReadFile(path); err == nil {
		if json.Unmarshal(data, &entries) != nil {
			entries = nil
		}
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("auditlog: encode journal: %w", err)
	}
	return writeFile(path, data)
}

// Read returns the entries recorded on day t.
func (j *Journal) Read(t time.Time) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.Path(t))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("auditlog: read: %w", err)
	}
	var out []Entry
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("auditlog: decode: %w", err)
	}
	return out, nil
}

func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".actions-tmp-*")
	if err != nil {
		return fmt.Errorf("auditlog: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("auditlog: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("auditlog: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("auditlog: rename: %w", err)
	}
	return nil
}
