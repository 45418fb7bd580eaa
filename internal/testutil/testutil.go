// Package testutil provides shared test helpers for setting up a workspace
// with a trash root, a history database and the action pipeline.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/jarvis/internal/actions"
	"github.com/starford/jarvis/internal/dispatch"
	"github.com/starford/jarvis/internal/history"
	"github.com/starford/jarvis/internal/storage"
)

// Workspace is a temporary directory laid out like a user's machine.
type Workspace struct {
	Dir     string
	Desktop string
	FS      *storage.FS
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestWorkspace creates a workspace whose trash lives in Dir/trash and whose
// restores land on Dir/Desktop.
func TestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	dir := t.TempDir()
	desktop := filepath.Join(dir, "Desktop")
	fs, err := storage.NewFS(filepath.Join(dir, "trash"), desktop)
	if err != nil {
		t.Fatal(err)
	}
	return &Workspace{Dir: dir, Desktop: desktop, FS: fs}
}

// TestHistory creates a temporary history database that is automatically closed.
func TestHistory(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Executor wires the full action catalog against the workspace. There is no
// desktop controller, so only filesystem and trash actions are usable.
func (w *Workspace) Executor(journal dispatch.Journal) *dispatch.Executor {
	cat := actions.NewCatalog(&actions.Toolbox{FS: w.FS, DesktopDir: w.Desktop})
	return dispatch.NewExecutor(dispatch.New(cat, journal, Logger()))
}
