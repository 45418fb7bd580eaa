package trashwatch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/jarvis/internal/storage"
)

type recorder struct {
	mu      sync.Mutex
	added   []string
	removed []string
}

func (r *recorder) cb(added bool, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if added {
		r.added = append(r.added, name)
	} else {
		r.removed = append(r.removed, name)
	}
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.added), len(r.removed)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, root string, rec *recorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := Watch(ctx, root, logger, rec.cb); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Let the watcher register before the test mutates the directory.
	time.Sleep(50 * time.Millisecond)
}

func TestWatch_TrashAndRestore(t *testing.T) {
	base := t.TempDir()
	trash := filepath.Join(base, "trash")
	fs, err := storage.NewFS(trash, filepath.Join(base, "restore"))
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	startWatch(t, trash, rec)

	victim := filepath.Join(base, "notas.txt")
	if err := os.WriteFile(victim, []byte("hola"), 0o644); err != nil {
		t.Fatal(err)
	}
	trashed, err := fs.Delete(victim, false)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		a, _ := rec.counts()
		return a == 1
	}, "trash.added not reported")

	if _, err := fs.Restore("notas.txt", ""); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		_, r := rec.counts()
		return r == 1
	}, "trash.removed not reported")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.added[0] != filepath.Base(trashed) || rec.removed[0] != filepath.Base(trashed) {
		t.Errorf("added=%v removed=%v, want %s", rec.added, rec.removed, filepath.Base(trashed))
	}
}

func TestWatch_IgnoresForeignNames(t *testing.T) {
	trash := t.TempDir()
	rec := &recorder{}
	startWatch(t, trash, rec)

	if err := os.WriteFile(filepath.Join(trash, ".DS_Store"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(400 * time.Millisecond)
	if a, r := rec.counts(); a != 0 || r != 0 {
		t.Errorf("unexpected events: added=%d removed=%d", a, r)
	}
}

func TestWatch_CreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "trash")
	rec := &recorder{}
	startWatch(t, root, rec)
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root not created: %v", err)
	}
}
