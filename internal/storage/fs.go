package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/jarvis/internal/apperr"
)

// DefaultReadLimitMB is the read size limit when none is given.
const DefaultReadLimitMB = 5

// FS implements Provider on the local file system.
type FS struct {
	trashDir   string
	restoreDir string
	now        func() time.Time
}

// Option configures an FS.
type Option func(*FS)

// WithClock overrides the clock used for trash timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *FS) { f.now = now }
}

// NewFS creates a provider whose trash lives in trashDir. Restores without an
// explicit destination go to restoreDir. The trash directory is created if
// needed.
func NewFS(trashDir, restoreDir string, opts ...Option) (*FS, error) {
	trash, err := filepath.Abs(ExpandHome(trashDir))
	if err != nil {
		return nil, fmt.Errorf("storage: resolve trash dir: %w", err)
	}
	if err := os.MkdirAll(trash, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create trash dir: %w", err)
	}
	f := &FS{
		trashDir:   trash,
		restoreDir: ExpandHome(restoreDir),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// TrashDir returns the absolute trash root.
func (f *FS) TrashDir() string { return f.trashDir }

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

func clean(p string) string {
	return filepath.Clean(ExpandHome(strings.TrimSpace(p)))
}

// classify maps OS errors onto the shared taxonomy.
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperr.Wrap(apperr.KindNotFound, err, "path not found: %s", path)
	case errors.Is(err, fs.ErrPermission):
		return apperr.Wrap(apperr.KindPermissionDenied, err, "permission denied: %s", path)
	}
	return fmt.Errorf("storage: %s %s: %w", op, path, err)
}

// CreateDir creates path and all missing parents.
func (f *FS) CreateDir(path string) error {
	p := clean(path)
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return apperr.New(apperr.KindConflict, "a file already exists at %s", p)
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return classify("mkdir", p, err)
	}
	return nil
}

// List returns the entries of a directory. A filter starting with "." keeps
// files with that suffix and every directory; any other filter is ignored.
func (f *FS) List(path, filter string) ([]Entry, error) {
	p := clean(path)
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, classify("list", p, err)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(filter, ".") && !e.IsDir() && !strings.HasSuffix(e.Name(), filter) {
			continue
		}
		item := Entry{Name: e.Name(), IsDir: e.IsDir()}
		if !e.IsDir() {
			if info, err := e.Info(); err == nil {
				item.Size = info.Size()
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// ReadText reads a UTF-8 text file. The size limit is checked before any
// content is read.
func (f *FS) ReadText(path string, limitMB float64) (string, error) {
	p := clean(path)
	if limitMB <= 0 {
		limitMB = DefaultReadLimitMB
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", classify("read", p, err)
	}
	if info.IsDir() {
		return "", apperr.New(apperr.KindInvalidParameter, "%s is a directory", p)
	}
	// Compared as float so a huge limit cannot wrap around.
	if float64(info.Size()) > limitMB*1024*1024 {
		return "", apperr.New(apperr.KindSizeExceeded, "file too large (%.2f MB), limit is %g MB",
			float64(info.Size())/1024/1024, limitMB)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", classify("read", p, err)
	}
	if !utf8.Valid(data) {
		return "", apperr.New(apperr.KindEncodingError, "%s is not UTF-8 text", p)
	}
	return string(data), nil
}

// WriteText writes content to path. Overwrites are atomic: tmp file, fsync,
// rename. Existing permission bits are kept.
func (f *FS) WriteText(path, content string, mode WriteMode) error {
	p := clean(path)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return classify("mkdir", dir, err)
	}
	if mode == Append {
		return appendFile(p, content)
	}
	return WriteAtomic(p, []byte(content))
}

func appendFile(p, content string) error {
	fh, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return classify("append", p, err)
	}
	if _, err := fh.WriteString(content); err != nil {
		_ = fh.Close()
		return classify("append", p, err)
	}
	if err := fh.Close(); err != nil {
		return classify("append", p, err)
	}
	return nil
}

// WriteAtomic replaces p with content through a temp file in the same
// directory. An existing file keeps its permissions.
func WriteAtomic(p string, content []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(p); err == nil {
		if info.IsDir() {
			return apperr.New(apperr.KindConflict, "%s is a directory", p)
		}
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".jarvis-tmp-*")
	if err != nil {
		return classify("create temp", p, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return classify("rename", p, err)
	}
	success = true
	return nil
}

// Copy copies src to dst. Directories are merged into dst; a file copied onto
// an existing directory lands inside it.
func (f *FS) Copy(src, dst string) (string, error) {
	s, d := clean(src), clean(dst)
	info, err := os.Stat(s)
	if err != nil {
		return "", classify("copy", s, err)
	}
	if !info.IsDir() {
		if dinfo, err := os.Stat(d); err == nil && dinfo.IsDir() {
			d = filepath.Join(d, filepath.Base(s))
		}
	}
	if s == d {
		return "", apperr.New(apperr.KindConflict, "source and destination are the same: %s", s)
	}
	if info.IsDir() && within(d, s) {
		return "", apperr.New(apperr.KindInvalidParameter, "cannot copy %s into itself", s)
	}
	if err := copyPathRecursive(s, d); err != nil {
		return "", classify("copy", s, err)
	}
	return d, nil
}

// Move renames src to dst, falling back to copy and delete across devices.
// Moving onto an existing directory places src inside it.
func (f *FS) Move(src, dst string) (string, error) {
	s, d := clean(src), clean(dst)
	if _, err := os.Lstat(s); err != nil {
		return "", classify("move", s, err)
	}
	if dinfo, err := os.Stat(d); err == nil && dinfo.IsDir() {
		d = filepath.Join(d, filepath.Base(s))
	}
	if s == d {
		return d, nil
	}
	if within(d, s) {
		return "", apperr.New(apperr.KindInvalidParameter, "cannot move %s into itself", s)
	}
	if err := movePath(s, d); err != nil {
		return "", classify("move", s, err)
	}
	return d, nil
}

// Duplicate copies path into its own directory under newName, or under
// "{stem}_copia{ext}" when newName is empty.
func (f *FS) Duplicate(path, newName string) (string, error) {
	p := clean(path)
	if _, err := os.Stat(p); err != nil {
		return "", classify("duplicate", p, err)
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		base := filepath.Base(p)
		ext := filepath.Ext(base)
		newName = strings.TrimSuffix(base, ext) + "_copia" + ext
	}
	if strings.ContainsAny(newName, `/\`) {
		return "", apperr.New(apperr.KindInvalidParameter, "new name must not contain path separators: %s", newName)
	}
	return f.Copy(p, filepath.Join(filepath.Dir(p), newName))
}

// within reports whether p is base or lies below it.
func within(p, base string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
