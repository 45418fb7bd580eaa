package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/jarvis/internal/apperr"
)

// TrashTimeLayout is the timestamp prefix of every trash entry.
const TrashTimeLayout = "20060102_150405"

// trashPrefixLen covers the timestamp plus the "_" separator.
const trashPrefixLen = len(TrashTimeLayout) + 1

// TrashName builds the on-disk trash name for original deleted at t.
func TrashName(t time.Time, original string) string {
	return t.Format(TrashTimeLayout) + "_" + original
}

// ParseTrashName splits a trash name into its timestamp and original name.
func ParseTrashName(name string) (time.Time, string, bool) {
	if len(name) <= trashPrefixLen || name[trashPrefixLen-1] != '_' {
		return time.Time{}, "", false
	}
	t, err := time.ParseInLocation(TrashTimeLayout, name[:trashPrefixLen-1], time.Local)
	if err != nil {
		return time.Time{}, "", false
	}
	return t, name[trashPrefixLen:], true
}

// Delete removes path. Unless permanent, the object is moved into the trash
// root as "{yyyymmdd_HHMMSS}_{name}" and the trash path is returned. When two
// objects with the same name are trashed within one second the later one is
// stamped a second later, which keeps names unique and sorted by time.
func (f *FS) Delete(path string, permanent bool) (string, error) {
	p := clean(path)
	if _, err := os.Lstat(p); err != nil {
		return "", classify("delete", p, err)
	}
	if within(f.trashDir, p) {
		return "", apperr.New(apperr.KindInvalidParameter, "refusing to trash %s", p)
	}

	if permanent {
		if err := os.RemoveAll(p); err != nil {
			return "", classify("delete", p, err)
		}
		return "", nil
	}

	name := filepath.Base(p)
	ts := f.now()
	dest := filepath.Join(f.trashDir, TrashName(ts, name))
	for {
		if _, err := os.Lstat(dest); errors.Is(err, fs.ErrNotExist) {
			break
		}
		ts = ts.Add(time.Second)
		dest = filepath.Join(f.trashDir, TrashName(ts, name))
	}

	if err := movePath(p, dest); err != nil {
		return "", classify("trash", p, err)
	}
	return dest, nil
}

// ListTrash returns every trash entry sorted by name, oldest first.
func (f *FS) ListTrash() ([]TrashEntry, error) {
	entries, err := os.ReadDir(f.trashDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, classify("list trash", f.trashDir, err)
	}
	out := make([]TrashEntry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".jarvis-tmp-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		te := TrashEntry{
			Name:      e.Name(),
			Original:  e.Name(),
			DeletedAt: info.ModTime(),
			IsDir:     e.IsDir(),
			Path:      filepath.Join(f.trashDir, e.Name()),
		}
		if !e.IsDir() {
			te.Size = info.Size()
		}
		if ts, orig, ok := ParseTrashName(e.Name()); ok {
			te.DeletedAt, te.Original = ts, orig
		}
		out = append(out, te)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Restore moves the most recently trashed object named name out of the trash.
// Entries whose original name matches exactly win; otherwise any entry ending
// in "_{name}" qualifies. Among candidates the lexicographically greatest is
// chosen. dest defaults to the restore directory; an existing directory
// receives the object inside it. An existing file at the destination is a
// conflict.
func (f *FS) Restore(name, dest string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", apperr.New(apperr.KindInvalidParameter, "invalid trash name: %q", name)
	}
	entries, err := f.ListTrash()
	if err != nil {
		return "", err
	}

	var exact, suffix []string
	for _, e := range entries {
		switch {
		case e.Original == name && e.Name != name:
			exact = append(exact, e.Name)
		case strings.HasSuffix(e.Name, "_"+name):
			suffix = append(suffix, e.Name)
		}
	}
	candidates := exact
	if len(candidates) == 0 {
		candidates = suffix
	}
	if len(candidates) == 0 {
		return "", apperr.New(apperr.KindNotFound, "%q was not found in the trash", name)
	}
	sort.Strings(candidates)
	chosen := candidates[len(candidates)-1]

	target := strings.TrimSpace(dest)
	if target == "" {
		if f.restoreDir == "" {
			return "", apperr.New(apperr.KindMissingParameter, "no restore destination configured")
		}
		target = filepath.Join(f.restoreDir, name)
	} else {
		target = clean(target)
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			target = filepath.Join(target, name)
		}
	}
	if _, err := os.Lstat(target); err == nil {
		return "", apperr.New(apperr.KindConflict, "destination already exists: %s", target)
	}

	if err := movePath(filepath.Join(f.trashDir, chosen), target); err != nil {
		return "", classify("restore", target, err)
	}
	return target, nil
}
