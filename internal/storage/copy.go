package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

func movePath(source, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	if err := os.Rename(source, destination); err == nil {
		return nil
	} else if !isCrossDeviceRenameError(err) {
		return err
	}

	if err := copyPathRecursive(source, destination); err != nil {
		return err
	}
	return os.RemoveAll(source)
}

func isCrossDeviceRenameError(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && strings.Contains(strings.ToLower(linkErr.Err.Error()), "cross-device") {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "cross-device")
}

// copyPathRecursive copies a file, or merges a directory tree into
// destination. Modes and modification times are preserved.
func copyPathRecursive(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(source, destination, info)
	}

	if err := os.MkdirAll(destination, info.Mode().Perm()); err != nil {
		return err
	}

	var dirs []string
	err = filepath.WalkDir(source, func(current string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(source, current)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(destination, rel)

		entryInfo, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		if entry.IsDir() {
			dirs = append(dirs, current)
			return os.MkdirAll(target, entryInfo.Mode().Perm())
		}
		if entry.Type()&os.ModeSymlink != 0 {
			return copySymlink(current, target)
		}
		return copyFile(current, target, entryInfo)
	})
	if err != nil {
		return err
	}

	// Directory times change while their children are written, so they are
	// restored last.
	for i := len(dirs) - 1; i >= 0; i-- {
		dinfo, err := os.Stat(dirs[i])
		if err != nil {
			continue
		}
		rel, _ := filepath.Rel(source, dirs[i])
		_ = os.Chtimes(filepath.Join(destination, rel), dinfo.ModTime(), dinfo.ModTime())
	}
	return nil
}

func copyFile(source, destination string, info os.FileInfo) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	output, err := os.OpenFile(destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(output, input)
	closeErr := output.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return closeErr
	}

	// O_CREATE honours the umask and leaves existing files' bits alone.
	if err := os.Chmod(destination, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(destination, info.ModTime(), info.ModTime())
}

func copySymlink(source, destination string) error {
	target, err := os.Readlink(source)
	if err != nil {
		return err
	}
	_ = os.Remove(destination)
	return os.Symlink(target, destination)
}
