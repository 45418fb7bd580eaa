// Package storage implements the local filesystem operations the assistant
// can perform, including the soft-delete trash.
package storage

import "time"

// WriteMode selects how WriteText treats existing content.
type WriteMode int

const (
	Overwrite WriteMode = iota
	Append
)

// Entry is one directory listing item.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// Match is a file containing the searched text and the first matching lines.
type Match struct {
	Path  string `json:"path"`
	Lines []int  `json:"lines"`
}

// TrashEntry is an object held in the trash root.
type TrashEntry struct {
	Name      string    `json:"name"`
	Original  string    `json:"original"`
	DeletedAt time.Time `json:"deleted_at"`
	Size      int64     `json:"size"`
	IsDir     bool      `json:"is_dir"`
	Path      string    `json:"path"`
}

// Provider is the set of filesystem operations actions are built on.
type Provider interface {
	// CreateDir creates path and any missing parents. Existing directories are fine.
	CreateDir(path string) error
	// List returns the entries of a directory, optionally filtered by extension.
	List(path, filter string) ([]Entry, error)
	// ReadText reads a UTF-8 file no larger than limitMB megabytes.
	ReadText(path string, limitMB float64) (string, error)
	// WriteText writes or appends content, creating parent directories.
	WriteText(path, content string, mode WriteMode) error
	// Copy copies a file or merges a directory tree and returns the final path.
	Copy(src, dst string) (string, error)
	// Move renames src, copying across filesystems, and returns the final path.
	Move(src, dst string) (string, error)
	// Delete trashes path, or removes it for good when permanent is set. It
	// returns the trash location for soft deletes.
	Delete(path string, permanent bool) (string, error)
	// Duplicate copies path next to itself.
	Duplicate(path, newName string) (string, error)
	// SearchText finds files under root whose content contains needle.
	SearchText(root, needle string, exts []string) ([]Match, error)
	// ListTrash returns the trash content sorted by name.
	ListTrash() ([]TrashEntry, error)
	// Restore moves the most recent trashed object with the given original
	// name to dest, or to the default restore directory.
	Restore(name, dest string) (string, error)
	// TrashDir returns the trash root.
	TrashDir() string
}

var _ Provider = (*FS)(nil)
