package archive

import (
	"io"
	"io/fs"
)

// WalkFunc is invoked for every descendant of a walked directory, the
// directory itself included. Directories are visited before their contents.
type WalkFunc func(absPath string, info fs.FileInfo) error

// FilesystemManager provides an interface for source filesystem operations.
// It abstracts file access so the writer can be exercised against both real
// directories and test fixtures.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object.
	// It resolves the path to an absolute path, stats it, and validates
	// it's a regular file or directory (not a symlink, device, etc.).
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(absPath string) (io.ReadCloser, error)

	// Walk traverses a directory in pre-order, calling fn for the root and
	// every descendant file and directory. Entries matching the manager's
	// ignore rules are skipped, ignored directories along with their
	// contents.
	Walk(root *Path, fn WalkFunc) error
}
