package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"konserve-go/internal/archive"
)

// FileSystemStore is a filesystem-based implementation of the ArchiveStore
// interface. It stores archives as files under a single directory:
//
//	<root>/
//	  archives/
//	    <name>    (archive files)
type FileSystemStore struct {
	name        string
	root        string
	archivesDir string
}

// NewFileSystemStore creates a new filesystem store rooted at the given path.
func NewFileSystemStore(name, root string) (*FileSystemStore, error) {
	archivesDir := filepath.Join(root, "archives")

	if err := os.MkdirAll(archivesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archives directory: %w", err)
	}

	return &FileSystemStore{
		name:        name,
		root:        root,
		archivesDir: archivesDir,
	}, nil
}

// Put stores an archive under the given name.
// The operation is idempotent: storing the same name again overwrites it.
func (s *FileSystemStore) Put(_ context.Context, name string, r io.Reader, size int64) error {
	return s.writeFile(filepath.Join(s.archivesDir, name), r, size)
}

// Get retrieves an archive by name and writes it to w.
func (s *FileSystemStore) Get(_ context.Context, name string, w io.Writer) error {
	srcPath := filepath.Join(s.archivesDir, name)

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("archive not found: %s", name)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	return nil
}

// List returns the names of all stored archives, sorted.
func (s *FileSystemStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.archivesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archives directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup verifies that the store directories are accessible.
func (s *FileSystemStore) ValidateSetup(_ context.Context) error {
	for _, dir := range []string{s.root, s.archivesDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("store directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (s *FileSystemStore) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStore implements the ArchiveStore interface
var _ archive.ArchiveStore = (*FileSystemStore)(nil)
