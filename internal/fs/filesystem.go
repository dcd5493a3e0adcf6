package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"konserve-go/internal/archive"
)

// OSFilesystemManager is the real filesystem implementation of
// archive.FilesystemManager. It performs actual filesystem operations using
// the os package, filtering walked entries through ignore rules.
type OSFilesystemManager struct {
	configPatterns []string
}

// NewOSFilesystemManager creates a new filesystem manager that operates on
// the real filesystem. configPatterns are ignore patterns applied to every
// walked directory, in addition to any per-directory ignore file.
func NewOSFilesystemManager(configPatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{configPatterns: configPatterns}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*archive.Path, error) {
	// Convert to absolute path
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	// Stat the path
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	// Check for special file types we don't support
	mode := info.Mode()
	if mode&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlinks not supported: %s", absPath)
	}
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return archive.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(absPath string) (io.ReadCloser, error) {
	return os.Open(absPath)
}

// Walk traverses root in pre-order, visiting the root itself, every
// descendant directory and every regular file. Entries matching the ignore
// rules are skipped; an ignored directory is pruned with its contents.
// Irregular files (sockets, devices, symlinks) are silently left out.
func (m *OSFilesystemManager) Walk(root *archive.Path, fn archive.WalkFunc) error {
	if !root.IsDir() {
		return fmt.Errorf("path is not a directory: %s", root.String())
	}

	matcher, err := m.matcherFor(root.String())
	if err != nil {
		return err
	}

	return filepath.WalkDir(root.String(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root.String(), p)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}

		if rel != "." && matcher.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		return fn(p, info)
	})
}

// matcherFor combines config-level patterns with the root's own ignore
// file, if present.
func (m *OSFilesystemManager) matcherFor(root string) (*IgnoreMatcher, error) {
	filePatterns, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}

	patterns := make([]string, 0, len(m.configPatterns)+len(filePatterns))
	patterns = append(patterns, m.configPatterns...)
	patterns = append(patterns, filePatterns...)
	return NewIgnoreMatcher(patterns), nil
}
