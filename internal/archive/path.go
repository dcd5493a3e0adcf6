package archive

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Path represents a validated filesystem path with cached metadata.
// Path objects are created by FilesystemManager.Resolve() which validates
// the path exists, resolves it to an absolute path, and caches stat info.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath creates a Path from its components.
// This is primarily for use by FilesystemManager implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{
		absPath: absPath,
		isDir:   isDir,
		info:    info,
	}
}

// String returns the absolute path as a string.
func (p *Path) String() string {
	return p.absPath
}

// IsDir returns true if this path points to a directory.
func (p *Path) IsDir() bool {
	return p.isDir
}

// Info returns the cached file info from when the path was resolved.
func (p *Path) Info() fs.FileInfo {
	return p.info
}

// canonPath normalizes separators to forward slashes so paths recorded on
// one platform compare consistently on another.
func canonPath(s string) string {
	return strings.ReplaceAll(s, "\\", "/")
}

// splitHumanPath splits an original absolute path into its parent label and
// item name, using canonical separators. A path with no separator is its
// own parent, mirroring how the reconstructed tree groups items.
func splitHumanPath(original string) (parent, item string) {
	canon := canonPath(original)
	canon = strings.TrimSuffix(canon, "/")
	idx := strings.LastIndex(canon, "/")
	switch {
	case idx < 0:
		return canon, canon
	case idx == 0:
		return "/", canon[1:]
	}
	return canon[:idx], canon[idx+1:]
}

// extOf returns the filename extension of an original path including the
// leading dot, or "" when there is none. The extension determines whether a
// lone-file entry is named <token><ext> or bare <token>.
func extOf(original string) string {
	_, item := splitHumanPath(original)
	return filepath.Ext(item)
}
