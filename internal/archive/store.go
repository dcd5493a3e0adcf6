package archive

import (
	"context"
	"io"
)

// ArchiveStore is remote or local storage for finished archives.
// Names are the archive file names as produced by Writer (plus any
// compression extension); implementations treat them opaquely.
type ArchiveStore interface {
	// Put uploads an archive under the given name. size is the exact
	// number of bytes r will deliver.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Get downloads the named archive and writes it to w.
	Get(ctx context.Context, name string, w io.Writer) error

	// List returns the names of all stored archives, sorted.
	List(ctx context.Context) ([]string, error)

	// ValidateSetup verifies the store is reachable and usable.
	ValidateSetup(ctx context.Context) error
}
