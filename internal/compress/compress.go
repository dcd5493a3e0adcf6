// Package compress post-processes finished archives. A Compressor reads a
// plain archive file and produces a compressed copy alongside it; the engine
// deletes the plain file once compression succeeds.
package compress

import "context"

// Compressor compresses a file on disk into a new file.
type Compressor interface {
	// Compress reads inPath and writes the compressed result to outPath.
	// outPath is left in an undefined state on error.
	Compress(ctx context.Context, inPath, outPath string) error

	// Ext returns the file extension this compressor appends, including
	// the leading dot (".gz", ".lz4").
	Ext() string
}
