package compress

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
)

// GzipCompressor compresses archives with the standard gzip format.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor creates a gzip compressor with the given level.
// Level 0 selects gzip.DefaultCompression.
func NewGzipCompressor(level int) (*GzipCompressor, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if level != gzip.DefaultCompression && (level < gzip.BestSpeed || level > gzip.BestCompression) {
		return nil, fmt.Errorf("invalid gzip level: %d", level)
	}
	return &GzipCompressor{level: level}, nil
}

func (c *GzipCompressor) Ext() string { return ".gz" }

// Compress reads inPath and writes a gzip-compressed copy to outPath.
func (c *GzipCompressor) Compress(ctx context.Context, inPath, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	zw, err := gzip.NewWriterLevel(out, c.level)
	if err != nil {
		out.Close()
		return fmt.Errorf("creating gzip writer: %w", err)
	}

	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("compressing: %w", err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finishing gzip stream: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}

var _ Compressor = (*GzipCompressor)(nil)
