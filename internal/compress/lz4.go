package compress

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor compresses archives with the LZ4 frame format.
type LZ4Compressor struct {
	level lz4.CompressionLevel
}

// lz4Levels maps config levels 1-9 onto the library's compression levels.
var lz4Levels = map[int]lz4.CompressionLevel{
	1: lz4.Level1,
	2: lz4.Level2,
	3: lz4.Level3,
	4: lz4.Level4,
	5: lz4.Level5,
	6: lz4.Level6,
	7: lz4.Level7,
	8: lz4.Level8,
	9: lz4.Level9,
}

// NewLZ4Compressor creates an LZ4 compressor with the given level.
// Level 0 selects the fast default.
func NewLZ4Compressor(level int) (*LZ4Compressor, error) {
	if level == 0 {
		return &LZ4Compressor{level: lz4.Fast}, nil
	}
	l, ok := lz4Levels[level]
	if !ok {
		return nil, fmt.Errorf("invalid lz4 level: %d", level)
	}
	return &LZ4Compressor{level: l}, nil
}

func (c *LZ4Compressor) Ext() string { return ".lz4" }

// Compress reads inPath and writes an LZ4-compressed copy to outPath.
func (c *LZ4Compressor) Compress(ctx context.Context, inPath, outPath string) error {
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

	zw := lz4.NewWriter(out)
	if err := zw.Apply(lz4.CompressionLevelOption(c.level)); err != nil {
		out.Close()
		return fmt.Errorf("configuring lz4 writer: %w", err)
	}

	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("compressing: %w", err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finishing lz4 stream: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}

var _ Compressor = (*LZ4Compressor)(nil)
