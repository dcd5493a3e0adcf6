package compress

import (
	"fmt"

	"konserve-go/internal/config"
)

// NewCompressorFromConfig creates a Compressor based on the compression
// config type. Returns nil when compression is disabled.
func NewCompressorFromConfig(cfg config.CompressionConfig) (Compressor, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Type {
	case "gzip":
		return NewGzipCompressor(cfg.Level)
	case "lz4":
		return NewLZ4Compressor(cfg.Level)
	case "external":
		return NewExternalCompressor(cfg.Command, cfg.Args, cfg.Ext)
	default:
		return nil, fmt.Errorf("unknown compression type: %s", cfg.Type)
	}
}
