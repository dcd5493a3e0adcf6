package compress

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ExternalCompressor shells out to a compression program that filters
// stdin to stdout (gzip, zstd, xz and friends all work this way).
type ExternalCompressor struct {
	command string
	args    []string
	ext     string
}

// NewExternalCompressor creates a compressor that runs the given command.
// ext is the extension the command's format conventionally uses, with the
// leading dot.
func NewExternalCompressor(command string, args []string, ext string) (*ExternalCompressor, error) {
	if command == "" {
		return nil, fmt.Errorf("external compressor requires a command")
	}
	if ext == "" {
		return nil, fmt.Errorf("external compressor requires an extension")
	}
	return &ExternalCompressor{command: command, args: args, ext: ext}, nil
}

func (c *ExternalCompressor) Ext() string { return c.ext }

// Compress pipes inPath through the external command into outPath.
func (c *ExternalCompressor) Compress(ctx context.Context, inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		out.Close()
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("%s exited with status %d", c.command, exitErr.ExitCode())
		}
		return fmt.Errorf("running %s: %w", c.command, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}

var _ Compressor = (*ExternalCompressor)(nil)
