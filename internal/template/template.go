// Package template persists reusable lists of backup inputs.
package template

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"konserve-go/internal/archive"
)

// Template is a named set of paths to back up together.
type Template struct {
	Name  string   `toml:"name"`
	Paths []string `toml:"paths"`
}

// Load reads a template from the given file.
func Load(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &archive.IOError{Path: path, Err: err}
	}
	defer f.Close()

	var t Template
	if _, err := toml.NewDecoder(f).Decode(&t); err != nil {
		return nil, &archive.SerializationError{Err: fmt.Errorf("decoding template %s: %w", path, err)}
	}
	return &t, nil
}

// Save writes the template to the given file, creating parent directories
// as needed.
func Save(path string, t *Template) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &archive.IOError{Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &archive.IOError{Path: path, Err: err}
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(t); err != nil {
		return &archive.SerializationError{Err: fmt.Errorf("encoding template %s: %w", path, err)}
	}
	return nil
}

// FixPaths resolves the template's paths against the current machine.
// A path that exists is kept as-is. A path that does not exist is run
// through the reconciler; if the reconciled path exists it is used.
// Paths that exist in neither form are returned in skipped.
func (t *Template) FixPaths(reconciler archive.PathReconciler) (valid, skipped []string) {
	for _, p := range t.Paths {
		if _, err := os.Stat(p); err == nil {
			valid = append(valid, p)
			continue
		}

		adjusted := reconciler.Reconcile(p)
		if _, err := os.Stat(adjusted); err == nil {
			valid = append(valid, adjusted)
			continue
		}

		skipped = append(skipped, p)
	}
	return valid, skipped
}
