package testutil

import (
	"archive/tar"
	"io"
	"os"
	"testing"
)

// ListTarEntries returns the entry names of a tar archive in order.
func ListTarEntries(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer f.Close()

	var names []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading archive: %v", err)
		}
		names = append(names, hdr.Name)
	}
	return names
}

// ReadTarEntry returns the content of a named entry, failing the test if
// the entry is absent.
func ReadTarEntry(t *testing.T, path, name string) []byte {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading archive: %v", err)
		}
		if hdr.Name == name {
			data, err := io.ReadAll(tr)
			if err != nil {
				t.Fatalf("reading entry %s: %v", name, err)
			}
			return data
		}
	}

	t.Fatalf("entry not found: %s", name)
	return nil
}
