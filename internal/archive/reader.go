package archive

import (
	"archive/tar"
	"errors"
	"io"
	"os"
)

// Reader lists an archive's contents and recovers its manifest. The tar
// container is a forward-only stream with no index, so a full read takes
// two sequential passes: one that stops as soon as the manifest has been
// parsed, and one that collects every remaining entry name.
type Reader struct {
	logger Logger
}

// NewReader creates a Reader.
func NewReader(logger Logger) *Reader {
	return &Reader{logger: logger}
}

// Read returns the names of all non-manifest entries plus the parsed
// manifest. An archive without a manifest entry is rejected as invalid.
func (r *Reader) Read(archivePath string) ([]string, *Manifest, error) {
	manifest, err := r.readManifest(archivePath)
	if err != nil {
		return nil, nil, err
	}

	entries, err := r.listEntries(archivePath)
	if err != nil {
		return nil, nil, err
	}

	r.logger.Debug("archive read", "path", archivePath, "entries", len(entries), "tokens", len(manifest.Entries))
	return entries, manifest, nil
}

// readManifest scans the archive until the manifest entry is found and
// parses it. Scanning stops early on a hit; a full scan without one means
// the archive was not produced by this program.
func (r *Reader) readManifest(archivePath string) (*Manifest, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, &IOError{Path: archivePath, Err: err}
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &IOError{Path: archivePath, Err: err}
		}
		if hdr.Name != ManifestName {
			continue
		}

		manifest, err := ParseManifest(tr)
		if err != nil {
			return nil, &IOError{Path: archivePath, Err: err}
		}
		return manifest, nil
	}

	return nil, &InvalidArchiveError{Reason: "no " + ManifestName + " entry"}
}

// listEntries re-opens the archive and collects every entry name except the
// manifest's own.
func (r *Reader) listEntries(archivePath string) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, &IOError{Path: archivePath, Err: err}
	}
	defer f.Close()

	var entries []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &IOError{Path: archivePath, Err: err}
		}
		if hdr.Name == ManifestName {
			continue
		}
		entries = append(entries, hdr.Name)
	}

	return entries, nil
}
