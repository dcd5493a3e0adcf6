package archive

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Restorer streams selected entries out of an archive back onto the
// filesystem, adjusting destinations for the current environment.
type Restorer struct {
	reconciler PathReconciler
	logger     Logger
}

// NewRestorer creates a Restorer with the provided dependencies.
func NewRestorer(reconciler PathReconciler, logger Logger) *Restorer {
	return &Restorer{reconciler: reconciler, logger: logger}
}

// Restore extracts entries from the archive. selection nil means restore
// everything; otherwise only entries the selection resolves to are
// extracted. marker is the running build's identity; an archive whose
// manifest does not carry it is rejected before any filesystem write.
//
// Entries whose name matches no known token are skipped, not errors, so
// a truncated or foreign archive restores what it can. Returns the number
// of entries actually written.
func (r *Restorer) Restore(archivePath string, marker string, selection []string, progress *Progress) (int, error) {
	manifest, err := r.validateManifest(archivePath, marker)
	if err != nil {
		return 0, err
	}
	pathMap := manifest.PathMap()
	r.logger.Info("restore started", "archive", archivePath, "tokens", len(pathMap))

	var extract ExtractionSet
	if selection != nil {
		extract = ResolveSelection(selection, pathMap)
		r.logger.Debug("selection resolved", "selected", len(selection), "entries", len(extract))
	}

	total, err := r.countEntries(archivePath, extract)
	if err != nil {
		return 0, err
	}

	return r.extract(archivePath, pathMap, extract, total, progress)
}

// validateManifest parses the manifest and enforces the build-marker gate.
func (r *Restorer) validateManifest(archivePath string, marker string) (*Manifest, error) {
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
		if !manifest.ValidFor(marker) {
			return nil, &InvalidArchiveError{Reason: "build marker mismatch"}
		}
		return manifest, nil
	}

	return nil, &InvalidArchiveError{Reason: "no " + ManifestName + " entry"}
}

// countEntries makes a dedicated pass to precompute the progress
// denominator: file and directory entries that will actually be processed.
// Floored at 1 to keep the percentage arithmetic safe.
func (r *Restorer) countEntries(archivePath string, extract ExtractionSet) (uint32, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, &IOError{Path: archivePath, Err: err}
	}
	defer f.Close()

	var total uint32
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, &IOError{Path: archivePath, Err: err}
		}
		if hdr.Name == ManifestName {
			continue
		}
		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeDir {
			continue
		}
		if extract != nil && !extract.Contains(hdr.Name) {
			continue
		}
		total++
	}

	if total == 0 {
		total = 1
	}
	return total, nil
}

// extract performs the final pass, writing matching entries to their
// reconciled destinations.
func (r *Restorer) extract(archivePath string, pathMap map[Token]string, extract ExtractionSet, total uint32, progress *Progress) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, &IOError{Path: archivePath, Err: err}
	}
	defer f.Close()

	restored := 0
	done := uint32(0)
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return restored, &IOError{Path: archivePath, Err: err}
		}
		if hdr.Name == ManifestName {
			continue
		}
		if extract != nil && !extract.Contains(hdr.Name) {
			continue
		}

		dest, ok := r.destinationFor(hdr.Name, pathMap)
		if !ok {
			r.logger.Debug("entry skipped", "name", hdr.Name, "reason", "unknown token")
			continue
		}

		if err := r.writeEntry(tr, hdr, dest); err != nil {
			return restored, err
		}

		restored++
		done++
		progress.Set(done * 100 / total)
		r.logger.Debug("entry restored", "name", hdr.Name, "dest", dest)
	}

	progress.Done()
	r.logger.Info("restore complete", "restored", restored)
	return restored, nil
}

// destinationFor maps an entry name to its on-disk destination.
// "<token>/<rest>" lands under the reconciled original folder path;
// "<token>" or "<token><ext>" lands at the reconciled original file path.
// Anything else is an unknown shape and is skipped.
func (r *Restorer) destinationFor(entryName string, pathMap map[Token]string) (string, bool) {
	name := strings.TrimSuffix(entryName, "/")
	root, rest, nested := strings.Cut(name, "/")

	if original, ok := pathMap[Token(root)]; ok {
		base := r.reconciler.Reconcile(original)
		if !nested || rest == "" {
			return base, true
		}
		return filepath.Join(base, filepath.FromSlash(rest)), true
	}

	if nested {
		return "", false
	}

	// Lone file with extension: <token>.<ext>.
	tokenPart, _, hasExt := strings.Cut(root, ".")
	if !hasExt {
		return "", false
	}
	original, ok := pathMap[Token(tokenPart)]
	if !ok {
		return "", false
	}
	return r.reconciler.Reconcile(original), true
}

// writeEntry materializes one tar entry at dest, creating parent
// directories on demand and carrying mode and mtime over from the header.
func (r *Restorer) writeEntry(tr *tar.Reader, hdr *tar.Header, dest string) error {
	if hdr.Typeflag == tar.TypeDir {
		if err := os.MkdirAll(dest, fs.FileMode(hdr.Mode)&fs.ModePerm|0700); err != nil {
			return &IOError{Path: dest, Err: err}
		}
		return nil
	}
	if hdr.Typeflag != tar.TypeReg {
		r.logger.Debug("entry skipped", "name", hdr.Name, "reason", "unsupported type")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return &IOError{Path: filepath.Dir(dest), Err: err}
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fs.FileMode(hdr.Mode)&fs.ModePerm)
	if err != nil {
		return &IOError{Path: dest, Err: err}
	}

	if _, err := io.Copy(out, tr); err != nil {
		out.Close()
		return &IOError{Path: dest, Err: err}
	}
	if err := out.Close(); err != nil {
		return &IOError{Path: dest, Err: err}
	}

	if !hdr.ModTime.IsZero() {
		if err := os.Chtimes(dest, hdr.ModTime, hdr.ModTime); err != nil {
			return &IOError{Path: dest, Err: err}
		}
	}
	return nil
}
