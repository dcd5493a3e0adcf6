package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// archiveNameLayout is the timestamp format used in archive filenames.
const archiveNameLayout = "2006-01-02_15-04-05"

// Writer packages a selection of files and folders into a tar archive with
// an embedded manifest. One token is assigned per top-level input; all
// entries beneath a folder input share its token as a name prefix.
type Writer struct {
	fsmgr  FilesystemManager
	tokens TokenGenerator
	clock  Clock
	logger Logger
}

// NewWriter creates a Writer with the provided dependencies.
func NewWriter(fsmgr FilesystemManager, tokens TokenGenerator, clock Clock, logger Logger) *Writer {
	return &Writer{
		fsmgr:  fsmgr,
		tokens: tokens,
		clock:  clock,
		logger: logger,
	}
}

// assignment pairs a top-level input with its freshly minted token.
type assignment struct {
	token Token
	input *Path
}

// Write creates backup_<timestamp>.tar under destDir containing every
// input, and returns the path of the created archive along with the number
// of files it packaged. marker is the build
// identity recorded in the manifest. Progress is reported as completed
// files over the precomputed total, with ProgressDone stored once the
// archive is flushed.
//
// Any read or write failure aborts the whole operation; a half-written
// archive may be left behind but is never silently reported as success.
func (w *Writer) Write(inputs []*Path, destDir string, marker string, progress *Progress) (string, int, error) {
	archivePath := filepath.Join(destDir, "backup_"+w.clock.Now().Format(archiveNameLayout)+".tar")
	w.logger.Info("backup started", "archive", archivePath, "inputs", len(inputs))

	f, err := os.Create(archivePath)
	if err != nil {
		return "", 0, &IOError{Path: archivePath, Err: err}
	}
	defer f.Close()

	tw := tar.NewWriter(f)

	// One token per top-level input, assigned up front so the manifest can
	// be written before any payload.
	assignments := make([]assignment, 0, len(inputs))
	manifest := NewManifest(marker)
	for _, input := range inputs {
		a := assignment{token: w.tokens.New(), input: input}
		assignments = append(assignments, a)
		manifest.Add(a.token, input.String())
		w.logger.Debug("token assigned", "token", string(a.token), "path", input.String())
	}

	totalFiles, err := w.countFiles(inputs)
	if err != nil {
		return "", 0, err
	}

	if err := w.writeManifest(tw, manifest); err != nil {
		return "", 0, err
	}

	done := uint32(0)
	for _, a := range assignments {
		if !a.input.IsDir() {
			if err := w.writeLoneFile(tw, a); err != nil {
				return "", 0, err
			}
			done++
			progress.Set(done * 100 / totalFiles)
			continue
		}

		if err := w.writeFolder(tw, a, totalFiles, &done, progress); err != nil {
			return "", 0, err
		}
	}

	if err := tw.Close(); err != nil {
		return "", 0, &IOError{Path: archivePath, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", 0, &IOError{Path: archivePath, Err: err}
	}

	progress.Done()
	w.logger.Info("backup complete", "archive", archivePath, "files", totalFiles)
	return archivePath, int(totalFiles), nil
}

// countFiles walks every input and counts regular files. Directories do not
// count toward the progress denominator. The result is floored at 1 so an
// all-empty-directory backup cannot divide by zero.
func (w *Writer) countFiles(inputs []*Path) (uint32, error) {
	var total uint32
	for _, input := range inputs {
		if !input.IsDir() {
			total++
			continue
		}
		err := w.fsmgr.Walk(input, func(absPath string, info fs.FileInfo) error {
			if info.Mode().IsRegular() {
				total++
			}
			return nil
		})
		if err != nil {
			return 0, &IOError{Path: input.String(), Err: err}
		}
	}
	if total == 0 {
		total = 1
	}
	return total, nil
}

// writeManifest emits the fingerprint entry. It has no backing filesystem
// object, so size, mode and mtime are set explicitly.
func (w *Writer) writeManifest(tw *tar.Writer, manifest *Manifest) error {
	data := manifest.Render()
	hdr := &tar.Header{
		Name:     ManifestName,
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  w.clock.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return &IOError{Path: ManifestName, Err: err}
	}
	if _, err := tw.Write(data); err != nil {
		return &IOError{Path: ManifestName, Err: err}
	}
	return nil
}

// writeLoneFile emits a single top-level file as <token> or <token><ext>.
// Keeping the original extension on the entry name is what lets the restore
// side tell a lone file from a folder root without consulting the manifest.
func (w *Writer) writeLoneFile(tw *tar.Writer, a assignment) error {
	entryName := string(a.token)
	if ext := filepath.Ext(a.input.String()); ext != "" {
		entryName += ext
	}
	return w.writeFileEntry(tw, a.input.String(), entryName, a.input.Info())
}

// writeFolder walks a directory input and emits one entry per descendant.
// Directories are written as zero-length entries purely to preserve empty
// directory structure on restore.
func (w *Writer) writeFolder(tw *tar.Writer, a assignment, totalFiles uint32, done *uint32, progress *Progress) error {
	root := a.input.String()
	return w.fsmgr.Walk(a.input, func(absPath string, info fs.FileInfo) error {
		rel, err := filepath.Rel(root, absPath)
		if err != nil {
			return &IOError{Path: absPath, Err: err}
		}

		entryName := string(a.token) + "/"
		if rel != "." {
			entryName += filepath.ToSlash(rel)
		}

		if info.IsDir() {
			if !strings.HasSuffix(entryName, "/") {
				entryName += "/"
			}
			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return &IOError{Path: absPath, Err: err}
			}
			hdr.Name = entryName
			if err := tw.WriteHeader(hdr); err != nil {
				return &IOError{Path: absPath, Err: err}
			}
			return nil
		}

		if err := w.writeFileEntry(tw, absPath, entryName, info); err != nil {
			return err
		}
		*done++
		progress.Set(*done * 100 / totalFiles)
		return nil
	})
}

// writeFileEntry streams one regular file into the archive under entryName.
func (w *Writer) writeFileEntry(tw *tar.Writer, absPath, entryName string, info fs.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return &IOError{Path: absPath, Err: err}
	}
	hdr.Name = entryName

	if err := tw.WriteHeader(hdr); err != nil {
		return &IOError{Path: absPath, Err: err}
	}

	src, err := w.fsmgr.Open(absPath)
	if err != nil {
		return &IOError{Path: absPath, Err: err}
	}
	defer src.Close()

	written, err := io.Copy(tw, src)
	if err != nil {
		return &IOError{Path: absPath, Err: err}
	}
	if written != hdr.Size {
		return &IOError{Path: absPath, Err: fmt.Errorf("short read: wrote %d of %d bytes", written, hdr.Size)}
	}

	w.logger.Debug("entry written", "name", entryName, "size", hdr.Size)
	return nil
}
