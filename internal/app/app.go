package app

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"

	"konserve-go/internal/archive"
	"konserve-go/internal/catalog"
	konservecompress "konserve-go/internal/compress"
	"konserve-go/internal/config"
	"konserve-go/internal/fs"
	"konserve-go/internal/store"
	"konserve-go/internal/version"
)

// KonserveApp is the application layer between the CLI and the archive
// engine. It constructs all dependencies from config, exposes high-level
// operations that accept raw string paths, and manages resource lifecycle
// on Close.
type KonserveApp struct {
	cfg        *config.Config
	fsmgr      archive.FilesystemManager
	writer     *archive.Writer
	reader     *archive.Reader
	restorer   *archive.Restorer
	compressor konservecompress.Compressor
	store      archive.ArchiveStore
	catalog    catalog.Catalog
	logger     archive.Logger
	logFile    *os.File
}

// NewKonserveApp creates a fully wired KonserveApp from the given config.
// operation identifies the CLI command being run (e.g. "backup", "restore").
// The caller must call Close when done.
func NewKonserveApp(cfg *config.Config, operation string) (*KonserveApp, error) {
	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)

	compressor, err := konservecompress.NewCompressorFromConfig(cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}

	catalogCfg := cfg.Catalog
	if catalogCfg.Type == "" {
		catalogCfg.Type = "memory"
	}
	cat, err := catalog.NewCatalogFromConfig(catalogCfg)
	if err != nil {
		return nil, fmt.Errorf("creating catalog: %w", err)
	}

	var archiveStore archive.ArchiveStore
	if cfg.Store.Type != "" {
		archiveStore, err = store.NewStoreFromConfig(context.Background(), cfg.Store)
		if err != nil {
			cat.Close()
			return nil, fmt.Errorf("creating store: %w", err)
		}
	}

	reconciler, err := archive.NewHomeReconciler()
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("creating path reconciler: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z") + "-" + operation
	slogger, logFile, err := newLogger(cfg.LogDir, opID, cfg.VerboseLogging)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	return &KonserveApp{
		cfg:        cfg,
		fsmgr:      fsmgr,
		writer:     archive.NewWriter(fsmgr, archive.UUIDTokenGenerator{}, archive.RealClock{}, logger),
		reader:     archive.NewReader(logger),
		restorer:   archive.NewRestorer(reconciler, logger),
		compressor: compressor,
		store:      archiveStore,
		catalog:    cat,
		logger:     logger,
		logFile:    logFile,
	}, nil
}

// Backup archives the given raw paths into the configured backup directory.
// Duplicate inputs are collapsed before tokens are assigned. Returns the
// final archive path (after optional compression) and the file count.
func (a *KonserveApp) Backup(rawPaths []string, progress *archive.Progress) (string, int, error) {
	inputs, err := a.resolveInputs(rawPaths)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(a.cfg.BackupDir, 0755); err != nil {
		return "", 0, fmt.Errorf("creating backup directory: %w", err)
	}

	runID, err := a.catalog.RecordRun(catalog.OpBackup, a.cfg.BackupDir, time.Now())
	if err != nil {
		return "", 0, fmt.Errorf("recording run: %w", err)
	}

	archivePath, fileCount, err := a.writer.Write(inputs, a.cfg.BackupDir, version.Marker, progress)
	if err != nil {
		a.finishRun(runID, catalog.StatusFailed, 0)
		return "", 0, err
	}

	finalPath, err := a.postProcess(archivePath)
	if err != nil {
		a.finishRun(runID, catalog.StatusFailed, int64(fileCount))
		return "", 0, err
	}

	a.finishRun(runID, catalog.StatusCompleted, int64(fileCount))
	return finalPath, fileCount, nil
}

// resolveInputs validates raw paths and drops duplicates. The first
// occurrence wins; order is otherwise preserved.
func (a *KonserveApp) resolveInputs(rawPaths []string) ([]*archive.Path, error) {
	seen := make(map[string]bool, len(rawPaths))
	inputs := make([]*archive.Path, 0, len(rawPaths))
	for _, raw := range rawPaths {
		p, err := a.fsmgr.Resolve(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving path %s: %w", raw, err)
		}
		if seen[p.String()] {
			a.logger.Warn("duplicate input dropped", "path", p.String())
			continue
		}
		seen[p.String()] = true
		inputs = append(inputs, p)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs to back up")
	}
	return inputs, nil
}

// postProcess compresses the archive if compression is configured, removing
// the plain archive once the compressed copy is complete.
func (a *KonserveApp) postProcess(archivePath string) (string, error) {
	if a.compressor == nil {
		return archivePath, nil
	}

	outPath := archivePath + a.compressor.Ext()
	if err := a.compressor.Compress(context.Background(), archivePath, outPath); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("compressing archive: %w", err)
	}
	if err := os.Remove(archivePath); err != nil {
		return "", fmt.Errorf("removing plain archive: %w", err)
	}

	a.logger.Info("archive compressed", "archive", outPath)
	return outPath, nil
}

// Inspect reads an archive and returns its manifest together with the
// selection tree built from its entries.
func (a *KonserveApp) Inspect(archivePath string) (*archive.Manifest, *archive.TreeNode, error) {
	plainPath, cleanup, err := a.ensurePlain(archivePath)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	entries, manifest, err := a.reader.Read(plainPath)
	if err != nil {
		return nil, nil, err
	}

	tree := archive.BuildTree(entries, manifest.PathMap())
	return manifest, tree, nil
}

// Restore extracts entries from an archive. selection is a list of
// human-readable "parent/item" paths as produced by the selection tree;
// nil restores everything. Returns the number of entries restored.
func (a *KonserveApp) Restore(archivePath string, selection []string, progress *archive.Progress) (int, error) {
	plainPath, cleanup, err := a.ensurePlain(archivePath)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	runID, err := a.catalog.RecordRun(catalog.OpRestore, archivePath, time.Now())
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}

	restored, err := a.restorer.Restore(plainPath, version.Marker, selection, progress)
	if err != nil {
		a.finishRun(runID, catalog.StatusFailed, int64(restored))
		return restored, err
	}

	a.finishRun(runID, catalog.StatusCompleted, int64(restored))
	return restored, nil
}

// History returns the most recent backup and restore runs, newest first.
func (a *KonserveApp) History(limit int) ([]catalog.Run, error) {
	return a.catalog.ListRuns(limit)
}

// StorePush uploads an archive file to the configured store under its
// base name.
func (a *KonserveApp) StorePush(ctx context.Context, archivePath string) error {
	if a.store == nil {
		return fmt.Errorf("no store configured")
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return &archive.IOError{Path: archivePath, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &archive.IOError{Path: archivePath, Err: err}
	}

	name := filepath.Base(archivePath)
	if err := a.store.Put(ctx, name, f, info.Size()); err != nil {
		return fmt.Errorf("pushing archive to store: %w", err)
	}

	a.logger.Info("archive pushed", "name", name)
	return nil
}

// StoreFetch downloads a named archive from the configured store into
// destDir and returns the local path.
func (a *KonserveApp) StoreFetch(ctx context.Context, name, destDir string) (string, error) {
	if a.store == nil {
		return "", fmt.Errorf("no store configured")
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("creating destination directory: %w", err)
	}

	destPath := filepath.Join(destDir, name)
	f, err := os.Create(destPath)
	if err != nil {
		return "", &archive.IOError{Path: destPath, Err: err}
	}

	if err := a.store.Get(ctx, name, f); err != nil {
		f.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("fetching archive from store: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", &archive.IOError{Path: destPath, Err: err}
	}

	a.logger.Info("archive fetched", "name", name, "path", destPath)
	return destPath, nil
}

// StoreList returns the names of archives in the configured store.
func (a *KonserveApp) StoreList(ctx context.Context) ([]string, error) {
	if a.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	return a.store.List(ctx)
}

// ensurePlain makes a readable tar out of archivePath. Plain archives are
// returned as-is; gzip and lz4 archives are decompressed to a temp file
// which the returned cleanup removes. Externally compressed formats are
// not handled here.
func (a *KonserveApp) ensurePlain(archivePath string) (string, func(), error) {
	nop := func() {}

	var open func(io.Reader) (io.Reader, error)
	switch {
	case strings.HasSuffix(archivePath, ".tar"):
		return archivePath, nop, nil
	case strings.HasSuffix(archivePath, ".gz"):
		open = func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }
	case strings.HasSuffix(archivePath, ".lz4"):
		open = func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil }
	default:
		// Unknown extension: assume it is already a plain tar.
		return archivePath, nop, nil
	}

	src, err := os.Open(archivePath)
	if err != nil {
		return "", nop, &archive.IOError{Path: archivePath, Err: err}
	}
	defer src.Close()

	zr, err := open(src)
	if err != nil {
		return "", nop, fmt.Errorf("opening compressed archive: %w", err)
	}

	tmp, err := os.CreateTemp("", "konserve-*.tar")
	if err != nil {
		return "", nop, fmt.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := io.Copy(tmp, zr); err != nil {
		tmp.Close()
		cleanup()
		return "", nop, fmt.Errorf("decompressing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nop, fmt.Errorf("closing temp archive: %w", err)
	}

	return tmpPath, cleanup, nil
}

// finishRun records the run outcome, logging rather than failing when the
// catalog write itself goes wrong.
func (a *KonserveApp) finishRun(runID, status string, fileCount int64) {
	if err := a.catalog.FinishRun(runID, status, fileCount, time.Now()); err != nil {
		a.logger.Error("finishing run", "run", runID, "error", err)
	}
}

// Close releases the catalog and the log file.
func (a *KonserveApp) Close() error {
	var firstErr error

	if err := a.catalog.Close(); err != nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}
