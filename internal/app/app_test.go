package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"konserve-go/internal/archive"
	"konserve-go/internal/config"
)

// newTestApp builds an app rooted in a temp dir with an in-memory catalog
// and store. Compression is left to the caller.
func newTestApp(t *testing.T, compression config.CompressionConfig) *KonserveApp {
	t.Helper()

	cfg := config.NewConfig(t.TempDir())
	cfg.Catalog = config.CatalogConfig{Type: "memory"}
	cfg.Store = config.StoreConfig{Type: "memory", Name: "test"}
	cfg.Compression = compression

	a, err := NewKonserveApp(cfg, "test")
	if err != nil {
		t.Fatalf("NewKonserveApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// writeSourceTree creates a small folder plus a lone file and returns
// their paths.
func writeSourceTree(t *testing.T) (folder, loneFile string) {
	t.Helper()

	src := t.TempDir()
	folder = filepath.Join(src, "proj")
	if err := os.MkdirAll(filepath.Join(folder, "sub"), 0755); err != nil {
		t.Fatalf("creating source tree: %v", err)
	}
	for path, content := range map[string]string{
		filepath.Join(folder, "a.txt"):          "alpha",
		filepath.Join(folder, "sub", "b.bin"):   "beta",
		filepath.Join(src, "notes.md"):          "notes",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
	return folder, filepath.Join(src, "notes.md")
}

func TestKonserveApp_BackupInspectRestore(t *testing.T) {
	a := newTestApp(t, config.CompressionConfig{})
	folder, loneFile := writeSourceTree(t)

	archivePath, fileCount, err := a.Backup([]string{folder, loneFile}, archive.NewProgress())
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if !strings.HasSuffix(archivePath, ".tar") {
		t.Errorf("archive path = %q, want .tar suffix", archivePath)
	}
	if fileCount != 3 {
		t.Errorf("fileCount = %d, want 3", fileCount)
	}

	manifest, tree, err := a.Inspect(archivePath)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	pathMap := manifest.PathMap()
	if len(pathMap) != 2 {
		t.Errorf("manifest has %d tokens, want 2", len(pathMap))
	}
	if len(tree.Children) == 0 {
		t.Error("selection tree is empty")
	}

	// Remove the originals so the restore visibly recreates them.
	if err := os.RemoveAll(folder); err != nil {
		t.Fatalf("removing folder: %v", err)
	}
	if err := os.Remove(loneFile); err != nil {
		t.Fatalf("removing lone file: %v", err)
	}

	restored, err := a.Restore(archivePath, nil, archive.NewProgress())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	// Two directories, two folder files, one lone file.
	if restored != 5 {
		t.Errorf("restored = %d, want 5", restored)
	}

	for path, want := range map[string]string{
		filepath.Join(folder, "a.txt"):        "alpha",
		filepath.Join(folder, "sub", "b.bin"): "beta",
		loneFile:                              "notes",
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("reading %s: %v", path, err)
			continue
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", path, data, want)
		}
	}
}

func TestKonserveApp_Backup_DuplicateInputsCollapsed(t *testing.T) {
	a := newTestApp(t, config.CompressionConfig{})
	_, loneFile := writeSourceTree(t)

	archivePath, fileCount, err := a.Backup([]string{loneFile, loneFile}, archive.NewProgress())
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if fileCount != 1 {
		t.Errorf("fileCount = %d, want 1", fileCount)
	}

	manifest, _, err := a.Inspect(archivePath)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if got := len(manifest.PathMap()); got != 1 {
		t.Errorf("manifest has %d tokens, want 1", got)
	}
}

func TestKonserveApp_Backup_NoInputs(t *testing.T) {
	a := newTestApp(t, config.CompressionConfig{})

	if _, _, err := a.Backup(nil, archive.NewProgress()); err == nil {
		t.Fatal("Backup() expected error for empty input list")
	}
}

func TestKonserveApp_CompressedRoundTrip(t *testing.T) {
	a := newTestApp(t, config.CompressionConfig{Enabled: true, Type: "gzip"})
	folder, _ := writeSourceTree(t)

	archivePath, _, err := a.Backup([]string{folder}, archive.NewProgress())
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if !strings.HasSuffix(archivePath, ".tar.gz") {
		t.Errorf("archive path = %q, want .tar.gz suffix", archivePath)
	}

	// The plain archive must be gone once the compressed copy exists.
	plain := strings.TrimSuffix(archivePath, ".gz")
	if _, err := os.Stat(plain); !os.IsNotExist(err) {
		t.Errorf("plain archive still present at %s", plain)
	}

	// Inspect and restore must work directly on the compressed file.
	if _, _, err := a.Inspect(archivePath); err != nil {
		t.Fatalf("Inspect() on compressed archive error = %v", err)
	}

	if err := os.RemoveAll(folder); err != nil {
		t.Fatalf("removing folder: %v", err)
	}
	restored, err := a.Restore(archivePath, nil, archive.NewProgress())
	if err != nil {
		t.Fatalf("Restore() on compressed archive error = %v", err)
	}
	if restored == 0 {
		t.Error("Restore() restored nothing")
	}
}

func TestKonserveApp_SelectiveRestore(t *testing.T) {
	a := newTestApp(t, config.CompressionConfig{})
	folder, _ := writeSourceTree(t)
	selected := filepath.Join(folder, "sub", "b.bin")

	archivePath, _, err := a.Backup([]string{folder}, archive.NewProgress())
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if err := os.RemoveAll(folder); err != nil {
		t.Fatalf("removing folder: %v", err)
	}

	restored, err := a.Restore(archivePath, []string{selected}, archive.NewProgress())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored != 1 {
		t.Errorf("restored = %d, want 1", restored)
	}

	if _, err := os.Stat(selected); err != nil {
		t.Errorf("selected file not restored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(folder, "a.txt")); !os.IsNotExist(err) {
		t.Error("unselected file was restored")
	}
}

func TestKonserveApp_History(t *testing.T) {
	a := newTestApp(t, config.CompressionConfig{})
	folder, _ := writeSourceTree(t)

	archivePath, _, err := a.Backup([]string{folder}, archive.NewProgress())
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if _, err := a.Restore(archivePath, nil, archive.NewProgress()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	runs, err := a.History(0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("History() returned %d runs, want 2", len(runs))
	}
	for _, run := range runs {
		if run.Status != "completed" {
			t.Errorf("run %s status = %q, want completed", run.ID, run.Status)
		}
	}
}

func TestKonserveApp_Store(t *testing.T) {
	a := newTestApp(t, config.CompressionConfig{})
	folder, _ := writeSourceTree(t)
	ctx := context.Background()

	archivePath, _, err := a.Backup([]string{folder}, archive.NewProgress())
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if err := a.StorePush(ctx, archivePath); err != nil {
		t.Fatalf("StorePush() error = %v", err)
	}

	names, err := a.StoreList(ctx)
	if err != nil {
		t.Fatalf("StoreList() error = %v", err)
	}
	if len(names) != 1 || names[0] != filepath.Base(archivePath) {
		t.Errorf("StoreList() = %v, want [%s]", names, filepath.Base(archivePath))
	}

	fetched, err := a.StoreFetch(ctx, names[0], t.TempDir())
	if err != nil {
		t.Fatalf("StoreFetch() error = %v", err)
	}

	want, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatalf("reading original archive: %v", err)
	}
	got, err := os.ReadFile(fetched)
	if err != nil {
		t.Fatalf("reading fetched archive: %v", err)
	}
	if string(got) != string(want) {
		t.Error("fetched archive differs from pushed archive")
	}
}

func TestKonserveApp_StoreNotConfigured(t *testing.T) {
	cfg := config.NewConfig(t.TempDir())
	cfg.Catalog = config.CatalogConfig{Type: "memory"}

	a, err := NewKonserveApp(cfg, "test")
	if err != nil {
		t.Fatalf("NewKonserveApp() error = %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.StorePush(ctx, "x.tar"); err == nil {
		t.Error("StorePush() expected error without store")
	}
	if _, err := a.StoreFetch(ctx, "x.tar", t.TempDir()); err == nil {
		t.Error("StoreFetch() expected error without store")
	}
	if _, err := a.StoreList(ctx); err == nil {
		t.Error("StoreList() expected error without store")
	}
}
