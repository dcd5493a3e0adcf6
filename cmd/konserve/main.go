package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"konserve-go/internal/app"
	"konserve-go/internal/archive"
	"konserve-go/internal/config"
	"konserve-go/internal/template"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a KonserveApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "backup", "restore").
func newApp(operation string) (*app.KonserveApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewKonserveApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// templatePath returns where a named template is stored.
func templatePath(name string) (string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return "", fmt.Errorf("getting defaults: %w", err)
	}
	return filepath.Join(defaults["base_dir"], "templates", name+".toml"), nil
}

// runWithProgress runs fn in a goroutine and renders its progress on stderr
// until the terminal sentinel appears. Rendering is skipped when stderr is
// not a terminal.
func runWithProgress(progress *archive.Progress, fn func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- fn() }()

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			if interactive {
				fmt.Fprint(os.Stderr, "\r\033[K")
			}
			return err
		case <-ticker.C:
			if !interactive {
				continue
			}
			if pct := progress.Get(); pct != archive.ProgressDone {
				fmt.Fprintf(os.Stderr, "\r%3d%%", pct)
			}
		}
	}
}

// printTree renders the selection tree with two-space indentation,
// children sorted by name.
func printTree(w io.Writer, node *archive.TreeNode, indent int) {
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child := node.Children[name]
		marker := "/"
		if child.IsFile {
			marker = ""
		}
		fmt.Fprintf(w, "%s%s%s\n", strings.Repeat("  ", indent), name, marker)
		printTree(w, child, indent+1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "konserve",
	Short: "Selective backup and restore tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Backup Dir: %s\n", cfg.BackupDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Backup Dir:  %s\n", cfg.BackupDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Compression: ")
		if cfg.Compression.Enabled {
			fmt.Printf("%s\n", cfg.Compression.Type)
		} else {
			fmt.Printf("disabled\n")
		}
		if cfg.Store.Type != "" {
			fmt.Printf("Store:       %s (%s)\n", cfg.Store.Name, cfg.Store.Type)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup [PATH...]",
	Short: "Archive files and folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		templateName, _ := cmd.Flags().GetString("template")

		paths := args
		if templateName != "" {
			tplPath, err := templatePath(templateName)
			if err != nil {
				return err
			}
			tpl, err := template.Load(tplPath)
			if err != nil {
				return fmt.Errorf("loading template: %w", err)
			}

			reconciler, err := archive.NewHomeReconciler()
			if err != nil {
				return fmt.Errorf("creating path reconciler: %w", err)
			}
			valid, skipped := tpl.FixPaths(reconciler)
			for _, s := range skipped {
				fmt.Fprintf(os.Stderr, "skipping missing path: %s\n", s)
			}
			paths = append(valid, paths...)
		}

		if len(paths) == 0 {
			return fmt.Errorf("nothing to back up: pass paths or --template")
		}

		a, err := newApp("backup")
		if err != nil {
			return err
		}
		defer a.Close()

		progress := archive.NewProgress()
		var archivePath string
		var count int
		err = runWithProgress(progress, func() error {
			var err error
			archivePath, count, err = a.Backup(paths, progress)
			return err
		})
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("Archived %d file(s) to %s\n", count, archivePath)
		return nil
	},
}

// inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect ARCHIVE",
	Short: "View archive contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("inspect")
		if err != nil {
			return err
		}
		defer a.Close()

		manifest, tree, err := a.Inspect(args[0])
		if err != nil {
			return fmt.Errorf("inspecting archive: %w", err)
		}

		fmt.Printf("Archive: %s\n", args[0])
		fmt.Printf("Build:   %s\n\n", manifest.Marker)
		printTree(os.Stdout, tree, 0)
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore ARCHIVE",
	Short: "Restore files from an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selection, _ := cmd.Flags().GetStringArray("select")

		a, err := newApp("restore")
		if err != nil {
			return err
		}
		defer a.Close()

		// No --select flags means restore everything.
		var selected []string
		if len(selection) > 0 {
			selected = selection
		}

		progress := archive.NewProgress()
		var count int
		err = runWithProgress(progress, func() error {
			var err error
			count, err = a.Restore(args[0], selected, progress)
			return err
		})
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Printf("Restored %d entr(ies)\n", count)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View backup and restore history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				d := r.FinishedAt.Sub(r.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %-8s  %s  %-10s  %6d file(s)  %s\n",
				r.ID[:8],
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.FileCount,
				duration,
			)
		}
		return nil
	},
}

// template command
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage backup templates",
}

var templateSaveCmd = &cobra.Command{
	Use:   "save NAME PATH...",
	Short: "Save a named set of backup paths",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		paths := make([]string, 0, len(args)-1)
		for _, raw := range args[1:] {
			abs, err := filepath.Abs(raw)
			if err != nil {
				return fmt.Errorf("resolving path %s: %w", raw, err)
			}
			paths = append(paths, abs)
		}

		tplPath, err := templatePath(name)
		if err != nil {
			return err
		}

		tpl := &template.Template{Name: name, Paths: paths}
		if err := template.Save(tplPath, tpl); err != nil {
			return fmt.Errorf("saving template: %w", err)
		}

		fmt.Printf("Template %q saved with %d path(s)\n", name, len(paths))
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "View a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tplPath, err := templatePath(args[0])
		if err != nil {
			return err
		}

		tpl, err := template.Load(tplPath)
		if err != nil {
			return fmt.Errorf("loading template: %w", err)
		}

		fmt.Printf("Template: %s\n", tpl.Name)
		for _, p := range tpl.Paths {
			fmt.Printf("  %s\n", p)
		}
		return nil
	},
}

// store command
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the remote archive store",
}

var storePushCmd = &cobra.Command{
	Use:   "push ARCHIVE",
	Short: "Upload an archive to the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("store-push")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.StorePush(context.Background(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Pushed %s\n", filepath.Base(args[0]))
		return nil
	},
}

var storeFetchCmd = &cobra.Command{
	Use:   "fetch NAME",
	Short: "Download an archive from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		destDir, _ := cmd.Flags().GetString("dest")

		a, err := newApp("store-fetch")
		if err != nil {
			return err
		}
		defer a.Close()

		if destDir == "" {
			destDir = "."
		}

		path, err := a.StoreFetch(context.Background(), args[0], destDir)
		if err != nil {
			return err
		}

		fmt.Printf("Fetched to %s\n", path)
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archives in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("store-list")
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.StoreList(context.Background())
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Println("Store is empty.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// template subcommands
	templateCmd.AddCommand(templateSaveCmd)
	templateCmd.AddCommand(templateShowCmd)

	// store subcommands
	storeCmd.AddCommand(storePushCmd)
	storeCmd.AddCommand(storeFetchCmd)
	storeFetchCmd.Flags().StringP("dest", "d", "", "Destination directory (default: current directory)")
	storeCmd.AddCommand(storeListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringP("template", "t", "", "Back up the paths saved in a template")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringArrayP("select", "s", nil, "Restore only this entry (repeatable; default: everything)")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(storeCmd)
}
