package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/inkwell-news/inkwell/internal/config"
	"github.com/inkwell-news/inkwell/internal/generate"
	"github.com/inkwell-news/inkwell/internal/index"
	"github.com/inkwell-news/inkwell/internal/liveness"
	"github.com/inkwell-news/inkwell/internal/reconcile"
	"github.com/inkwell-news/inkwell/internal/repair"
	"github.com/inkwell-news/inkwell/internal/server"
	"github.com/inkwell-news/inkwell/internal/source"
	"github.com/inkwell-news/inkwell/internal/watch"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "inkwell",
	Short:   "Static news-site article tooling",
	Long:    "Inkwell generates article pages from a JSON data source, keeps the derived index in sync, and repairs dead external links in place.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("inkwell", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/inkwell/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your articles directory and data file.")
		return nil
	},
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show site and index status",
	RunE: func(cmd *cobra.Command, args []string) error {
		onDisk := map[string]bool{}
		entries, err := os.ReadDir(cfg.Site.ArticlesDir)
		if err != nil {
			return fmt.Errorf("listing articles directory: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == index.ArticleExt {
				onDisk[e.Name()] = true
			}
		}

		indexed := 0
		stale := 0
		if doc, err := index.Read(cfg.Site.IndexFile); err == nil {
			indexed = len(doc.Articles)
			for _, rec := range doc.Articles {
				if !onDisk[rec.Filename] {
					stale++
				}
			}
		} else {
			fmt.Println("No readable index; run 'inkwell index' to build one.")
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"", "Count"})
		t.AppendRow(table.Row{"Article pages on disk", len(onDisk)})
		t.AppendRow(table.Row{"Index entries", indexed})
		t.AppendRow(table.Row{"Index entries missing on disk", stale})
		t.Render()

		if stale > 0 || indexed != len(onDisk) {
			fmt.Println("\nIndex and directory diverge; run 'inkwell index' to rebuild.")
		}
		return nil
	},
}

// --- generate command ---

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate article pages from the source data file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := source.Load(cfg.Site.DataFile)
		if err != nil {
			return err
		}

		gen, err := generate.New(ds, cfg.Site.ArticlesDir)
		if err != nil {
			return err
		}
		result, err := gen.Run()
		if err != nil {
			return err
		}
		fmt.Printf("Generated %d pages (%d skipped)\n", result.Generated, result.Skipped)

		// Pages changed, so the index is stale; rebuild it in the same run.
		built, err := newBuilder().Build()
		if err != nil {
			return err
		}
		fmt.Printf("Index rebuilt: %d records (%d skipped)\n", built.Indexed, built.Skipped)
		return nil
	},
}

// --- index command ---

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the article index from the pages on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newBuilder().Build()
		if err != nil {
			return err
		}
		fmt.Printf("Index rebuilt: %d records (%d skipped)\n", result.Indexed, result.Skipped)
		return nil
	},
}

// --- watch command ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the articles directory and rebuild the index on change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		builder := newBuilder()
		w := watch.New(cfg.Site.ArticlesDir, cfg.Debounce(), func() error {
			result, err := builder.Build()
			if err != nil {
				return err
			}
			log.Printf("Index rebuilt: %d records (%d skipped)", result.Indexed, result.Skipped)
			return nil
		})

		fmt.Println("Watching for changes. Press Ctrl+C to stop.")
		return w.Run(ctx)
	},
}

// --- check command ---

var checkCmd = &cobra.Command{
	Use:   "check <url>...",
	Short: "Check URLs for liveness",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checker := newChecker()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"URL", "Status", "Code", "Resolved"})

		unreachable := 0
		for _, u := range args {
			status := checker.Check(cmd.Context(), u)
			verdict := "reachable"
			if !status.Reachable {
				verdict = "unreachable"
				unreachable++
			}
			resolved := ""
			if status.FinalURL != u {
				resolved = status.FinalURL
			}
			t.AppendRow(table.Row{u, verdict, status.StatusCode, resolved})
		}
		t.Render()

		if unreachable > 0 {
			fmt.Printf("\n%d of %d unreachable\n", unreachable, len(args))
		}
		return nil
	},
}

// --- reconcile command ---

var reconcileSchedule string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check embedded URLs in all pages and patch dead ones in place",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := source.Load(cfg.Site.DataFile)
		if err != nil {
			// The data file is only used for by-id enrichment; a missing
			// one degrades the search, it doesn't block it.
			log.Printf("Source data unavailable (%v); continuing without it", err)
			ds = nil
		}

		checker := newChecker()
		finder := repair.NewFinder(checker, cfg.Liveness.ArchiveEndpoint)
		r := reconcile.New(cfg.Site.ArticlesDir, ds, checker, finder, cfg.Liveness.BatchSize)

		if reconcileSchedule == "" {
			return runReconcile(cmd.Context(), r)
		}
		return runReconcileScheduled(r, reconcileSchedule)
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileSchedule, "schedule", "", "Cron expression; run once now, then on this schedule until interrupted")
}

func runReconcile(ctx context.Context, r *reconcile.Reconciler) error {
	report, err := r.Run(ctx)
	if err != nil {
		return err
	}

	path, err := report.Write(cfg.Reports.Dir)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Checked", "Broken", "Fixed"})
	for _, f := range report.Files {
		if f.Checked == 0 && f.Error == "" {
			continue
		}
		t.AppendRow(table.Row{f.File, f.Checked, f.Broken, f.Fixed})
	}
	t.AppendFooter(table.Row{"Total", report.Summary.Checked, report.Summary.Broken, report.Summary.Fixed})
	t.Render()

	fmt.Printf("\nReport written: %s\n", path)
	return nil
}

// runReconcileScheduled runs once immediately and then on the cron
// schedule until SIGINT/SIGTERM.
func runReconcileScheduled(r *reconcile.Reconciler, schedule string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if err := runReconcile(context.Background(), r); err != nil {
			log.Printf("Scheduled reconcile failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	if err := runReconcile(ctx, r); err != nil {
		log.Printf("Initial reconcile failed: %v", err)
	}

	fmt.Printf("Reconciling on schedule %q. Press Ctrl+C to stop.\n", schedule)
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	log.Println("Scheduler stopped")
	return nil
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local preview server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting preview at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg.Site.ArticlesDir, cfg.Site.IndexFile, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func newBuilder() *index.Builder {
	return index.NewBuilder(cfg.Site.ArticlesDir, cfg.Site.IndexFile)
}

func newChecker() *liveness.Checker {
	return liveness.NewChecker(cfg.ProbeTimeout(), cfg.Liveness.UserAgent)
}
