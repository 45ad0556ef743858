package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"pkgscope/cmd/pkgscope/ui"
	"pkgscope/internal/extract"
	"pkgscope/internal/scan"
	"pkgscope/internal/store"
)

// watchCmd keeps rescanning archives as they change on disk
var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Watch directories and rescan changed archives",
	Long: `Watches the given directories (default: current directory) and prints
fresh package patterns once a changed archive settles. Runs until
interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.New(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	sc := scan.NewScanner(extract.New(logger), st, logger)
	if cfg.Scan.Workers > 0 {
		sc.Workers = cfg.Scan.Workers
	}
	sc.UseCache = cfg.Scan.UseCache

	styles := ui.DefaultStyles()
	onResult := func(r scan.Result) {
		if r.Err != nil {
			fmt.Printf("%s %s: %v\n", styles.Error.Render("✗"), r.Path, r.Err)
			return
		}
		fmt.Printf("%s %s\n", styles.Success.Render("✓"), r.Path)
		for _, p := range r.Patterns {
			fmt.Printf("    %s\n", p)
		}
	}

	w, err := scan.NewWatcher(sc, args, cfg.GetDebounce(), onResult, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if cfg.Watch.RescanOnStart {
		paths, err := sc.Discover(args...)
		if err != nil {
			return err
		}
		summary, err := sc.Scan(ctx, strings.Join(args, " "), paths)
		if err != nil {
			return err
		}
		printResults(summary)
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Println(styles.Muted.Render("watching for archive changes, Ctrl+C to stop"))

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("received shutdown signal")
	return nil
}
