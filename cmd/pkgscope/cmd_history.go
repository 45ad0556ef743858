package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pkgscope/cmd/pkgscope/ui"
	"pkgscope/internal/store"
)

var historyLimit int

// historyCmd lists recorded scan runs or one archive's history
var historyCmd = &cobra.Command{
	Use:   "history [archive]",
	Short: "Show recent scan runs or one archive's history",
	Long: `Without arguments, lists recent scan runs. With an archive path,
lists the recorded pattern sets for that archive, newest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum entries to show (default from config)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := store.New(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	limit := historyLimit
	if limit <= 0 {
		limit = cfg.Store.HistoryLimit
	}

	styles := ui.DefaultStyles()

	if len(args) == 1 {
		return printArchiveHistory(st, args[0], limit, styles)
	}

	runs, err := st.History(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(styles.Muted.Render("no scan runs recorded"))
		return nil
	}

	table := ui.NewTable("Scan Runs", []string{"ID", "ROOT", "STARTED", "ARCHIVES", "PATTERNS"})
	for _, r := range runs {
		table.AddRow(
			shortID(r.ID),
			r.Root,
			r.StartedAt.Local().Format(time.RFC3339),
			strconv.Itoa(r.ArchiveCount),
			strconv.Itoa(r.PatternCount),
		)
	}
	fmt.Print(table.View(styles))
	return nil
}

func printArchiveHistory(st *store.Store, path string, limit int, styles ui.Styles) error {
	records, err := st.ArchiveHistory(path, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println(styles.Muted.Render("no records for " + path))
		return nil
	}

	table := ui.NewTable(path, []string{"SCANNED", "SHA256", "PATTERNS"})
	for _, rec := range records {
		table.AddRow(
			rec.ScannedAt.Local().Format(time.RFC3339),
			shortID(rec.SHA256),
			strconv.Itoa(len(rec.Patterns)),
		)
	}
	fmt.Print(table.View(styles))

	fmt.Println(styles.Bold.Render("Latest patterns:"))
	for _, p := range records[0].Patterns {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

// shortID truncates run ids and hashes for table display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
