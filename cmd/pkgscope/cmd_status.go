package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pkgscope/cmd/pkgscope/ui"
	"pkgscope/internal/extract"
	"pkgscope/internal/store"
)

// statusCmd shows configuration and history store statistics
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pkgscope configuration and history statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	styles := ui.DefaultStyles()

	fmt.Println(styles.Title.Render(fmt.Sprintf("%s %s", cfg.Name, cfg.Version)))
	fmt.Printf("Config:   %s\n", cfgPath)
	fmt.Printf("Database: %s\n", cfg.Store.DatabasePath)
	fmt.Printf("Workers:  %d\n", cfg.Scan.Workers)
	fmt.Printf("Formats:  %s\n", strings.Join(extract.Extensions(), ", "))
	fmt.Println()

	if _, err := os.Stat(cfg.Store.DatabasePath); os.IsNotExist(err) {
		fmt.Println(styles.Muted.Render("database not created yet, run a scan first"))
		return nil
	}

	st, err := store.New(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return err
	}

	table := ui.NewTable("History", []string{"TABLE", "ROWS"})
	for _, name := range []string{"scan_runs", "archives"} {
		table.AddRow(name, strconv.Itoa(stats[name]))
	}
	fmt.Print(table.View(styles))
	return nil
}
