package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"pkgscope/cmd/pkgscope/ui"
	"pkgscope/internal/store"
)

// diffCmd compares the last two recorded scans of an archive
var diffCmd = &cobra.Command{
	Use:   "diff [archive]",
	Short: "Show pattern changes between the last two scans of an archive",
	Long: `Compares the two most recent recorded scans of an archive and prints
the patterns that appeared and disappeared.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	st, err := store.New(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	records, err := st.ArchiveHistory(args[0], 2)
	if err != nil {
		return err
	}
	if len(records) < 2 {
		return fmt.Errorf("need two recorded scans of %s to diff, have %d", args[0], len(records))
	}

	// Records are newest first.
	added, removed := diffSets(records[1].Patterns, records[0].Patterns)

	styles := ui.DefaultStyles()
	if len(added) == 0 && len(removed) == 0 {
		fmt.Println(styles.Muted.Render("no pattern changes"))
		return nil
	}
	for _, p := range removed {
		fmt.Println(styles.Error.Render("- " + p))
	}
	for _, p := range added {
		fmt.Println(styles.Success.Render("+ " + p))
	}
	return nil
}

// diffSets returns the patterns added and removed going from prev to curr.
func diffSets(prev, curr []string) (added, removed []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, p := range prev {
		prevSet[p] = struct{}{}
	}
	currSet := make(map[string]struct{}, len(curr))
	for _, p := range curr {
		currSet[p] = struct{}{}
	}

	for p := range currSet {
		if _, ok := prevSet[p]; !ok {
			added = append(added, p)
		}
	}
	for p := range prevSet {
		if _, ok := currSet[p]; !ok {
			removed = append(removed, p)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
