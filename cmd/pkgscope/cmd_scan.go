package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"pkgscope/cmd/pkgscope/ui"
	"pkgscope/internal/extract"
	"pkgscope/internal/scan"
	"pkgscope/internal/store"
)

var (
	scanJSON    bool
	scanUnion   bool
	scanNoCache bool
	scanWorkers int
)

// scanCmd extracts package patterns from archives and directories
var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "Extract package patterns from archives",
	Long: `Scans the given files and directories (default: current directory)
for JAR, ZIP, APK, AAR, and class files and prints the package
patterns of each. Directories are walked recursively; archives whose
content hash is unchanged are served from the scan cache.

Examples:
  pkgscope scan build/libs
  pkgscope scan app.apk lib.jar --union
  pkgscope scan . --json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Emit results as JSON")
	scanCmd.Flags().BoolVar(&scanUnion, "union", false, "Print one merged pattern set instead of per-archive results")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "Ignore cached results and re-extract everything")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Concurrent extractions (default from config)")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if len(args) == 0 {
		args = []string{"."}
	}

	// Split explicit files from directories to walk
	var files, dirs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if info.IsDir() {
			dirs = append(dirs, arg)
		} else {
			files = append(files, arg)
		}
	}

	st, err := store.New(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	sc := scan.NewScanner(extract.New(logger), st, logger)
	if scanWorkers > 0 {
		sc.Workers = scanWorkers
	} else if cfg.Scan.Workers > 0 {
		sc.Workers = cfg.Scan.Workers
	}
	sc.UseCache = cfg.Scan.UseCache && !scanNoCache

	paths := files
	if len(dirs) > 0 {
		discovered, err := sc.Discover(dirs...)
		if err != nil {
			return err
		}
		paths = append(paths, discovered...)
	}
	sort.Strings(paths)
	paths = dedupe(paths)

	summary, err := sc.Scan(ctx, strings.Join(args, " "), paths)
	if err != nil {
		return err
	}

	switch {
	case scanJSON:
		if err := printJSON(summary); err != nil {
			return err
		}
	case scanUnion:
		for _, p := range scan.Union(summary.Results) {
			fmt.Println(p)
		}
	default:
		printResults(summary)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d archives failed", summary.Failed, len(summary.Results))
	}
	return nil
}

// dedupe removes duplicates from a sorted slice.
func dedupe(sorted []string) []string {
	var out []string
	for i, p := range sorted {
		if i > 0 && p == sorted[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func printResults(summary *scan.Summary) {
	styles := ui.DefaultStyles()

	for _, r := range summary.Results {
		if r.Err != nil {
			fmt.Printf("%s %s: %v\n", styles.Error.Render("✗"), r.Path, r.Err)
			continue
		}
		header := r.Path
		if r.FromCache {
			header += styles.Muted.Render(" (cached)")
		}
		fmt.Printf("%s %s\n", styles.Success.Render("✓"), header)
		for _, p := range r.Patterns {
			fmt.Printf("    %s\n", p)
		}
	}

	fmt.Println()
	fmt.Println(styles.Muted.Render(fmt.Sprintf("%d scanned, %d cached, %d failed",
		summary.Archives, summary.Cached, summary.Failed)))
}

type scanReport struct {
	RunID    string       `json:"run_id,omitempty"`
	Archives int          `json:"archives"`
	Cached   int          `json:"cached"`
	Failed   int          `json:"failed"`
	Results  []scanResult `json:"results"`
	Union    []string     `json:"union,omitempty"`
}

type scanResult struct {
	Path      string   `json:"path"`
	SHA256    string   `json:"sha256,omitempty"`
	Patterns  []string `json:"patterns,omitempty"`
	FromCache bool     `json:"from_cache,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func printJSON(summary *scan.Summary) error {
	report := scanReport{
		RunID:    summary.RunID,
		Archives: summary.Archives,
		Cached:   summary.Cached,
		Failed:   summary.Failed,
		Results:  make([]scanResult, 0, len(summary.Results)),
	}
	for _, r := range summary.Results {
		sr := scanResult{
			Path:      r.Path,
			SHA256:    r.SHA256,
			Patterns:  r.Patterns,
			FromCache: r.FromCache,
		}
		if r.Err != nil {
			sr.Error = r.Err.Error()
		}
		report.Results = append(report.Results, sr)
	}
	if scanUnion {
		report.Union = scan.Union(summary.Results)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
