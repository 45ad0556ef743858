package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkgscope/internal/pattern"
)

// reduceCmd reduces a pattern list without touching any archive
var reduceCmd = &cobra.Command{
	Use:   "reduce [pattern...]",
	Short: "Reduce package patterns to the minimal covering set",
	Long: `Reads package patterns from arguments, or from standard input one per
line, and prints the minimal set after dropping every pattern already
covered by another prefix. A trailing ".*" marks a prefix pattern; a
plain name matches exactly.

Example:
  pkgscope reduce 'com.foo.*' 'com.foo.bar.*' Main`,
	RunE: runReduce,
}

func init() {
	rootCmd.AddCommand(reduceCmd)
}

func runReduce(cmd *cobra.Command, args []string) error {
	raw := args
	if len(raw) == 0 {
		in := bufio.NewScanner(cmd.InOrStdin())
		for in.Scan() {
			if line := strings.TrimSpace(in.Text()); line != "" {
				raw = append(raw, line)
			}
		}
		if err := in.Err(); err != nil {
			return fmt.Errorf("failed to read patterns: %w", err)
		}
	}

	pats := make([]pattern.Pattern, 0, len(raw))
	for _, s := range raw {
		pats = append(pats, pattern.Parse(s))
	}

	for _, s := range pattern.Reduce(pats) {
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
	return nil
}
