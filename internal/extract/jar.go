package extract

import (
	"archive/zip"
	"fmt"
	"strings"

	"pkgscope/internal/pattern"
)

const classSuffix = ".class"

// fromJAR collects one pattern per .class entry in a jar or zip.
func (e *Extractor) fromJAR(path string) ([]pattern.Pattern, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer r.Close()

	var patterns []pattern.Pattern
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, classSuffix) {
			continue
		}
		patterns = append(patterns, patternForEntry(f.Name))
	}
	return patterns, nil
}

// patternForEntry derives the pattern for a single .class entry.
// Entries inside a directory yield a prefix over the dotted directory
// path; root entries yield the exact class name.
func patternForEntry(name string) pattern.Pattern {
	i := strings.LastIndex(name, "/")
	if i > 0 {
		return pattern.Prefix(strings.ReplaceAll(name[:i], "/", "."))
	}
	return pattern.Exact(strings.TrimSuffix(name[i+1:], classSuffix))
}
