package extract

import (
	"fmt"
	"os"
	"strings"

	"pkgscope/internal/classfile"
	"pkgscope/internal/pattern"
)

// fromClass collects the single pattern for a standalone .class file.
func (e *Extractor) fromClass(path string) ([]pattern.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file %s: %w", path, err)
	}
	defer f.Close()

	name, err := classfile.ClassName(f)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve class name in %s: %w", path, err)
	}
	return []pattern.Pattern{patternForClassName(name)}, nil
}

// patternForClassName derives the pattern for a dotted class name: a
// prefix over the package when there is one, otherwise the exact class
// name.
func patternForClassName(name string) pattern.Pattern {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return pattern.Prefix(name[:i])
	}
	return pattern.Exact(name)
}
