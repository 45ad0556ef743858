package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"pkgscope/internal/dex"
	"pkgscope/internal/pattern"
)

const dexSuffix = ".dex"

// fromAPK collects patterns from every dex unit in an apk. A malformed
// class descriptor is logged and skipped; an unparseable dex unit fails
// the whole call.
func (e *Extractor) fromAPK(path string) ([]pattern.Pattern, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open apk %s: %w", path, err)
	}
	defer r.Close()

	var patterns []pattern.Pattern
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, dexSuffix) {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from %s: %w", f.Name, path, err)
		}
		unit, err := dex.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s from %s: %w", f.Name, path, err)
		}
		e.log.Debug("parsed dex unit",
			zap.String("apk", path),
			zap.String("entry", f.Name),
			zap.Int("classes", unit.ClassCount))

		for _, desc := range unit.ClassDescriptors() {
			p, ok := patternForDescriptor(desc)
			if !ok {
				e.log.Warn("bad class descriptor",
					zap.String("descriptor", desc),
					zap.String("apk", path))
				continue
			}
			patterns = append(patterns, p)
		}
	}
	return patterns, nil
}

// patternForDescriptor derives the pattern for a dex type descriptor
// of the form "Lcom/foo/Bar;". Anything else is rejected.
func patternForDescriptor(desc string) (pattern.Pattern, bool) {
	if !strings.HasPrefix(desc, "L") || !strings.HasSuffix(desc, ";") {
		return pattern.Pattern{}, false
	}
	name := strings.ReplaceAll(desc[1:len(desc)-1], "/", ".")
	return patternForClassName(name), true
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
