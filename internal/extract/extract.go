// Package extract computes package patterns from compiled Java and
// Android artifacts. Each supported format contributes a raw pattern
// collection; Packages reduces it to the minimal covering set.
package extract

import (
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"pkgscope/internal/pattern"
)

// Extractor turns archives and class files into package patterns.
type Extractor struct {
	log *zap.Logger

	// tmpRoot is the parent directory for temporary extraction dirs;
	// empty means the system default.
	tmpRoot string
}

// New creates an Extractor. A nil logger disables diagnostics.
func New(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log}
}

var extensions = map[string]struct{}{
	".jar":   {},
	".zip":   {},
	".apk":   {},
	".aar":   {},
	".class": {},
}

// Supported reports whether path has an extension the dispatcher
// recognizes. The check is case-insensitive and does not touch the
// filesystem.
func Supported(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the supported file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Packages returns the minimal set of package patterns covering every
// class in the artifact at path. An unrecognized extension yields an
// empty set and a diagnostic, not an error; an unreadable artifact of
// a recognized format is an error with no partial result.
func (e *Extractor) Packages(path string) ([]string, error) {
	raw, err := e.Collect(path)
	if err != nil {
		return nil, err
	}
	return pattern.Reduce(raw), nil
}

// Collect returns the raw, unreduced pattern collection for the
// artifact at path, dispatching on its extension.
func (e *Extractor) Collect(path string) ([]pattern.Pattern, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".zip":
		return e.fromJAR(path)
	case ".apk":
		return e.fromAPK(path)
	case ".aar":
		return e.fromAAR(path)
	case ".class":
		return e.fromClass(path)
	default:
		e.log.Warn("cannot compute packages, unknown file format", zap.String("path", path))
		return nil, nil
	}
}
