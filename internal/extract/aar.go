package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"pkgscope/internal/pattern"
)

const jarSuffix = ".jar"

// fromAAR extracts the jar entries of an Android library archive
// (classes.jar plus any libs/*.jar) into temp directories and collects
// patterns from each. The temp directories are removed on every exit
// path, including failures part way through.
func (e *Extractor) fromAAR(path string) ([]pattern.Pattern, error) {
	tmpDirs := make(map[string]struct{})
	defer e.cleanup(tmpDirs)

	jars, err := e.expandAAR(path, tmpDirs)
	if err != nil {
		return nil, err
	}

	var patterns []pattern.Pattern
	for _, jar := range jars {
		ps, err := e.fromJAR(jar)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, ps...)
	}
	return patterns, nil
}

// expandAAR extracts every .jar entry of the archive into its own temp
// directory, registering each directory in tmpDirs before use so the
// caller's cleanup sees it no matter where extraction stops.
func (e *Extractor) expandAAR(path string, tmpDirs map[string]struct{}) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open aar %s: %w", path, err)
	}
	defer r.Close()

	var jars []string
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, jarSuffix) {
			continue
		}
		dir, err := os.MkdirTemp(e.tmpRoot, "pkgscope-aar-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		tmpDirs[dir] = struct{}{}

		dst := filepath.Join(dir, filepath.Base(f.Name))
		if err := extractEntry(f, dst); err != nil {
			return nil, fmt.Errorf("failed to extract %s from %s: %w", f.Name, path, err)
		}
		jars = append(jars, dst)
	}
	return jars, nil
}

func extractEntry(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// cleanup removes every registered temp directory.
func (e *Extractor) cleanup(tmpDirs map[string]struct{}) {
	for dir := range tmpDirs {
		if err := os.RemoveAll(dir); err != nil {
			e.log.Warn("failed to remove temp dir",
				zap.String("dir", dir),
				zap.Error(err))
		}
	}
}
