// Package scan discovers archive files under directory roots, extracts
// their package patterns concurrently, and records runs in the history
// store.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pkgscope/internal/extract"
	"pkgscope/internal/pattern"
	"pkgscope/internal/store"
)

const defaultWorkers = 8

// Result is the outcome of scanning a single archive.
type Result struct {
	Path      string
	SHA256    string
	Patterns  []string
	FromCache bool
	Err       error
}

// Summary describes a completed scan run.
type Summary struct {
	RunID    string
	Results  []Result
	Archives int // successfully scanned, cached included
	Failed   int
	Cached   int
}

// Scanner extracts package patterns from archives with a bounded
// worker pool, reusing stored results for unchanged files.
type Scanner struct {
	ex  *extract.Extractor
	st  *store.Store
	log *zap.Logger

	// Workers caps concurrent archive scans.
	Workers int

	// UseCache reuses stored patterns when an archive hash is unchanged.
	UseCache bool
}

// NewScanner creates a Scanner. The store may be nil, in which case
// runs are not recorded and every archive is extracted fresh.
func NewScanner(ex *extract.Extractor, st *store.Store, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{
		ex:       ex,
		st:       st,
		log:      log,
		Workers:  defaultWorkers,
		UseCache: true,
	}
}

// allowedHidden lists hidden directories that may still hold archives.
// All other dotted directories are skipped during discovery.
var allowedHidden = map[string]bool{
	".github": true,
	".vscode": true,
	".config": true,
}

// Discover walks the given roots and returns every supported archive
// path, de-duplicated and sorted.
func (s *Scanner) Discover(roots ...string) ([]string, error) {
	seen := make(map[string]struct{})
	paths := []string{}

	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				name := info.Name()
				// An explicitly requested root is always entered,
				// hidden or not.
				if path != root && strings.HasPrefix(name, ".") && !allowedHidden[name] {
					return filepath.SkipDir
				}
				return nil
			}
			if !extract.Supported(path) {
				return nil
			}
			if _, ok := seen[path]; ok {
				return nil
			}
			seen[path] = struct{}{}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Scan extracts patterns from every path, at most Workers at a time.
// Per-archive failures land in the result rather than aborting the
// run; the returned error reports setup failures and cancellation.
func (s *Scanner) Scan(ctx context.Context, root string, paths []string) (*Summary, error) {
	summary := &Summary{}

	if s.st != nil {
		runID, err := s.st.BeginRun(root)
		if err != nil {
			return nil, fmt.Errorf("failed to begin run: %w", err)
		}
		summary.RunID = runID
	}

	workers := s.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	sem := make(chan struct{}, workers)
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	for _, p := range paths {
		path := p
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			defer func() { <-sem }()

			res := s.scanOne(path)

			mu.Lock()
			summary.Results = append(summary.Results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Path < summary.Results[j].Path
	})

	totalPatterns := 0
	for _, r := range summary.Results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		if r.FromCache {
			summary.Cached++
		}
		summary.Archives++
		totalPatterns += len(r.Patterns)

		if s.st != nil && !r.FromCache {
			if err := s.st.RecordArchive(summary.RunID, r.Path, r.SHA256, r.Patterns); err != nil {
				s.log.Warn("failed to record archive", zap.String("path", r.Path), zap.Error(err))
			}
		}
	}

	if s.st != nil {
		if err := s.st.FinishRun(summary.RunID, summary.Archives, totalPatterns); err != nil {
			s.log.Warn("failed to finish run", zap.String("run_id", summary.RunID), zap.Error(err))
		}
	}

	return summary, nil
}

func (s *Scanner) scanOne(path string) Result {
	res := Result{Path: path}

	hash, err := hashFile(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to hash %s: %w", path, err)
		return res
	}
	res.SHA256 = hash

	if s.UseCache && s.st != nil {
		cached, hit, err := s.st.CachedPatterns(path, hash)
		if err != nil {
			s.log.Warn("cache lookup failed", zap.String("path", path), zap.Error(err))
		} else if hit {
			s.log.Debug("cache hit", zap.String("path", path), zap.String("sha256", hash))
			res.Patterns = cached
			res.FromCache = true
			return res
		}
	}

	patterns, err := s.ex.Packages(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Patterns = patterns
	return res
}

// Union merges the patterns of every successful result into one
// minimal covering set.
func Union(results []Result) []string {
	var pats []pattern.Pattern
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, p := range r.Patterns {
			pats = append(pats, pattern.Parse(p))
		}
	}
	return pattern.Reduce(pats)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
