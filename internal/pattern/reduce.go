package pattern

import (
	"sort"
	"strings"
)

// Reduce collapses a raw pattern collection into the minimal covering
// set and renders it, sorted and duplicate-free. Exact patterns pass
// through as literals. A prefix pattern survives only when no other
// distinct prefix in the collection is a literal string prefix of it,
// so of any nested chain only the shortest member remains. Subsumption
// is by string prefix, not package segments: "com.foo" covers
// "com.foobar" as well as "com.foo.bar".
func Reduce(patterns []Pattern) []string {
	exact := make(map[string]struct{})
	prefixes := make(map[string]struct{})
	for _, p := range patterns {
		if p.IsPrefix {
			prefixes[p.Text] = struct{}{}
		} else {
			exact[p.Text] = struct{}{}
		}
	}

	keys := make([]string, 0, len(prefixes))
	for k := range prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// In sorted order every key subsumed by another sits behind its
	// shortest covering ancestor, so one pass carrying the last
	// survivor finds them all.
	covered := make(map[string]bool, len(keys))
	survivor := ""
	for i, k := range keys {
		if i > 0 && strings.HasPrefix(k, survivor) {
			covered[k] = true
			continue
		}
		survivor = k
	}

	out := make([]string, 0, len(exact)+len(keys))
	for text := range exact {
		out = append(out, Exact(text).String())
	}
	for _, k := range keys {
		if !covered[k] {
			out = append(out, Prefix(k).String())
		}
	}
	sort.Strings(out)
	return out
}
