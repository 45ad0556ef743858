// Package pattern models the package patterns used to describe
// application code: exact package names plus "everything under this
// prefix" wildcards, and the reduction that collapses a raw collection
// into the smallest covering set.
package pattern

import "strings"

// Pattern is a single package pattern: either an exact name or a prefix
// covering every name under it. Patterns are immutable values; two
// patterns are equal when their text and kind are equal.
type Pattern struct {
	Text     string
	IsPrefix bool
}

// Exact returns a pattern matching exactly text.
func Exact(text string) Pattern {
	return Pattern{Text: text}
}

// Prefix returns a pattern covering text and everything under it.
func Prefix(text string) Pattern {
	return Pattern{Text: text, IsPrefix: true}
}

// String renders the pattern in the form consumers expect: exact
// patterns are the bare name, prefixes carry a ".*" suffix.
func (p Pattern) String() string {
	if p.IsPrefix {
		return p.Text + ".*"
	}
	return p.Text
}

// Parse is the inverse of String: a trailing ".*" marks a prefix
// pattern, anything else is exact.
func Parse(s string) Pattern {
	if strings.HasSuffix(s, ".*") {
		return Prefix(strings.TrimSuffix(s, ".*"))
	}
	return Exact(s)
}
