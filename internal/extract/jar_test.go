package extract

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgscope/internal/fixtures"
	"pkgscope/internal/pattern"
)

func TestPatternForEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  pattern.Pattern
	}{
		{
			name:  "Packaged class",
			entry: "com/foo/A.class",
			want:  pattern.Prefix("com.foo"),
		},
		{
			name:  "Single segment package",
			entry: "a/B.class",
			want:  pattern.Prefix("a"),
		},
		{
			name:  "Deep package",
			entry: "org/apache/commons/C.class",
			want:  pattern.Prefix("org.apache.commons"),
		},
		{
			name:  "Root entry",
			entry: "Top.class",
			want:  pattern.Exact("Top"),
		},
		{
			name:  "Leading slash entry",
			entry: "/A.class",
			want:  pattern.Exact("A"),
		},
		{
			name:  "Inner class keeps package",
			entry: "com/foo/Outer$Inner.class",
			want:  pattern.Prefix("com.foo"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := patternForEntry(tt.entry); got != tt.want {
				t.Errorf("patternForEntry(%q) = %+v, want %+v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestFromJARSuffixIsCaseSensitive(t *testing.T) {
	// Entry matching follows the archive contents exactly: only
	// lowercase ".class" entries are bytecode.
	jar := filepath.Join(t.TempDir(), "odd.jar")
	fixtures.Archive(t, jar, map[string][]byte{
		"com/foo/A.CLASS": nil,
		"com/foo/B.Class": nil,
		"com/foo/C.class": nil,
	})

	raw, err := New(nil).fromJAR(jar)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, pattern.Prefix("com.foo"), raw[0])
}

func TestFromJARNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.jar")
	fixtures.WriteFile(t, path, []byte("this is not a zip archive"))

	_, err := New(nil).fromJAR(path)
	require.Error(t, err)
}
