package extract

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pkgscope/internal/fixtures"
)

// newObserved returns an Extractor whose diagnostics are captured.
func newObserved(level zapcore.Level) (*Extractor, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return New(zap.New(core)), logs
}

func TestPackagesJAR(t *testing.T) {
	jar := filepath.Join(t.TempDir(), "app.jar")
	fixtures.Archive(t, jar, map[string][]byte{
		"com/foo/A.class":      nil,
		"com/foo/B.class":      nil,
		"com/bar/C.class":      nil,
		"Top.class":            nil,
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})

	got, err := New(nil).Packages(jar)
	require.NoError(t, err)

	want := []string{"Top", "com.bar.*", "com.foo.*"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Packages() mismatch (-want +got):\n%s", diff)
	}
}

func TestPackagesExtensionCase(t *testing.T) {
	dir := t.TempDir()
	entries := map[string][]byte{"com/foo/A.class": nil}

	for _, name := range []string{"APP.JAR", "app.Zip", "lib.ZIP"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			fixtures.Archive(t, path, entries)

			got, err := New(nil).Packages(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"com.foo.*"}, got)
		})
	}
}

func TestPackagesUnknownExtension(t *testing.T) {
	ex, logs := newObserved(zapcore.WarnLevel)

	// The path does not exist; unknown formats are diagnosed without
	// touching the filesystem.
	got, err := ex.Packages(filepath.Join(t.TempDir(), "notes.txt"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, logs.FilterMessage("cannot compute packages, unknown file format").Len())
}

func TestPackagesMissingArchive(t *testing.T) {
	for _, name := range []string{"missing.jar", "missing.apk", "missing.aar", "missing.class"} {
		t.Run(name, func(t *testing.T) {
			_, err := New(nil).Packages(filepath.Join(t.TempDir(), name))
			require.Error(t, err)
		})
	}
}

func TestPackagesEmptyArchive(t *testing.T) {
	jar := filepath.Join(t.TempDir(), "empty.jar")
	fixtures.Archive(t, jar, map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})

	got, err := New(nil).Packages(jar)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollectKeepsDuplicates(t *testing.T) {
	// Collect returns the raw collection; collapsing duplicates is the
	// reducer's job.
	jar := filepath.Join(t.TempDir(), "dup.jar")
	fixtures.Archive(t, jar, map[string][]byte{
		"com/foo/A.class": nil,
		"com/foo/B.class": nil,
	})

	raw, err := New(nil).Collect(jar)
	require.NoError(t, err)
	assert.Len(t, raw, 2)
	for _, p := range raw {
		assert.True(t, p.IsPrefix)
		assert.Equal(t, "com.foo", p.Text)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a/b/app.jar", true},
		{"APP.JAR", true},
		{"bundle.aar", true},
		{"app.apk", true},
		{"lib.zip", true},
		{"Main.class", true},
		{"notes.txt", false},
		{"archive.tar.gz", false},
		{"jar", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
