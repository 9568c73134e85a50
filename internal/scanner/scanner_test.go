package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvarga/constify/pkg/config"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("int x;\n"), 0o644))
	}
}

func names(root string, files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		rel, _ := filepath.Rel(root, f)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestScanDirFindsSourcesSkipsHeadersByDefault(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"main.cpp",
		"util.cc",
		"legacy.c",
		"util.h",
		"notes.txt",
	)

	files, err := NewScanner(config.DefaultConfig()).ScanDir(root)
	require.NoError(t, err)

	got := names(root, files)
	assert.ElementsMatch(t, []string{"main.cpp", "util.cc", "legacy.c"}, got)
}

func TestScanDirIncludesHeadersWhenConfigured(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "main.cpp", "util.h", "value.hpp")

	cfg := config.DefaultConfig()
	cfg.Analysis.IncludeHeaders = true
	files, err := NewScanner(cfg).ScanDir(root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"main.cpp", "util.h", "value.hpp"}, names(root, files))
}

func TestScanDirHonorsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"src/main.cpp",
		"build/gen.cpp",
		"third_party/dep.cpp",
	)

	files, err := NewScanner(config.DefaultConfig()).ScanDir(root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"src/main.cpp"}, names(root, files))
}

func TestCollectMixedArguments(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.cpp", "sub/b.cpp", "sub/c.h")

	s := NewScanner(config.DefaultConfig())
	files, err := s.Collect([]string{
		filepath.Join(root, "a.cpp"),
		filepath.Join(root, "sub"),
		filepath.Join(root, "sub", "c.h"), // explicit file bypasses the header filter
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a.cpp", "sub/b.cpp", "sub/c.h"}, names(root, files))
}

func TestCollectMissingPath(t *testing.T) {
	s := NewScanner(config.DefaultConfig())
	_, err := s.Collect([]string{filepath.Join(t.TempDir(), "missing.cpp")})
	assert.Error(t, err)
}

func TestIsHeader(t *testing.T) {
	assert.True(t, IsHeader("a.h"))
	assert.True(t, IsHeader("a.hpp"))
	assert.True(t, IsHeader("A.HH"))
	assert.False(t, IsHeader("a.cpp"))
	assert.False(t, IsHeader("a"))
}
