package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "receiver", cfg.Analysis.Classifier)
	assert.False(t, cfg.Analysis.IncludeHeaders)
	assert.Equal(t, 0, cfg.Analysis.Jobs)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Output.Color)
	assert.Contains(t, cfg.Exclude.Dirs, "build")
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "constify.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[analysis]
classifier = "counting"
include_headers = true
jobs = 4

[output]
format = "json"
color = false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "counting", cfg.Analysis.Classifier)
	assert.True(t, cfg.Analysis.IncludeHeaders)
	assert.Equal(t, 4, cfg.Analysis.Jobs)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "constify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
analysis:
  classifier: counting
exclude:
  dirs:
    - generated
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "counting", cfg.Analysis.Classifier)
	assert.Contains(t, cfg.Exclude.Dirs, "generated")
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "constify.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"output": {"format": "markdown"}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.Output.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.ShouldExclude(filepath.Join("build", "gen.cpp")))
	assert.True(t, cfg.ShouldExclude(filepath.Join("src", "third_party", "lib.cpp")))
	assert.True(t, cfg.ShouldExclude(filepath.Join("src", "message.pb.cc")))
	assert.True(t, cfg.ShouldExclude("lib.o"))
	assert.False(t, cfg.ShouldExclude(filepath.Join("src", "main.cpp")))
}
