package config

import (
	"os"
	"path/filepath"
	"testing"

	"rustex/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Project.Root)
	assert.True(t, cfg.Extraction.IncludeDocs)
	assert.True(t, cfg.Extraction.IncludePrivate)
	assert.Equal(t, 0.5, cfg.Analysis.FailureRateThreshold)
	assert.Equal(t, []string{"hotspots", "deadcode", "doccoverage"}, cfg.Plugins)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Empty(t, cfg.AI.APIKey)
	assert.Equal(t, "rustex.db", cfg.Storage.Path)
	assert.Equal(t, "docs", cfg.Output.Dir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project:
  root: ./crates/app
discovery:
  include: ["src/**/*.rs"]
  exclude: ["src/generated/**"]
extraction:
  include_private: false
  element_types: [function, struct]
analysis:
  workers: 2
  failure_rate_threshold: 0.25
plugins: [hotspots]
ai:
  provider: ollama
  model: nomic-embed-text
  base_url: http://localhost:11434
storage:
  path: target/rustex.db
output:
  dir: target/docs
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./crates/app", cfg.Project.Root)
	assert.Equal(t, []string{"src/**/*.rs"}, cfg.Discovery.Include)
	assert.Equal(t, []string{"src/generated/**"}, cfg.Discovery.Exclude)
	assert.True(t, cfg.Extraction.IncludeDocs, "untouched default survives")
	assert.False(t, cfg.Extraction.IncludePrivate)
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.Equal(t, 0.25, cfg.Analysis.FailureRateThreshold)
	assert.Equal(t, []string{"hotspots"}, cfg.Plugins)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, "target/rustex.db", cfg.Storage.Path)
	assert.Equal(t, "target/docs", cfg.Output.Dir)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RUSTEX_API_KEY", "sk-test")
	t.Setenv("RUSTEX_AI_PROVIDER", "openai")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "openai", cfg.AI.Provider)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: [broken"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExtractOptions(t *testing.T) {
	cfg := Default()
	cfg.Extraction.ElementTypes = []string{"function", "struct"}

	opts, err := cfg.ExtractOptions()
	require.NoError(t, err)
	assert.True(t, opts.IncludeDocs)
	assert.Equal(t, []model.ElementType{model.TypeFunction, model.TypeStruct}, opts.ElementFilter)
}

func TestExtractOptions_RejectsUnknownType(t *testing.T) {
	cfg := Default()
	cfg.Extraction.ElementTypes = []string{"gadget"}

	_, err := cfg.ExtractOptions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gadget")
}
