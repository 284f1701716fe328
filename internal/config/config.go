package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rustex/internal/extractor"
	"rustex/internal/model"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Discovery struct {
		Include []string `yaml:"include"`
		Exclude []string `yaml:"exclude"`
	} `yaml:"discovery"`
	Extraction struct {
		IncludeDocs    bool     `yaml:"include_docs"`
		IncludePrivate bool     `yaml:"include_private"`
		ElementTypes   []string `yaml:"element_types"`
	} `yaml:"extraction"`
	Analysis struct {
		Workers              int     `yaml:"workers"`
		FailureRateThreshold float64 `yaml:"failure_rate_threshold"`
	} `yaml:"analysis"`
	Plugins []string `yaml:"plugins"`
	AI      struct {
		Provider     string `yaml:"provider"`
		Model        string `yaml:"model"`         // embedding model
		SummaryModel string `yaml:"summary_model"` // LLM model for summaries
		APIKey       string `yaml:"api_key"`
		Dimension    int    `yaml:"dimension"`
		BaseURL      string `yaml:"base_url"`
	} `yaml:"ai"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
}

// Default returns the configuration used when no config file exists. Every
// AI field is empty so nothing talks to a provider unless asked to.
func Default() *Config {
	cfg := &Config{}
	cfg.Project.Root = "."
	cfg.Extraction.IncludeDocs = true
	cfg.Extraction.IncludePrivate = true
	cfg.Analysis.FailureRateThreshold = 0.5
	cfg.Plugins = []string{"hotspots", "deadcode", "doccoverage"}
	cfg.AI.Provider = "gemini"
	cfg.Storage.Path = "rustex.db"
	cfg.Output.Dir = "docs"
	return cfg
}

// Load reads the YAML config at path, layered over Default. A missing file
// is fine; .env and RUSTEX_* environment variables apply either way.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RUSTEX_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("RUSTEX_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
}

// ExtractOptions converts the extraction section into visitor options.
func (c *Config) ExtractOptions() (extractor.Options, error) {
	opts := extractor.Options{
		IncludeDocs:    c.Extraction.IncludeDocs,
		IncludePrivate: c.Extraction.IncludePrivate,
	}
	for _, raw := range c.Extraction.ElementTypes {
		t, err := model.ParseElementType(raw)
		if err != nil {
			return extractor.Options{}, fmt.Errorf("invalid extraction.element_types entry: %w", err)
		}
		opts.ElementFilter = append(opts.ElementFilter, t)
	}
	return opts, nil
}
