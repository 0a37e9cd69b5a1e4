package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

// Config is the top-level run configuration.
type Config struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Grading   GradingConfig             `yaml:"grading"`
	Storage   StorageConfig             `yaml:"storage"`
}

// ProviderConfig holds one search provider's settings. Options is passed
// through to the adapter unmodified.
type ProviderConfig struct {
	APIKey      string         `yaml:"api_key,omitempty"`
	BaseURL     string         `yaml:"base_url,omitempty"`
	Model       string         `yaml:"model,omitempty"`
	Concurrency int            `yaml:"concurrency,omitempty"`
	Options     map[string]any `yaml:"options,omitempty"`
}

// GradingConfig selects the model used for grading and answer extraction.
type GradingConfig struct {
	Provider string `yaml:"provider,omitempty"` // "openai" or "claude"
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

type StorageConfig struct {
	HistoryPath string `yaml:"history_path,omitempty"` // SQLite run-history file
}

// envKeyByProvider maps provider names to the environment variable holding
// their API key. Env values override the config file.
var envKeyByProvider = map[string]string{
	"tavily":     "TAVILY_API_KEY",
	"exa":        "EXA_API_KEY",
	"serper":     "SERPER_API_KEY",
	"brave":      "BRAVE_API_KEY",
	"perplexity": "PERPLEXITY_API_KEY",
}

func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	for name, pcfg := range cfg.Providers {
		envName, ok := envKeyByProvider[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
			pcfg.APIKey = v
			cfg.Providers[name] = pcfg
		}
	}

	if strings.TrimSpace(cfg.Grading.Provider) == "" {
		cfg.Grading.Provider = "openai"
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Grading.Provider)) {
	case "openai":
		if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
			cfg.Grading.APIKey = v
		}
	case "claude", "anthropic":
		if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
			cfg.Grading.APIKey = v
		}
	}

	return &cfg, nil
}
