package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/axi/config.yml.
type GlobalConfig struct {
	OllamaURL         string  `yaml:"ollama_url,omitempty"`
	EmbeddingModel    string  `yaml:"embedding_model,omitempty"`
	ArxivDelaySeconds float64 `yaml:"arxiv_delay_seconds,omitempty"`
	ArxivPageSize     int     `yaml:"arxiv_page_size,omitempty"`
	RepoPath          string  `yaml:"repo_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "axi"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	EnvOllamaURL      = "AXI_OLLAMA_URL"
	EnvEmbeddingModel = "AXI_EMBEDDING_MODEL"
	EnvRoot           = "AXI_ROOT"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/axi/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. A missing file is not an error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := &GlobalConfig{}
	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	cfg.OllamaURL = GetConfigValue(EnvOllamaURL, cfg.OllamaURL)
	cfg.EmbeddingModel = GetConfigValue(EnvEmbeddingModel, cfg.EmbeddingModel)
	cfg.RepoPath = GetConfigValue(EnvRoot, cfg.RepoPath)
	if cfg.RepoPath != "" {
		cfg.RepoPath = ExpandPath(cfg.RepoPath)
	}

	globalConfigCache = cfg
	return cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetConfigValue returns the environment variable if set, else configValue.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// ArxivDelay returns the configured politeness delay, or fallback if unset.
func (g *GlobalConfig) ArxivDelay(fallback time.Duration) time.Duration {
	if g.ArxivDelaySeconds <= 0 {
		return fallback
	}
	return time.Duration(g.ArxivDelaySeconds * float64(time.Second))
}

// HelpfulConfigMessage returns a hint shown when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No arxivindex repository found.

Run 'axi init' in a directory, or set a default repository in %s:
  mkdir -p %s
  echo 'repo_path: /path/to/your/repo' > %s

or export %s=/path/to/your/repo`,
		configPath,
		filepath.Dir(configPath),
		configPath,
		EnvRoot)
}
