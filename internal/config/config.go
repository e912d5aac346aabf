// Package config handles repository and global configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/matsen/arxivindex/internal/paper"
)

// Config represents repository configuration stored in .arxivindex/config.json.
type Config struct {
	DefaultField string `json:"default_field"`      // Field searched when --field is omitted
	DefaultK     int    `json:"default_k"`          // Result count when -k is omitted
	Category     string `json:"category,omitempty"` // arXiv category used by fetch, e.g. "cs"
}

const (
	RepoDir    = ".arxivindex"
	ConfigFile = "config.json"
	PapersFile = "papers.jsonl"
	CacheDir   = "cache"
	DBFile     = "papers.db"
	IndexDir   = "index"

	DefaultK        = 10
	DefaultCategory = "cs"
)

// ErrNotRepository is returned when no .arxivindex directory is found.
var ErrNotRepository = errors.New("not in an arxivindex repository (no .arxivindex directory found)")

// Default returns the configuration written by `axi init`.
func Default() *Config {
	return &Config{
		DefaultField: string(paper.FieldAbstract),
		DefaultK:     DefaultK,
		Category:     DefaultCategory,
	}
}

// RepoPath returns the path to the .arxivindex directory from a root path.
func RepoPath(root string) string {
	return filepath.Join(root, RepoDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, RepoDir, ConfigFile)
}

// PapersPath returns the path to papers.jsonl from a root path.
func PapersPath(root string) string {
	return filepath.Join(root, RepoDir, PapersFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, RepoDir, CacheDir)
}

// DBPath returns the path to papers.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, RepoDir, CacheDir, DBFile)
}

// IndexPath returns the semantic index snapshot directory from a root path.
func IndexPath(root string) string {
	return filepath.Join(root, RepoDir, IndexDir)
}

// IsRepository checks if the given path contains an arxivindex repository.
func IsRepository(root string) bool {
	info, err := os.Stat(RepoPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a repository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
// Unset values fall back to Default.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks field and k values.
func (c *Config) Validate() error {
	if _, err := paper.ParseField(c.DefaultField); err != nil {
		return fmt.Errorf("invalid default_field: %w", err)
	}
	if c.DefaultK <= 0 {
		return fmt.Errorf("invalid default_k: %d (must be positive)", c.DefaultK)
	}
	return nil
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := []string{"default_field", "default_k", "category"}
	sort.Strings(keys)
	return keys
}

// Get returns a configuration value by key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "default_field":
		return c.DefaultField, nil
	case "default_k":
		return strconv.Itoa(c.DefaultK), nil
	case "category":
		return c.Category, nil
	default:
		return "", fmt.Errorf("unknown config key: %s (valid: %v)", key, Keys())
	}
}

// Set updates a configuration value by key and validates the result.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "default_field":
		f, err := paper.ParseField(value)
		if err != nil {
			return fmt.Errorf("invalid default_field: %w", err)
		}
		next.DefaultField = string(f)
	case "default_k":
		k, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid default_k: %s", value)
		}
		next.DefaultK = k
	case "category":
		next.Category = value
	default:
		return fmt.Errorf("unknown config key: %s (valid: %v)", key, Keys())
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
