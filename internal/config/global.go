// Global configuration: the shared index lives in the user's home so every
// repository on the machine indexes into (and retrieves from) the same
// database.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in
// ~/.config/revcore/config.yml.
type GlobalConfig struct {
	// IndexPath overrides where the shared index database lives.
	IndexPath string `yaml:"index_path,omitempty"`

	// CuratedRepositories lists local paths of curated metadata
	// repositories to draw from when rebuilding the shared index.
	CuratedRepositories []string `yaml:"curated_repositories,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "revcore"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// SharedIndexDir is the default shared index location under the home
	// directory.
	SharedIndexDir = ".revcore_index"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file. Respects
// XDG_CONFIG_HOME, defaults to ~/.config/revcore/config.yml.
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

// LoadGlobalConfig loads the global configuration file. Returns an empty
// config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.IndexPath != "" {
		cfg.IndexPath = ExpandPath(cfg.IndexPath)
	}
	for i, repo := range cfg.CuratedRepositories {
		cfg.CuratedRepositories[i] = ExpandPath(repo)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config. Useful for
// testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// SharedIndexPath returns where the shared index database lives: the
// configured index_path, or ~/.revcore_index/index.db.
func SharedIndexPath() string {
	cfg, _ := LoadGlobalConfig()
	if cfg.IndexPath != "" {
		return cfg.IndexPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(SharedIndexDir, DBFile)
	}
	return filepath.Join(home, SharedIndexDir, DBFile)
}

// CuratedRepositories returns the configured curated repository paths.
func CuratedRepositories() []string {
	cfg, _ := LoadGlobalConfig()
	return cfg.CuratedRepositories
}
