// Package config handles repository discovery and settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	RevcoreDir   = ".revcore"
	SettingsFile = "settings.yml"
	RecordsFile  = "records.jsonl"
	CacheDir     = "cache"
	DBFile       = "index.db"
)

// Settings represents repository configuration stored in
// .revcore/settings.yml.
type Settings struct {
	Project ProjectSettings `yaml:"project"`
	Index   IndexSettings   `yaml:"index"`
}

// ProjectSettings describes the repository itself.
type ProjectSettings struct {
	Title string `yaml:"title,omitempty"`

	// CurationURL marks this repository as a curated metadata source.
	// Records indexed from it carry the URL as their curation source.
	CurationURL string `yaml:"curation_url,omitempty"`
}

// IndexSettings tunes indexing and retrieval.
type IndexSettings struct {
	// TOCSimilarityThreshold is the fuzzy-match cutoff for venue-based
	// retrieval, in (0, 1].
	TOCSimilarityThreshold float64 `yaml:"toc_similarity_threshold"`

	// Workers bounds the batch pool for index rebuilds.
	Workers int `yaml:"workers"`

	// StoreRateLimit caps store round trips per second across all
	// workers. Zero means unlimited.
	StoreRateLimit float64 `yaml:"store_rate_limit,omitempty"`
}

// DefaultSettings returns the settings a fresh repository starts with.
func DefaultSettings() *Settings {
	return &Settings{
		Index: IndexSettings{
			TOCSimilarityThreshold: 0.9,
			Workers:                4,
		},
	}
}

// RevcorePath returns the path to the .revcore directory from a root path.
func RevcorePath(root string) string {
	return filepath.Join(root, RevcoreDir)
}

// SettingsPath returns the path to settings.yml from a root path.
func SettingsPath(root string) string {
	return filepath.Join(root, RevcoreDir, SettingsFile)
}

// RecordsPath returns the path to records.jsonl from a root path.
func RecordsPath(root string) string {
	return filepath.Join(root, RevcoreDir, RecordsFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, RevcoreDir, CacheDir)
}

// DBPath returns the path to the repository-local index database.
func DBPath(root string) string {
	return filepath.Join(root, RevcoreDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a revcore repository.
func IsRepository(root string) bool {
	info, err := os.Stat(RevcorePath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a revcore repository.
// Returns the repository root path or an error if not found.
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
			return "", fmt.Errorf("not in a revcore repository (no .revcore directory found)")
		}
		abs = parent
	}
}

// Load reads settings from the repository at the given root. A repository
// without a settings file gets the defaults.
func Load(root string) (*Settings, error) {
	data, err := os.ReadFile(SettingsPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save writes settings to the repository at the given root.
func (s *Settings) Save(root string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(SettingsPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Validate checks settings for values the pipeline cannot run with.
func (s *Settings) Validate() error {
	if s.Index.TOCSimilarityThreshold <= 0 || s.Index.TOCSimilarityThreshold > 1 {
		return fmt.Errorf("toc_similarity_threshold must be in (0, 1], got %v",
			s.Index.TOCSimilarityThreshold)
	}
	if s.Index.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Index.Workers)
	}
	if s.Index.StoreRateLimit < 0 {
		return fmt.Errorf("store_rate_limit must not be negative, got %v",
			s.Index.StoreRateLimit)
	}
	return nil
}

// Init creates the .revcore directory with default settings at the given
// root. Fails if the repository already exists.
func Init(root string) (*Settings, error) {
	if IsRepository(root) {
		return nil, fmt.Errorf("repository already initialized at %s", root)
	}
	if err := os.MkdirAll(CachePath(root), 0o755); err != nil {
		return nil, fmt.Errorf("creating repository directories: %w", err)
	}
	settings := DefaultSettings()
	if err := settings.Save(root); err != nil {
		return nil, err
	}
	return settings, nil
}

// ExpandPath expands ~ to the user's home directory. Returns the original
// path unchanged if it doesn't start with ~.
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
