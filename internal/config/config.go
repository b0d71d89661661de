// Package config provides configuration loading and structs for the florafind server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/florafind/internal/ranking"
)

// Environment variables that override values from the config file.
const (
	EnvMongoURI     = "FLORAFIND_MONGODB_URI"
	EnvDatabasePath = "FLORAFIND_DATABASE_PATH"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Search  SearchConfig  `yaml:"search"`
	Lexicon LexiconConfig `yaml:"lexicon"`
	History HistoryConfig `yaml:"history"`
	Import  ImportConfig  `yaml:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects and configures the record source.
type StorageConfig struct {
	// Provider is "sqlite" or "mongodb".
	Provider        string `yaml:"provider"`
	DatabasePath    string `yaml:"database_path"`
	MongoURI        string `yaml:"mongodb_uri"`
	MongoDatabase   string `yaml:"mongodb_database"`
	MongoCollection string `yaml:"mongodb_collection"`
}

// CacheConfig holds record snapshot cache settings.
type CacheConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// SearchConfig holds query processing and response composition settings.
type SearchConfig struct {
	// Queries shorter than this many runes get the prompt response.
	MinQueryLength int `yaml:"min_query_length"`
	// MaxResponseLength bounds the text response, in runes.
	MaxResponseLength int `yaml:"max_response_length"`
	// MediaDescriptionLength bounds media reference descriptions, in runes.
	MediaDescriptionLength int `yaml:"media_description_length"`
	// MediaTopResults ranked results always contribute their media.
	MediaTopResults int `yaml:"media_top_results"`
	// Suggestions enables did-you-mean terms on "not found" responses.
	Suggestions    *bool `yaml:"suggestions"`
	MaxSuggestions int   `yaml:"max_suggestions"`
	// SuggestionMaxDistance is the largest edit distance a suggested term may have.
	SuggestionMaxDistance int `yaml:"suggestion_max_distance"`
	// SuggestionMinFrequency ignores terms found in fewer records.
	SuggestionMinFrequency int `yaml:"suggestion_min_frequency"`

	Scoring ranking.ScoringConfig `yaml:"scoring"`
}

// SuggestionsOrDefault returns whether suggestions are enabled; defaults to true when unset.
func (s *SearchConfig) SuggestionsOrDefault() bool {
	if s.Suggestions != nil {
		return *s.Suggestions
	}
	return true
}

// LexiconConfig points at an optional lexicon file replacing the built-in one.
type LexiconConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// HistoryConfig bounds the in-memory conversation log.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
	Keep     int `yaml:"keep"`
}

// ImportConfig configures the watched import inbox. Files dropped into Inbox are
// imported into the SQLite store. An empty Inbox disables watching.
type ImportConfig struct {
	Inbox     string `yaml:"inbox"`
	Recursive *bool  `yaml:"recursive"`
}

// RecursiveOrDefault returns whether subdirectories of the inbox are watched; defaults to true when unset.
func (c *ImportConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults. A .env file next to the working directory is
// loaded first when present.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Lexicon.Path != "" {
		cfg.Lexicon.Path = expandPath(cfg.Lexicon.Path, configDir)
	}
	if cfg.Import.Inbox != "" {
		cfg.Import.Inbox = expandPath(cfg.Import.Inbox, configDir)
	}

	return &cfg, nil
}

// ApplyEnv overrides config values from the environment.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvMongoURI)); v != "" {
		cfg.Storage.MongoURI = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabasePath)); v != "" {
		cfg.Storage.DatabasePath = v
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
