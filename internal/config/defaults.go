package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	cfg.Storage.Provider = strings.ToLower(strings.TrimSpace(cfg.Storage.Provider))
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/florafind/data/records.db"
	}
	if cfg.Storage.MongoDatabase == "" {
		cfg.Storage.MongoDatabase = "flora_fauna_db"
	}
	if cfg.Storage.MongoCollection == "" {
		cfg.Storage.MongoCollection = "collected_data"
	}

	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.FetchTimeout <= 0 {
		cfg.Cache.FetchTimeout = 10 * time.Second
	}

	cfg.Search.ApplyDefaults()

	if cfg.History.Capacity <= 0 {
		cfg.History.Capacity = 50
	}
	if cfg.History.Keep <= 0 || cfg.History.Keep > cfg.History.Capacity {
		cfg.History.Keep = cfg.History.Capacity / 2
	}
}

// ApplyDefaults fills zero search settings with their defaults.
func (s *SearchConfig) ApplyDefaults() {
	if s.MinQueryLength <= 0 {
		s.MinQueryLength = 3
	}
	if s.MaxResponseLength <= 0 {
		s.MaxResponseLength = 1500
	}
	if s.MediaDescriptionLength <= 0 {
		s.MediaDescriptionLength = 100
	}
	if s.MediaTopResults <= 0 {
		s.MediaTopResults = 5
	}
	if s.MaxSuggestions <= 0 {
		s.MaxSuggestions = 3
	}
	if s.SuggestionMaxDistance <= 0 {
		s.SuggestionMaxDistance = 2
	}
	if s.SuggestionMinFrequency <= 0 {
		s.SuggestionMinFrequency = 1
	}
	s.Scoring.ApplyDefaults()
}

// DefaultSearchConfig returns a SearchConfig with every default applied.
func DefaultSearchConfig() *SearchConfig {
	s := &SearchConfig{}
	s.ApplyDefaults()
	return s
}
