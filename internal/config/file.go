package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	TMDBAPIKey   string  `yaml:"tmdb_api_key"`
	TMDBBaseURL  string  `yaml:"tmdb_base_url"`
	TMDBRate     float64 `yaml:"tmdb_rate"`
	DatabaseURL  string  `yaml:"database_url"`
	RedisURL     string  `yaml:"redis_url"`
	ServerPort   string  `yaml:"server_port"`
	UserAgent    string  `yaml:"user_agent"`
	Timeout      string  `yaml:"timeout"`
	VoyageAPIKey string  `yaml:"voyage_api_key"`
	VoyageModel  string  `yaml:"voyage_model"`
	LogLevel     string  `yaml:"log_level"`
	LogFormat    string  `yaml:"log_format"`
	RecentLimit  int     `yaml:"recent_limit"`
	GenreMatch   string  `yaml:"genre_match"`
	RateLimit    *int    `yaml:"rate_limit"`
	LiveURL      string  `yaml:"live_url"`
}

// LoadFromFile loads config from a YAML file. Environment variables that
// are set take precedence over file values. tmdb_api_key is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := Defaults()
	f.apply(c)
	applyEnv(c)
	return c, c.Validate()
}

func (f *fileConfig) apply(c *Config) {
	overlay(&c.TMDBAPIKey, f.TMDBAPIKey)
	overlay(&c.TMDBBaseURL, f.TMDBBaseURL)
	overlay(&c.DatabaseURL, f.DatabaseURL)
	overlay(&c.RedisURL, f.RedisURL)
	overlay(&c.ServerPort, f.ServerPort)
	overlay(&c.UserAgent, f.UserAgent)
	overlay(&c.VoyageAPIKey, f.VoyageAPIKey)
	overlay(&c.VoyageModel, f.VoyageModel)
	overlay(&c.LogLevel, f.LogLevel)
	overlay(&c.LogFormat, f.LogFormat)
	overlay(&c.GenreMatch, f.GenreMatch)
	overlay(&c.LiveURL, f.LiveURL)
	if f.RateLimit != nil {
		c.RateLimit = *f.RateLimit
	}
	if f.TMDBRate > 0 {
		c.TMDBRate = f.TMDBRate
	}
	if f.RecentLimit > 0 {
		c.RecentLimit = f.RecentLimit
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
