package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrMissingTMDBKey is returned when no metadata provider key is configured.
var ErrMissingTMDBKey = errors.New("TMDB_API_KEY is required")

// Genre matching modes for the chat intent resolver.
const (
	GenreMatchSubstring = "substring"
	GenreMatchWord      = "word"
)

// Config holds application configuration.
type Config struct {
	TMDBAPIKey   string        `yaml:"tmdb_api_key" env:"TMDB_API_KEY" validate:"required"`
	TMDBBaseURL  string        `yaml:"tmdb_base_url" env:"TMDB_BASE_URL" validate:"required,url"`
	TMDBRate     float64       `yaml:"tmdb_rate" env:"TMDB_RATE" validate:"gt=0"`
	DatabaseURL  string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL     string        `yaml:"redis_url" env:"REDIS_URL"`
	ServerPort   string        `yaml:"server_port" env:"SERVER_PORT" validate:"required,numeric"`
	UserAgent    string        `yaml:"user_agent" env:"FETCHER_USER_AGENT"`
	Timeout      time.Duration `yaml:"timeout" env:"FETCHER_TIMEOUT" validate:"gt=0"`
	VoyageAPIKey string        `yaml:"voyage_api_key" env:"VOYAGE_API_KEY"`
	VoyageModel  string        `yaml:"voyage_model" env:"VOYAGE_MODEL"`
	LogLevel     string        `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFormat    string        `yaml:"log_format" env:"LOG_FORMAT" validate:"oneof=json console"`
	RecentLimit  int           `yaml:"recent_limit" env:"RECENT_LIMIT" validate:"gt=0,lte=500"`
	GenreMatch   string        `yaml:"genre_match" env:"GENRE_MATCH" validate:"oneof=substring word"`
	RateLimit    int           `yaml:"rate_limit" env:"RATE_LIMIT" validate:"gte=0"`
	LiveURL      string        `yaml:"live_url" env:"LIVE_URL" validate:"omitempty,url"`
}

// Defaults returns a Config with every optional field set.
func Defaults() *Config {
	return &Config{
		TMDBBaseURL: "https://api.themoviedb.org/3",
		TMDBRate:    20,
		ServerPort:  "8080",
		UserAgent:   "WolfFlix/1.0",
		Timeout:     15 * time.Second,
		LogLevel:    "info",
		LogFormat:   "json",
		RecentLimit: 50,
		GenreMatch:  GenreMatchSubstring,
		RateLimit:   300,
		LiveURL:     "https://streamed.su/api/matches/all-today",
	}
}

// Load builds config from environment variables.
// If TMDB_API_KEY is not set, Load tries to load .env.local and .env from the current directory.
// TMDB_API_KEY is required; DATABASE_URL and REDIS_URL are optional.
func Load() (*Config, error) {
	if os.Getenv("TMDB_API_KEY") == "" {
		loadEnvFiles()
	}
	c := Defaults()
	applyEnv(c)
	return c, c.Validate()
}

// applyEnv overrides fields of c with any environment variables that are set.
func applyEnv(c *Config) {
	setString(&c.TMDBAPIKey, "TMDB_API_KEY")
	setString(&c.TMDBBaseURL, "TMDB_BASE_URL")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.ServerPort, "SERVER_PORT")
	setString(&c.UserAgent, "FETCHER_USER_AGENT")
	setString(&c.VoyageAPIKey, "VOYAGE_API_KEY")
	setString(&c.VoyageModel, "VOYAGE_MODEL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.GenreMatch, "GENRE_MATCH")
	setString(&c.LiveURL, "LIVE_URL")
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	if s := os.Getenv("TMDB_RATE"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			c.TMDBRate = f
		}
	}
	if s := os.Getenv("RECENT_LIMIT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			c.RecentLimit = n
		}
	}
	// RATE_LIMIT=0 disables the per-IP limiter.
	if s := os.Getenv("RATE_LIMIT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			c.RateLimit = n
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.TMDBAPIKey == "" {
		return ErrMissingTMDBKey
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WordBoundaryGenres reports whether genre keywords must match whole words.
func (c *Config) WordBoundaryGenres() bool {
	return c.GenreMatch == GenreMatchWord
}
