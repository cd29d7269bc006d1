// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultGraphQLURL = "https://api.github.com/graphql"
	defaultSince      = "1970-01-01T00:00:00Z"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	DBURL                string        `mapstructure:"DB_URL"`
	GithubToken          string        `mapstructure:"GITHUB_TOKEN"`
	GithubGraphQLURL     string        `mapstructure:"GITHUB_GRAPHQL_URL"`
	GithubAPIURL         string        `mapstructure:"GITHUB_API_URL"`
	SyncInterval         time.Duration `mapstructure:"SYNC_INTERVAL"`
	DefaultSyncSinceDate string        `mapstructure:"DEFAULT_SYNC_SINCE_DATE"`
	DefaultSyncSinceTime time.Time     `mapstructure:"-"`
	MaxPages             int           `mapstructure:"MAX_PAGES"`
	HTTPAddr             string        `mapstructure:"HTTP_ADDR"`
	TrackRepos           []string      `mapstructure:"TRACK_REPOS"`
}

var defaults = map[string]any{
	"LOG_LEVEL":               "info",
	"GITHUB_GRAPHQL_URL":      defaultGraphQLURL,
	"GITHUB_API_URL":          "",
	"SYNC_INTERVAL":           "1h",
	"DEFAULT_SYNC_SINCE_DATE": defaultSince,
	"MAX_PAGES":               10000,
	"HTTP_ADDR":               ":8080",
	"TRACK_REPOS":             []string{},
}

// LoadConfig reads configuration from an env file and environment variables.
// An empty configFile means an optional .env in the working directory.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(".env")
		v.SetConfigType("env")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // Ignore error if file not found
	}

	// Unmarshal only sees environment variables for keys viper knows about.
	for _, key := range []string{"DB_URL", "GITHUB_TOKEN"} {
		_ = v.BindEnv(key)
	}
	for key := range defaults {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.TrackRepos = splitList(cfg.TrackRepos)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	parsedTime, err := time.Parse(time.RFC3339, cfg.DefaultSyncSinceDate)
	if err != nil {
		return nil, errors.New("DEFAULT_SYNC_SINCE_DATE must be in RFC3339 format (e.g. 1970-01-01T00:00:00Z)")
	}
	cfg.DefaultSyncSinceTime = parsedTime.UTC()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is a required configuration field")
	}
	if c.GithubToken == "" {
		return errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if c.SyncInterval <= 0 {
		return errors.New("SYNC_INTERVAL must be a positive duration")
	}
	if c.MaxPages <= 0 {
		return errors.New("MAX_PAGES must be a positive integer")
	}
	return nil
}

// splitList accepts both a list and a single comma or space separated value,
// which is how lists arrive from the environment.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
	}
	return out
}
