package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"toolscout/score"
)

// DefaultPath is where Load looks when no path is given explicitly.
const DefaultPath = "./toolscout.yaml"

// Config holds all application configuration.
type Config struct {
	DataDir          string       `yaml:"data_dir"`
	DBPath           string       `yaml:"db_path"`
	DigestTime       string       `yaml:"digest_time"`
	Timezone         string       `yaml:"timezone"`
	FetchTimeoutSecs int          `yaml:"fetch_timeout_secs"`
	SkipSeenDays     int          `yaml:"skip_seen_days"`
	MaxTools         int          `yaml:"max_tools"`
	NotifyTop        int          `yaml:"notify_top"`
	LogLevel         string       `yaml:"log_level"`
	GitHubToken      string       `yaml:"github_token"`
	TelegramToken    string       `yaml:"telegram_token"`
	TelegramChatID   int64        `yaml:"telegram_chat_id"`
	Scoring          score.Config `yaml:"scoring"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		DataDir:          "./data",
		DBPath:           "./toolscout.db",
		DigestTime:       "09:00",
		Timezone:         "UTC",
		FetchTimeoutSecs: 10,
		SkipSeenDays:     7,
		MaxTools:         10,
		NotifyTop:        5,
		LogLevel:         "info",
		Scoring:          score.DefaultConfig(),
	}
}

// Load reads a YAML config file and returns a validated Config. Secrets can
// come from the environment (a .env file is honored): TOOLSCOUT_CONFIG
// overrides the file path, TOOLSCOUT_DB the database path, GITHUB_TOKEN and
// TELEGRAM_TOKEN the respective tokens. A missing file at the default path
// just means defaults; a missing file at an explicitly given path is an
// error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	if envPath := os.Getenv("TOOLSCOUT_CONFIG"); envPath != "" {
		path = envPath
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file is fine; defaults plus env cover a bare setup.
	default:
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if envDB := os.Getenv("TOOLSCOUT_DB"); envDB != "" {
		cfg.DBPath = envDB
	}
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		cfg.GitHubToken = tok
	}
	if tok := os.Getenv("TELEGRAM_TOKEN"); tok != "" {
		cfg.TelegramToken = tok
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that values are consistent. Tokens are optional: without a
// GitHub token lookups run anonymously, without a Telegram token runs are
// not announced.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	if err := ValidateTime(c.DigestTime); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	if c.FetchTimeoutSecs < 1 {
		return fmt.Errorf("fetch_timeout_secs must be at least 1, got %d", c.FetchTimeoutSecs)
	}
	if c.SkipSeenDays < 0 {
		return fmt.Errorf("skip_seen_days must not be negative, got %d", c.SkipSeenDays)
	}
	if c.MaxTools < 1 {
		return fmt.Errorf("max_tools must be at least 1, got %d", c.MaxTools)
	}
	if c.NotifyTop < 1 {
		return fmt.Errorf("notify_top must be at least 1, got %d", c.NotifyTop)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("telegram_chat_id is required when telegram_token is set")
	}

	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	return nil
}

// ValidateTime checks that a time string is in valid HH:MM 24-hour format.
func ValidateTime(t string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	if t[0] < '0' || t[0] > '9' || t[1] < '0' || t[1] > '9' ||
		t[3] < '0' || t[3] > '9' || t[4] < '0' || t[4] > '9' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour > 23 {
		return fmt.Errorf("invalid time %q: hour must be 0-23", t)
	}
	if minute > 59 {
		return fmt.Errorf("invalid time %q: minute must be 0-59", t)
	}

	return nil
}
