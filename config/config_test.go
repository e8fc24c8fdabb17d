package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearEnv keeps Load tests hermetic against tokens in the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TOOLSCOUT_CONFIG", "TOOLSCOUT_DB", "GITHUB_TOKEN", "TELEGRAM_TOKEN"} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.DataDir != "./data" {
		t.Errorf("expected default data dir ./data, got %s", d.DataDir)
	}
	if d.DBPath != "./toolscout.db" {
		t.Errorf("expected default db path ./toolscout.db, got %s", d.DBPath)
	}
	if d.DigestTime != "09:00" {
		t.Errorf("expected default digest time 09:00, got %s", d.DigestTime)
	}
	if d.Timezone != "UTC" {
		t.Errorf("expected default timezone UTC, got %s", d.Timezone)
	}
	if d.FetchTimeoutSecs != 10 {
		t.Errorf("expected default fetch timeout 10, got %d", d.FetchTimeoutSecs)
	}
	if d.SkipSeenDays != 7 {
		t.Errorf("expected default skip seen days 7, got %d", d.SkipSeenDays)
	}
	if d.MaxTools != 10 {
		t.Errorf("expected default max tools 10, got %d", d.MaxTools)
	}
	if d.NotifyTop != 5 {
		t.Errorf("expected default notify top 5, got %d", d.NotifyTop)
	}
	if d.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", d.LogLevel)
	}
	if d.Scoring.Thresholds.Build != 70 || d.Scoring.Thresholds.Watch != 40 {
		t.Errorf("expected default thresholds 70/40, got %+v", d.Scoring.Thresholds)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_dir: "/var/lib/toolscout"
digest_time: "18:30"
timezone: "Europe/Rome"
max_tools: 20
github_token: "file-token"
scoring:
  thresholds:
    build: 75
    watch: 45
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "/var/lib/toolscout" {
		t.Errorf("expected data_dir /var/lib/toolscout, got %s", cfg.DataDir)
	}
	if cfg.DigestTime != "18:30" {
		t.Errorf("expected digest_time 18:30, got %s", cfg.DigestTime)
	}
	if cfg.Timezone != "Europe/Rome" {
		t.Errorf("expected timezone Europe/Rome, got %s", cfg.Timezone)
	}
	if cfg.MaxTools != 20 {
		t.Errorf("expected max_tools 20, got %d", cfg.MaxTools)
	}
	if cfg.GitHubToken != "file-token" {
		t.Errorf("expected github token from file, got %s", cfg.GitHubToken)
	}
	if cfg.Scoring.Thresholds.Build != 75 || cfg.Scoring.Thresholds.Watch != 45 {
		t.Errorf("expected thresholds 75/45, got %+v", cfg.Scoring.Thresholds)
	}
	// Defaults should be preserved for unset fields.
	if cfg.DBPath != "./toolscout.db" {
		t.Errorf("expected default db path, got %s", cfg.DBPath)
	}
	if cfg.Scoring.Weights.Usefulness != 0.30 {
		t.Errorf("expected default usefulness weight, got %f", cfg.Scoring.Weights.Usefulness)
	}
}

func TestLoad_MissingDefaultPathUsesDefaults(t *testing.T) {
	clearEnv(t)
	// Run from an empty directory so ./toolscout.yaml does not exist.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DigestTime != "09:00" {
		t.Errorf("expected defaults, got digest_time %s", cfg.DigestTime)
	}
}

func TestLoad_MissingExplicitPathFails(t *testing.T) {
	clearEnv(t)
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}

func TestLoad_InvalidTime(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
digest_time: "25:00"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid time")
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
timezone: "Invalid/Zone"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_dir: "test
  invalid: yaml: [
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_InvalidScoringWeights(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
scoring:
  weights:
    usefulness: 0.9
    quality: 0.9
    innovation: 0.1
    momentum: 0.1
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for weights not summing to 1.0")
	}
}

func TestLoad_TelegramTokenNeedsChatID(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram_token: "tg-token"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for telegram token without chat id")
	}
}

func TestLoad_EnvConfigPath(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_dir: "/from/env/path"
`)
	t.Setenv("TOOLSCOUT_CONFIG", path)
	cfg, err := Load("wrong-path.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "/from/env/path" {
		t.Errorf("expected /from/env/path, got %s", cfg.DataDir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
db_path: "./file.db"
github_token: "file-token"
`)
	t.Setenv("TOOLSCOUT_DB", "/custom/db.sqlite")
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("TELEGRAM_TOKEN", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath != "/custom/db.sqlite" {
		t.Errorf("expected /custom/db.sqlite, got %s", cfg.DBPath)
	}
	if cfg.GitHubToken != "env-token" {
		t.Errorf("expected env token to win over file, got %s", cfg.GitHubToken)
	}
}

func TestValidateTime(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"00:00", true},
		{"09:00", true},
		{"23:59", true},
		{"12:30", true},
		{"24:00", false},
		{"23:60", false},
		{"9:00", false},
		{"abc", false},
		{"12:0a", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidateTime(tt.input)
		if tt.valid && err != nil {
			t.Errorf("ValidateTime(%q) returned unexpected error: %v", tt.input, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ValidateTime(%q) expected error, got nil", tt.input)
		}
	}
}
