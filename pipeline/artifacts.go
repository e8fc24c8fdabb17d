package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact names written under DataDir/<run-date>/. The per-stage CLI
// commands read and write the same files, so a run can be driven one stage
// at a time.
const (
	ToolsFile    = "tools.json"
	NewsFile     = "news.json"
	ResearchFile = "research.json"
	ScoresFile   = "scores.json"
	ReportFile   = "report.md"
)

// RunDir returns the artifact directory for one run date.
func RunDir(dataDir string, date time.Time) string {
	return filepath.Join(dataDir, date.Format("2006-01-02"))
}

// WriteJSON writes v as indented JSON, creating parent directories as
// needed.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("pipeline: create artifact dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pipeline: write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON loads an artifact into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pipeline: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("pipeline: parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
