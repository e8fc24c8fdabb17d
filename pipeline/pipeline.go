// Package pipeline sequences the daily workflow: extract tools from a
// digest, record sightings, enrich fresh tools, score and rank them, persist
// stage artifacts, and announce the result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"toolscout/extract"
	"toolscout/model"
	"toolscout/report"
	"toolscout/score"
)

// Enricher looks up external metadata for a batch of tools.
type Enricher interface {
	Enrich(ctx context.Context, tools []model.Tool) []model.ToolResearch
}

// RunRecord summarizes one run for persistence.
type RunRecord struct {
	ID         string
	DigestDate string
	Source     string
	ToolCount  int
	NewsCount  int
}

// Store persists sightings, scores, and run records.
type Store interface {
	RecordSighting(tool model.Tool) error
	RecentSlugs(days int) ([]string, error)
	SaveScore(runID string, sc model.ToolScore) error
	SaveRun(rec RunRecord) error
}

// Notifier announces a completed run.
type Notifier interface {
	Send(date string, scored []model.ScoredTool, newsCount int) error
}

// Config holds pipeline tunables.
type Config struct {
	DataDir      string
	SkipSeenDays int
	MaxTools     int
	Scoring      score.Config
}

// Runner orchestrates the end-to-end daily workflow.
type Runner struct {
	enricher Enricher
	store    Store
	notifier Notifier
	config   Config
}

// NewRunner creates a Runner. notifier may be nil when notifications are not
// configured.
func NewRunner(enricher Enricher, store Store, notifier Notifier, cfg Config) *Runner {
	return &Runner{
		enricher: enricher,
		store:    store,
		notifier: notifier,
		config:   cfg,
	}
}

// Outcome reports what one run produced.
type Outcome struct {
	RunID      string
	Date       string
	Dir        string
	ReportPath string
	Extracted  int
	Researched int
	Scored     []model.ScoredTool
	News       []model.NewsItem
}

// Run executes the full workflow on one digest. An empty digest is not an
// error: the run is still recorded so the day shows up in stats.
func (r *Runner) Run(ctx context.Context, rawText, source string) (*Outcome, error) {
	now := time.Now()
	runID := uuid.NewString()
	date := now.Format("2006-01-02")
	dir := RunDir(r.config.DataDir, now)

	slog.Info("run starting", "run_id", runID, "source", source)

	// 1. Extract
	ext := extract.Extract(rawText)
	slog.Info("extraction complete", "tools", len(ext.Tools), "news", len(ext.News))

	// 2. Record every sighting, including tools this run will not score.
	for _, tool := range ext.Tools {
		if err := r.store.RecordSighting(tool); err != nil {
			slog.Error("failed to record sighting", "slug", tool.Slug, "error", err)
		}
	}

	// 3. Drop recently scored tools, cap the rest.
	fresh := r.filterSeen(ext.Tools)
	if r.config.MaxTools > 0 && len(fresh) > r.config.MaxTools {
		slog.Info("capping tools for this run", "fresh", len(fresh), "cap", r.config.MaxTools)
		fresh = fresh[:r.config.MaxTools]
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Enrich. Lookup failures leave research partial, never abort the run.
	researched := r.enricher.Enrich(ctx, fresh)

	// 5. Score with one shared reference time, then rank.
	scored := make([]model.ScoredTool, len(researched))
	for i, res := range researched {
		scored[i] = model.ScoredTool{Research: res, Score: score.ScoreAt(res, r.config.Scoring, now)}
	}
	ranked := score.Rank(scored)

	// 6. Stage artifacts
	r.writeArtifact(dir, ToolsFile, ext.Tools)
	r.writeArtifact(dir, NewsFile, ext.News)
	r.writeArtifact(dir, ResearchFile, researched)
	r.writeArtifact(dir, ScoresFile, ranked)

	// 7. Report, then persist scores and the run row.
	out := &Outcome{
		RunID:      runID,
		Date:       date,
		Dir:        dir,
		Extracted:  len(ext.Tools),
		Researched: len(researched),
		Scored:     ranked,
		News:       ext.News,
	}

	md := report.Render(report.Data{Date: now, Scored: ranked, News: ext.News})
	reportPath := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(reportPath, []byte(md), 0o644); err != nil {
		slog.Error("failed to write report", "path", reportPath, "error", err)
	} else {
		out.ReportPath = reportPath
	}

	for _, st := range ranked {
		if err := r.store.SaveScore(runID, st.Score); err != nil {
			slog.Error("failed to save score", "slug", st.Score.Slug, "error", err)
		}
	}
	rec := RunRecord{
		ID:         runID,
		DigestDate: date,
		Source:     source,
		ToolCount:  len(ext.Tools),
		NewsCount:  len(ext.News),
	}
	if err := r.store.SaveRun(rec); err != nil {
		return nil, fmt.Errorf("pipeline: save run: %w", err)
	}

	// 8. Notify; failure is logged, never fatal.
	if r.notifier != nil {
		if err := r.notifier.Send(date, ranked, len(ext.News)); err != nil {
			slog.Warn("notification failed", "error", err)
		}
	}

	slog.Info("run complete", "run_id", runID, "scored", len(ranked), "report", out.ReportPath)
	return out, nil
}

// filterSeen drops tools whose slug was scored within the seen window. The
// window being unavailable is not fatal: tools pass through unfiltered.
func (r *Runner) filterSeen(tools []model.Tool) []model.Tool {
	if r.config.SkipSeenDays <= 0 || len(tools) == 0 {
		return tools
	}
	recent, err := r.store.RecentSlugs(r.config.SkipSeenDays)
	if err != nil {
		slog.Error("failed to get recent slugs", "error", err)
		return tools
	}
	recentSet := make(map[string]bool, len(recent))
	for _, slug := range recent {
		recentSet[slug] = true
	}

	var fresh []model.Tool
	for _, tool := range tools {
		if recentSet[tool.Slug] {
			continue
		}
		fresh = append(fresh, tool)
	}
	if len(fresh) != len(tools) {
		slog.Info("filtered recently scored tools", "before", len(tools), "after", len(fresh))
	}
	return fresh
}

func (r *Runner) writeArtifact(dir, name string, v any) {
	path := filepath.Join(dir, name)
	if err := WriteJSON(path, v); err != nil {
		slog.Error("failed to write artifact", "path", path, "error", err)
	}
}
