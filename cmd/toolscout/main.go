package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"toolscout/capture"
	"toolscout/config"
	"toolscout/extract"
	"toolscout/model"
	"toolscout/notify"
	"toolscout/pipeline"
	"toolscout/report"
	"toolscout/research"
	"toolscout/sandbox"
	"toolscout/scheduler"
	"toolscout/score"
	"toolscout/storage"
)

var cfgPath string

func main() {
	// Structured JSON logging on stderr; stdout stays clean for command
	// output.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:   "toolscout",
		Short: "Find, research, and score new dev tools from daily digests",
	}
	// An empty path lets config.Load treat a missing default file as "use
	// defaults" while a path given here must exist.
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (default "+config.DefaultPath+")")

	root.AddCommand(
		extractCmd(),
		researchCmd(),
		scoreCmd(),
		reportCmd(),
		runCmd(),
		watchCmd(),
		statsCmd(),
		tryCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the YAML config and applies the configured log level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return cfg, nil
}

// readDigest resolves the digest text from a URL, a file argument, or stdin.
// The returned source label is recorded on the run.
func readDigest(ctx context.Context, cfg config.Config, args []string, url string) (string, string, error) {
	switch {
	case url != "":
		c := capture.NewCapturer(time.Duration(cfg.FetchTimeoutSecs) * time.Second)
		text, err := c.FromURL(ctx, url)
		return text, url, err
	case len(args) > 0:
		text, err := capture.FromFile(args[0])
		return text, args[0], err
	default:
		text, err := capture.FromReader(os.Stdin)
		return text, "stdin", err
	}
}

func newEnricher(cfg config.Config) *research.Enricher {
	httpClient := &http.Client{Timeout: time.Duration(cfg.FetchTimeoutSecs) * time.Second}
	return research.NewEnricher(
		research.NewGitHubClient(httpClient, cfg.GitHubToken),
		research.NewNpmClient(httpClient),
	)
}

func openStore(cfg config.Config) (*storage.Store, error) {
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	return store, nil
}

// buildRunner wires research, storage, and notification into a pipeline
// runner. Notification is enabled only when a Telegram token is configured.
func buildRunner(cfg config.Config, store *storage.Store) (*pipeline.Runner, error) {
	var notifier pipeline.Notifier
	if cfg.TelegramToken != "" {
		n, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID, cfg.NotifyTop)
		if err != nil {
			return nil, err
		}
		notifier = &notifierAdapter{notifier: n}
		slog.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	}

	return pipeline.NewRunner(
		newEnricher(cfg),
		&pipelineStoreAdapter{store: store},
		notifier,
		pipeline.Config{
			DataDir:      cfg.DataDir,
			SkipSeenDays: cfg.SkipSeenDays,
			MaxTools:     cfg.MaxTools,
			Scoring:      cfg.Scoring,
		},
	), nil
}

// artifactDir is where the per-stage commands exchange JSON files. With no
// --dir override it is the same directory a full run would write to today,
// so extract/research/score/report chain naturally.
func artifactDir(cfg config.Config, dir string) string {
	if dir != "" {
		return dir
	}
	return pipeline.RunDir(cfg.DataDir, time.Now())
}

func extractCmd() *cobra.Command {
	var url, dir string

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract tools and news from a digest into tools.json and news.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			text, source, err := readDigest(cmd.Context(), cfg, args, url)
			if err != nil {
				return err
			}

			result := extract.Extract(text)
			outDir := artifactDir(cfg, dir)
			if err := pipeline.WriteJSON(filepath.Join(outDir, pipeline.ToolsFile), result.Tools); err != nil {
				return err
			}
			if err := pipeline.WriteJSON(filepath.Join(outDir, pipeline.NewsFile), result.News); err != nil {
				return err
			}

			fmt.Printf("Extracted %d tools and %d news items from %s\n", len(result.Tools), len(result.News), source)
			fmt.Printf("Artifacts written to %s\n", outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Capture the digest from a URL instead of a file")
	cmd.Flags().StringVar(&dir, "dir", "", "Artifact directory (default: <data_dir>/<today>)")
	return cmd
}

func researchCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "research",
		Short: "Enrich extracted tools with GitHub and npm metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			outDir := artifactDir(cfg, dir)

			var tools []model.Tool
			if err := pipeline.ReadJSON(filepath.Join(outDir, pipeline.ToolsFile), &tools); err != nil {
				return err
			}

			researched := newEnricher(cfg).Enrich(cmd.Context(), tools)
			if err := pipeline.WriteJSON(filepath.Join(outDir, pipeline.ResearchFile), researched); err != nil {
				return err
			}

			withGitHub, withNpm := 0, 0
			for _, r := range researched {
				if r.GitHub != nil {
					withGitHub++
				}
				if r.Npm != nil {
					withNpm++
				}
			}
			fmt.Printf("Researched %d tools: %d with GitHub data, %d with npm data\n", len(researched), withGitHub, withNpm)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Artifact directory (default: <data_dir>/<today>)")
	return cmd
}

func scoreCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score researched tools and rank them by recommendation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			outDir := artifactDir(cfg, dir)

			var researched []model.ToolResearch
			if err := pipeline.ReadJSON(filepath.Join(outDir, pipeline.ResearchFile), &researched); err != nil {
				return err
			}

			now := time.Now()
			scored := make([]model.ScoredTool, 0, len(researched))
			for _, r := range researched {
				scored = append(scored, model.ScoredTool{
					Research: r,
					Score:    score.ScoreAt(r, cfg.Scoring, now),
				})
			}
			scored = score.Rank(scored)

			if err := pipeline.WriteJSON(filepath.Join(outDir, pipeline.ScoresFile), scored); err != nil {
				return err
			}

			for i, st := range scored {
				fmt.Printf("%2d. %-30s %3d/100  %s\n", i+1, st.Research.Tool.Name, st.Score.TotalScore, st.Score.Recommendation)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Artifact directory (default: <data_dir>/<today>)")
	return cmd
}

func reportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render report.md from scored tools and news",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			outDir := artifactDir(cfg, dir)

			var scored []model.ScoredTool
			if err := pipeline.ReadJSON(filepath.Join(outDir, pipeline.ScoresFile), &scored); err != nil {
				return err
			}
			// News is optional: a scores-only directory still gets a report.
			var news []model.NewsItem
			if err := pipeline.ReadJSON(filepath.Join(outDir, pipeline.NewsFile), &news); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			// Run directories are named by date; fall back to today when the
			// directory was overridden to something else.
			date := time.Now()
			if d, err := time.Parse("2006-01-02", filepath.Base(outDir)); err == nil {
				date = d
			}

			md := report.Render(report.Data{Date: date, Scored: scored, News: news})
			path := filepath.Join(outDir, pipeline.ReportFile)
			if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			fmt.Printf("Report written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Artifact directory (default: <data_dir>/<today>)")
	return cmd
}

func runCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run the full pipeline on a digest: extract, research, score, report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			text, source, err := readDigest(cmd.Context(), cfg, args, url)
			if err != nil {
				return err
			}

			runner, err := buildRunner(cfg, store)
			if err != nil {
				return err
			}

			outcome, err := runner.Run(cmd.Context(), text, source)
			if err != nil {
				return err
			}

			fmt.Printf("Run %s complete: %d tools extracted, %d scored, %d news items\n",
				outcome.RunID, outcome.Extracted, len(outcome.Scored), len(outcome.News))
			if outcome.ReportPath != "" {
				fmt.Printf("Report: %s\n", outcome.ReportPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Capture the digest from a URL instead of a file")
	return cmd
}

func watchCmd() *cobra.Command {
	var url, file string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline every day at the configured digest time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if url == "" && file == "" {
				return errors.New("watch needs --url or --file for the daily digest source")
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runner, err := buildRunner(cfg, store)
			if err != nil {
				return err
			}

			sched, err := scheduler.New(cfg.Timezone)
			if err != nil {
				return err
			}

			// The source is re-read on every trigger so each day picks up
			// that day's digest.
			job := func() {
				ctx := context.Background()
				var (
					text   string
					source string
					err    error
				)
				if url != "" {
					c := capture.NewCapturer(time.Duration(cfg.FetchTimeoutSecs) * time.Second)
					text, err = c.FromURL(ctx, url)
					source = url
				} else {
					text, err = capture.FromFile(file)
					source = file
				}
				if err != nil {
					slog.Error("digest capture failed", "source", source, "error", err)
					return
				}
				if _, err := runner.Run(ctx, text, source); err != nil {
					slog.Error("scheduled run failed", "error", err)
				}
			}

			if err := sched.ScheduleDaily(cfg.DigestTime, job); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if next, ok := sched.Next(); ok {
				slog.Info("watching for daily digests", "digest_time", cfg.DigestTime, "timezone", cfg.Timezone, "next_run", next)
			}

			// Graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			slog.Info("received signal, shutting down", "signal", sig)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "URL to capture each day's digest from")
	cmd.Flags().StringVar(&file, "file", "", "File to read each day's digest from")
	return cmd
}

func statsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show run counts, verdict and category breakdowns, and recent scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RunCount()
			if err != nil {
				return err
			}
			fmt.Printf("Runs: %d\n", runs)

			recs, err := store.RecommendationCounts()
			if err != nil {
				return err
			}
			fmt.Printf("Scores: %d build, %d watch, %d skip\n",
				recs[string(model.RecommendBuild)],
				recs[string(model.RecommendWatch)],
				recs[string(model.RecommendSkip)])

			cats, err := store.CategoryCounts()
			if err != nil {
				return err
			}
			if len(cats) > 0 {
				names := make([]string, 0, len(cats))
				for name := range cats {
					names = append(names, name)
				}
				sort.Slice(names, func(i, j int) bool {
					if cats[names[i]] != cats[names[j]] {
						return cats[names[i]] > cats[names[j]]
					}
					return names[i] < names[j]
				})
				fmt.Println("\nCategory breakdown:")
				for _, name := range names {
					fmt.Printf("  %-15s %d\n", name, cats[name])
				}
			}

			latest, err := store.LatestScores(limit)
			if err != nil {
				return err
			}
			if len(latest) > 0 {
				fmt.Println("\nLatest scores:")
				for _, sc := range latest {
					fmt.Printf("  %-30s %3d/100  %s\n", sc.Name, sc.Total, sc.Recommendation)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent scores to show")
	return cmd
}

func tryCmd() *cobra.Command {
	var dir string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "try <slug>",
		Short: "Run a recorded tool's install command in a scratch directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			tool, err := store.GetTool(args[0])
			if err != nil {
				return err
			}
			if tool == nil {
				return fmt.Errorf("no tool recorded with slug %q; extract a digest first", args[0])
			}

			result, err := sandbox.NewRunner(dir, timeout).Try(cmd.Context(), *tool)
			if err != nil {
				return err
			}

			fmt.Printf("$ %s\n", result.Command)
			if result.Output != "" {
				fmt.Println(result.Output)
			}
			if result.OK {
				fmt.Printf("Install succeeded in %s (scratch dir: %s)\n", result.Duration.Round(time.Millisecond), result.Dir)
			} else {
				fmt.Printf("Install failed with exit code %d after %s (scratch dir: %s)\n",
					result.ExitCode, result.Duration.Round(time.Millisecond), result.Dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Base directory for scratch dirs (default: system temp)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Timeout for the install command")
	return cmd
}

// --- Adapters to bridge package types ---

// pipelineStoreAdapter bridges storage.Store to pipeline.Store
type pipelineStoreAdapter struct {
	store *storage.Store
}

func (a *pipelineStoreAdapter) RecordSighting(tool model.Tool) error {
	return a.store.RecordSighting(tool)
}

func (a *pipelineStoreAdapter) RecentSlugs(days int) ([]string, error) {
	return a.store.RecentSlugs(days)
}

func (a *pipelineStoreAdapter) SaveScore(runID string, sc model.ToolScore) error {
	return a.store.SaveScore(runID, sc)
}

func (a *pipelineStoreAdapter) SaveRun(rec pipeline.RunRecord) error {
	return a.store.SaveRun(&storage.Run{
		ID:         rec.ID,
		DigestDate: rec.DigestDate,
		Source:     rec.Source,
		ToolCount:  rec.ToolCount,
		NewsCount:  rec.NewsCount,
	})
}

// notifierAdapter bridges notify.Notifier to pipeline.Notifier
type notifierAdapter struct {
	notifier *notify.Notifier
}

func (a *notifierAdapter) Send(date string, scored []model.ScoredTool, newsCount int) error {
	return a.notifier.Send(notify.Summary{
		Date:      date,
		Scored:    scored,
		NewsCount: newsCount,
	})
}
