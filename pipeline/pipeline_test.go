package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"toolscout/model"
	"toolscout/score"
)

const sampleDigest = `# Daily Digest - 2026-01-15

## Key News

- Anthropic ships faster batch processing for the Claude API.
- Two major agent frameworks announce an interoperability spec.

## New Tools

### Claude Helper - a Claude Code plugin for reviewing diffs

- **Installation**: ` + "`npm install -g claude-helper`" + `
- **GitHub**: https://github.com/acme/claude-helper

### Fast Grep - a CLI for searching monorepos

- **Installation**: ` + "`cargo install fast-grep`" + `
- **GitHub**: https://github.com/acme/fast-grep

### Prompt Skill - a reusable skill for prompt templates

- **GitHub**: https://github.com/acme/prompt-skill
`

// --- Mock implementations ---

type mockEnricher struct {
	seen   [][]model.Tool
	github map[string]*model.GitHubData
}

func (m *mockEnricher) Enrich(ctx context.Context, tools []model.Tool) []model.ToolResearch {
	m.seen = append(m.seen, tools)
	out := make([]model.ToolResearch, len(tools))
	for i, tool := range tools {
		out[i] = model.ToolResearch{Tool: tool}
		if gh, ok := m.github[tool.Slug]; ok {
			out[i].GitHub = gh
		}
	}
	return out
}

type mockStore struct {
	sightings []model.Tool
	recent    []string
	recentErr error
	scores    map[string][]model.ToolScore
	scoreErr  error
	runs      []RunRecord
	runErr    error
}

func newMockStore() *mockStore {
	return &mockStore{scores: make(map[string][]model.ToolScore)}
}

func (m *mockStore) RecordSighting(tool model.Tool) error {
	m.sightings = append(m.sightings, tool)
	return nil
}

func (m *mockStore) RecentSlugs(days int) ([]string, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	return m.recent, nil
}

func (m *mockStore) SaveScore(runID string, sc model.ToolScore) error {
	if m.scoreErr != nil {
		return m.scoreErr
	}
	m.scores[runID] = append(m.scores[runID], sc)
	return nil
}

func (m *mockStore) SaveRun(rec RunRecord) error {
	if m.runErr != nil {
		return m.runErr
	}
	m.runs = append(m.runs, rec)
	return nil
}

type notifyCall struct {
	date      string
	scored    []model.ScoredTool
	newsCount int
}

type mockNotifier struct {
	calls []notifyCall
	err   error
}

func (m *mockNotifier) Send(date string, scored []model.ScoredTool, newsCount int) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, notifyCall{date: date, scored: scored, newsCount: newsCount})
	return nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DataDir:      t.TempDir(),
		SkipSeenDays: 7,
		MaxTools:     10,
		Scoring:      score.DefaultConfig(),
	}
}

// --- Tests ---

func TestRun_FullPipeline(t *testing.T) {
	enricher := &mockEnricher{github: map[string]*model.GitHubData{
		"claude-helper": {
			Stars:          5000,
			License:        "MIT",
			HasTests:       true,
			HasCI:          true,
			LastCommitDate: time.Now().AddDate(0, 0, -2),
		},
	}}
	store := newMockStore()
	notifier := &mockNotifier{}
	runner := NewRunner(enricher, store, notifier, testConfig(t))

	out, err := runner.Run(context.Background(), sampleDigest, "digest.md")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Extracted != 3 {
		t.Errorf("Extracted = %d, want 3", out.Extracted)
	}
	if len(out.Scored) != 3 {
		t.Errorf("got %d scored tools, want 3", len(out.Scored))
	}
	if len(out.News) != 2 {
		t.Errorf("got %d news items, want 2", len(out.News))
	}
	if len(store.sightings) != 3 {
		t.Errorf("recorded %d sightings, want 3", len(store.sightings))
	}

	if len(store.runs) != 1 {
		t.Fatalf("saved %d runs, want 1", len(store.runs))
	}
	run := store.runs[0]
	if run.ID != out.RunID {
		t.Errorf("run ID %q != outcome run ID %q", run.ID, out.RunID)
	}
	if run.ID == "" {
		t.Error("run ID is empty")
	}
	if run.ToolCount != 3 || run.NewsCount != 2 {
		t.Errorf("run counts = %d tools, %d news; want 3, 2", run.ToolCount, run.NewsCount)
	}
	if run.Source != "digest.md" {
		t.Errorf("run source = %q, want %q", run.Source, "digest.md")
	}

	if got := len(store.scores[out.RunID]); got != 3 {
		t.Errorf("saved %d scores under run %s, want 3", got, out.RunID)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.calls))
	}
	if notifier.calls[0].newsCount != 2 {
		t.Errorf("notified news count = %d, want 2", notifier.calls[0].newsCount)
	}

	// Ranked output is descending by total, with the enriched plugin on top.
	for i := 1; i < len(out.Scored); i++ {
		if out.Scored[i-1].Score.TotalScore < out.Scored[i].Score.TotalScore {
			t.Errorf("scored[%d] total %d < scored[%d] total %d, want descending",
				i-1, out.Scored[i-1].Score.TotalScore, i, out.Scored[i].Score.TotalScore)
		}
	}
	if top := out.Scored[0].Research.Tool.Slug; top != "claude-helper" {
		t.Errorf("top ranked tool = %q, want claude-helper", top)
	}
}

func TestRun_WritesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(&mockEnricher{}, newMockStore(), nil, cfg)

	out, err := runner.Run(context.Background(), sampleDigest, "digest.md")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{ToolsFile, NewsFile, ResearchFile, ScoresFile, ReportFile} {
		if _, err := os.Stat(filepath.Join(out.Dir, name)); err != nil {
			t.Errorf("artifact %s missing: %v", name, err)
		}
	}

	var tools []model.Tool
	if err := ReadJSON(filepath.Join(out.Dir, ToolsFile), &tools); err != nil {
		t.Fatalf("ReadJSON(tools): %v", err)
	}
	if len(tools) != 3 {
		t.Errorf("tools.json has %d tools, want 3", len(tools))
	}

	var scored []model.ScoredTool
	if err := ReadJSON(filepath.Join(out.Dir, ScoresFile), &scored); err != nil {
		t.Fatalf("ReadJSON(scores): %v", err)
	}
	if len(scored) != 3 {
		t.Errorf("scores.json has %d entries, want 3", len(scored))
	}

	md, err := os.ReadFile(out.ReportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(md), "# Daily Tool Report") {
		t.Errorf("report missing title:\n%s", md)
	}
	if !strings.Contains(string(md), "Claude Helper") {
		t.Errorf("report missing tool entry:\n%s", md)
	}
}

func TestRun_FilterRecentlySeen(t *testing.T) {
	enricher := &mockEnricher{}
	store := newMockStore()
	store.recent = []string{"claude-helper"}
	runner := NewRunner(enricher, store, nil, testConfig(t))

	out, err := runner.Run(context.Background(), sampleDigest, "digest.md")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(enricher.seen) != 1 {
		t.Fatalf("enricher called %d times, want 1", len(enricher.seen))
	}
	if got := len(enricher.seen[0]); got != 2 {
		t.Errorf("enriched %d tools, want 2 (one filtered)", got)
	}
	for _, tool := range enricher.seen[0] {
		if tool.Slug == "claude-helper" {
			t.Error("recently scored tool was not filtered")
		}
	}

	// Sightings are recorded before filtering.
	if len(store.sightings) != 3 {
		t.Errorf("recorded %d sightings, want 3", len(store.sightings))
	}
	if len(out.Scored) != 2 {
		t.Errorf("got %d scored tools, want 2", len(out.Scored))
	}
}

func TestRun_CapsAtMaxTools(t *testing.T) {
	enricher := &mockEnricher{}
	cfg := testConfig(t)
	cfg.MaxTools = 1
	runner := NewRunner(enricher, newMockStore(), nil, cfg)

	if _, err := runner.Run(context.Background(), sampleDigest, "digest.md"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(enricher.seen[0]); got != 1 {
		t.Errorf("enriched %d tools, want 1 (capped)", got)
	}
}

func TestRun_EmptyDigest(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	runner := NewRunner(&mockEnricher{}, store, notifier, testConfig(t))

	out, err := runner.Run(context.Background(), "nothing interesting today", "stdin")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Extracted != 0 {
		t.Errorf("Extracted = %d, want 0", out.Extracted)
	}
	// The run is still recorded and announced.
	if len(store.runs) != 1 {
		t.Fatalf("saved %d runs, want 1", len(store.runs))
	}
	if store.runs[0].ToolCount != 0 {
		t.Errorf("run tool count = %d, want 0", store.runs[0].ToolCount)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifier called %d times, want 1", len(notifier.calls))
	}

	md, err := os.ReadFile(out.ReportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(md), "No tools were extracted") {
		t.Errorf("empty-run report missing placeholder:\n%s", md)
	}
}

func TestRun_RecentSlugsFailureLeavesUnfiltered(t *testing.T) {
	enricher := &mockEnricher{}
	store := newMockStore()
	store.recentErr = fmt.Errorf("db locked")
	runner := NewRunner(enricher, store, nil, testConfig(t))

	if _, err := runner.Run(context.Background(), sampleDigest, "digest.md"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(enricher.seen[0]); got != 3 {
		t.Errorf("enriched %d tools, want 3 (window unavailable)", got)
	}
}

func TestRun_SaveScoreFailureContinues(t *testing.T) {
	store := newMockStore()
	store.scoreErr = fmt.Errorf("disk full")
	notifier := &mockNotifier{}
	runner := NewRunner(&mockEnricher{}, store, notifier, testConfig(t))

	if _, err := runner.Run(context.Background(), sampleDigest, "digest.md"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.runs) != 1 {
		t.Errorf("saved %d runs, want 1 despite score failures", len(store.runs))
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifier called %d times, want 1 despite score failures", len(notifier.calls))
	}
}

func TestRun_SaveRunFailure(t *testing.T) {
	store := newMockStore()
	store.runErr = fmt.Errorf("db gone")
	notifier := &mockNotifier{}
	runner := NewRunner(&mockEnricher{}, store, notifier, testConfig(t))

	if _, err := runner.Run(context.Background(), sampleDigest, "digest.md"); err == nil {
		t.Fatal("expected error when the run row cannot be saved")
	}
	if len(notifier.calls) != 0 {
		t.Errorf("notifier called %d times, want 0 after save failure", len(notifier.calls))
	}
}

func TestRun_NotifierFailureNonFatal(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{err: fmt.Errorf("telegram down")}
	runner := NewRunner(&mockEnricher{}, store, notifier, testConfig(t))

	if _, err := runner.Run(context.Background(), sampleDigest, "digest.md"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.runs) != 1 {
		t.Errorf("saved %d runs, want 1", len(store.runs))
	}
}

func TestRun_NoNotifier(t *testing.T) {
	runner := NewRunner(&mockEnricher{}, newMockStore(), nil, testConfig(t))
	if _, err := runner.Run(context.Background(), sampleDigest, "digest.md"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	runner := NewRunner(&mockEnricher{}, newMockStore(), nil, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Run(ctx, sampleDigest, "digest.md"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestWriteReadJSON(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "tools.json")
		in := []model.Tool{{Name: "A", Slug: "a"}, {Name: "B", Slug: "b"}}
		if err := WriteJSON(path, in); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		var out []model.Tool
		if err := ReadJSON(path, &out); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if len(out) != 2 || out[0].Slug != "a" || out[1].Slug != "b" {
			t.Errorf("roundtrip mismatch: %+v", out)
		}
	})

	t.Run("read missing file", func(t *testing.T) {
		var out []model.Tool
		err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &out)
		if err == nil {
			t.Fatal("expected error for missing artifact")
		}
	})

	t.Run("indented output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		if err := WriteJSON(path, map[string]int{"a": 1}); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read artifact: %v", err)
		}
		if !strings.Contains(string(data), "\n  ") {
			t.Errorf("artifact not indented:\n%s", data)
		}
	})
}

func TestRunDir(t *testing.T) {
	date := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	got := RunDir("/data", date)
	if got != filepath.Join("/data", "2026-01-15") {
		t.Errorf("RunDir = %q, want %q", got, "/data/2026-01-15")
	}
}
