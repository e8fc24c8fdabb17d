// Package score turns enriched tool research into 0-100 dimension scores
// and a BUILD/WATCH/SKIP recommendation. Scoring is pure: the same research,
// config, and clock always produce the same ToolScore.
package score

import (
	"math"
	"strconv"
	"strings"
	"time"

	"toolscout/model"
)

const day = 24 * time.Hour

// noveltyTerms are checked in order; only the first match scores, so a
// description containing both "novel" and "unique" counts once.
var noveltyTerms = []string{"novel", "first", "unique", "new approach", "revolutionary", "breakthrough"}

// Score rates one research record against cfg using the current time for
// recency windows.
func Score(r model.ToolResearch, cfg Config) model.ToolScore {
	return ScoreAt(r, cfg, time.Now().UTC())
}

// ScoreAt is Score with an injectable clock. Recency windows (commit age,
// publish age) are measured against now.
func ScoreAt(r model.ToolResearch, cfg Config, now time.Time) model.ToolScore {
	s := model.ToolScore{Slug: r.Tool.Slug}

	var notes []string
	s.UsefulnessScore, notes = usefulness(r, notes)
	s.QualityScore, notes = quality(r, notes)
	s.InnovationScore, notes = innovation(r, notes)
	s.MomentumScore, notes = momentum(r, now, notes)
	s.Notes = notes

	w := cfg.Weights
	weighted := float64(s.UsefulnessScore)*w.Usefulness +
		float64(s.QualityScore)*w.Quality +
		float64(s.InnovationScore)*w.Innovation +
		float64(s.MomentumScore)*w.Momentum
	s.TotalScore = clamp(int(math.Round(weighted)), 0, 100)

	switch {
	case s.TotalScore >= cfg.Thresholds.Build:
		s.Recommendation = model.RecommendBuild
	case s.TotalScore >= cfg.Thresholds.Watch:
		s.Recommendation = model.RecommendWatch
	default:
		s.Recommendation = model.RecommendSkip
	}
	return s
}

// usefulness starts at 50 and rewards Claude-ecosystem relevance. The
// keyword check runs over name, description, and category, so a claude-plugin
// mentions "claude" by construction. The category bonuses are exclusive: a
// claude-plugin never also collects the cli-tool bonus.
func usefulness(r model.ToolResearch, notes []string) (int, []string) {
	score := 50
	text := strings.ToLower(r.Tool.Name + " " + r.Tool.Description + " " + string(r.Tool.Category))

	if strings.Contains(text, "claude") || strings.Contains(text, "anthropic") {
		score += 20
		notes = append(notes, "usefulness +20: mentions claude or anthropic")
	}
	switch r.Tool.Category {
	case model.CategoryClaudePlugin, model.CategoryClaudeSkill:
		score += 15
		notes = append(notes, "usefulness +15: claude-native category")
	case model.CategoryCLITool:
		score += 10
		notes = append(notes, "usefulness +10: cli tool")
	}
	if r.Tool.InstallCommand != "" {
		score += 5
		notes = append(notes, "usefulness +5: install command present")
	}
	return clamp(score, 0, 100), notes
}

// quality starts at 30 and rewards repository and registry health signals.
// Star and download tiers award the highest matching tier only.
func quality(r model.ToolResearch, notes []string) (int, []string) {
	score := 30

	if gh := r.GitHub; gh != nil {
		switch {
		case gh.Stars > 1000:
			score += 25
			notes = append(notes, "quality +25: over 1000 stars")
		case gh.Stars > 100:
			score += 15
			notes = append(notes, "quality +15: over 100 stars")
		case gh.Stars > 10:
			score += 5
			notes = append(notes, "quality +5: over 10 stars")
		}
		if gh.HasTests {
			score += 10
			notes = append(notes, "quality +10: has tests")
		}
		if gh.HasCI {
			score += 5
			notes = append(notes, "quality +5: has ci")
		}
		if gh.License != "" {
			score += 5
			notes = append(notes, "quality +5: licensed")
		}
	}
	if npm := r.Npm; npm != nil {
		switch {
		case npm.WeeklyDownloads > 10000:
			score += 15
			notes = append(notes, "quality +15: over 10k weekly downloads")
		case npm.WeeklyDownloads > 1000:
			score += 10
			notes = append(notes, "quality +10: over 1k weekly downloads")
		}
	}
	return clamp(score, 0, 100), notes
}

// innovation starts at 50 and rewards novelty language. Keyword matching is
// substring-based against the lowercased name and description.
func innovation(r model.ToolResearch, notes []string) (int, []string) {
	score := 50
	text := strings.ToLower(r.Tool.Name + " " + r.Tool.Description)

	for _, term := range noveltyTerms {
		if strings.Contains(text, term) {
			score += 15
			notes = append(notes, "innovation +15: novelty term "+strconv.Quote(term))
			break
		}
	}
	if strings.Contains(text, "ai") || strings.Contains(text, "llm") || strings.Contains(text, "agent") {
		score += 10
		notes = append(notes, "innovation +10: ai/llm/agent domain")
	}
	return clamp(score, 0, 100), notes
}

// momentum starts at 40 and rewards recent activity. Commit recency awards
// the tightest matching window only; a missing repo contributes nothing.
func momentum(r model.ToolResearch, now time.Time, notes []string) (int, []string) {
	score := 40

	if gh := r.GitHub; gh != nil && !gh.LastCommitDate.IsZero() {
		switch age := now.Sub(gh.LastCommitDate); {
		case age < 7*day:
			score += 30
			notes = append(notes, "momentum +30: commit within 7 days")
		case age < 30*day:
			score += 20
			notes = append(notes, "momentum +20: commit within 30 days")
		case age < 90*day:
			score += 10
			notes = append(notes, "momentum +10: commit within 90 days")
		}
	}
	if npm := r.Npm; npm != nil && !npm.LastPublished.IsZero() {
		if now.Sub(npm.LastPublished) < 30*day {
			score += 15
			notes = append(notes, "momentum +15: npm publish within 30 days")
		}
	}
	return clamp(score, 0, 100), notes
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
