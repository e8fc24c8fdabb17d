// Package report renders a ranked run into the daily markdown report.
package report

import (
	"fmt"
	"strings"
	"time"

	"toolscout/model"
)

// Data is everything one report needs. Scored must already be ranked;
// rendering preserves its order within each recommendation group.
type Data struct {
	Date   time.Time
	Scored []model.ScoredTool
	News   []model.NewsItem
}

// Render produces the full markdown report.
func Render(d Data) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Tool Report - %s\n\n", d.Date.Format("2006-01-02"))

	if len(d.Scored) == 0 {
		b.WriteString("No tools were extracted from this digest.\n")
		renderNews(&b, d.News)
		return b.String()
	}

	build := filterByRecommendation(d.Scored, model.RecommendBuild)
	watch := filterByRecommendation(d.Scored, model.RecommendWatch)
	skip := filterByRecommendation(d.Scored, model.RecommendSkip)

	fmt.Fprintf(&b, "%d tools extracted: %d build, %d watch, %d skip.\n",
		len(d.Scored), len(build), len(watch), len(skip))

	if len(build) > 0 {
		fmt.Fprintf(&b, "\n## Build (%d)\n", len(build))
		for i, st := range build {
			renderCard(&b, i+1, st)
		}
	}
	if len(watch) > 0 {
		fmt.Fprintf(&b, "\n## Watch (%d)\n", len(watch))
		for i, st := range watch {
			renderCard(&b, i+1, st)
		}
	}
	if len(skip) > 0 {
		fmt.Fprintf(&b, "\n## Skip (%d)\n\n", len(skip))
		for _, st := range skip {
			renderSkipLine(&b, st)
		}
	}

	renderNews(&b, d.News)
	return b.String()
}

func filterByRecommendation(scored []model.ScoredTool, rec model.Recommendation) []model.ScoredTool {
	var out []model.ScoredTool
	for _, st := range scored {
		if st.Score.Recommendation == rec {
			out = append(out, st)
		}
	}
	return out
}

// renderCard writes the full entry used for build and watch tools.
func renderCard(b *strings.Builder, pos int, st model.ScoredTool) {
	tool := st.Research.Tool
	s := st.Score

	fmt.Fprintf(b, "\n### %d. %s [%d/100]\n\n", pos, tool.Name, s.TotalScore)
	if tool.Description != "" {
		fmt.Fprintf(b, "%s\n\n", tool.Description)
	}

	fmt.Fprintf(b, "- Category: %s\n", tool.Category)
	fmt.Fprintf(b, "- Dimensions: usefulness %d, quality %d, innovation %d, momentum %d\n",
		s.UsefulnessScore, s.QualityScore, s.InnovationScore, s.MomentumScore)
	if tool.InstallCommand != "" {
		fmt.Fprintf(b, "- Install: `%s`\n", tool.InstallCommand)
	}
	if gh := st.Research.GitHub; gh != nil && tool.GithubURL != "" {
		fmt.Fprintf(b, "- GitHub: %s (%d stars, %d open issues)\n", tool.GithubURL, gh.Stars, gh.OpenIssues)
	} else if tool.GithubURL != "" {
		fmt.Fprintf(b, "- GitHub: %s\n", tool.GithubURL)
	}
	if npm := st.Research.Npm; npm != nil {
		fmt.Fprintf(b, "- npm: %s (%d weekly downloads)\n", npm.PackageName, npm.WeeklyDownloads)
	}
	if tool.Source != "" {
		fmt.Fprintf(b, "- Source: %s\n", tool.Source)
	}
	if len(s.Notes) > 0 {
		fmt.Fprintf(b, "- Signals: %s\n", strings.Join(s.Notes, "; "))
	}
}

// renderSkipLine writes the compact one-liner used for skipped tools.
func renderSkipLine(b *strings.Builder, st model.ScoredTool) {
	tool := st.Research.Tool
	line := fmt.Sprintf("- %s [%d/100]", tool.Name, st.Score.TotalScore)
	if tool.Description != "" {
		line += ": " + firstSentence(tool.Description)
	}
	b.WriteString(line + "\n")
}

func renderNews(b *strings.Builder, news []model.NewsItem) {
	if len(news) == 0 {
		return
	}
	b.WriteString("\n## Key News\n\n")
	for _, item := range news {
		if item.Summary != "" {
			fmt.Fprintf(b, "- **%s**: %s\n", item.Headline, item.Summary)
		} else {
			fmt.Fprintf(b, "- %s\n", item.Headline)
		}
	}
}

// firstSentence keeps skip lines short without cutting words mid-way.
func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	const max = 120
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
