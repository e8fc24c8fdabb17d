// Package model holds the data contracts shared across pipeline stages.
// Field names in JSON are camelCase because the artifacts written between
// stages (tools.json, research.json, scores.json) double as the report
// renderer's input format.
package model

import "time"

// Category classifies a tool by the kind of artifact it is.
type Category string

const (
	CategoryClaudePlugin Category = "claude-plugin"
	CategoryClaudeSkill  Category = "claude-skill"
	CategoryNpmPackage   Category = "npm-package"
	CategoryCLITool      Category = "cli-tool"
	CategoryLibrary      Category = "library"
	CategoryFramework    Category = "framework"
	CategoryOther        Category = "other"
)

// Recommendation is the final verdict derived from a tool's total score.
type Recommendation string

const (
	RecommendBuild Recommendation = "BUILD"
	RecommendWatch Recommendation = "WATCH"
	RecommendSkip  Recommendation = "SKIP"
)

// Tool is one entry detected in a daily digest. It is created once by the
// extractor and never mutated; enrichment wraps it in a ToolResearch instead
// of editing it in place.
type Tool struct {
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	InstallCommand string    `json:"installCommand,omitempty"`
	GithubURL      string    `json:"githubUrl,omitempty"`
	Source         string    `json:"source,omitempty"`
	Category       Category  `json:"category"`
	ExtractedAt    time.Time `json:"extractedAt"`
}

// NewsItem is a headline pulled from the digest's key-news section.
// News items are reported but never scored.
type NewsItem struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary,omitempty"`
}

// GitHubData is repository metadata fetched during enrichment.
type GitHubData struct {
	Stars          int       `json:"stars"`
	Forks          int       `json:"forks"`
	OpenIssues     int       `json:"openIssues"`
	LastCommitDate time.Time `json:"lastCommitDate"`
	CreatedAt      time.Time `json:"createdAt"`
	Language       string    `json:"language,omitempty"`
	License        string    `json:"license,omitempty"`
	HasTests       bool      `json:"hasTests"`
	HasCI          bool      `json:"hasCI"`
}

// NpmData is registry metadata fetched during enrichment.
type NpmData struct {
	PackageName     string            `json:"packageName"`
	WeeklyDownloads int               `json:"weeklyDownloads"`
	Version         string            `json:"version,omitempty"`
	LastPublished   time.Time         `json:"lastPublished"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

// WebSource is an external reference attached to a tool's research. The
// scorer treats it as opaque.
type WebSource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// ToolResearch is a Tool plus whatever enrichment could be fetched for it.
// Either side may be nil when the lookup failed or did not apply.
type ToolResearch struct {
	Tool       Tool        `json:"tool"`
	GitHub     *GitHubData `json:"github,omitempty"`
	Npm        *NpmData    `json:"npm,omitempty"`
	WebSources []WebSource `json:"webSources,omitempty"`
}

// ToolScore is the scorer's output for one tool. Notes is an ordered audit
// trail of which rule contributed which point delta; it explains the score
// but never feeds back into it.
type ToolScore struct {
	Slug            string         `json:"slug"`
	UsefulnessScore int            `json:"usefulnessScore"`
	QualityScore    int            `json:"qualityScore"`
	InnovationScore int            `json:"innovationScore"`
	MomentumScore   int            `json:"momentumScore"`
	TotalScore      int            `json:"totalScore"`
	Recommendation  Recommendation `json:"recommendation"`
	Notes           []string       `json:"notes"`
}

// ScoredTool pairs a research record with its score for the report and
// storage layers.
type ScoredTool struct {
	Research ToolResearch `json:"research"`
	Score    ToolScore    `json:"score"`
}
