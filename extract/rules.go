package extract

import (
	"regexp"
	"strings"

	"toolscout/model"
)

var (
	headingRe        = regexp.MustCompile(`^###\s+(.+?)\s*$`)
	subtitleRe       = regexp.MustCompile(`^(.+?)\s+[-–—]\s+(.+)$`)
	bulletBoundaryRe = regexp.MustCompile(`^\s*[-*+•]\s+\*\*(.+?)\*\*\s*(.*)$`)
	inlineCodeRe     = regexp.MustCompile("`([^`]+)`")
	githubURLRe      = regexp.MustCompile(`https?://github\.com/[^\s)\]>"'*` + "`" + `]+`)
	handleRe         = regexp.MustCompile(`@[\w.-]+`)
)

// Metadata field labels recognized inside a tool block. The same set doubles
// as the reserved list that keeps `- **Installation:** ...` bullets from
// starting a new tool.
const (
	fieldInstallation = "installation"
	fieldGitHub       = "github"
	fieldApplication  = "application"
	fieldSource       = "source"
)

var reservedFields = map[string]bool{
	fieldInstallation: true,
	fieldGitHub:       true,
	fieldApplication:  true,
	fieldSource:       true,
	"npm":             true,
	"usage":           true,
	"docs":            true,
	"license":         true,
}

func isReservedField(name string) bool {
	return reservedFields[strings.ToLower(name)]
}

// metaRes matches lines like `**Installation:** value`, `Installation: value`
// and `- **Installation**: value`, capturing the value.
var metaRes = map[string]*regexp.Regexp{
	fieldInstallation: metaLineRe(fieldInstallation),
	fieldGitHub:       metaLineRe(fieldGitHub),
	fieldApplication:  metaLineRe(fieldApplication),
	fieldSource:       metaLineRe(fieldSource),
}

func metaLineRe(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^\s*(?:[-*+•]\s+)?\*{0,2}` + label + `(?::\*{0,2}|\*{0,2}:)\s*(.+?)\s*$`)
}

// metaValue returns the first value for label anywhere in the raw block, or
// "" when the label is absent.
func metaValue(raw, label string) string {
	m := metaRes[label].FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractCommand prefers the inline-code span of an installation value and
// falls back to the plain text.
func extractCommand(v string) string {
	if m := inlineCodeRe.FindStringSubmatch(v); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.Trim(v, "`* ")
}

// extractGithubURL pulls the first github.com URL out of a value, tolerating
// markdown link syntax.
func extractGithubURL(v string) string {
	u := githubURLRe.FindString(v)
	return strings.TrimRight(u, ".,;")
}

// extractHandle pulls the first @handle token out of a value.
func extractHandle(v string) string {
	return handleRe.FindString(v)
}

// categoryRules map keywords to categories, checked in order against the
// lowercased name and description. The first match wins, so "Claude Code
// plugin skill" classifies as claude-plugin, never claude-skill.
var categoryRules = []struct {
	keywords []string
	category model.Category
}{
	{[]string{"plugin", "claude code"}, model.CategoryClaudePlugin},
	{[]string{"skill"}, model.CategoryClaudeSkill},
	{[]string{"cli", "command"}, model.CategoryCLITool},
	{[]string{"framework"}, model.CategoryFramework},
	{[]string{"npm", "package"}, model.CategoryNpmPackage},
}

// detectCategory classifies a tool from its name and description. Keyword
// matching is substring-based, matching how digests phrase things ("a CLI
// for...", "packaged as...").
func detectCategory(name, description string) model.Category {
	text := strings.ToLower(name + " " + description)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryOther
}
