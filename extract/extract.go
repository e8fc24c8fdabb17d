// Package extract turns raw digest markdown into structured tool and news
// records. It is a pure line scanner: no I/O, no network, and malformed
// input degrades to empty results rather than errors.
package extract

import (
	"strings"
	"time"

	"toolscout/model"
)

// Result holds everything one extraction pass produced.
type Result struct {
	Tools []model.Tool     `json:"tools"`
	News  []model.NewsItem `json:"news"`
}

// scanState is the scanner's mode. The state is explicit so boundary
// priority and the finalize-on-EOF rule stay independently testable.
type scanState int

const (
	stateIdle scanState = iota
	stateTool
)

// toolBlock accumulates one tool between two boundaries.
type toolBlock struct {
	name     string
	desc     string
	rawLines []string
}

const maxDescriptionLen = 500

// Extract scans digest text for tool blocks and key-news bullets. All tools
// from one call share a single extraction timestamp.
func Extract(text string) Result {
	return extractAt(text, time.Now().UTC())
}

// extractAt is Extract with an injectable timestamp; given the same text and
// time it returns byte-identical results.
func extractAt(text string, now time.Time) Result {
	var (
		res   Result
		state scanState
		block toolBlock
	)

	finalize := func() {
		if state != stateTool {
			return
		}
		res.Tools = append(res.Tools, block.finalize(now))
		state = stateIdle
	}

	for _, line := range strings.Split(text, "\n") {
		if name, subtitle, ok := matchHeadingBoundary(line); ok {
			finalize()
			state = stateTool
			block = toolBlock{name: name, desc: subtitle, rawLines: []string{line}}
			continue
		}
		if name, inline, ok := matchBulletBoundary(line); ok {
			finalize()
			state = stateTool
			block = toolBlock{name: name, desc: inline, rawLines: []string{line}}
			continue
		}

		if state == stateTool {
			block.rawLines = append(block.rawLines, line)
			if block.desc == "" {
				if t := strings.TrimSpace(line); t != "" && !isMarkerLine(t) {
					block.desc = t
				}
			}
		}
	}
	finalize()

	res.News = extractNews(text)
	return res
}

// matchHeadingBoundary recognizes `### Name` headings, optionally with a
// dash-separated subtitle that seeds the description.
func matchHeadingBoundary(line string) (name, subtitle string, ok bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	name = m[1]
	if sm := subtitleRe.FindStringSubmatch(name); sm != nil {
		name, subtitle = sm[1], strings.TrimSpace(sm[2])
	}
	name = cleanName(name)
	if name == "" {
		return "", "", false
	}
	return name, subtitle, true
}

// matchBulletBoundary recognizes `- **Name**: description` bullets. The
// colon may sit inside or after the bold span. A bullet whose bold label is
// a reserved metadata field (Installation, GitHub, ...) is block content,
// not a new tool.
func matchBulletBoundary(line string) (name, desc string, ok bool) {
	m := bulletBoundaryRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	bold, rest := strings.TrimSpace(m[1]), m[2]
	if !strings.HasSuffix(bold, ":") && !strings.HasPrefix(rest, ":") {
		return "", "", false
	}
	name = cleanName(bold)
	if name == "" || isReservedField(name) {
		return "", "", false
	}
	desc = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	return name, desc, true
}

// finalize runs the metadata extractions against the untruncated raw block,
// then caps the description and assigns category and slug.
func (b toolBlock) finalize(now time.Time) model.Tool {
	raw := strings.Join(b.rawLines, "\n")

	tool := model.Tool{
		Name:        b.name,
		Description: b.desc,
		ExtractedAt: now,
	}

	if v := metaValue(raw, fieldInstallation); v != "" {
		tool.InstallCommand = extractCommand(v)
	}
	if v := metaValue(raw, fieldGitHub); v != "" {
		tool.GithubURL = extractGithubURL(v)
	}
	if tool.Description == "" {
		if v := metaValue(raw, fieldApplication); v != "" {
			tool.Description = v
		}
	}
	if v := metaValue(raw, fieldSource); v != "" {
		tool.Source = extractHandle(v)
	}

	tool.Description = truncate(tool.Description, maxDescriptionLen)
	tool.Category = detectCategory(tool.Name, tool.Description)
	tool.Slug = Slugify(tool.Name)
	return tool
}

// isMarkerLine reports whether a trimmed line opens with a heading or list
// marker and therefore cannot serve as a captured description.
func isMarkerLine(trimmed string) bool {
	switch trimmed[0] {
	case '#', '-', '*', '+', '>':
		return true
	}
	return strings.HasPrefix(trimmed, "•")
}

// cleanName strips bold markers, surrounding whitespace, and a trailing
// colon from a captured name.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, "*")
	name = strings.TrimSuffix(name, ":")
	return strings.TrimSpace(name)
}

// truncate caps s at n runes without splitting a rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
