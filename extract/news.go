package extract

import (
	"regexp"
	"strings"

	"toolscout/model"
)

var (
	bulletTextRe   = regexp.MustCompile(`^[-*+•]\s+(.*)$`)
	numberedHeadRe = regexp.MustCompile(`^\d+[.)]\s`)
)

const minNewsBulletLen = 20

// extractNews scans for a "Key News" section independently of the tool
// scanner. Bullets shorter than 20 characters are treated as noise. A
// leading "Headline: summary" colon splits the bullet in two.
func extractNews(text string) []model.NewsItem {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if bulletTextRe.MatchString(trimmed) {
			continue
		}
		if strings.Contains(strings.ToLower(trimmed), "key news") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var items []model.NewsItem
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if sectionEnds(trimmed) {
			break
		}
		m := bulletTextRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		body := m[1]
		if len(body) < minNewsBulletLen {
			continue
		}
		body = strings.ReplaceAll(body, "**", "")

		item := model.NewsItem{Headline: strings.TrimSpace(body)}
		if idx := strings.Index(body, ":"); idx >= 0 {
			item.Headline = strings.TrimSpace(body[:idx])
			item.Summary = strings.TrimSpace(body[idx+1:])
		}
		items = append(items, item)
	}
	return items
}

// sectionEnds reports whether a trimmed line opens the next digest section:
// any heading, or a bare numbered section like "3. Tools".
func sectionEnds(trimmed string) bool {
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	return numberedHeadRe.MatchString(trimmed)
}
