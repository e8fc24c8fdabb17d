// Package research enriches extracted tools with GitHub and npm metadata.
// Lookups are best effort: a failed fetch leaves the research record
// partial and never fails the batch.
package research

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"toolscout/model"
)

// enrichConcurrency bounds parallel lookups so a large digest does not
// hammer the upstream APIs.
const enrichConcurrency = 4

// Enricher coordinates GitHub and npm lookups for a batch of tools.
type Enricher struct {
	github GitHubClient
	npm    NpmClient
}

// NewEnricher creates an enricher from the two lookup clients.
func NewEnricher(github GitHubClient, npm NpmClient) *Enricher {
	return &Enricher{github: github, npm: npm}
}

// Enrich looks up external metadata for each tool, at most
// enrichConcurrency lookups in flight. Output order matches input order.
func (e *Enricher) Enrich(ctx context.Context, tools []model.Tool) []model.ToolResearch {
	results := make([]model.ToolResearch, len(tools))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	for i, tool := range tools {
		results[i].Tool = tool
		g.Go(func() error {
			e.enrichOne(ctx, &results[i])
			return nil
		})
	}
	// Failures are logged per tool inside enrichOne; the batch never fails.
	_ = g.Wait()

	return results
}

func (e *Enricher) enrichOne(ctx context.Context, r *model.ToolResearch) {
	tool := r.Tool

	if owner, repo, ok := ParseRepoURL(tool.GithubURL); ok {
		gh, err := e.github.GetRepo(ctx, owner, repo)
		if err != nil {
			slog.Warn("github lookup failed", "slug", tool.Slug, "repo", owner+"/"+repo, "error", err)
		} else {
			r.GitHub = gh
		}
	}

	pkg := NpmPackageFromInstall(tool.InstallCommand)
	if pkg == "" && tool.Category == model.CategoryNpmPackage {
		pkg = tool.Slug
	}
	if pkg != "" {
		nd, err := e.npm.GetPackage(ctx, pkg)
		if err != nil {
			slog.Warn("npm lookup failed", "slug", tool.Slug, "package", pkg, "error", err)
		} else {
			r.Npm = nd
		}
	}
}

// ParseRepoURL extracts the owner and repository from a github.com URL,
// tolerating .git suffixes and deep links like /tree/main.
func ParseRepoURL(rawURL string) (owner, repo string, ok bool) {
	if rawURL == "" {
		return "", "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	if u.Host != "github.com" && !strings.HasSuffix(u.Host, ".github.com") {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}

var installRunners = map[string]bool{
	"npm":  true,
	"npx":  true,
	"pnpm": true,
	"yarn": true,
	"bun":  true,
	"bunx": true,
}

var installVerbs = map[string]bool{
	"install": true,
	"i":       true,
	"add":     true,
	"exec":    true,
	"global":  true,
}

// NpmPackageFromInstall guesses the package argument of an npm-style
// install command. Non-npm commands (pip, go install, cargo) yield "".
func NpmPackageFromInstall(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 || !installRunners[fields[0]] {
		return ""
	}
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "-") || installVerbs[f] {
			continue
		}
		return trimVersionSuffix(f)
	}
	return ""
}

// trimVersionSuffix drops a trailing @version while keeping scoped package
// prefixes like @scope/name intact.
func trimVersionSuffix(pkg string) string {
	if i := strings.LastIndex(pkg, "@"); i > 0 {
		return pkg[:i]
	}
	return pkg
}
