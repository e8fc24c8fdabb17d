package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"toolscout/model"
)

const githubBaseURL = "https://api.github.com"

// GitHubClient fetches repository metadata for enrichment.
type GitHubClient interface {
	GetRepo(ctx context.Context, owner, repo string) (*model.GitHubData, error)
}

type githubClient struct {
	client  *http.Client
	token   string
	baseURL string
}

// NewGitHubClient creates a GitHub REST client. The token is optional;
// without it requests run against the anonymous rate limit.
func NewGitHubClient(client *http.Client, token string) GitHubClient {
	return NewGitHubClientWithBaseURL(client, token, githubBaseURL)
}

// NewGitHubClientWithBaseURL creates a GitHub client with a custom base URL (for testing).
func NewGitHubClientWithBaseURL(client *http.Client, token, baseURL string) GitHubClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &githubClient{
		client:  client,
		token:   token,
		baseURL: baseURL,
	}
}

type repoResponse struct {
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	PushedAt        time.Time `json:"pushed_at"`
	CreatedAt       time.Time `json:"created_at"`
	Language        string    `json:"language"`
	License         *struct {
		SpdxID string `json:"spdx_id"`
		Name   string `json:"name"`
	} `json:"license"`
}

type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// GetRepo fetches repository metadata plus a root listing for the test and
// CI flags. A failed listing leaves both flags false; it never fails the
// whole lookup.
func (c *githubClient) GetRepo(ctx context.Context, owner, repo string) (*model.GitHubData, error) {
	full := owner + "/" + repo

	var raw repoResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo), "repo "+full, &raw); err != nil {
		return nil, err
	}

	data := &model.GitHubData{
		Stars:          raw.StargazersCount,
		Forks:          raw.ForksCount,
		OpenIssues:     raw.OpenIssuesCount,
		LastCommitDate: raw.PushedAt,
		CreatedAt:      raw.CreatedAt,
		Language:       raw.Language,
	}
	if raw.License != nil {
		data.License = raw.License.SpdxID
		if data.License == "" {
			data.License = raw.License.Name
		}
	}

	var entries []contentEntry
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s/contents", c.baseURL, owner, repo), "contents of "+full, &entries); err == nil {
		data.HasTests, data.HasCI = scanContents(entries)
	}

	return data, nil
}

func (c *githubClient) getJSON(ctx context.Context, url, label string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", label, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s not found", label)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", label, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", label, err)
	}
	return nil
}

var testDirNames = map[string]bool{
	"test":      true,
	"tests":     true,
	"__tests__": true,
	"spec":      true,
}

var ciEntryNames = map[string]bool{
	".circleci":           true,
	".travis.yml":         true,
	".gitlab-ci.yml":      true,
	"jenkinsfile":         true,
	"azure-pipelines.yml": true,
}

// scanContents derives the test and CI flags from a repository's root
// listing. A .github directory counts as CI since workflows live under it.
func scanContents(entries []contentEntry) (hasTests, hasCI bool) {
	for _, e := range entries {
		name := strings.ToLower(e.Name)
		if e.Type == "dir" && testDirNames[name] {
			hasTests = true
		}
		if strings.HasSuffix(name, "_test.go") {
			hasTests = true
		}
		if e.Type == "dir" && name == ".github" {
			hasCI = true
		}
		if ciEntryNames[name] {
			hasCI = true
		}
	}
	return hasTests, hasCI
}
