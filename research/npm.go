package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"toolscout/model"
)

const (
	npmRegistryBaseURL  = "https://registry.npmjs.org"
	npmDownloadsBaseURL = "https://api.npmjs.org"
)

// NpmClient fetches package metadata for enrichment.
type NpmClient interface {
	GetPackage(ctx context.Context, name string) (*model.NpmData, error)
}

type npmClient struct {
	client       *http.Client
	registryURL  string
	downloadsURL string
}

// NewNpmClient creates a client against the public npm registry.
func NewNpmClient(client *http.Client) NpmClient {
	return NewNpmClientWithBaseURLs(client, npmRegistryBaseURL, npmDownloadsBaseURL)
}

// NewNpmClientWithBaseURLs creates an npm client with custom registry and
// downloads endpoints (for testing).
func NewNpmClientWithBaseURLs(client *http.Client, registryURL, downloadsURL string) NpmClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &npmClient{
		client:       client,
		registryURL:  registryURL,
		downloadsURL: downloadsURL,
	}
}

type packageResponse struct {
	DistTags map[string]string `json:"dist-tags"`
	Time     map[string]string `json:"time"`
	Versions map[string]struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	} `json:"versions"`
}

type downloadsResponse struct {
	Downloads int `json:"downloads"`
}

// GetPackage fetches registry metadata for a package plus its last-week
// download count. A failed downloads lookup leaves the count at zero.
func (c *npmClient) GetPackage(ctx context.Context, name string) (*model.NpmData, error) {
	var raw packageResponse
	regURL := fmt.Sprintf("%s/%s", c.registryURL, url.PathEscape(name))
	if err := c.getJSON(ctx, regURL, "package "+name, &raw); err != nil {
		return nil, err
	}

	data := &model.NpmData{PackageName: name}
	latest := raw.DistTags["latest"]
	data.Version = latest
	if v, ok := raw.Versions[latest]; ok {
		data.Dependencies = v.Dependencies
		data.DevDependencies = v.DevDependencies
	}

	ts := raw.Time[latest]
	if ts == "" {
		ts = raw.Time["modified"]
	}
	if ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			data.LastPublished = t
		}
	}

	var dl downloadsResponse
	dlURL := fmt.Sprintf("%s/downloads/point/last-week/%s", c.downloadsURL, name)
	if err := c.getJSON(ctx, dlURL, "downloads for "+name, &dl); err == nil {
		data.WeeklyDownloads = dl.Downloads
	}

	return data, nil
}

func (c *npmClient) getJSON(ctx context.Context, rawURL, label string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", label, err)
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
