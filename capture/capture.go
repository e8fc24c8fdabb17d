// Package capture obtains raw digest markdown from a file, a reader, or a
// published URL. Input is capped at 64KiB; anything past the cap is dropped.
package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const maxDigestBytes = 64 * 1024

// Capturer fetches digest text from a URL, extracting readable text from
// the surrounding page chrome.
type Capturer interface {
	FromURL(ctx context.Context, url string) (string, error)
}

type httpCapturer struct {
	client *http.Client
}

// NewCapturer creates a Capturer with the given timeout for HTTP requests.
func NewCapturer(timeout time.Duration) Capturer {
	return &httpCapturer{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewCapturerWithClient creates a Capturer with a custom HTTP client (for testing).
func NewCapturerWithClient(client *http.Client) Capturer {
	return &httpCapturer{
		client: client,
	}
}

// FromURL fetches the given URL and extracts its readable text content.
func (c *httpCapturer) FromURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating capture request for %s: %w", url, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("capturing %s returned status %d", url, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		return "", fmt.Errorf("extracting content from %s: %w", url, err)
	}

	content := article.TextContent
	if len(content) > maxDigestBytes {
		content = content[:maxDigestBytes]
	}

	return content, nil
}

// FromFile reads digest markdown from disk.
func FromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening digest %s: %w", path, err)
	}
	defer f.Close()

	return FromReader(f)
}

// FromReader reads digest markdown from r up to the 64KiB cap.
func FromReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDigestBytes))
	if err != nil {
		return "", fmt.Errorf("reading digest: %w", err)
	}
	return string(data), nil
}
