package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func setupGitHubServer(t *testing.T, token string, handler http.HandlerFunc) GitHubClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGitHubClientWithBaseURL(server.Client(), token, server.URL)
}

const repoJSON = `{
	"stargazers_count": 15000,
	"forks_count": 1200,
	"open_issues_count": 310,
	"pushed_at": "2026-03-10T12:00:00Z",
	"created_at": "2023-05-01T08:30:00Z",
	"language": "Python",
	"license": {"spdx_id": "Apache-2.0", "name": "Apache License 2.0"}
}`

const contentsJSON = `[
	{"name": "tests", "type": "dir"},
	{"name": ".github", "type": "dir"},
	{"name": "README.md", "type": "file"}
]`

func TestGetRepo_Success(t *testing.T) {
	client := setupGitHubServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/paul-gauthier/aider":
			w.Write([]byte(repoJSON))
		case "/repos/paul-gauthier/aider/contents":
			w.Write([]byte(contentsJSON))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	data, err := client.GetRepo(context.Background(), "paul-gauthier", "aider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Stars != 15000 {
		t.Errorf("expected 15000 stars, got %d", data.Stars)
	}
	if data.Forks != 1200 {
		t.Errorf("expected 1200 forks, got %d", data.Forks)
	}
	if data.OpenIssues != 310 {
		t.Errorf("expected 310 open issues, got %d", data.OpenIssues)
	}
	wantPushed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !data.LastCommitDate.Equal(wantPushed) {
		t.Errorf("expected last commit %v, got %v", wantPushed, data.LastCommitDate)
	}
	if data.Language != "Python" {
		t.Errorf("expected language Python, got %q", data.Language)
	}
	if data.License != "Apache-2.0" {
		t.Errorf("expected license Apache-2.0, got %q", data.License)
	}
	if !data.HasTests {
		t.Error("expected hasTests from tests dir")
	}
	if !data.HasCI {
		t.Error("expected hasCI from .github dir")
	}
}

func TestGetRepo_NotFound(t *testing.T) {
	client := setupGitHubServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetRepo(context.Background(), "nobody", "nothing")
	if err == nil {
		t.Fatal("expected error for missing repo")
	}
}

func TestGetRepo_SendsAuthHeader(t *testing.T) {
	client := setupGitHubServer(t, "tok123", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("expected bearer token header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/repos/a/b" {
			w.Write([]byte(`{"stargazers_count": 1}`))
			return
		}
		w.Write([]byte(`[]`))
	})

	if _, err := client.GetRepo(context.Background(), "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetRepo_ContentsFailureDegrades(t *testing.T) {
	client := setupGitHubServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/a/b" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"stargazers_count": 5}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	data, err := client.GetRepo(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("expected repo data despite contents failure, got %v", err)
	}
	if data.Stars != 5 {
		t.Errorf("expected 5 stars, got %d", data.Stars)
	}
	if data.HasTests || data.HasCI {
		t.Errorf("expected flags false on contents failure, got tests=%v ci=%v", data.HasTests, data.HasCI)
	}
}

func TestGetRepo_InvalidJSON(t *testing.T) {
	client := setupGitHubServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.GetRepo(context.Background(), "a", "b")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestScanContents(t *testing.T) {
	tests := []struct {
		name      string
		entries   []contentEntry
		wantTests bool
		wantCI    bool
	}{
		{"spec dir", []contentEntry{{Name: "spec", Type: "dir"}}, true, false},
		{"tests file does not count", []contentEntry{{Name: "tests", Type: "file"}}, false, false},
		{"root test file", []contentEntry{{Name: "main_test.go", Type: "file"}}, true, false},
		{"travis file", []contentEntry{{Name: ".travis.yml", Type: "file"}}, false, true},
		{"jenkinsfile case insensitive", []contentEntry{{Name: "Jenkinsfile", Type: "file"}}, false, true},
		{"empty", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTests, gotCI := scanContents(tt.entries)
			if gotTests != tt.wantTests || gotCI != tt.wantCI {
				t.Errorf("scanContents() = (%v, %v), want (%v, %v)", gotTests, gotCI, tt.wantTests, tt.wantCI)
			}
		})
	}
}
